package model

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// BlockTemplate is everything needed to mine one candidate block.
type BlockTemplate struct {
	Version           uint32
	PreviousHash      *chainhash.Hash
	Bits              NBit
	Time              uint32
	Height            uint64
	Coinbase          *CoinbaseTransaction
	CoinbaseTxID      *chainhash.Hash
	Selection         *SelectionResult
	WitnessCommitment *chainhash.Hash
	MerkleRoot        *chainhash.Hash
	MerkleProof       []*chainhash.Hash
}

// TxIDs returns the coinbase id followed by the selected transaction ids, in block order.
func (tmpl *BlockTemplate) TxIDs() []*chainhash.Hash {
	ids := make([]*chainhash.Hash, 0, 1+len(tmpl.Selection.Transactions))
	ids = append(ids, tmpl.CoinbaseTxID)
	ids = append(ids, tmpl.Selection.TxIDs()...)

	return ids
}

func (tmpl *BlockTemplate) Stringify() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Block Template (%d transactions)\n\t", 1+len(tmpl.Selection.Transactions)))
	sb.WriteString(fmt.Sprintf("Previous hash:  %s\n\t", tmpl.PreviousHash))
	sb.WriteString(fmt.Sprintf("Merkle root:    %s\n\t", tmpl.MerkleRoot))
	sb.WriteString(fmt.Sprintf("Coinbase txid:  %s\n\t", tmpl.CoinbaseTxID))
	sb.WriteString(fmt.Sprintf("Coinbase value: %d\n\t", tmpl.Coinbase.Value))
	sb.WriteString(fmt.Sprintf("Total weight:   %d\n\t", tmpl.Selection.TotalWeight))
	sb.WriteString(fmt.Sprintf("Total fees:     %d\n\t", tmpl.Selection.TotalFees))
	sb.WriteString(fmt.Sprintf("Version:        %d\n\t", tmpl.Version))
	sb.WriteString(fmt.Sprintf("Bits:           %s\n\t", tmpl.Bits))
	sb.WriteString(fmt.Sprintf("Time:           %d\n\t", tmpl.Time))
	sb.WriteString(fmt.Sprintf("Height:         %d\n", tmpl.Height))

	return sb.String()
}

// MiningResult is the outcome of a successful nonce search.
type MiningResult struct {
	Header   []byte
	Nonce    uint32
	Hash     *chainhash.Hash
	Attempts uint64
}
