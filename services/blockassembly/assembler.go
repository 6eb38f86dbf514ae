package blockassembly

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/util"
)

// CoinbaseOptions carries the configured parts of a coinbase that do not depend on the selection.
type CoinbaseOptions struct {
	Tag   string
	Value uint64
	// PayoutScript nil pays to a random key hash.
	PayoutScript         []byte
	WitnessReservedValue []byte
}

// BuildCoinbase creates the segwit coinbase for a block at height committing to witnessCommitment.
func BuildCoinbase(height uint64, witnessCommitment []byte, opts CoinbaseOptions) (*model.CoinbaseTransaction, error) {
	return model.NewCoinbaseTransaction(
		height,
		opts.Tag,
		opts.Value,
		opts.PayoutScript,
		witnessCommitment,
		opts.WitnessReservedValue,
	)
}

// BuildHeader serializes a block header. prevHash is given in display order.
func BuildHeader(version uint32, prevHash string, merkleRoot *chainhash.Hash, timestamp uint32, bits model.NBit, nonce uint32) ([]byte, error) {
	hashPrevBlock, err := util.NewHashFromDisplayHex(prevHash)
	if err != nil {
		return nil, err
	}

	if merkleRoot == nil {
		return nil, errors.NewInvalidArgumentError("merkle root is nil")
	}

	header := &model.BlockHeader{
		Version:        version,
		HashPrevBlock:  hashPrevBlock,
		HashMerkleRoot: merkleRoot,
		Timestamp:      timestamp,
		Bits:           bits,
		Nonce:          nonce,
	}

	return header.Bytes(), nil
}

// BuildTemplateHeader serializes the header of tmpl with the given nonce.
func BuildTemplateHeader(tmpl *model.BlockTemplate, nonce uint32) ([]byte, error) {
	if tmpl.PreviousHash == nil {
		return nil, errors.NewInvalidArgumentError("block template has no previous hash")
	}

	return BuildHeader(tmpl.Version, tmpl.PreviousHash.String(), tmpl.MerkleRoot, tmpl.Time, tmpl.Bits, nonce)
}

// WitnessCommitment computes sha256d(merkle root of wtxids || reserved value). wtxids are taken as
// given, so the first entry must already be the coinbase placeholder.
func WitnessCommitment(wtxids []*chainhash.Hash, witnessReservedValue []byte) (*chainhash.Hash, error) {
	if len(witnessReservedValue) != chainhash.HashSize {
		return nil, errors.NewInvalidArgumentError("witness reserved value must be %d bytes, got %d", chainhash.HashSize, len(witnessReservedValue))
	}

	root, err := util.BuildMerkleRoot(wtxids)
	if err != nil {
		return nil, err
	}

	preimage := make([]byte, 0, chainhash.HashSize*2)
	preimage = append(preimage, root[:]...)
	preimage = append(preimage, witnessReservedValue...)

	return chainhash.NewHash(util.Sha256d(preimage))
}

// blockWTxIDs returns the witness ids in block order, the coinbase placeholder first.
func blockWTxIDs(selection *model.SelectionResult) []*chainhash.Hash {
	placeholder := model.CoinbaseWitnessPlaceholder

	return append([]*chainhash.Hash{&placeholder}, selection.WTxIDs()...)
}
