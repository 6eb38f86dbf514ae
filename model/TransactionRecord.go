package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// TransactionRecord is a candidate mempool transaction as read from the input store.
type TransactionRecord struct {
	TxID *chainhash.Hash
	// WTxID is the witness hash when the record carries one.
	WTxID  *chainhash.Hash
	Hex    string
	Weight uint64
	Fee    uint64
}

// FeeRate is fee per weight unit. Only meaningful for Weight > 0.
func (r *TransactionRecord) FeeRate() float64 {
	if r.Weight == 0 {
		return 0
	}

	return float64(r.Fee) / float64(r.Weight)
}

// WitnessHash is the id committed to by the witness commitment.
func (r *TransactionRecord) WitnessHash() *chainhash.Hash {
	if r.WTxID != nil {
		return r.WTxID
	}

	return r.TxID
}

// SelectionResult is the ordered output of the transaction selector.
type SelectionResult struct {
	Transactions []*TransactionRecord
	TotalWeight  uint64
	TotalFees    uint64
}

func (s *SelectionResult) TxIDs() []*chainhash.Hash {
	out := make([]*chainhash.Hash, len(s.Transactions))
	for i, tx := range s.Transactions {
		out[i] = tx.TxID
	}

	return out
}

func (s *SelectionResult) WTxIDs() []*chainhash.Hash {
	out := make([]*chainhash.Hash, len(s.Transactions))
	for i, tx := range s.Transactions {
		out[i] = tx.WitnessHash()
	}

	return out
}
