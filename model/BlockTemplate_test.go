package model

import (
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRecord(t *testing.T) {
	txID := chainhash.Hash{0x01}
	wtxID := chainhash.Hash{0x02}

	record := &TransactionRecord{TxID: &txID, Weight: 400, Fee: 100}
	assert.InDelta(t, 0.25, record.FeeRate(), 1e-12)
	assert.Equal(t, &txID, record.WitnessHash())

	record.WTxID = &wtxID
	assert.Equal(t, &wtxID, record.WitnessHash())

	record.Weight = 0
	assert.Zero(t, record.FeeRate())
}

func TestBlockTemplate(t *testing.T) {
	cb := testCoinbase(t)

	txA := &TransactionRecord{TxID: &chainhash.Hash{0xaa}, Weight: 100, Fee: 10}
	txB := &TransactionRecord{TxID: &chainhash.Hash{0xbb}, WTxID: &chainhash.Hash{0xbc}, Weight: 200, Fee: 30}

	bits, err := NewNBitFromString("1f00ffff")
	require.NoError(t, err)

	tmpl := &BlockTemplate{
		Version:      4,
		PreviousHash: &chainhash.Hash{},
		Bits:         *bits,
		Time:         1700000000,
		Height:       835000,
		Coinbase:     cb,
		CoinbaseTxID: cb.TxID(false),
		Selection: &SelectionResult{
			Transactions: []*TransactionRecord{txB, txA},
			TotalWeight:  300,
			TotalFees:    40,
		},
		MerkleRoot: &chainhash.Hash{0x0f},
	}

	ids := tmpl.TxIDs()
	require.Len(t, ids, 3)
	assert.Equal(t, cb.TxID(false), ids[0])
	assert.Equal(t, txB.TxID, ids[1])
	assert.Equal(t, txA.TxID, ids[2])

	assert.Equal(t, []*chainhash.Hash{txB.WTxID, txA.TxID}, tmpl.Selection.WTxIDs())

	s := tmpl.Stringify()
	assert.True(t, strings.HasPrefix(s, "Block Template (3 transactions)"))
	assert.Contains(t, s, "1f00ffff")
}
