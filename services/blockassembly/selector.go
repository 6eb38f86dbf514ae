package blockassembly

import (
	"math/bits"

	"github.com/nilaychugh/summer-of-bitcoin/model"
	"golang.org/x/exp/slices"
)

// SelectTransactions picks transactions greedily by fee rate until the block weight budget, which is
// maxWeight minus the weight reserved for the coinbase, is used up. Transactions with zero weight are
// never selected. Ties keep pool order. A transaction that does not fit is skipped and the scan
// continues, so a smaller, lower paying transaction further down may still be included.
func SelectTransactions(pool []*model.TransactionRecord, maxWeight, reservedWeight uint64) *model.SelectionResult {
	result := &model.SelectionResult{
		Transactions: make([]*model.TransactionRecord, 0),
	}

	if reservedWeight >= maxWeight {
		return result
	}

	budget := maxWeight - reservedWeight

	candidates := make([]*model.TransactionRecord, 0, len(pool))

	for _, tx := range pool {
		if tx == nil || tx.Weight == 0 {
			continue
		}

		candidates = append(candidates, tx)
	}

	slices.SortStableFunc(candidates, compareFeeRate)

	for _, tx := range candidates {
		if tx.Weight > budget-result.TotalWeight {
			continue
		}

		result.Transactions = append(result.Transactions, tx)
		result.TotalWeight += tx.Weight
		result.TotalFees += tx.Fee
	}

	return result
}

// compareFeeRate orders higher fee rates first.
func compareFeeRate(a, b *model.TransactionRecord) int {
	switch {
	case feeRateGreater(a, b):
		return -1
	case feeRateGreater(b, a):
		return 1
	default:
		return 0
	}
}

// feeRateGreater reports a.Fee/a.Weight > b.Fee/b.Weight, compared exactly on 128 bit products.
func feeRateGreater(a, b *model.TransactionRecord) bool {
	aHi, aLo := bits.Mul64(a.Fee, b.Weight)
	bHi, bLo := bits.Mul64(b.Fee, a.Weight)

	if aHi != bHi {
		return aHi > bHi
	}

	return aLo > bLo
}
