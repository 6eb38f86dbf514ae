package util

import (
	"github.com/bsv-blockchain/go-chaincfg"
)

// initialSubsidy is 50 BTC in satoshis.
const initialSubsidy uint64 = 50 * 100_000_000

// GetBlockSubsidyForHeight returns the block subsidy at height, halving every SubsidyReductionInterval
// blocks. Missing or zero-interval params yield 0.
func GetBlockSubsidyForHeight(height uint64, params *chaincfg.Params) uint64 {
	if params == nil || params.SubsidyReductionInterval <= 0 {
		return 0
	}

	halvings := height / uint64(params.SubsidyReductionInterval)
	if halvings >= 64 {
		return 0
	}

	return initialSubsidy >> halvings
}
