package util

import (
	"math/big"
)

var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

// CalculateWork returns the expected number of hashes needed to find one below target,
// 2^256 / (target + 1).
func CalculateWork(target *big.Int) *big.Int {
	if target.Sign() < 0 {
		return new(big.Int).Set(twoTo256)
	}

	return new(big.Int).Div(twoTo256, new(big.Int).Add(target, big.NewInt(1)))
}
