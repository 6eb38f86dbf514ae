package util

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// BuildMerkleRootFromCoinbase builds the merkle root of the block from the coinbase transaction hash
// and the merkle branches needed to work up the merkle tree. Both the input hash and the returned root
// are in internal byte order.
func BuildMerkleRootFromCoinbase(coinbaseHash *chainhash.Hash, merkleBranches []*chainhash.Hash) *chainhash.Hash {
	acc := *coinbaseHash

	var concat [chainhash.HashSize * 2]byte

	for _, branch := range merkleBranches {
		copy(concat[:chainhash.HashSize], acc[:])
		copy(concat[chainhash.HashSize:], branch[:])
		acc = chainhash.DoubleHashH(concat[:])
	}

	return &acc
}
