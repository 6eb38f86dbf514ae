package util

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
)

// BuildMerkleRoot computes the merkle root of txids. Each chainhash.Hash already holds its id in
// internal byte order, so the returned root can be copied straight into a block header.
// When a level has an odd number of nodes the last one is paired with itself.
func BuildMerkleRoot(txids []*chainhash.Hash) (*chainhash.Hash, error) {
	if len(txids) == 0 {
		return nil, errors.NewEmptyInputError("cannot build a merkle root from zero transaction ids")
	}

	level := make([]chainhash.Hash, len(txids))
	for i, txid := range txids {
		if txid == nil {
			return nil, errors.NewInvalidArgumentError("transaction id at index %d is nil", i)
		}

		level[i] = *txid
	}

	var pair [chainhash.HashSize * 2]byte

	for len(level) > 1 {
		next := make([]chainhash.Hash, 0, (len(level)+1)/2)

		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}

			copy(pair[:chainhash.HashSize], level[i][:])
			copy(pair[chainhash.HashSize:], level[right][:])

			next = append(next, chainhash.DoubleHashH(pair[:]))
		}

		level = next
	}

	root := level[0]

	return &root, nil
}

// BuildMerkleRootFromHex parses display-order txid strings and builds their merkle root.
func BuildMerkleRootFromHex(txids []string) (*chainhash.Hash, error) {
	if len(txids) == 0 {
		return nil, errors.NewEmptyInputError("cannot build a merkle root from zero transaction ids")
	}

	hashes := make([]*chainhash.Hash, len(txids))

	for i, txid := range txids {
		h, err := NewHashFromDisplayHex(txid)
		if err != nil {
			return nil, err
		}

		hashes[i] = h
	}

	return BuildMerkleRoot(hashes)
}

// BuildMerkleBranches returns the merkle proof for the first leaf (the coinbase): the sibling at every
// level from the leaves up to, but excluding, the root.
func BuildMerkleBranches(txids []*chainhash.Hash) ([]*chainhash.Hash, error) {
	if len(txids) == 0 {
		return nil, errors.NewEmptyInputError("cannot build merkle branches from zero transaction ids")
	}

	level := make([]chainhash.Hash, len(txids))
	for i, txid := range txids {
		if txid == nil {
			return nil, errors.NewInvalidArgumentError("transaction id at index %d is nil", i)
		}

		level[i] = *txid
	}

	branches := make([]*chainhash.Hash, 0)

	var pair [chainhash.HashSize * 2]byte

	for len(level) > 1 {
		sibling := level[1]
		branches = append(branches, &sibling)

		next := make([]chainhash.Hash, 0, (len(level)+1)/2)

		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}

			copy(pair[:chainhash.HashSize], level[i][:])
			copy(pair[chainhash.HashSize:], level[right][:])

			next = append(next, chainhash.DoubleHashH(pair[:]))
		}

		level = next
	}

	return branches, nil
}
