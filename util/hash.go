package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"golang.org/x/crypto/ripemd160" //nolint:gosec // ripemd160 is part of the bitcoin hash160
)

// Sha256d returns sha256(sha256(b)).
func Sha256d(b []byte) []byte {
	return chainhash.DoubleHashB(b)
}

// Sha256dFromHex decodes s and returns its double sha256.
func Sha256dFromHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid hex input", err)
	}

	return Sha256d(b), nil
}

// Hash160 returns ripemd160(sha256(b)), the key hash of a P2PKH output.
func Hash160(b []byte) []byte {
	sha256Hash := sha256.Sum256(b)

	ripemd160Hasher := ripemd160.New() //nolint:gosec // ripemd160 is part of the bitcoin hash160
	ripemd160Hasher.Write(sha256Hash[:])

	return ripemd160Hasher.Sum(nil)
}

// NewHashFromDisplayHex parses a 64 character hex string in display (big-endian) order.
func NewHashFromDisplayHex(s string) (*chainhash.Hash, error) {
	if len(s) != chainhash.HashSize*2 {
		return nil, errors.NewDecodeError("hash %q must be %d hex characters", s, chainhash.HashSize*2)
	}

	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid hash %q", s, err)
	}

	return h, nil
}
