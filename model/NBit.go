package model

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
)

// NBit is the compact difficulty field of a block header, stored in header (little-endian) byte order.
type NBit [4]byte

// maxTargetBits is the difficulty 1 target used to express a target as a difficulty.
const maxTargetBits = 0x1d00ffff

// NewNBitFromString parses the usual big-endian hex rendering, e.g. "1f00ffff".
func NewNBitFromString(s string) (*NBit, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid nBits hex %q", s, err)
	}

	if len(b) != 4 {
		return nil, errors.NewDecodeError("nBits %q must be 4 bytes", s)
	}

	var nBit NBit
	copy(nBit[:], bt.ReverseBytes(b))

	return &nBit, nil
}

// NewNBitFromSlice takes the 4 bytes exactly as they appear in a serialized header.
func NewNBitFromSlice(b []byte) (*NBit, error) {
	if len(b) != 4 {
		return nil, errors.NewDecodeError("nBits must be 4 bytes, got %d", len(b))
	}

	var nBit NBit
	copy(nBit[:], b)

	return &nBit, nil
}

func NewNBitFromUint32(compact uint32) NBit {
	var nBit NBit
	binary.LittleEndian.PutUint32(nBit[:], compact)

	return nBit
}

func (b NBit) Uint32() uint32 {
	return binary.LittleEndian.Uint32(b[:])
}

func (b NBit) String() string {
	return hex.EncodeToString(bt.ReverseBytes(b[:]))
}

func (b NBit) CloneBytes() []byte {
	out := make([]byte, 4)
	copy(out, b[:])

	return out
}

// CalculateTarget expands the compact bits into the full 256-bit target.
func (b NBit) CalculateTarget() *big.Int {
	return CompactToBig(b.Uint32())
}

// CalculateDifficulty returns the difficulty relative to the difficulty 1 target.
func (b NBit) CalculateDifficulty() *big.Float {
	target := b.CalculateTarget()
	if target.Sign() <= 0 {
		return big.NewFloat(0)
	}

	maxTarget := new(big.Float).SetInt(CompactToBig(maxTargetBits))

	return new(big.Float).Quo(maxTarget, new(big.Float).SetInt(target))
}

// CompactToBig converts a compact representation of a whole number N to a big integer.
// The representation is similar to IEEE754 floating point numbers:
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
// N = (-1^sign) * mantissa * 256^(exponent-3)
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation using an unsigned 32-bit number.
// The compact representation only provides 23 bits of precision, so values larger than (2^23 - 1) only
// encode the most significant digits of the number.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32

	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// When the mantissa already has the sign bit set, the number is too large to fit into the
	// available 23-bits, so divide the number by 256 and increment the exponent accordingly.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	//nolint:gosec // exponent is at most 33 for a 256-bit target
	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}

	return compact
}

// NewTargetFromString parses a 256-bit target given as 64 big-endian hex characters.
func NewTargetFromString(s string) (*big.Int, error) {
	if len(s) != 64 {
		return nil, errors.NewDecodeError("target %q must be 64 hex characters", s)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid target hex %q", s, err)
	}

	return new(big.Int).SetBytes(b), nil
}
