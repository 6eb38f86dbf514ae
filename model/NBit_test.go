package model

import (
	"math/big"
	"testing"

	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The expected difficulty is the difficulty 1 target divided by the target of the bits.
func TestNBit(t *testing.T) {
	bits, err := NewNBitFromString("1e0cbb05")
	require.NoError(t, err)
	require.Equal(t, "1e0cbb05", bits.String())
	difficulty := bits.CalculateDifficulty()
	require.Equal(t, "0.0003068360688", difficulty.String())

	target := bits.CalculateTarget()
	require.Equal(t, "87862992749702277876753291758735394717545048148536728461472937357082624", target.String())
}

func TestCalculateTarget(t *testing.T) {
	bits, err := NewNBitFromString("180f7f7d") // block #869334
	require.NoError(t, err)

	difficulty, _ := bits.CalculateDifficulty().Float32()
	expectedDifficulty, _ := big.NewFloat(70944300723.85233).Float32()
	require.Equal(t, expectedDifficulty, difficulty)

	target := bits.CalculateTarget()
	require.Equal(t, "380009881215830907712605183958726704270100120947772096512", target.String())
}

func TestNBitSimulatorTarget(t *testing.T) {
	bits, err := NewNBitFromString("1f00ffff")
	require.NoError(t, err)

	expected, ok := new(big.Int).SetString("0000ffff00000000000000000000000000000000000000000000000000000000", 16)
	require.True(t, ok)

	assert.Equal(t, 0, expected.Cmp(bits.CalculateTarget()))
	assert.Equal(t, uint32(0x1f00ffff), bits.Uint32())
	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x1f}, bits.CloneBytes())
	assert.Equal(t, uint32(0x1f00ffff), BigToCompact(expected))
}

func TestNBitConstructors(t *testing.T) {
	fromSlice, err := NewNBitFromSlice([]byte{0xff, 0xff, 0x7f, 0x20})
	require.NoError(t, err)
	assert.Equal(t, "207fffff", fromSlice.String())
	assert.Equal(t, *fromSlice, NewNBitFromUint32(0x207fffff))

	_, err = NewNBitFromSlice([]byte{0x01})
	assert.True(t, errors.Is(err, errors.ErrDecode))

	_, err = NewNBitFromString("1f00ff")
	assert.True(t, errors.Is(err, errors.ErrDecode))

	_, err = NewNBitFromString("zzzzzzzz")
	assert.True(t, errors.Is(err, errors.ErrDecode))
}

func TestCompactRoundTrip(t *testing.T) {
	for _, compact := range []uint32{0x1d00ffff, 0x207fffff, 0x1f00ffff, 0x180f7f7d, 0x03123456} {
		assert.Equal(t, compact, BigToCompact(CompactToBig(compact)), "%08x", compact)
	}

	assert.Equal(t, uint32(0), BigToCompact(big.NewInt(0)))
	assert.Equal(t, 0, CompactToBig(0).Sign())
	assert.Equal(t, -1, CompactToBig(0x04923456).Sign())
}

func TestNewTargetFromString(t *testing.T) {
	target, err := NewTargetFromString("0000ffff00000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, 0, target.Cmp(new(big.Int).Lsh(big.NewInt(0xffff), 224)))

	_, err = NewTargetFromString("0000ffff")
	assert.True(t, errors.Is(err, errors.ErrDecode))

	_, err = NewTargetFromString("zz00ffff00000000000000000000000000000000000000000000000000000000")
	assert.True(t, errors.Is(err, errors.ErrDecode))
}
