package mining

import (
	"bytes"
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/settings"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader(t *testing.T) *model.BlockHeader {
	t.Helper()

	bits, err := model.NewNBitFromString("1f00ffff")
	require.NoError(t, err)

	return &model.BlockHeader{
		Version:        4,
		HashPrevBlock:  &chainhash.Hash{},
		HashMerkleRoot: &chainhash.Hash{0xde, 0xad, 0xbe, 0xef},
		Timestamp:      1713000000,
		Bits:           *bits,
		Nonce:          0xffffffff,
	}
}

func maxTarget() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestSearcherMaxTarget(t *testing.T) {
	header := testHeader(t)

	s, err := NewSearcher(&ulogger.TestLogger{}, header.Bytes(), maxTarget())
	require.NoError(t, err)

	result, err := s.Search(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Found, s.State())
	assert.Equal(t, uint32(0), result.Nonce)
	assert.Equal(t, uint64(1), result.Attempts)

	header.Nonce = 0
	assert.Equal(t, header.Bytes(), result.Header)
	assert.Equal(t, header.Hash(), result.Hash)
}

func TestSearcherZeroTargetExhausts(t *testing.T) {
	s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(0), WithNonceLimit(1000))
	require.NoError(t, err)

	result, err := s.Search(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	assert.True(t, errors.Is(err, errors.ErrSearchExhausted))
	assert.Equal(t, Exhausted, s.State())
	assert.Equal(t, uint64(1000), s.Attempts())
}

func TestSearcherProductionBound(t *testing.T) {
	s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(0))
	require.NoError(t, err)

	assert.Equal(t, uint64(math.MaxUint32), s.nonceLimit)
	assert.Equal(t, Searching, s.State())
}

func TestSearcherInvalidHeader(t *testing.T) {
	_, err := NewSearcher(&ulogger.TestLogger{}, make([]byte, 79), maxTarget())
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestSearcherInvalidTarget(t *testing.T) {
	_, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(-1))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), new(big.Int).Lsh(big.NewInt(1), 256))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestSearcherWorkersFindLowestNonce(t *testing.T) {
	// roughly one hash in 256 qualifies
	target := new(big.Int).Lsh(big.NewInt(1), 248)

	sequential, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), target, WithNonceLimit(200_000))
	require.NoError(t, err)

	expected, err := sequential.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(expected.Nonce)+1, expected.Attempts)
	assert.Negative(t, model.HashToBig(expected.Hash).Cmp(target))

	for _, workers := range []int{2, 3, 4, 7, 16} {
		s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), target, WithNonceLimit(200_000), WithWorkers(workers))
		require.NoError(t, err)

		result, err := s.Search(context.Background())
		require.NoError(t, err, "workers=%d", workers)

		assert.Equal(t, expected.Nonce, result.Nonce, "workers=%d", workers)
		assert.Equal(t, expected.Header, result.Header, "workers=%d", workers)
		assert.Equal(t, expected.Hash, result.Hash, "workers=%d", workers)
	}
}

func TestSearcherWorkersExhaust(t *testing.T) {
	s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(0), WithNonceLimit(50_001), WithWorkers(4))
	require.NoError(t, err)

	_, err = s.Search(context.Background())
	assert.True(t, errors.Is(err, errors.ErrSearchExhausted))
	assert.Equal(t, uint64(50_001), s.Attempts())
}

func TestSearcherCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(0), WithWorkers(workers))
		require.NoError(t, err)

		_, err = s.Search(ctx)
		assert.True(t, errors.Is(err, errors.ErrContextCanceled))
		assert.Equal(t, Cancelled, s.State())
	}
}

func TestSearcherProgressLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("test", ulogger.WithWriter(&buf))

	s, err := NewSearcher(logger, testHeader(t).Bytes(), big.NewInt(0), WithNonceLimit(5000), WithProgressInterval(1000))
	require.NoError(t, err)

	_, err = s.Search(context.Background())
	require.Error(t, err)

	assert.Contains(t, buf.String(), "5000 hashes tried")
}

func TestIsBelowTarget(t *testing.T) {
	s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(2))
	require.NoError(t, err)

	assert.True(t, s.isBelowTarget(&chainhash.Hash{0x01}))
	assert.False(t, s.isBelowTarget(&chainhash.Hash{0x02}))
	assert.False(t, s.isBelowTarget(&chainhash.Hash{0x03}))

	high := chainhash.Hash{}
	high[31] = 0x01
	assert.False(t, s.isBelowTarget(&high))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "searching", Searching.String())
	assert.Equal(t, "found", Found.String())
	assert.Equal(t, "exhausted", Exhausted.String())
	assert.Equal(t, "cancelled", Cancelled.String())
}

func TestFiniteStateMachine(t *testing.T) {
	ctx := context.Background()

	t.Run("finished states only follow a search", func(t *testing.T) {
		for _, event := range []string{eventFind, eventExhaust, eventCancel} {
			sm := NewFiniteStateMachine()
			require.NoError(t, sm.Event(ctx, event))

			assert.Error(t, sm.Event(ctx, eventFind), "event=%s", event)
			assert.Error(t, sm.Event(ctx, eventExhaust), "event=%s", event)
			assert.Error(t, sm.Event(ctx, eventCancel), "event=%s", event)

			require.NoError(t, sm.Event(ctx, eventSearch), "event=%s", event)
			assert.Equal(t, Searching.String(), sm.Current())
		}
	})

	t.Run("search cannot restart a running search", func(t *testing.T) {
		sm := NewFiniteStateMachine()
		assert.Error(t, sm.Event(ctx, eventSearch))
		assert.Equal(t, Searching.String(), sm.Current())
	})
}

func TestSearcherSearchAgain(t *testing.T) {
	s, err := NewSearcher(&ulogger.TestLogger{}, testHeader(t).Bytes(), big.NewInt(0), WithNonceLimit(10))
	require.NoError(t, err)

	_, err = s.Search(context.Background())
	require.Error(t, err)
	assert.Equal(t, Exhausted, s.State())

	maxTarget().FillBytes(s.target[:])

	result, err := s.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Found, s.State())
	assert.Equal(t, uint32(0), result.Nonce)
	assert.Equal(t, uint64(1), s.Attempts())
}

func testTemplate(t *testing.T) *model.BlockTemplate {
	t.Helper()

	header := testHeader(t)

	return &model.BlockTemplate{
		Version:      header.Version,
		PreviousHash: header.HashPrevBlock,
		Bits:         header.Bits,
		Time:         header.Timestamp,
		Height:       835000,
		MerkleRoot:   header.HashMerkleRoot,
	}
}

func TestMine(t *testing.T) {
	tSettings := settings.NewSettings()
	tSettings.Mining.Workers = 2

	result, err := Mine(context.Background(), &ulogger.TestLogger{}, tSettings, testTemplate(t))
	require.NoError(t, err)

	target, err := model.NewTargetFromString(tSettings.Mining.DifficultyTarget)
	require.NoError(t, err)

	header, err := model.NewBlockHeaderFromBytes(result.Header)
	require.NoError(t, err)

	assert.Equal(t, result.Nonce, header.Nonce)
	assert.Equal(t, header.Hash(), result.Hash)
	assert.Negative(t, model.HashToBig(result.Hash).Cmp(target))

	ok, _, err := header.HasMetTargetDifficulty()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMineWarnsWhenTargetDoesNotMatchBits(t *testing.T) {
	logger := &ulogger.TestLogger{}

	tSettings := settings.NewSettings()
	_, err := Mine(context.Background(), logger, tSettings, testTemplate(t))
	require.NoError(t, err)
	assert.Empty(t, logger.Warnings())

	tSettings.Mining.DifficultyTarget = "7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	_, err = Mine(context.Background(), logger, tSettings, testTemplate(t))
	require.NoError(t, err)
	assert.Len(t, logger.Warnings(), 1)
}

func TestMineTimeout(t *testing.T) {
	tSettings := settings.NewSettings()
	tSettings.Mining.DifficultyTarget = "0000000000000000000000000000000000000000000000000000000000000000"
	tSettings.Mining.Timeout = 50 * time.Millisecond

	_, err := Mine(context.Background(), &ulogger.TestLogger{}, tSettings, testTemplate(t))
	assert.True(t, errors.Is(err, errors.ErrContextCanceled))
}

func TestMineBadTarget(t *testing.T) {
	tSettings := settings.NewSettings()
	tSettings.Mining.DifficultyTarget = "ffff"

	_, err := Mine(context.Background(), &ulogger.TestLogger{}, tSettings, testTemplate(t))
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
