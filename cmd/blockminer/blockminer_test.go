package blockminer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/settings"
	"github.com/nilaychugh/summer-of-bitcoin/stores/blockfile"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	txid1 = strings.Repeat("01", 32)
	txid2 = strings.Repeat("02", 32)
	txid3 = strings.Repeat("03", 32)
)

func setupMempool(t *testing.T, fs afero.Fs) {
	t.Helper()

	files := map[string]string{
		"mempool.json":  `["` + txid3 + `","` + txid1 + `","` + txid2 + `"]`,
		txid1 + ".json": `{"txid":"` + txid1 + `","hex":"01","weight":1000,"fee":50}`,
		txid2 + ".json": `{"txid":"` + txid2 + `","hex":"02","weight":2000,"fee":80}`,
		txid3 + ".json": `{"txid":"` + txid3 + `","hex":"03","weight":500,"fee":10}`,
	}

	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("mempool", name), []byte(content), 0o644))
	}
}

func TestMineAndVerify(t *testing.T) {
	fs := afero.NewMemMapFs()
	setupMempool(t, fs)

	m := New(&ulogger.TestLogger{}, settings.NewSettings(), fs)

	err := m.App().Run([]string{"blockminer", "mine", "--timestamp", "1713000000", "--workers", "2"})
	require.NoError(t, err)

	block, err := blockfile.Read(fs, "out.txt")
	require.NoError(t, err)

	// fee density order, not manifest order
	assert.Equal(t, []string{txid1, txid2, txid3}, block.TxIDs)

	header, err := model.NewBlockHeaderFromBytes(block.Header)
	require.NoError(t, err)
	assert.Equal(t, uint32(1713000000), header.Timestamp)
	assert.Equal(t, uint32(4), header.Version)
	assert.Equal(t, "1f00ffff", header.Bits.String())

	coinbase, err := model.NewCoinbaseTransactionFromBytes(block.Coinbase)
	require.NoError(t, err)
	assert.Equal(t, uint64(835000), coinbase.Height)

	require.NoError(t, m.App().Run([]string{"blockminer", "verify"}))
}

func TestMineEmptyMempool(t *testing.T) {
	fs := afero.NewMemMapFs()
	logger := &ulogger.TestLogger{}

	m := New(logger, settings.NewSettings(), fs)
	m.now = func() time.Time { return time.Unix(1713000000, 0) }

	require.NoError(t, m.App().Run([]string{"blockminer", "mine", "--out", "blocks/out.txt", "--height", "7"}))

	block, err := blockfile.Read(fs, "blocks/out.txt")
	require.NoError(t, err)
	assert.Empty(t, block.TxIDs)

	header, err := model.NewBlockHeaderFromBytes(block.Header)
	require.NoError(t, err)
	assert.Equal(t, uint32(1713000000), header.Timestamp)

	assert.NotEmpty(t, logger.Warnings(), "missing manifest is reported")

	require.NoError(t, m.Verify("blocks/out.txt"))
}

func TestMineInvalidTimestamp(t *testing.T) {
	m := New(&ulogger.TestLogger{}, settings.NewSettings(), afero.NewMemMapFs())

	err := m.App().Run([]string{"blockminer", "mine", "--timestamp", "4294967296"})
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestVerifyRejectsTamperedBlocks(t *testing.T) {
	fs := afero.NewMemMapFs()
	setupMempool(t, fs)

	tSettings := settings.NewSettings()
	m := New(&ulogger.TestLogger{}, tSettings, fs)

	block, err := m.Mine(context.Background(), 1713000000)
	require.NoError(t, err)

	t.Run("reordered transactions", func(t *testing.T) {
		tampered := *block
		tampered.TxIDs = []string{txid2, txid1, txid3}

		require.NoError(t, blockfile.Write(fs, "tampered.txt", &tampered))

		err := m.Verify("tampered.txt")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("wrong coinbase id", func(t *testing.T) {
		tampered := *block
		tampered.CoinbaseTxID = strings.Repeat("ff", 32)

		require.NoError(t, blockfile.Write(fs, "tampered.txt", &tampered))

		err := m.Verify("tampered.txt")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("merkle root changed", func(t *testing.T) {
		tampered := *block
		tampered.Header = append([]byte{}, block.Header...)
		tampered.Header[40] ^= 0xff

		require.NoError(t, blockfile.Write(fs, "tampered.txt", &tampered))

		err := m.Verify("tampered.txt")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("wrong height", func(t *testing.T) {
		other := settings.NewSettings()
		other.Mining.BlockHeight = 1

		err := New(&ulogger.TestLogger{}, other, fs).Verify("out.txt")
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("impossible target", func(t *testing.T) {
		err := m.App().Run([]string{"blockminer", "verify", "--target", strings.Repeat("00", 32)})
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("target easier than bits", func(t *testing.T) {
		easy := settings.NewSettings()
		easy.Mining.DifficultyTarget = "7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
		easy.Mining.Bits = "1d00ffff"

		fs := afero.NewMemMapFs()
		setupMempool(t, fs)

		logger := &ulogger.TestLogger{}
		miner := New(logger, easy, fs)

		_, err := miner.Mine(context.Background(), 1713000000)
		require.NoError(t, err)

		warnings := len(logger.Warnings())

		require.NoError(t, miner.Verify("out.txt"))
		assert.Len(t, logger.Warnings(), warnings+1)
	})

	t.Run("missing file", func(t *testing.T) {
		err := m.Verify("nothing.txt")
		assert.True(t, errors.Is(err, errors.ErrMissingInputFile))
	})
}
