package blockfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock() *Block {
	return &Block{
		Header:       bytes.Repeat([]byte{0x01}, model.BlockHeaderSize),
		Coinbase:     []byte{0x02, 0x03},
		CoinbaseTxID: strings.Repeat("cb", 32),
		TxIDs:        []string{strings.Repeat("11", 32), strings.Repeat("22", 32)},
	}
}

func TestWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	block := testBlock()

	require.NoError(t, Write(fs, "out/out.txt", block))

	data, err := afero.ReadFile(fs, "out/out.txt")
	require.NoError(t, err)

	expected := strings.Repeat("01", model.BlockHeaderSize) + "\n" +
		"0203\n" +
		strings.Repeat("cb", 32) + "\n" +
		strings.Repeat("11", 32) + "\n" +
		strings.Repeat("22", 32) + "\n"
	assert.Equal(t, expected, string(data))

	read, err := Read(fs, "out/out.txt")
	require.NoError(t, err)
	assert.Equal(t, block, read)

	assert.Equal(t, []string{block.CoinbaseTxID, block.TxIDs[0], block.TxIDs[1]}, read.AllTxIDs())

	entries, err := afero.ReadDir(fs, "out")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestWriteReplaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out.txt", []byte("stale content that is longer than the new file\n\n\n\n\n\n\n\n\n\n\n"), 0o644))

	block := testBlock()
	block.TxIDs = []string{}

	require.NoError(t, Write(fs, "out.txt", block))

	read, err := Read(fs, "out.txt")
	require.NoError(t, err)
	assert.Empty(t, read.TxIDs)
	assert.Equal(t, block.Header, read.Header)
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Read(fs, "missing.txt")
	assert.True(t, errors.Is(err, errors.ErrMissingInputFile))

	require.NoError(t, afero.WriteFile(fs, "short.txt", []byte("00\n01\n"), 0o644))
	_, err = Read(fs, "short.txt")
	assert.True(t, errors.Is(err, errors.ErrDecode))

	require.NoError(t, afero.WriteFile(fs, "badheader.txt", []byte("zz\n01\nab\n"), 0o644))
	_, err = Read(fs, "badheader.txt")
	assert.True(t, errors.Is(err, errors.ErrDecode))

	require.NoError(t, afero.WriteFile(fs, "shortheader.txt", []byte("0000\n01\nab\n"), 0o644))
	_, err = Read(fs, "shortheader.txt")
	assert.True(t, errors.Is(err, errors.ErrDecode))

	require.NoError(t, afero.WriteFile(fs, "badcoinbase.txt", []byte(strings.Repeat("00", 80)+"\nxx\nab\n"), 0o644))
	_, err = Read(fs, "badcoinbase.txt")
	assert.True(t, errors.Is(err, errors.ErrDecode))
}

func TestFromTemplate(t *testing.T) {
	coinbase, err := model.NewCoinbaseTransaction(1, "", 1, nil, make([]byte, 32), make([]byte, 32))
	require.NoError(t, err)

	tmpl := &model.BlockTemplate{
		Coinbase:     coinbase,
		CoinbaseTxID: coinbase.TxID(false),
		Selection: &model.SelectionResult{
			Transactions: []*model.TransactionRecord{
				{TxID: &chainhash.Hash{0x01}},
			},
		},
	}

	result := &model.MiningResult{Header: make([]byte, model.BlockHeaderSize), Nonce: 3}

	block := FromTemplate(tmpl, result)

	assert.Equal(t, result.Header, block.Header)
	assert.Equal(t, coinbase.Bytes(), block.Coinbase)
	assert.Equal(t, coinbase.TxID(false).String(), block.CoinbaseTxID)
	assert.Equal(t, []string{(&chainhash.Hash{0x01}).String()}, block.TxIDs)
	assert.Len(t, block.Lines(), 4)
}
