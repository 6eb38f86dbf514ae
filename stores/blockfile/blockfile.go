// Package blockfile writes and reads the mined block artifact: the header hex, the coinbase hex, the
// coinbase id and the selected txids, one per line.
package blockfile

import (
	"bufio"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/spf13/afero"
)

const dirPerm = 0o755

type Block struct {
	Header       []byte
	Coinbase     []byte
	CoinbaseTxID string
	TxIDs        []string
}

// FromTemplate combines a template and its mining result into the artifact.
func FromTemplate(tmpl *model.BlockTemplate, result *model.MiningResult) *Block {
	txIDs := make([]string, len(tmpl.Selection.Transactions))
	for i, tx := range tmpl.Selection.Transactions {
		txIDs[i] = tx.TxID.String()
	}

	return &Block{
		Header:       result.Header,
		Coinbase:     tmpl.Coinbase.Bytes(),
		CoinbaseTxID: tmpl.CoinbaseTxID.String(),
		TxIDs:        txIDs,
	}
}

func (b *Block) Lines() []string {
	lines := make([]string, 0, 3+len(b.TxIDs))
	lines = append(lines, hex.EncodeToString(b.Header), hex.EncodeToString(b.Coinbase), b.CoinbaseTxID)
	lines = append(lines, b.TxIDs...)

	return lines
}

// AllTxIDs returns the coinbase id followed by the selected ids, in block order.
func (b *Block) AllTxIDs() []string {
	return append([]string{b.CoinbaseTxID}, b.TxIDs...)
}

// Write replaces path with the artifact. The content goes to a temporary file in the same directory
// that is renamed over path once fully written.
func Write(fs afero.Fs, path string, block *Block) error {
	dir := filepath.Dir(path)

	if err := fs.MkdirAll(dir, dirPerm); err != nil {
		return errors.NewStorageError("could not create directory %s", dir, err)
	}

	tmpFile, err := afero.TempFile(fs, dir, filepath.Base(path))
	if err != nil {
		return errors.NewStorageError("could not create temporary file for %s", path, err)
	}

	defer func() {
		_ = tmpFile.Close()
		_ = fs.Remove(tmpFile.Name())
	}()

	w := bufio.NewWriter(tmpFile)

	for _, line := range block.Lines() {
		if _, err = w.WriteString(line + "\n"); err != nil {
			return errors.NewStorageError("could not write %s", tmpFile.Name(), err)
		}
	}

	if err = w.Flush(); err != nil {
		return errors.NewStorageError("could not flush %s", tmpFile.Name(), err)
	}

	if err = tmpFile.Sync(); err != nil {
		return errors.NewStorageError("could not sync %s", tmpFile.Name(), err)
	}

	if err = tmpFile.Close(); err != nil {
		return errors.NewStorageError("could not close %s", tmpFile.Name(), err)
	}

	if err = fs.Rename(tmpFile.Name(), path); err != nil {
		return errors.NewStorageError("could not rename %s to %s", tmpFile.Name(), path, err)
	}

	return nil
}

// Read parses an artifact written by Write.
func Read(fs afero.Fs, path string) (*Block, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewMissingInputFileError("block file %s not found", path, err)
		}

		return nil, errors.NewStorageError("could not read block file %s", path, err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 3 {
		return nil, errors.NewDecodeError("block file %s has %d lines, expected at least 3", path, len(lines))
	}

	header, err := hex.DecodeString(lines[0])
	if err != nil {
		return nil, errors.NewDecodeError("block file %s: invalid header hex", path, err)
	}

	if len(header) != model.BlockHeaderSize {
		return nil, errors.NewDecodeError("block file %s: header is %d bytes", path, len(header))
	}

	coinbase, err := hex.DecodeString(lines[1])
	if err != nil {
		return nil, errors.NewDecodeError("block file %s: invalid coinbase hex", path, err)
	}

	return &Block{
		Header:       header,
		Coinbase:     coinbase,
		CoinbaseTxID: lines[2],
		TxIDs:        lines[3:],
	}, nil
}
