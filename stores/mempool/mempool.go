// Package mempool reads candidate transactions from a mempool directory: a mempool.json manifest
// listing txids and one <txid>.json record per transaction.
package mempool

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	jsoniter "github.com/json-iterator/go"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/nilaychugh/summer-of-bitcoin/util"
	"github.com/spf13/afero"
)

// ManifestFile lists the txids of the pool in order.
const ManifestFile = "mempool.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type txRecord struct {
	TxID   string  `json:"txid"`
	Hash   string  `json:"hash"`
	Hex    *string `json:"hex"`
	Weight *uint64 `json:"weight"`
	Fee    *uint64 `json:"fee"`
}

type Store struct {
	logger ulogger.Logger
	fs     afero.Fs
	dir    string
}

func New(logger ulogger.Logger, fs afero.Fs, dir string) *Store {
	return &Store{
		logger: logger,
		fs:     fs,
		dir:    dir,
	}
}

// Load returns the pool in manifest order. A missing manifest yields an empty pool. Records that are
// missing, malformed or listed twice are logged and skipped.
func (s *Store) Load(ctx context.Context) ([]*model.TransactionRecord, error) {
	txIDs, err := s.manifest()
	if err != nil {
		if errors.Is(err, errors.ErrMissingInputFile) {
			s.logger.Warnf("[Load] %v, continuing with an empty mempool", err)
			return []*model.TransactionRecord{}, nil
		}

		return nil, err
	}

	pool := make([]*model.TransactionRecord, 0, len(txIDs))
	seen := make(map[string]struct{}, len(txIDs))

	for _, txID := range txIDs {
		if err = ctx.Err(); err != nil {
			return nil, errors.NewContextCanceledError("[Load] loading mempool cancelled", err)
		}

		if _, ok := seen[txID]; ok {
			s.logger.Warnf("[Load] skipping duplicate transaction %s", txID)
			continue
		}

		seen[txID] = struct{}{}

		record, err := s.Get(txID)
		if err != nil {
			s.logger.Warnf("[Load] skipping transaction %s: %v", txID, err)
			continue
		}

		pool = append(pool, record)
	}

	s.logger.Infof("[Load] loaded %d of %d transactions from %s", len(pool), len(txIDs), s.dir)

	return pool, nil
}

func (s *Store) manifest() ([]string, error) {
	path := filepath.Join(s.dir, ManifestFile)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewMissingInputFileError("mempool manifest %s not found", path, err)
		}

		return nil, errors.NewStorageError("could not read mempool manifest %s", path, err)
	}

	var txIDs []string
	if err = json.Unmarshal(data, &txIDs); err != nil {
		return nil, errors.NewMalformedInputRecordError("mempool manifest %s is not a list of txids", path, err)
	}

	return txIDs, nil
}

// Get reads and validates the record of a single transaction.
func (s *Store) Get(txID string) (*model.TransactionRecord, error) {
	hash, err := util.NewHashFromDisplayHex(txID)
	if err != nil {
		return nil, errors.NewMalformedInputRecordError("invalid txid %q", txID, err)
	}

	path := filepath.Join(s.dir, txID+".json")

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewMissingInputFileError("transaction file %s not found", path, err)
		}

		return nil, errors.NewStorageError("could not read transaction file %s", path, err)
	}

	var raw txRecord
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewMalformedInputRecordError("transaction file %s is not valid json", path, err)
	}

	if raw.Weight == nil {
		return nil, errors.NewMalformedInputRecordError("transaction file %s has no weight", path)
	}

	if raw.Hex == nil {
		return nil, errors.NewMalformedInputRecordError("transaction file %s has no hex", path)
	}

	if raw.TxID != "" && raw.TxID != txID {
		return nil, errors.NewMalformedInputRecordError("transaction file %s holds txid %s", path, raw.TxID)
	}

	record := &model.TransactionRecord{
		TxID:   hash,
		Hex:    *raw.Hex,
		Weight: *raw.Weight,
	}

	if raw.Fee != nil {
		record.Fee = *raw.Fee
	}

	// the witness hash of a transaction is the double hash of its full serialization
	digest, err := util.Sha256dFromHex(record.Hex)
	if err != nil {
		return nil, errors.NewMalformedInputRecordError("transaction file %s has invalid hex", path, err)
	}

	if raw.Hash != "" {
		if record.WTxID, err = util.NewHashFromDisplayHex(raw.Hash); err != nil {
			return nil, errors.NewMalformedInputRecordError("transaction file %s has an invalid hash", path, err)
		}
	} else if record.WTxID, err = chainhash.NewHash(digest); err != nil {
		return nil, errors.NewProcessingError("transaction file %s: could not build witness hash", path, err)
	}

	return record, nil
}
