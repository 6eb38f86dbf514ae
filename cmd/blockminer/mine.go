package blockminer

import (
	"context"
	"math"

	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/services/blockassembly"
	"github.com/nilaychugh/summer-of-bitcoin/services/blockassembly/mining"
	"github.com/nilaychugh/summer-of-bitcoin/stores/blockfile"
	"github.com/nilaychugh/summer-of-bitcoin/stores/mempool"
	"github.com/nilaychugh/summer-of-bitcoin/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// maxTimestampRetries bounds how often an exhausted search is retried with the next timestamp.
const maxTimestampRetries = 3

func (m *Miner) mineAction(c *cli.Context) error {
	cfg := &m.settings.Mining

	cfg.MempoolDir = c.String("mempool")
	cfg.OutputFile = c.String("out")
	cfg.Workers = c.Int("workers")
	cfg.BlockHeight = c.Uint64("height")
	cfg.DifficultyTarget = c.String("target")
	cfg.Timeout = c.Duration("timeout")
	cfg.MetricsFile = c.String("metrics-file")

	timestamp := c.Uint64("timestamp")
	if !c.IsSet("timestamp") {
		timestamp = uint64(m.now().Unix())
	}

	if timestamp > math.MaxUint32 {
		return errors.NewInvalidArgumentError("timestamp %d does not fit in a block header", timestamp)
	}

	if _, err := m.Mine(c.Context, uint32(timestamp)); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			return errors.NewStorageError("could not write metrics to %s", cfg.MetricsFile, err)
		}
	}

	return nil
}

// Mine runs the whole pipeline: load the mempool, assemble a template, search for a nonce and write
// the output file. An exhausted search is retried with the next timestamp.
func (m *Miner) Mine(ctx context.Context, timestamp uint32) (*blockfile.Block, error) {
	tSettings := m.settings

	pool, err := mempool.New(m.logger, m.fs, tSettings.Mining.MempoolDir).Load(ctx)
	if err != nil {
		return nil, err
	}

	assembler, err := blockassembly.NewBlockAssembler(m.logger, tSettings)
	if err != nil {
		return nil, err
	}

	tmpl, err := assembler.CreateBlockTemplate(ctx, pool, timestamp)
	if err != nil {
		return nil, err
	}

	m.logger.Infof("[Mine] %s", tmpl.Stringify())

	if root := util.BuildMerkleRootFromCoinbase(tmpl.CoinbaseTxID, tmpl.MerkleProof); !root.IsEqual(tmpl.MerkleRoot) {
		return nil, errors.NewProcessingError("[Mine] coinbase merkle proof leads to %s, template root is %s", root, tmpl.MerkleRoot)
	}

	for retry := 0; ; retry++ {
		result, err := mining.Mine(ctx, m.logger, tSettings, tmpl)
		if err == nil {
			block := blockfile.FromTemplate(tmpl, result)

			if err = blockfile.Write(m.fs, tSettings.Mining.OutputFile, block); err != nil {
				return nil, err
			}

			m.logger.Infof("[Mine] block %s written to %s", result.Hash, tSettings.Mining.OutputFile)

			return block, nil
		}

		if !errors.Is(err, errors.ErrSearchExhausted) || retry == maxTimestampRetries || tmpl.Time == math.MaxUint32 {
			return nil, err
		}

		tmpl.Time++

		m.logger.Warnf("[Mine] nonce space exhausted, retrying with timestamp %d", tmpl.Time)
	}
}
