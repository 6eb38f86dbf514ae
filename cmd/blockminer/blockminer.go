// Package blockminer is the command line front end: it loads a mempool directory, assembles and mines
// a block and writes the result to the output file, or verifies a previously written output file.
package blockminer

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nilaychugh/summer-of-bitcoin/settings"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

type Miner struct {
	logger   ulogger.Logger
	settings *settings.Settings
	fs       afero.Fs
	now      func() time.Time
}

func New(logger ulogger.Logger, tSettings *settings.Settings, fs afero.Fs) *Miner {
	return &Miner{
		logger:   logger,
		settings: tSettings,
		fs:       fs,
		now:      time.Now,
	}
}

// Start runs the command line with the settings from gocore and the real filesystem.
func Start(args []string, version, commit string) error {
	tSettings := settings.NewSettings()

	logger := ulogger.New(tSettings.ClientName,
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
	)

	app := New(logger, tSettings, afero.NewOsFs()).App()
	app.Version = version + " (" + commit + ")"

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return app.RunContext(ctx, args)
}

func (m *Miner) App() *cli.App {
	return &cli.App{
		Name:  "blockminer",
		Usage: "Assemble and mine a block from a mempool directory",
		Commands: []*cli.Command{
			{
				Name:   "mine",
				Usage:  "Select transactions, build the coinbase and search for a nonce",
				Action: m.mineAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mempool",
						Usage: "directory holding mempool.json and the transaction files",
						Value: m.settings.Mining.MempoolDir,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "output file",
						Value: m.settings.Mining.OutputFile,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "number of goroutines searching the nonce space",
						Value: m.settings.Mining.Workers,
					},
					&cli.Uint64Flag{
						Name:  "timestamp",
						Usage: "block timestamp in unix seconds (default: now)",
					},
					&cli.Uint64Flag{
						Name:  "height",
						Usage: "block height committed to in the coinbase",
						Value: m.settings.Mining.BlockHeight,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "difficulty target as 64 hex characters",
						Value: m.settings.Mining.DifficultyTarget,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "give up the nonce search after this long, 0 for no limit",
						Value: m.settings.Mining.Timeout,
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "write the prometheus metrics to this file when done",
						Value: m.settings.Mining.MetricsFile,
					},
				},
			},
			{
				Name:   "verify",
				Usage:  "Check the merkle root, proof of work and coinbase of an output file",
				Action: m.verifyAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "output file",
						Value: m.settings.Mining.OutputFile,
					},
					&cli.StringFlag{
						Name:  "target",
						Usage: "difficulty target as 64 hex characters",
						Value: m.settings.Mining.DifficultyTarget,
					},
				},
			},
		},
	}
}
