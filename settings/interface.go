package settings

import (
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

type MiningSettings struct {
	// DifficultyTarget is the 256-bit target as 64 hex characters, big-endian.
	DifficultyTarget       string
	MaxBlockWeight         uint64
	ReservedCoinbaseWeight uint64
	WitnessReservedValue   string
	BlockHeight            uint64
	// Bits is the compact difficulty field as 8 hex characters, e.g. 1f00ffff.
	Bits                     string
	BlockVersion             uint32
	CoinbaseTag              string
	BlockSubsidy             uint64
	SubsidyHalving           bool
	CoinbaseIncludeFees      bool
	CoinbaseTxidStripWitness bool
	FixedWitnessCommitment   string
	PrevBlockHash            string
	PayoutPubKeyHash         string
	// PayoutPubKey is a hex public key paid to by its hash160 when PayoutPubKeyHash is empty.
	PayoutPubKey             string
	Workers                  int
	ProgressInterval         uint64
	Timeout                  time.Duration
	MempoolDir               string
	OutputFile               string
	MetricsFile              string
}

type Settings struct {
	ClientName     string
	LogLevel       string
	LoggerType     string
	ChainCfgParams *chaincfg.Params
	Mining         MiningSettings
}
