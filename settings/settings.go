// Package settings loads the block miner configuration from gocore (settings.conf, settings_local.conf
// and the environment) into a typed Settings value.
package settings

import (
	"math"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
)

const (
	DefaultDifficultyTarget     = "0000ffff00000000000000000000000000000000000000000000000000000000"
	DefaultWitnessReservedValue = "0000000000000000000000000000000000000000000000000000000000000000"
	DefaultPrevBlockHash        = "0000000000000000000000000000000000000000000000000000000000000000"
	DefaultBits                 = "1f00ffff"
	DefaultCoinbaseTag          = "/blockminer/"

	// DefaultBlockSubsidy is 50 BTC in satoshis.
	DefaultBlockSubsidy = 50 * 100_000_000
)

func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "regtest"))
	if err != nil {
		panic(err)
	}

	blockVersion := getUint64("mining_blockVersion", 4)
	if blockVersion > math.MaxUint32 {
		blockVersion = 4
	}

	return &Settings{
		ClientName:     getString("clientName", "blockminer"),
		LogLevel:       getString("logLevel", "INFO"),
		LoggerType:     getString("logger", "zerolog"),
		ChainCfgParams: params,
		Mining: MiningSettings{
			DifficultyTarget:         strings.ToLower(getString("mining_difficultyTarget", DefaultDifficultyTarget)),
			MaxBlockWeight:           getUint64("mining_maxBlockWeight", 4_000_000),
			ReservedCoinbaseWeight:   getUint64("mining_reservedCoinbaseWeight", 250),
			WitnessReservedValue:     getString("mining_witnessReservedValue", DefaultWitnessReservedValue),
			BlockHeight:              getUint64("mining_blockHeight", 835_000),
			Bits:                     getString("mining_bits", DefaultBits),
			BlockVersion:             uint32(blockVersion),
			CoinbaseTag:              getString("mining_coinbaseTag", DefaultCoinbaseTag),
			BlockSubsidy:             getUint64("mining_blockSubsidy", DefaultBlockSubsidy),
			SubsidyHalving:           getBool("mining_subsidyHalving", false),
			CoinbaseIncludeFees:      getBool("mining_coinbaseIncludeFees", false),
			CoinbaseTxidStripWitness: getBool("mining_coinbaseTxidStripWitness", false),
			FixedWitnessCommitment:   getString("mining_fixedWitnessCommitment", ""),
			PrevBlockHash:            getString("mining_prevBlockHash", DefaultPrevBlockHash),
			PayoutPubKeyHash:         getString("mining_payoutPubKeyHash", ""),
			PayoutPubKey:             getString("mining_payoutPubKey", ""),
			Workers:                  getInt("mining_workers", 1),
			ProgressInterval:         getUint64("mining_progressInterval", 1_000_000),
			Timeout:                  getDuration("mining_timeout", 0*time.Second),
			MempoolDir:               getString("mining_mempoolDir", "mempool"),
			OutputFile:               getString("mining_outputFile", "out.txt"),
			MetricsFile:              getString("mining_metricsFile", ""),
		},
	}
}
