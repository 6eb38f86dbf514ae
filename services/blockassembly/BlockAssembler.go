// Package blockassembly selects mempool transactions and assembles them, together with a segwit
// coinbase, into a block template ready for the nonce search.
package blockassembly

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/settings"
	"github.com/nilaychugh/summer-of-bitcoin/ulogger"
	"github.com/nilaychugh/summer-of-bitcoin/util"
)

type BlockAssembler struct {
	logger   ulogger.Logger
	settings *settings.Settings

	prevHash             *chainhash.Hash
	bits                 model.NBit
	witnessReservedValue []byte
	fixedCommitment      []byte
	payoutScript         []byte
}

// NewBlockAssembler validates the mining settings once so that template creation cannot fail on them.
func NewBlockAssembler(logger ulogger.Logger, tSettings *settings.Settings) (*BlockAssembler, error) {
	initPrometheusMetrics()

	if tSettings.Mining.ReservedCoinbaseWeight >= tSettings.Mining.MaxBlockWeight {
		logger.Warnf("[BlockAssembler] reserved coinbase weight %d leaves no room in a block of weight %d, templates will be empty",
			tSettings.Mining.ReservedCoinbaseWeight, tSettings.Mining.MaxBlockWeight)
	}

	prevHash, err := util.NewHashFromDisplayHex(tSettings.Mining.PrevBlockHash)
	if err != nil {
		return nil, errors.NewConfigurationError("[BlockAssembler] invalid mining_prevBlockHash", err)
	}

	bits, err := model.NewNBitFromString(tSettings.Mining.Bits)
	if err != nil {
		return nil, errors.NewConfigurationError("[BlockAssembler] invalid mining_bits", err)
	}

	reserved, err := decodeHash(tSettings.Mining.WitnessReservedValue)
	if err != nil {
		return nil, errors.NewConfigurationError("[BlockAssembler] invalid mining_witnessReservedValue", err)
	}

	b := &BlockAssembler{
		logger:               logger,
		settings:             tSettings,
		prevHash:             prevHash,
		bits:                 *bits,
		witnessReservedValue: reserved,
	}

	if tSettings.Mining.FixedWitnessCommitment != "" {
		if b.fixedCommitment, err = decodeHash(tSettings.Mining.FixedWitnessCommitment); err != nil {
			return nil, errors.NewConfigurationError("[BlockAssembler] invalid mining_fixedWitnessCommitment", err)
		}
	}

	switch {
	case tSettings.Mining.PayoutPubKeyHash != "":
		pubKeyHash, err := hex.DecodeString(tSettings.Mining.PayoutPubKeyHash)
		if err != nil || len(pubKeyHash) != 20 {
			return nil, errors.NewConfigurationError("[BlockAssembler] mining_payoutPubKeyHash must be 40 hex characters")
		}

		b.payoutScript = model.NewP2PKHScript(pubKeyHash)

	case tSettings.Mining.PayoutPubKey != "":
		pubKey, err := hex.DecodeString(tSettings.Mining.PayoutPubKey)
		if err != nil || (len(pubKey) != 33 && len(pubKey) != 65) {
			return nil, errors.NewConfigurationError("[BlockAssembler] mining_payoutPubKey must be a 33 or 65 byte public key in hex")
		}

		b.payoutScript = model.NewP2PKHScript(util.Hash160(pubKey))
	}

	return b, nil
}

func decodeHash(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid hex %q", s, err)
	}

	if len(b) != chainhash.HashSize {
		return nil, errors.NewDecodeError("%q must be %d bytes", s, chainhash.HashSize)
	}

	return b, nil
}

// CoinbaseValue is the subsidy for height, plus fees when the coinbase is configured to collect them.
func (b *BlockAssembler) CoinbaseValue(height, fees uint64) uint64 {
	value := b.settings.Mining.BlockSubsidy
	if b.settings.Mining.SubsidyHalving {
		value = util.GetBlockSubsidyForHeight(height, b.settings.ChainCfgParams)
	}

	if b.settings.Mining.CoinbaseIncludeFees {
		value += fees
	}

	return value
}

// CreateBlockTemplate selects transactions from pool and builds the coinbase, witness commitment and
// merkle root for a block at the configured height with the given timestamp.
func (b *BlockAssembler) CreateBlockTemplate(ctx context.Context, pool []*model.TransactionRecord, timestamp uint32) (*model.BlockTemplate, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextCanceledError("[CreateBlockTemplate] context done before assembly", err)
	}

	mining := b.settings.Mining

	selection := SelectTransactions(pool, mining.MaxBlockWeight, mining.ReservedCoinbaseWeight)

	b.logger.Infof("[CreateBlockTemplate] selected %d of %d transactions, weight %d, fees %d",
		len(selection.Transactions), len(pool), selection.TotalWeight, selection.TotalFees)

	commitment := b.fixedCommitment
	if commitment == nil {
		witnessCommitment, err := WitnessCommitment(blockWTxIDs(selection), b.witnessReservedValue)
		if err != nil {
			return nil, err
		}

		commitment = witnessCommitment[:]
	}

	coinbase, err := BuildCoinbase(mining.BlockHeight, commitment, CoinbaseOptions{
		Tag:                  mining.CoinbaseTag,
		Value:                b.CoinbaseValue(mining.BlockHeight, selection.TotalFees),
		PayoutScript:         b.payoutScript,
		WitnessReservedValue: b.witnessReservedValue,
	})
	if err != nil {
		return nil, err
	}

	if weight := coinbase.Weight(); weight > mining.ReservedCoinbaseWeight {
		b.logger.Warnf("[CreateBlockTemplate] coinbase weighs %d, more than the %d reserved for it, the block may exceed %d",
			weight, mining.ReservedCoinbaseWeight, mining.MaxBlockWeight)
	}

	coinbaseTxID := coinbase.TxID(mining.CoinbaseTxidStripWitness)

	txIDs := make([]*chainhash.Hash, 0, 1+len(selection.Transactions))
	txIDs = append(txIDs, coinbaseTxID)
	txIDs = append(txIDs, selection.TxIDs()...)

	merkleRoot, err := util.BuildMerkleRoot(txIDs)
	if err != nil {
		return nil, err
	}

	merkleProof, err := util.BuildMerkleBranches(txIDs)
	if err != nil {
		return nil, err
	}

	commitmentHash, _ := chainhash.NewHash(commitment)

	tmpl := &model.BlockTemplate{
		Version:           mining.BlockVersion,
		PreviousHash:      b.prevHash,
		Bits:              b.bits,
		Time:              timestamp,
		Height:            mining.BlockHeight,
		Coinbase:          coinbase,
		CoinbaseTxID:      coinbaseTxID,
		Selection:         selection,
		WitnessCommitment: commitmentHash,
		MerkleRoot:        merkleRoot,
		MerkleProof:       merkleProof,
	}

	b.logger.Debugf("[CreateBlockTemplate] %s", tmpl.Stringify())

	prometheusBlockAssemblerTemplates.Inc()
	prometheusBlockAssemblerTransactions.Set(float64(len(selection.Transactions)))
	prometheusBlockAssemblerWeight.Set(float64(selection.TotalWeight))
	prometheusBlockAssemblerFees.Set(float64(selection.TotalFees))
	prometheusBlockAssemblerTemplateDuration.Observe(time.Since(start).Seconds())

	return tmpl, nil
}
