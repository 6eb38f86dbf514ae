package blockminer

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
	"github.com/nilaychugh/summer-of-bitcoin/model"
	"github.com/nilaychugh/summer-of-bitcoin/stores/blockfile"
	"github.com/nilaychugh/summer-of-bitcoin/util"
	"github.com/urfave/cli/v2"
)

func (m *Miner) verifyAction(c *cli.Context) error {
	m.settings.Mining.DifficultyTarget = c.String("target")

	return m.Verify(c.String("out"))
}

// Verify re-reads an output file and checks that the header commits to the listed transactions,
// meets the target, and that the coinbase matches its id and the configured height.
func (m *Miner) Verify(path string) error {
	block, err := blockfile.Read(m.fs, path)
	if err != nil {
		return err
	}

	header, err := model.NewBlockHeaderFromBytes(block.Header)
	if err != nil {
		return err
	}

	coinbase, err := model.NewCoinbaseTransactionFromBytes(block.Coinbase)
	if err != nil {
		return errors.NewBlockInvalidError("[Verify] coinbase cannot be parsed", err)
	}

	if coinbase.Height != m.settings.Mining.BlockHeight {
		return errors.NewBlockInvalidError("[Verify] coinbase commits to height %d, expected %d", coinbase.Height, m.settings.Mining.BlockHeight)
	}

	coinbaseTxID := coinbase.TxID(m.settings.Mining.CoinbaseTxidStripWitness)
	if coinbaseTxID.String() != block.CoinbaseTxID {
		return errors.NewBlockInvalidError("[Verify] coinbase id %s does not match the coinbase, expected %s", block.CoinbaseTxID, coinbaseTxID)
	}

	merkleRoot, err := util.BuildMerkleRootFromHex(block.AllTxIDs())
	if err != nil {
		return errors.NewBlockInvalidError("[Verify] could not rebuild merkle root", err)
	}

	if !merkleRoot.IsEqual(header.HashMerkleRoot) {
		return errors.NewBlockInvalidError("[Verify] header merkle root %s does not match transactions, computed %s", header.HashMerkleRoot, merkleRoot)
	}

	hashes := make([]*chainhash.Hash, 0, len(block.AllTxIDs()))

	for _, txID := range block.AllTxIDs() {
		h, err := util.NewHashFromDisplayHex(txID)
		if err != nil {
			return errors.NewBlockInvalidError("[Verify] invalid txid %q", txID, err)
		}

		hashes = append(hashes, h)
	}

	branches, err := util.BuildMerkleBranches(hashes)
	if err != nil {
		return err
	}

	if root := util.BuildMerkleRootFromCoinbase(hashes[0], branches); !root.IsEqual(merkleRoot) {
		return errors.NewBlockInvalidError("[Verify] coinbase merkle proof leads to %s, expected %s", root, merkleRoot)
	}

	target, err := model.NewTargetFromString(m.settings.Mining.DifficultyTarget)
	if err != nil {
		return errors.NewConfigurationError("[Verify] invalid difficulty target", err)
	}

	ok, hash := header.HasMetTarget(target)
	if !ok {
		return errors.NewBlockInvalidError("[Verify] block hash %s is not below the target", hash)
	}

	if metBits, _, err := header.HasMetTargetDifficulty(); err != nil || !metBits {
		m.logger.Warnf("[Verify] block hash %s meets the configured target but not the target of its bits %s", hash, header.Bits)
	}

	m.logger.Infof("[Verify] block %s at height %d with %d transactions is valid", hash, coinbase.Height, len(block.AllTxIDs()))

	return nil
}
