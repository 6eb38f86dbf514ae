package model

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
)

// BlockHeaderSize is the serialized size of a block header.
const BlockHeaderSize = 80

const nonceOffset = 76

type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version uint32

	// Hash of the previous block header in the blockchain.
	HashPrevBlock *chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	HashMerkleRoot *chainhash.Hash

	// Time the block was created in unix time.
	Timestamp uint32

	// Difficulty target for the block.
	Bits NBit

	// Nonce used to generate the block.
	Nonce uint32
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize {
		return nil, errors.NewDecodeError("block header should be %d bytes long, got %d", BlockHeaderSize, len(headerBytes))
	}

	hashPrevBlock, err := chainhash.NewHash(headerBytes[4:36])
	if err != nil {
		return nil, errors.NewDecodeError("error creating previous block hash from bytes", err)
	}

	hashMerkleRoot, err := chainhash.NewHash(headerBytes[36:68])
	if err != nil {
		return nil, errors.NewDecodeError("error creating merkle root hash from bytes", err)
	}

	bits, err := NewNBitFromSlice(headerBytes[72:76])
	if err != nil {
		return nil, err
	}

	return &BlockHeader{
		Version:        binary.LittleEndian.Uint32(headerBytes[:4]),
		HashPrevBlock:  hashPrevBlock,
		HashMerkleRoot: hashMerkleRoot,
		Timestamp:      binary.LittleEndian.Uint32(headerBytes[68:72]),
		Bits:           *bits,
		Nonce:          binary.LittleEndian.Uint32(headerBytes[nonceOffset:]),
	}, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.NewDecodeError("error decoding hex string to bytes", err)
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

// Bytes serializes the header into its fixed 80 byte wire form.
func (bh *BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)

	binary.LittleEndian.PutUint32(b[0:4], bh.Version)

	if bh.HashPrevBlock != nil {
		copy(b[4:36], bh.HashPrevBlock[:])
	}

	if bh.HashMerkleRoot != nil {
		copy(b[36:68], bh.HashMerkleRoot[:])
	}

	binary.LittleEndian.PutUint32(b[68:72], bh.Timestamp)
	copy(b[72:76], bh.Bits[:])
	binary.LittleEndian.PutUint32(b[nonceOffset:], bh.Nonce)

	return b
}

func (bh *BlockHeader) String() string {
	return hex.EncodeToString(bh.Bytes())
}

func (bh *BlockHeader) Hash() *chainhash.Hash {
	hash := chainhash.DoubleHashH(bh.Bytes())
	return &hash
}

// HasMetTargetDifficulty checks the header hash against the target encoded in its own bits field.
func (bh *BlockHeader) HasMetTargetDifficulty() (bool, *chainhash.Hash, error) {
	target := bh.Bits.CalculateTarget()
	if target.Sign() <= 0 {
		return false, nil, errors.NewBlockInvalidError("block header bits %s expand to a non-positive target", bh.Bits)
	}

	ok, hash := bh.HasMetTarget(target)

	return ok, hash, nil
}

// HasMetTarget reports whether the header hash, read as a little-endian integer, is below target.
func (bh *BlockHeader) HasMetTarget(target *big.Int) (bool, *chainhash.Hash) {
	hash := bh.Hash()

	return HashToBig(hash).Cmp(target) < 0, hash
}

// HashToBig interprets a hash as a little-endian unsigned 256-bit integer.
func HashToBig(hash *chainhash.Hash) *big.Int {
	return new(big.Int).SetBytes(bt.ReverseBytes(hash[:]))
}

// HeaderTemplate holds a serialized header whose nonce is rewritten in place during the search.
type HeaderTemplate struct {
	buf [BlockHeaderSize]byte
}

// NewHeaderTemplate copies a serialized header into a template.
func NewHeaderTemplate(header []byte) (*HeaderTemplate, error) {
	if len(header) != BlockHeaderSize {
		return nil, errors.NewInvalidArgumentError("block header should be %d bytes long, got %d", BlockHeaderSize, len(header))
	}

	t := &HeaderTemplate{}
	copy(t.buf[:], header)

	return t, nil
}

// Clone returns an independent copy, one per search worker.
func (t *HeaderTemplate) Clone() *HeaderTemplate {
	c := *t
	return &c
}

// SetNonce rewrites the last four bytes of the header.
func (t *HeaderTemplate) SetNonce(nonce uint32) {
	binary.LittleEndian.PutUint32(t.buf[nonceOffset:], nonce)
}

func (t *HeaderTemplate) Nonce() uint32 {
	return binary.LittleEndian.Uint32(t.buf[nonceOffset:])
}

// Bytes returns the template buffer itself. Callers that keep the result must copy it.
func (t *HeaderTemplate) Bytes() []byte {
	return t.buf[:]
}

// CloneBytes returns a copy of the current header bytes.
func (t *HeaderTemplate) CloneBytes() []byte {
	out := make([]byte, BlockHeaderSize)
	copy(out, t.buf[:])

	return out
}
