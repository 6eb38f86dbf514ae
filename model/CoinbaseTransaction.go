package model

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"math/bits"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/nilaychugh/summer-of-bitcoin/errors"
)

const (
	CoinbaseVersion = 1

	// MaxCoinbaseScriptSigSize is the consensus limit on the coinbase input script.
	MaxCoinbaseScriptSigSize = 100

	witnessMarker = 0x00
	witnessFlag   = 0x01
)

var (
	// WitnessCommitmentHeader is OP_RETURN, a 36 byte push and the commitment magic aa21a9ed.
	WitnessCommitmentHeader = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

	nullOutpointIndex = []byte{0xff, 0xff, 0xff, 0xff}
)

// CoinbaseTransaction is a segwit coinbase with one null-prevout input, a payout output, a witness
// commitment output and a single witness item carrying the reserved value.
type CoinbaseTransaction struct {
	Version              uint32
	Height               uint64
	Tag                  string
	Value                uint64
	PayoutScript         []byte
	WitnessCommitment    []byte
	WitnessReservedValue []byte
	LockTime             uint32
}

// NewCoinbaseTransaction validates the inputs and returns a coinbase ready to be serialized.
// A nil payoutScript is replaced by a P2PKH script to a random 20 byte key hash.
func NewCoinbaseTransaction(height uint64, tag string, value uint64, payoutScript, witnessCommitment, witnessReservedValue []byte) (*CoinbaseTransaction, error) {
	if len(witnessCommitment) != chainhash.HashSize {
		return nil, errors.NewInvalidArgumentError("witness commitment must be %d bytes, got %d", chainhash.HashSize, len(witnessCommitment))
	}

	if len(witnessReservedValue) != chainhash.HashSize {
		return nil, errors.NewInvalidArgumentError("witness reserved value must be %d bytes, got %d", chainhash.HashSize, len(witnessReservedValue))
	}

	if payoutScript == nil {
		pubKeyHash := make([]byte, 20)
		if _, err := rand.Read(pubKeyHash); err != nil {
			return nil, errors.NewProcessingError("could not generate payout key hash", err)
		}

		payoutScript = NewP2PKHScript(pubKeyHash)
	}

	cb := &CoinbaseTransaction{
		Version:              CoinbaseVersion,
		Height:               height,
		Tag:                  tag,
		Value:                value,
		PayoutScript:         payoutScript,
		WitnessCommitment:    witnessCommitment,
		WitnessReservedValue: witnessReservedValue,
	}

	if l := len(cb.ScriptSig()); l > MaxCoinbaseScriptSigSize {
		return nil, errors.NewProcessingError("coinbase script sig is %d bytes, the limit is %d", l, MaxCoinbaseScriptSigSize)
	}

	return cb, nil
}

// NewP2PKHScript returns OP_DUP OP_HASH160 <pubKeyHash> OP_EQUALVERIFY OP_CHECKSIG.
func NewP2PKHScript(pubKeyHash []byte) []byte {
	script := make([]byte, 0, 25)
	script = append(script, 0x76, 0xa9, byte(len(pubKeyHash)))
	script = append(script, pubKeyHash...)
	script = append(script, 0x88, 0xac)

	return script
}

// SerializeHeight returns the minimal little-endian encoding of height. Zero encodes as no bytes.
func SerializeHeight(height uint64) []byte {
	n := (bits.Len64(height) + 7) / 8

	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, height)

	return b[:n]
}

// ScriptSig is <len(height)> <height bytes> <tag>.
func (cb *CoinbaseTransaction) ScriptSig() []byte {
	heightBytes := SerializeHeight(cb.Height)

	script := make([]byte, 0, 1+len(heightBytes)+len(cb.Tag))
	script = append(script, byte(len(heightBytes)))
	script = append(script, heightBytes...)
	script = append(script, cb.Tag...)

	return script
}

// CommitmentScript is the script of the zero value witness commitment output.
func (cb *CoinbaseTransaction) CommitmentScript() []byte {
	script := make([]byte, 0, len(WitnessCommitmentHeader)+len(cb.WitnessCommitment))
	script = append(script, WitnessCommitmentHeader...)
	script = append(script, cb.WitnessCommitment...)

	return script
}

// Bytes returns the full segwit serialization including marker, flag and witness.
func (cb *CoinbaseTransaction) Bytes() []byte {
	return cb.serialize(true)
}

// NonWitnessBytes returns the legacy serialization used for the protocol txid.
func (cb *CoinbaseTransaction) NonWitnessBytes() []byte {
	return cb.serialize(false)
}

func (cb *CoinbaseTransaction) serialize(withWitness bool) []byte {
	var buf bytes.Buffer

	var u32 [4]byte

	var u64 [8]byte

	binary.LittleEndian.PutUint32(u32[:], cb.Version)
	buf.Write(u32[:])

	if withWitness {
		buf.WriteByte(witnessMarker)
		buf.WriteByte(witnessFlag)
	}

	// input
	scriptSig := cb.ScriptSig()

	buf.Write(bt.VarInt(1).Bytes())
	buf.Write(make([]byte, chainhash.HashSize))
	buf.Write(nullOutpointIndex)
	buf.Write(bt.VarInt(len(scriptSig)).Bytes())
	buf.Write(scriptSig)
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})

	// outputs
	buf.Write(bt.VarInt(2).Bytes())

	binary.LittleEndian.PutUint64(u64[:], cb.Value)
	buf.Write(u64[:])
	buf.Write(bt.VarInt(len(cb.PayoutScript)).Bytes())
	buf.Write(cb.PayoutScript)

	commitmentScript := cb.CommitmentScript()

	binary.LittleEndian.PutUint64(u64[:], 0)
	buf.Write(u64[:])
	buf.Write(bt.VarInt(len(commitmentScript)).Bytes())
	buf.Write(commitmentScript)

	if withWitness {
		buf.Write(bt.VarInt(1).Bytes())
		buf.Write(bt.VarInt(len(cb.WitnessReservedValue)).Bytes())
		buf.Write(cb.WitnessReservedValue)
	}

	binary.LittleEndian.PutUint32(u32[:], cb.LockTime)
	buf.Write(u32[:])

	return buf.Bytes()
}

func (cb *CoinbaseTransaction) String() string {
	return hex.EncodeToString(cb.Bytes())
}

// TxID returns the identifier that goes into the block's merkle tree and output file.
//
// With stripWitness the id is the protocol txid: the double hash of the non-witness serialization,
// displayed byte-reversed. Without it the id is the double hash of the full segwit serialization and
// the hash bytes are written as-is, so String() prints the raw digest and the merkle leaf is its
// byte reversal.
func (cb *CoinbaseTransaction) TxID(stripWitness bool) *chainhash.Hash {
	if stripWitness {
		h := chainhash.DoubleHashH(cb.NonWitnessBytes())
		return &h
	}

	digest := chainhash.DoubleHashB(cb.Bytes())

	h, _ := chainhash.NewHash(bt.ReverseBytes(digest))

	return h
}

// WTxID is the double hash of the full serialization. The witness commitment itself always uses the
// all-zero placeholder for the coinbase.
func (cb *CoinbaseTransaction) WTxID() *chainhash.Hash {
	h := chainhash.DoubleHashH(cb.Bytes())
	return &h
}

// Weight is base size * 3 + total size.
func (cb *CoinbaseTransaction) Weight() uint64 {
	return uint64(len(cb.NonWitnessBytes()))*3 + uint64(len(cb.Bytes()))
}

// ParseCoinbaseScriptSig extracts the block height and the arbitrary text from a coinbase script sig.
func ParseCoinbaseScriptSig(sigScript []byte) (uint64, string, error) {
	if len(sigScript) < 1 {
		return 0, "", errors.NewCoinbaseInvalidScriptError("the coinbase signature script must start with the length of the serialized block height")
	}

	serializedLen := int(sigScript[0])
	if serializedLen > 8 {
		return 0, "", errors.NewCoinbaseInvalidScriptError("serialized block height too large: %d bytes", serializedLen)
	}

	if len(sigScript[1:]) < serializedLen {
		return 0, "", errors.NewCoinbaseInvalidScriptError("the coinbase signature script must start with the serialized block height")
	}

	heightBytes := make([]byte, 8)
	copy(heightBytes, sigScript[1:serializedLen+1])

	return binary.LittleEndian.Uint64(heightBytes), string(sigScript[serializedLen+1:]), nil
}

// NewCoinbaseTransactionFromBytes parses a coinbase in the layout produced by Bytes or NonWitnessBytes.
func NewCoinbaseTransactionFromBytes(b []byte) (*CoinbaseTransaction, error) {
	r := &txReader{b: b}

	cb := &CoinbaseTransaction{}
	cb.Version = r.uint32()

	segwit := false
	if r.remaining() >= 2 && r.b[r.pos] == witnessMarker && r.b[r.pos+1] == witnessFlag {
		segwit = true
		r.pos += 2
	}

	if n := r.varInt(); n != 1 && r.err == nil {
		return nil, errors.NewDecodeError("coinbase must have exactly one input, got %d", n)
	}

	prevTxID := r.bytes(chainhash.HashSize)
	prevIndex := r.bytes(4)

	if r.err == nil && (!bytes.Equal(prevTxID, make([]byte, chainhash.HashSize)) || !bytes.Equal(prevIndex, nullOutpointIndex)) {
		return nil, errors.NewDecodeError("coinbase input must spend the null outpoint")
	}

	scriptSig := r.bytes(int(r.varInt()))
	_ = r.uint32() // sequence

	outputCount := r.varInt()
	if outputCount != 2 && r.err == nil {
		return nil, errors.NewDecodeError("coinbase must have a payout and a witness commitment output, got %d outputs", outputCount)
	}

	cb.Value = r.uint64()
	cb.PayoutScript = r.bytes(int(r.varInt()))

	_ = r.uint64()
	commitmentScript := r.bytes(int(r.varInt()))

	if segwit {
		if items := r.varInt(); items != 1 && r.err == nil {
			return nil, errors.NewDecodeError("coinbase witness must have one item, got %d", items)
		}

		cb.WitnessReservedValue = r.bytes(int(r.varInt()))
	}

	cb.LockTime = r.uint32()

	if r.err != nil {
		return nil, r.err
	}

	if r.remaining() != 0 {
		return nil, errors.NewDecodeError("%d trailing bytes after coinbase transaction", r.remaining())
	}

	if !bytes.HasPrefix(commitmentScript, WitnessCommitmentHeader) || len(commitmentScript) != len(WitnessCommitmentHeader)+chainhash.HashSize {
		return nil, errors.NewDecodeError("second output is not a witness commitment")
	}

	cb.WitnessCommitment = commitmentScript[len(WitnessCommitmentHeader):]

	height, tag, err := ParseCoinbaseScriptSig(scriptSig)
	if err != nil {
		return nil, err
	}

	cb.Height = height
	cb.Tag = tag

	return cb, nil
}

func NewCoinbaseTransactionFromString(s string) (*CoinbaseTransaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewDecodeError("invalid coinbase hex", err)
	}

	return NewCoinbaseTransactionFromBytes(b)
}

// txReader is a cursor over a serialized transaction that latches the first error.
type txReader struct {
	b   []byte
	pos int
	err error
}

func (r *txReader) remaining() int {
	return len(r.b) - r.pos
}

func (r *txReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || r.remaining() < n {
		r.err = errors.NewDecodeError("unexpected end of transaction at offset %d", r.pos)
		return nil
	}

	out := make([]byte, n)
	copy(out, r.b[r.pos:r.pos+n])
	r.pos += n

	return out
}

func (r *txReader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

func (r *txReader) uint64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint64(b)
}

func (r *txReader) varInt() uint64 {
	if r.err != nil {
		return 0
	}

	if r.remaining() < 1 {
		r.err = errors.NewDecodeError("unexpected end of transaction at offset %d", r.pos)
		return 0
	}

	size := 1

	switch r.b[r.pos] {
	case 0xfd:
		size = 3
	case 0xfe:
		size = 5
	case 0xff:
		size = 9
	}

	if r.remaining() < size {
		r.err = errors.NewDecodeError("truncated varint at offset %d", r.pos)
		return 0
	}

	v, n := bt.NewVarIntFromBytes(r.b[r.pos:])
	r.pos += n

	return uint64(v)
}
