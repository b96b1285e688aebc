// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"math"

	"github.com/0xnohan/Kernel/chainhash"
)

// MaxTxInSequenceNum is the value used for Sequence to finalize an input.
const MaxTxInSequenceNum uint32 = math.MaxUint32

// CoinbaseIndex is the previous-output index a coinbase input's outpoint
// must carry.
const CoinbaseIndex = math.MaxUint32

// maxTxInPerMessage and maxTxOutPerMessage bound the number of inputs and
// outputs a single transaction may carry; they are generous relative to
// MaxBlockSize so they never constrain valid transactions themselves, only
// malformed wire data.
const (
	maxTxInPerMessage  = MaxBlockSize / 40
	maxTxOutPerMessage = MaxBlockSize / 9
	maxScriptSize      = MaxBlockSize
)

// OutPoint defines a transaction outpoint, the previous transaction
// identifier and output index a TxIn spends.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new transaction outpoint for the given hash and
// index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// IsCoinBaseOutPoint reports whether this outpoint carries the all-zero
// hash and maximal index sentinel that marks a coinbase input.
func (o *OutPoint) IsCoinBaseOutPoint() bool {
	return o.Index == CoinbaseIndex && o.Hash.IsZero()
}

// TxIn defines a transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction input.
func (t *TxIn) SerializeSize() int {
	return chainhash.HashSize + 4 + VarIntSerializeSize(uint64(len(t.SignatureScript))) +
		len(t.SignatureScript) + 4
}

// TxOut defines a transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction output.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// MsgTx implements the transaction data model of §3: a version, an
// ordered sequence of inputs, an ordered sequence of outputs, and a
// lock-time.
type MsgTx struct {
	Version  uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new tx message with the given version, ready to have
// inputs and outputs appended.
func NewMsgTx(version uint32) *MsgTx {
	return &MsgTx{Version: version}
}

// Command returns the protocol command string for a tx message.
func (msg *MsgTx) Command() string {
	return CmdTx
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// IsCoinBase determines whether the transaction is a coinbase: exactly one
// input whose previous outpoint is the all-zero/max-index sentinel.
func (msg *MsgTx) IsCoinBase() bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutPoint.IsCoinBaseOutPoint()
}

// Copy creates a deep copy of the transaction.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := &MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, len(msg.TxIn)),
		TxOut:    make([]*TxOut, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}
	for i, ti := range msg.TxIn {
		sig := make([]byte, len(ti.SignatureScript))
		copy(sig, ti.SignatureScript)
		newTx.TxIn[i] = &TxIn{
			PreviousOutPoint: ti.PreviousOutPoint,
			SignatureScript:  sig,
			Sequence:         ti.Sequence,
		}
	}
	for i, to := range msg.TxOut {
		pk := make([]byte, len(to.PkScript))
		copy(pk, to.PkScript)
		newTx.TxOut[i] = &TxOut{Value: to.Value, PkScript: pk}
	}
	return newTx
}

// BtcEncode encodes the transaction to w in the canonical wire format.
func (msg *MsgTx) BtcEncode(w io.Writer) error {
	if err := binaryWriteUint32(w, msg.Version); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
			return err
		}
		if err := binaryWriteUint32(w, ti.PreviousOutPoint.Index); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := binaryWriteUint32(w, ti.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := binaryWriteUint64(w, uint64(to.Value)); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	return binaryWriteUint32(w, msg.LockTime)
}

// BtcDecode decodes r, which must contain a canonically-encoded
// transaction, into the receiver.
func (msg *MsgTx) BtcDecode(r io.Reader) error {
	version, err := binarySerializerUint32(r)
	if err != nil {
		return err
	}
	msg.Version = version

	inCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if inCount > maxTxInPerMessage {
		return messageError("MsgTx.BtcDecode", "too many inputs")
	}
	msg.TxIn = make([]*TxIn, inCount)
	for i := range msg.TxIn {
		ti := &TxIn{}
		hashBytes, err := readRawBytes(r, chainhash.HashSize)
		if err != nil {
			return err
		}
		copy(ti.PreviousOutPoint.Hash[:], hashBytes)
		if ti.PreviousOutPoint.Index, err = binarySerializerUint32(r); err != nil {
			return err
		}
		if ti.SignatureScript, err = ReadVarBytes(r, maxScriptSize, "signature script"); err != nil {
			return err
		}
		if ti.Sequence, err = binarySerializerUint32(r); err != nil {
			return err
		}
		msg.TxIn[i] = ti
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if outCount > maxTxOutPerMessage {
		return messageError("MsgTx.BtcDecode", "too many outputs")
	}
	msg.TxOut = make([]*TxOut, outCount)
	for i := range msg.TxOut {
		to := &TxOut{}
		value, err := binarySerializerUint64(r)
		if err != nil {
			return err
		}
		to.Value = int64(value)
		if to.PkScript, err = ReadVarBytes(r, maxScriptSize, "pk script"); err != nil {
			return err
		}
		msg.TxOut[i] = to
	}

	lockTime, err := binarySerializerUint32(r)
	if err != nil {
		return err
	}
	msg.LockTime = lockTime

	return nil
}

// Serialize returns the canonical byte encoding of the transaction.
func (msg *MsgTx) Serialize() []byte {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	_ = msg.BtcEncode(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	n := 4 + VarIntSerializeSize(uint64(len(msg.TxIn))) + VarIntSerializeSize(uint64(len(msg.TxOut))) + 4
	for _, ti := range msg.TxIn {
		n += ti.SerializeSize()
	}
	for _, to := range msg.TxOut {
		n += to.SerializeSize()
	}
	return n
}

// TxHash computes the transaction identifier: the little-endian
// double-SHA256 of the canonical serialization, stored in natural byte
// order (reversed only at display/String boundaries).
func (msg *MsgTx) TxHash() chainhash.Hash {
	return chainhash.HashH(msg.Serialize())
}

// DeserializeTx parses a canonically-encoded transaction from raw bytes.
func DeserializeTx(b []byte) (*MsgTx, error) {
	tx := &MsgTx{}
	if err := tx.BtcDecode(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return tx, nil
}
