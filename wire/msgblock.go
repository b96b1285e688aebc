// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/0xnohan/Kernel/chainhash"
)

// MaxBlockSize is the maximum number of bytes allowed per block, per §3.
const MaxBlockSize = 1 * 1024 * 1024

// maxTxPerBlock bounds the transaction count a decoded block may claim,
// independent of the overall MaxBlockSize check applied after decoding.
const maxTxPerBlock = MaxBlockSize / 60

// blockHeaderLen is the number of bytes in a serialized block header:
// 4 (version) + 32 (prev hash) + 32 (merkle root) + 4 (timestamp) +
// 4 (bits) + 4 (nonce).
const blockHeaderLen = 4 + chainhash.HashSize + chainhash.HashSize + 4 + 4 + 4

// BlockHeader defines the header fields linking a block to its parent and
// committing to its body and proof of work.
type BlockHeader struct {
	Version    uint32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BtcEncode encodes the header to w.
func (h *BlockHeader) BtcEncode(w io.Writer) error {
	if err := binaryWriteUint32(w, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := binaryWriteUint32(w, uint32(h.Timestamp.Unix())); err != nil {
		return err
	}
	if err := binaryWriteUint32(w, h.Bits); err != nil {
		return err
	}
	return binaryWriteUint32(w, h.Nonce)
}

// BtcDecode decodes r into the receiver header.
func (h *BlockHeader) BtcDecode(r io.Reader) error {
	var err error
	if h.Version, err = binarySerializerUint32(r); err != nil {
		return err
	}
	prevBytes, err := readRawBytes(r, chainhash.HashSize)
	if err != nil {
		return err
	}
	copy(h.PrevBlock[:], prevBytes)
	rootBytes, err := readRawBytes(r, chainhash.HashSize)
	if err != nil {
		return err
	}
	copy(h.MerkleRoot[:], rootBytes)
	ts, err := binarySerializerUint32(r)
	if err != nil {
		return err
	}
	h.Timestamp = time.Unix(int64(ts), 0).UTC()
	if h.Bits, err = binarySerializerUint32(r); err != nil {
		return err
	}
	if h.Nonce, err = binarySerializerUint32(r); err != nil {
		return err
	}
	return nil
}

// Serialize returns the canonical byte encoding of the header.
func (h *BlockHeader) Serialize() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLen))
	_ = h.BtcEncode(buf)
	return buf.Bytes()
}

// BlockHash computes the block identifier: the little-endian
// double-SHA256 of the serialized header, stored in natural byte order.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.HashH(h.Serialize())
}

// MsgBlock implements the block data model of §3: a header plus an
// ordered sequence of transactions, the first of which must be the
// coinbase.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// Command returns the protocol command string for a block message.
func (msg *MsgBlock) Command() string {
	return CmdBlock
}

// BtcEncode encodes the block to w.
func (msg *MsgBlock) BtcEncode(w io.Writer) error {
	if err := msg.Header.BtcEncode(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.BtcEncode(w); err != nil {
			return err
		}
	}
	return nil
}

// BtcDecode decodes r into the receiver block.
func (msg *MsgBlock) BtcDecode(r io.Reader) error {
	if err := msg.Header.BtcDecode(r); err != nil {
		return err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxTxPerBlock {
		return messageError("MsgBlock.BtcDecode", "too many transactions")
	}
	msg.Transactions = make([]*MsgTx, count)
	for i := range msg.Transactions {
		tx := &MsgTx{}
		if err := tx.BtcDecode(r); err != nil {
			return err
		}
		msg.Transactions[i] = tx
	}
	return nil
}

// Serialize returns the canonical byte encoding of the block.
func (msg *MsgBlock) Serialize() []byte {
	var buf bytes.Buffer
	_ = msg.BtcEncode(&buf)
	return buf.Bytes()
}

// SerializeSize returns the number of bytes the block's canonical
// encoding occupies.
func (msg *MsgBlock) SerializeSize() int {
	n := blockHeaderLen + VarIntSerializeSize(uint64(len(msg.Transactions)))
	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}
	return n
}

// BlockHash returns the block's identifier, delegating to the header.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}

// TxHashes returns the list of transaction identifiers in block order,
// the input to the Merkle root calculation.
func (msg *MsgBlock) TxHashes() []chainhash.Hash {
	hashes := make([]chainhash.Hash, len(msg.Transactions))
	for i, tx := range msg.Transactions {
		hashes[i] = tx.TxHash()
	}
	return hashes
}

// DeserializeBlock parses a canonically-encoded block from raw bytes.
func DeserializeBlock(b []byte) (*MsgBlock, error) {
	blk := &MsgBlock{}
	if err := blk.BtcDecode(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return blk, nil
}
