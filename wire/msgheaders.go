// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/0xnohan/Kernel/chainhash"
)

// MaxHeaders is the maximum number of headers a single getheaders response
// may return, per §4.9.
const MaxHeaders = 2000

// MsgGetHeaders implements the Message interface and requests a batch of
// consecutive headers starting after a locator block, optionally up to a
// stop hash.
type MsgGetHeaders struct {
	LocatorHash chainhash.Hash
	StopHash    chainhash.Hash
}

// Command returns the protocol command string for a getheaders message.
func (msg *MsgGetHeaders) Command() string { return CmdGetHeaders }

// BtcEncode encodes the message to w.
func (msg *MsgGetHeaders) BtcEncode(w io.Writer) error {
	if _, err := w.Write(msg.LocatorHash[:]); err != nil {
		return err
	}
	_, err := w.Write(msg.StopHash[:])
	return err
}

// BtcDecode decodes r into the receiver.
func (msg *MsgGetHeaders) BtcDecode(r io.Reader) error {
	locBytes, err := readRawBytes(r, chainhash.HashSize)
	if err != nil {
		return err
	}
	copy(msg.LocatorHash[:], locBytes)
	stopBytes, err := readRawBytes(r, chainhash.HashSize)
	if err != nil {
		return err
	}
	copy(msg.StopHash[:], stopBytes)
	return nil
}

// MsgHeaders implements the Message interface and carries a batch of
// consecutive block headers.
type MsgHeaders struct {
	Headers []*BlockHeader
}

// Command returns the protocol command string for a headers message.
func (msg *MsgHeaders) Command() string { return CmdHeaders }

// AddBlockHeader adds a header to the message.
func (msg *MsgHeaders) AddBlockHeader(h *BlockHeader) {
	msg.Headers = append(msg.Headers, h)
}

// BtcEncode encodes the message to w.
func (msg *MsgHeaders) BtcEncode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(msg.Headers))); err != nil {
		return err
	}
	for _, h := range msg.Headers {
		if err := h.BtcEncode(w); err != nil {
			return err
		}
	}
	return nil
}

// BtcDecode decodes r into the receiver.
func (msg *MsgHeaders) BtcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxHeaders {
		return messageError("MsgHeaders.BtcDecode", "too many headers")
	}
	msg.Headers = make([]*BlockHeader, count)
	for i := range msg.Headers {
		h := &BlockHeader{}
		if err := h.BtcDecode(r); err != nil {
			return err
		}
		msg.Headers[i] = h
	}
	return nil
}
