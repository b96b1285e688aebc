// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing implements the Message interface and carries a liveness nonce a
// peer is expected to echo back in a pong (§5).
type MsgPing struct {
	Nonce uint64
}

// Command returns the protocol command string for a ping message.
func (msg *MsgPing) Command() string { return CmdPing }

// BtcEncode encodes the message to w.
func (msg *MsgPing) BtcEncode(w io.Writer) error {
	return binaryWriteUint64(w, msg.Nonce)
}

// BtcDecode decodes r into the receiver.
func (msg *MsgPing) BtcDecode(r io.Reader) error {
	nonce, err := binarySerializerUint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}

// MsgPong implements the Message interface and echoes a ping's nonce.
type MsgPong struct {
	Nonce uint64
}

// Command returns the protocol command string for a pong message.
func (msg *MsgPong) Command() string { return CmdPong }

// BtcEncode encodes the message to w.
func (msg *MsgPong) BtcEncode(w io.Writer) error {
	return binaryWriteUint64(w, msg.Nonce)
}

// BtcDecode decodes r into the receiver.
func (msg *MsgPong) BtcDecode(r io.Reader) error {
	nonce, err := binarySerializerUint64(r)
	if err != nil {
		return err
	}
	msg.Nonce = nonce
	return nil
}
