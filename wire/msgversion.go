// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgVersion implements the Message interface and represents the version
// message exchanged at the start of every peer handshake (§4.9).
type MsgVersion struct {
	ProtocolVersion uint32
	StartHeight     int32
}

// Command returns the protocol command string for a version message.
func (msg *MsgVersion) Command() string {
	return CmdVersion
}

// BtcEncode encodes the message to w.
func (msg *MsgVersion) BtcEncode(w io.Writer) error {
	if err := binaryWriteUint32(w, msg.ProtocolVersion); err != nil {
		return err
	}
	return binaryWriteUint32(w, uint32(msg.StartHeight))
}

// BtcDecode decodes r into the receiver.
func (msg *MsgVersion) BtcDecode(r io.Reader) error {
	var err error
	if msg.ProtocolVersion, err = binarySerializerUint32(r); err != nil {
		return err
	}
	h, err := binarySerializerUint32(r)
	if err != nil {
		return err
	}
	msg.StartHeight = int32(h)
	return nil
}

// MsgVerAck implements the Message interface and represents the empty
// verack acknowledgement that completes the handshake.
type MsgVerAck struct{}

// Command returns the protocol command string for a verack message.
func (msg *MsgVerAck) Command() string {
	return CmdVerAck
}

// BtcEncode encodes the message to w. Verack carries no payload.
func (msg *MsgVerAck) BtcEncode(w io.Writer) error {
	return nil
}

// BtcDecode decodes r into the receiver. Verack carries no payload.
func (msg *MsgVerAck) BtcDecode(r io.Reader) error {
	return nil
}
