// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// maxAddrPerMsg bounds the number of addresses accepted in a single addr
// message.
const maxAddrPerMsg = 2000

// maxHostLen bounds the length of a single host string in an addr message.
const maxHostLen = 255

// NetAddress describes a single known peer: a host and port.
type NetAddress struct {
	Host string
	Port uint16
}

// MsgGetAddr implements the Message interface and represents a request for
// known peer addresses.
type MsgGetAddr struct{}

// Command returns the protocol command string for a getaddr message.
func (msg *MsgGetAddr) Command() string { return CmdGetAddr }

// BtcEncode encodes the message to w. Getaddr carries no payload.
func (msg *MsgGetAddr) BtcEncode(w io.Writer) error { return nil }

// BtcDecode decodes r into the receiver. Getaddr carries no payload.
func (msg *MsgGetAddr) BtcDecode(r io.Reader) error { return nil }

// MsgAddr implements the Message interface and represents a list of known
// peer addresses: varint count followed by repeated (varint host-len,
// host bytes, u32 port).
type MsgAddr struct {
	AddrList []NetAddress
}

// Command returns the protocol command string for an addr message.
func (msg *MsgAddr) Command() string { return CmdAddr }

// BtcEncode encodes the message to w.
func (msg *MsgAddr) BtcEncode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(msg.AddrList))); err != nil {
		return err
	}
	for _, addr := range msg.AddrList {
		if err := WriteVarBytes(w, []byte(addr.Host)); err != nil {
			return err
		}
		if err := binaryWriteUint32(w, uint32(addr.Port)); err != nil {
			return err
		}
	}
	return nil
}

// BtcDecode decodes r into the receiver.
func (msg *MsgAddr) BtcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxAddrPerMsg {
		return messageError("MsgAddr.BtcDecode", "too many addresses")
	}
	msg.AddrList = make([]NetAddress, count)
	for i := range msg.AddrList {
		hostBytes, err := ReadVarBytes(r, maxHostLen, "addr host")
		if err != nil {
			return err
		}
		port, err := binarySerializerUint32(r)
		if err != nil {
			return err
		}
		msg.AddrList[i] = NetAddress{Host: string(hostBytes), Port: uint16(port)}
	}
	return nil
}
