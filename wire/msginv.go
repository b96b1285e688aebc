// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/0xnohan/Kernel/chainhash"
)

// InvType identifies the kind of object an inventory vector refers to.
type InvType uint32

// Inventory object types, per §4.9.
const (
	InvTypeTx    InvType = 1
	InvTypeBlock InvType = 2
)

// maxInvPerMsg bounds the number of entries an inv/getdata message may
// carry.
const maxInvPerMsg = 50000

// InvVect is a single inventory vector: an object type and its identifier.
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// invMessage is the shared wire shape of inv and getdata: a varint count
// followed by repeated (u32 type, 32-byte hash).
type invMessage struct {
	InvList []*InvVect
}

func (msg *invMessage) addInvVect(iv *InvVect) {
	msg.InvList = append(msg.InvList, iv)
}

func (msg *invMessage) encode(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(msg.InvList))); err != nil {
		return err
	}
	for _, iv := range msg.InvList {
		if err := binaryWriteUint32(w, uint32(iv.Type)); err != nil {
			return err
		}
		if _, err := w.Write(iv.Hash[:]); err != nil {
			return err
		}
	}
	return nil
}

func (msg *invMessage) decode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxInvPerMsg {
		return messageError("invMessage.decode", "too many inventory entries")
	}
	msg.InvList = make([]*InvVect, count)
	for i := range msg.InvList {
		iv := &InvVect{}
		typ, err := binarySerializerUint32(r)
		if err != nil {
			return err
		}
		iv.Type = InvType(typ)
		hashBytes, err := readRawBytes(r, chainhash.HashSize)
		if err != nil {
			return err
		}
		copy(iv.Hash[:], hashBytes)
		msg.InvList[i] = iv
	}
	return nil
}

// MsgInv implements the Message interface and announces objects a peer
// has available.
type MsgInv struct {
	invMessage
}

// Command returns the protocol command string for an inv message.
func (msg *MsgInv) Command() string { return CmdInv }

// AddInvVect adds an inventory vector to the message.
func (msg *MsgInv) AddInvVect(iv *InvVect) { msg.addInvVect(iv) }

// BtcEncode encodes the message to w.
func (msg *MsgInv) BtcEncode(w io.Writer) error { return msg.encode(w) }

// BtcDecode decodes r into the receiver.
func (msg *MsgInv) BtcDecode(r io.Reader) error { return msg.decode(r) }

// MsgGetData implements the Message interface and requests the full
// objects named by a list of inventory vectors.
type MsgGetData struct {
	invMessage
}

// Command returns the protocol command string for a getdata message.
func (msg *MsgGetData) Command() string { return CmdGetData }

// AddInvVect adds an inventory vector to the message.
func (msg *MsgGetData) AddInvVect(iv *InvVect) { msg.addInvVect(iv) }

// BtcEncode encodes the message to w.
func (msg *MsgGetData) BtcEncode(w io.Writer) error { return msg.encode(w) }

// BtcDecode decodes r into the receiver.
func (msg *MsgGetData) BtcDecode(r io.Reader) error { return msg.decode(r) }
