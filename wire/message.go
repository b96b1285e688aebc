// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/0xnohan/Kernel/chainhash"
)

// CommandSize is the fixed, zero-padded size of a message command name in
// the framing envelope.
const CommandSize = 12

// MaxPayloadSize is the maximum length accepted for any single message
// payload; generous relative to MaxBlockSize so a full block always fits.
const MaxPayloadSize = MaxBlockSize + 4096

// Message command strings. These are used verbatim as the 12-byte
// zero-padded command field of the framing envelope.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdGetAddr    = "getaddr"
	CmdAddr       = "addr"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdTx         = "tx"
	CmdBlock      = "block"
	CmdPing       = "ping"
	CmdPong       = "pong"
)

// Message is implemented by every message type exchanged between peers.
type Message interface {
	Command() string
	BtcEncode(w io.Writer) error
	BtcDecode(r io.Reader) error
}

// makeEmptyMessage returns a freshly allocated Message of the type
// identified by command, or an error if the command is unrecognized. An
// unrecognized command is a Malformed error per spec §7: the caller drops
// the message.
func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdGetHeaders:
		return &MsgGetHeaders{}, nil
	case CmdHeaders:
		return &MsgHeaders{}, nil
	case CmdInv:
		return &MsgInv{}, nil
	case CmdGetData:
		return &MsgGetData{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	default:
		return nil, messageError("makeEmptyMessage", fmt.Sprintf("unhandled command %q", command))
	}
}

// WriteMessage writes a complete framed message to w: 4-byte network
// magic, 12-byte zero-padded command, 4-byte little-endian payload length,
// 4-byte checksum (first 4 bytes of double-SHA256 of the payload), then
// the payload itself.
func WriteMessage(w io.Writer, msg Message, magic uint32) error {
	var payloadBuf bytes.Buffer
	if err := msg.BtcEncode(&payloadBuf); err != nil {
		return err
	}
	payload := payloadBuf.Bytes()
	if len(payload) > MaxPayloadSize {
		return messageError("WriteMessage", fmt.Sprintf("payload of %d bytes exceeds max of %d",
			len(payload), MaxPayloadSize))
	}

	command := msg.Command()
	if len(command) > CommandSize {
		return messageError("WriteMessage", fmt.Sprintf("command %q too long", command))
	}
	var commandBytes [CommandSize]byte
	copy(commandBytes[:], command)

	if err := binaryWriteUint32(w, magic); err != nil {
		return err
	}
	if _, err := w.Write(commandBytes[:]); err != nil {
		return err
	}
	if err := binaryWriteUint32(w, uint32(len(payload))); err != nil {
		return err
	}
	checksum := chainhash.HashB(payload)
	if _, err := w.Write(checksum[:4]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessage reads a complete framed message from r, validating the
// network magic and payload checksum, and returns the decoded Message
// along with its command name. Framing or checksum failures, and unknown
// commands, are Malformed errors per spec §7 — the caller should drop the
// message (and may track repeat offenses against the peer) rather than
// treat it as fatal.
func ReadMessage(r io.Reader, magic uint32) (Message, string, error) {
	gotMagic, err := binarySerializerUint32(r)
	if err != nil {
		return nil, "", err
	}
	if gotMagic != magic {
		return nil, "", messageError("ReadMessage", fmt.Sprintf("unexpected network magic %x, want %x", gotMagic, magic))
	}

	commandBytes, err := readRawBytes(r, CommandSize)
	if err != nil {
		return nil, "", err
	}
	command := string(bytes.TrimRight(commandBytes, "\x00"))

	payloadLen, err := binarySerializerUint32(r)
	if err != nil {
		return nil, "", err
	}
	if payloadLen > MaxPayloadSize {
		return nil, "", messageError("ReadMessage", fmt.Sprintf("payload of %d bytes exceeds max of %d",
			payloadLen, MaxPayloadSize))
	}

	checksum, err := readRawBytes(r, 4)
	if err != nil {
		return nil, "", err
	}

	payload, err := readRawBytes(r, int(payloadLen))
	if err != nil {
		return nil, "", err
	}

	calculated := chainhash.HashB(payload)
	if !bytes.Equal(calculated[:4], checksum) {
		return nil, "", messageError("ReadMessage", "checksum mismatch")
	}

	msg, err := makeEmptyMessage(command)
	if err != nil {
		return nil, command, err
	}
	if err := msg.BtcDecode(bytes.NewReader(payload)); err != nil {
		return nil, command, err
	}

	return msg, command, nil
}
