// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the kernel's peer-to-peer wire protocol: the
// framing envelope, the little-endian primitive codecs, and the message
// types exchanged between peers.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// littleEndian is the byte order used for every multi-byte integer on the
// wire, per the protocol's convention.
var littleEndian = binary.LittleEndian

// binaryFreeList houses a free list of byte slices used to efficiently
// read and write integer values to and from the wire.
type binaryFreeList chan []byte

// Borrow returns a byte slice of length 8 from the free list.
func (l binaryFreeList) Borrow() []byte {
	var buf []byte
	select {
	case buf = <-l:
	default:
		buf = make([]byte, 8)
	}
	return buf[:8]
}

// Return puts the provided byte slice back on the free list.
func (l binaryFreeList) Return(buf []byte) {
	select {
	case l <- buf:
	default:
	}
}

// binarySerializer is the shared free list all of the functions which need
// to read or write integral values via readElement/writeElement use.
var binarySerializer binaryFreeList = make(chan []byte, 32)

func binarySerializerUint8(r io.Reader) (uint8, error) {
	buf := binarySerializer.Borrow()[:1]
	defer binarySerializer.Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func binaryWriteUint8(w io.Writer, val uint8) error {
	buf := binarySerializer.Borrow()[:1]
	defer binarySerializer.Return(buf)
	buf[0] = val
	_, err := w.Write(buf)
	return err
}

func binarySerializerUint16(r io.Reader) (uint16, error) {
	buf := binarySerializer.Borrow()[:2]
	defer binarySerializer.Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint16(buf), nil
}

func binaryWriteUint16(w io.Writer, val uint16) error {
	buf := binarySerializer.Borrow()[:2]
	defer binarySerializer.Return(buf)
	littleEndian.PutUint16(buf, val)
	_, err := w.Write(buf)
	return err
}

func binarySerializerUint32(r io.Reader) (uint32, error) {
	buf := binarySerializer.Borrow()[:4]
	defer binarySerializer.Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(buf), nil
}

func binaryWriteUint32(w io.Writer, val uint32) error {
	buf := binarySerializer.Borrow()[:4]
	defer binarySerializer.Return(buf)
	littleEndian.PutUint32(buf, val)
	_, err := w.Write(buf)
	return err
}

func binarySerializerUint64(r io.Reader) (uint64, error) {
	buf := binarySerializer.Borrow()[:8]
	defer binarySerializer.Return(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(buf), nil
}

func binaryWriteUint64(w io.Writer, val uint64) error {
	buf := binarySerializer.Borrow()[:8]
	defer binarySerializer.Return(buf)
	littleEndian.PutUint64(buf, val)
	_, err := w.Write(buf)
	return err
}

// ReadVarInt reads a variable length integer (compact size) from r and
// returns it as a uint64. Encoding: values < 0xfd encode as a single byte;
// 0xfd prefixes a uint16 (3 bytes total); 0xfe prefixes a uint32 (5 bytes
// total); 0xff prefixes a uint64 (9 bytes total).
func ReadVarInt(r io.Reader) (uint64, error) {
	discriminant, err := binarySerializerUint8(r)
	if err != nil {
		return 0, err
	}

	switch discriminant {
	case 0xff:
		v, err := binarySerializerUint64(r)
		if err != nil {
			return 0, err
		}
		if v < 0x100000000 {
			return 0, fmt.Errorf("ReadVarInt: 64-bit varint %d non-canonical", v)
		}
		return v, nil

	case 0xfe:
		v, err := binarySerializerUint32(r)
		if err != nil {
			return 0, err
		}
		if v < 0x10000 {
			return 0, fmt.Errorf("ReadVarInt: 32-bit varint %d non-canonical", v)
		}
		return uint64(v), nil

	case 0xfd:
		v, err := binarySerializerUint16(r)
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, fmt.Errorf("ReadVarInt: 16-bit varint %d non-canonical", v)
		}
		return uint64(v), nil

	default:
		return uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w using the variable length integer
// encoding described by ReadVarInt.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return binaryWriteUint8(w, uint8(val))
	}

	if val <= 0xffff {
		if err := binaryWriteUint8(w, 0xfd); err != nil {
			return err
		}
		return binaryWriteUint16(w, uint16(val))
	}

	if val <= 0xffffffff {
		if err := binaryWriteUint8(w, 0xfe); err != nil {
			return err
		}
		return binaryWriteUint32(w, uint32(val))
	}

	if err := binaryWriteUint8(w, 0xff); err != nil {
		return err
	}
	return binaryWriteUint64(w, val)
}

// VarIntSerializeSize returns the number of bytes it would take to
// serialize val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= 0xffff {
		return 3
	}
	if val <= 0xffffffff {
		return 5
	}
	return 9
}

// ReadVarBytes reads a variable length byte array. A maxAllowed parameter is
// provided to ensure that an attacker cannot cause an allocation large
// enough to trigger an out-of-memory error.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		return nil, fmt.Errorf("%s is larger than the max allowed size [count %d, max %d]",
			fieldName, count, maxAllowed)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array to w as a varint
// containing the number of bytes, followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readRawBytes reads exactly n bytes from r, as they appear on the wire
// (hashes are read in natural, non-display-reversed byte order).
func readRawBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := io.ReadFull(r, b)
	return b, err
}
