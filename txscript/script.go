// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// ErrUnsupportedOpcode is returned when a script byte does not correspond
// to a push-data length or one of the four supported opcodes.
var ErrUnsupportedOpcode = fmt.Errorf("unsupported opcode")

// parsedOp is a single parsed script element: either a data push (len(data)
// > 0, opcode == 0) or a bare opcode.
type parsedOp struct {
	opcode byte
	data   []byte
}

// parseScript tokenizes a script into its sequence of pushes and opcodes.
func parseScript(script []byte) ([]parsedOp, error) {
	var ops []parsedOp
	i := 0
	for i < len(script) {
		op := script[i]
		switch {
		case op >= 1 && op <= 75:
			end := i + 1 + int(op)
			if end > len(script) {
				return nil, fmt.Errorf("txscript: push of %d bytes exceeds script", op)
			}
			ops = append(ops, parsedOp{data: script[i+1 : end]})
			i = end

		case op == OP_DUP, op == OP_HASH160, op == OP_EQUALVERIFY, op == OP_CHECKSIG:
			ops = append(ops, parsedOp{opcode: op})
			i++

		default:
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedOpcode, op)
		}
	}
	return ops, nil
}

// pushData appends a minimal-push encoding of data to script.
func pushData(script []byte, data []byte) ([]byte, error) {
	op, ok := dataPushOpcode(len(data))
	if !ok {
		return nil, fmt.Errorf("txscript: cannot push %d bytes", len(data))
	}
	script = append(script, op)
	script = append(script, data...)
	return script, nil
}

// PayToPubKeyHashScript builds the canonical P2PKH locking script for the
// given 20-byte hash160: DUP HASH160 <h160> EQUALVERIFY CHECKSIG.
func PayToPubKeyHashScript(pkHash []byte) ([]byte, error) {
	if len(pkHash) != 20 {
		return nil, fmt.Errorf("txscript: hash160 must be 20 bytes, got %d", len(pkHash))
	}
	script := make([]byte, 0, 25)
	script = append(script, OP_DUP, OP_HASH160)
	script, err := pushData(script, pkHash)
	if err != nil {
		return nil, err
	}
	script = append(script, OP_EQUALVERIFY, OP_CHECKSIG)
	return script, nil
}

// ExtractPubKeyHash returns the 20-byte hash160 locked by script if
// script is a standard P2PKH locking script (DUP HASH160 <h160>
// EQUALVERIFY CHECKSIG), and false otherwise.
func ExtractPubKeyHash(script []byte) ([]byte, bool) {
	ops, err := parseScript(script)
	if err != nil {
		return nil, false
	}
	if len(ops) != 5 {
		return nil, false
	}
	if ops[0].opcode != OP_DUP || ops[1].opcode != OP_HASH160 {
		return nil, false
	}
	if len(ops[2].data) != 20 {
		return nil, false
	}
	if ops[3].opcode != OP_EQUALVERIFY || ops[4].opcode != OP_CHECKSIG {
		return nil, false
	}
	return ops[2].data, true
}

// SignatureScript builds the unlocking script for a P2PKH spend: a push
// of the DER signature with the appended sighash-type byte, followed by a
// push of the serialized public key.
func SignatureScript(sigDER []byte, pubKey []byte) ([]byte, error) {
	sigWithType := make([]byte, len(sigDER)+1)
	copy(sigWithType, sigDER)
	sigWithType[len(sigDER)] = SigHashAllValue

	script, err := pushData(nil, sigWithType)
	if err != nil {
		return nil, err
	}
	script, err = pushData(script, pubKey)
	if err != nil {
		return nil, err
	}
	return script, nil
}

// CoinbaseScriptSig builds a coinbase unlocking script whose first data
// element is the block height, little-endian encoded in the minimal
// number of bytes, per §3's coinbase invariant.
func CoinbaseScriptSig(height int64, extra []byte) ([]byte, error) {
	heightBytes := minimalLittleEndian(height)
	script, err := pushData(nil, heightBytes)
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		script, err = pushData(script, extra)
		if err != nil {
			return nil, err
		}
	}
	return script, nil
}

// ExtractCoinbaseHeight parses the block height carried by a coinbase
// input's unlocking script, per §3. It returns an error if the script does
// not begin with a valid height push.
func ExtractCoinbaseHeight(scriptSig []byte) (int64, error) {
	ops, err := parseScript(scriptSig)
	if err != nil || len(ops) == 0 || ops[0].opcode != 0 {
		return 0, fmt.Errorf("txscript: coinbase script does not begin with a height push")
	}
	return littleEndianToInt64(ops[0].data), nil
}

// minimalLittleEndian encodes a non-negative height as the smallest
// little-endian byte string that round-trips through littleEndianToInt64,
// matching Bitcoin-style CScriptNum minimal push rules closely enough for
// this engine's single use (coinbase height encoding). Zero is encoded as
// the single byte 0x00, since parseScript has no empty push.
func minimalLittleEndian(n int64) []byte {
	if n == 0 {
		return []byte{0x00}
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	end := 8
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	// If the most significant byte has its high bit set, append a zero
	// byte so the value is never misread as negative.
	if end > 0 && buf[end-1]&0x80 != 0 {
		return append(buf[:end], 0x00)
	}
	return buf[:end]
}

func littleEndianToInt64(b []byte) int64 {
	var v uint64
	for i, by := range b {
		if i >= 8 {
			break
		}
		v |= uint64(by) << uint(8*i)
	}
	return int64(v)
}
