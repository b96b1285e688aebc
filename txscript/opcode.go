// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txscript implements the minimal P2PKH-only stack machine of
// §4.2: push-data, DUP, HASH160, EQUALVERIFY, and CHECKSIG.
package txscript

// Opcodes supported by the engine. Values are chosen to match the
// conventional Bitcoin-script byte values so that scripts produced here
// are byte-identical to the reference P2PKH form even though no other
// opcode is implemented.
const (
	// OP_DATA_20 is the push opcode for exactly 20 bytes of data, the
	// size of a hash160.
	OP_DATA_20 = 0x14

	// OP_DUP duplicates the top stack item.
	OP_DUP = 0x76

	// OP_HASH160 replaces the top stack item with its hash160.
	OP_HASH160 = 0xa9

	// OP_EQUALVERIFY pops two items and aborts execution if they are not
	// byte-equal.
	OP_EQUALVERIFY = 0x88

	// OP_CHECKSIG pops a signature and a public key and pushes true if the
	// signature is a valid secp256k1/ECDSA signature over the
	// transaction's signature hash, false otherwise.
	OP_CHECKSIG = 0xac
)

// SigHashAllValue is the single signature-hash-type byte this engine
// supports, appended to every signature before it is pushed onto the
// unlocking script.
const SigHashAllValue = 0x01

// dataPushOpcode returns the single-byte push opcode for a data push of
// the given length. Only lengths up to 75 are supported, which is every
// length this engine's P2PKH scripts and DER-encoded signatures ever need.
func dataPushOpcode(length int) (byte, bool) {
	if length < 0 || length > 75 {
		return 0, false
	}
	return byte(length), true
}
