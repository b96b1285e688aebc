// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"hash"

	"golang.org/x/crypto/ripemd160"

	"github.com/0xnohan/Kernel/chainhash"
)

// calcHash calculates the hash of hasher over buf.
func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// Hash160 calculates the hash ripemd160(sha256(sha256(b))), the address
// digest used by pay-to-public-key-hash locking scripts.
func Hash160(buf []byte) []byte {
	return calcHash(chainhash.HashB(buf), ripemd160.New())
}
