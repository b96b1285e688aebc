// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"errors"
	"fmt"

	"github.com/decred/base58"

	"github.com/0xnohan/Kernel/chainhash"
)

// AddressVersion is the single-byte version prefix placed ahead of the
// hash160 in every public address. The network is not distinguished by a
// second byte the way some chains do it; this kernel targets one network
// per running process.
const AddressVersion = 0x6c

// checksumLen is the number of leading bytes of the double-SHA256 digest
// appended as a checksum.
const checksumLen = 4

// ErrChecksumMismatch describes an error where decoding an address string
// resulted in a checksum that does not match the calculated checksum.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrMalformedAddress describes an error where an address is neither the
// correct length nor carries the expected version byte.
var ErrMalformedAddress = errors.New("malformed address")

// AddressPubKeyHash represents a pay-to-public-key-hash address, encoded
// and decoded with Base58Check: 1-byte version prefix, the 20-byte
// hash160, and a 4-byte checksum being the first four bytes of the
// double-SHA256 of version||hash160.
type AddressPubKeyHash struct {
	hash [20]byte
}

// NewAddressPubKeyHash returns an address given a 20-byte hash160.
func NewAddressPubKeyHash(pkHash []byte) (*AddressPubKeyHash, error) {
	if len(pkHash) != 20 {
		return nil, fmt.Errorf("hash160 must be 20 bytes, got %d", len(pkHash))
	}
	addr := &AddressPubKeyHash{}
	copy(addr.hash[:], pkHash)
	return addr, nil
}

// Hash160 returns the underlying address hash.
func (a *AddressPubKeyHash) Hash160() *[20]byte {
	return &a.hash
}

// String returns the Base58Check encoding of the address.
func (a *AddressPubKeyHash) String() string {
	payload := make([]byte, 0, 1+20+checksumLen)
	payload = append(payload, AddressVersion)
	payload = append(payload, a.hash[:]...)
	cksum := chainhash.HashB(payload)
	payload = append(payload, cksum[:checksumLen]...)
	return base58.Encode(payload)
}

// DecodeAddress decodes a Base58Check address string into its hash160,
// validating the version byte and checksum.
func DecodeAddress(addr string) (*AddressPubKeyHash, error) {
	decoded := base58.Decode(addr)
	if len(decoded) != 1+20+checksumLen {
		return nil, ErrMalformedAddress
	}

	version := decoded[0]
	hash := decoded[1:21]
	cksum := decoded[21:]

	if version != AddressVersion {
		return nil, ErrMalformedAddress
	}

	payload := decoded[:21]
	calculated := chainhash.HashB(payload)
	for i := 0; i < checksumLen; i++ {
		if calculated[i] != cksum[i] {
			return nil, ErrChecksumMismatch
		}
	}

	return NewAddressPubKeyHash(hash)
}
