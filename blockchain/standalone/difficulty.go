// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package standalone houses proof-of-work helpers that have no
// dependency on blockchain state: compact "bits" target conversion,
// accumulated work, and proof-of-work verification (§4.1, §4.6).
package standalone

import (
	"fmt"
	"math/big"

	"github.com/0xnohan/Kernel/chainhash"
)

var (
	bigOne  = big.NewInt(1)
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)
)

// CompactToBig converts the 32-bit compact representation of a whole
// number N to a big integer. The representation is similar to IEEE754
// floating point, with a 1-byte exponent e and a 3-byte mantissa m:
// N = m * 2^(8*(e-3)).
//
// This compact form is used in the proof-of-work "bits" field that
// represents the target difficulty, and is decoded here per §4.1.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := compact >> 24

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, uint(8*(exponent-3)))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number, normalizing so the mantissa's top bit is
// zero, the inverse of CompactToBig.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var isNegative bool
	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		if tn.Sign() < 0 {
			tn = tn.Neg(tn)
		}
		mantissa = uint32(new(big.Int).Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	isNegative = n.Sign() < 0

	compact := uint32(exponent<<24) | mantissa
	if isNegative {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork calculates the expected amount of work for a block given its
// compact-form difficulty target, per §3: work = floor(2^256 / (target+1)).
func CalcWork(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}

	denominator := new(big.Int).Add(target, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}

// CheckProofOfWork reports whether headerHash, interpreted as a
// little-endian unsigned integer, is numerically less than or equal to
// the target decoded from bits, and rejects targets outside the
// network's proof-of-work limit.
func CheckProofOfWork(headerHash chainhash.Hash, bits uint32, powLimit *big.Int) error {
	target := CompactToBig(bits)

	if target.Sign() <= 0 {
		return fmt.Errorf("block target difficulty of %064x is too low", target)
	}
	if target.Cmp(powLimit) > 0 {
		return fmt.Errorf("block target difficulty of %064x is higher than max of %064x",
			target, powLimit)
	}

	hashNum := HashToBig(headerHash)
	if hashNum.Cmp(target) > 0 {
		return fmt.Errorf("block hash of %064x is higher than expected max of %064x",
			hashNum, target)
	}

	return nil
}

// HashToBig interprets a hash as a little-endian unsigned 256-bit integer,
// the representation used to compare a header hash against its target.
func HashToBig(hash chainhash.Hash) *big.Int {
	var buf chainhash.Hash
	blen := len(hash)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = hash[blen-1-i], hash[i]
	}
	return new(big.Int).SetBytes(buf[:])
}
