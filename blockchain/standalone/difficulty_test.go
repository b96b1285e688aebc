// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package standalone

import (
	"math/big"
	"testing"

	"github.com/0xnohan/Kernel/chainhash"
)

func TestCompactRoundTrip(t *testing.T) {
	tests := []uint32{0x1d00ffff, 0x207fffff, 0x1b0404cb, 0x04123456}
	for _, bits := range tests {
		n := CompactToBig(bits)
		got := BigToCompact(n)
		if got != bits {
			t.Errorf("round trip of %08x produced %08x (via %s)", bits, got, n.String())
		}
	}
}

func TestCheckProofOfWork(t *testing.T) {
	powLimit := CompactToBig(0x207fffff)

	// An easy target (PowLimit itself) should accept a header hash equal
	// to the all-zero minimum.
	var zero chainhash.Hash
	if err := CheckProofOfWork(zero, 0x207fffff, powLimit); err != nil {
		t.Fatalf("expected zero hash to satisfy max target: %v", err)
	}

	// A maximal hash value should fail against any sane target.
	var max chainhash.Hash
	for i := range max {
		max[i] = 0xff
	}
	if err := CheckProofOfWork(max, 0x1d00ffff, powLimit); err == nil {
		t.Fatalf("expected maximal hash to fail a tight target")
	}
}

func TestCalcWorkMonotonic(t *testing.T) {
	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	if hard.Cmp(easy) <= 0 {
		t.Fatalf("harder target %s should have more work than easier target %s", hard, easy)
	}
	if easy.Sign() <= 0 {
		t.Fatalf("work must be positive")
	}
	_ = big.NewInt(0)
}
