// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaintest

import (
	"testing"

	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/txscript"
)

func testPayScript(t *testing.T) []byte {
	t.Helper()
	script, err := txscript.PayToPubKeyHashScript(make([]byte, 20))
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	return script
}

func TestMineExtendsTipByOne(t *testing.T) {
	h := New(t)
	_, startHeight := h.Chain.Tip()

	block := h.Mine(testPayScript(t))

	tipHash, height := h.Chain.Tip()
	if tipHash != block.BlockHash() {
		t.Fatal("expected the mined block to become the new tip")
	}
	if height != startHeight+1 {
		t.Fatalf("height = %d, want %d", height, startHeight+1)
	}
}

func TestMineNProducesConsecutiveChain(t *testing.T) {
	h := New(t)
	blocks := h.MineN(5, testPayScript(t))

	if len(blocks) != 5 {
		t.Fatalf("len(blocks) = %d, want 5", len(blocks))
	}
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Header.PrevBlock != blocks[i-1].BlockHash() {
			t.Fatalf("block %d does not chain to block %d", i, i-1)
		}
	}

	_, height := h.Chain.Tip()
	if height != 5 {
		t.Fatalf("height = %d, want 5", height)
	}
}

func TestBuildDoesNotSubmit(t *testing.T) {
	h := New(t)
	tipHash, tipHeight := h.Chain.Tip()

	block := h.Build(testPayScript(t))

	if _, ok := h.Chain.BlockHeight(block.BlockHash()); ok {
		t.Fatal("Build must not submit the block to the chain")
	}
	gotTip, gotHeight := h.Chain.Tip()
	if gotTip != tipHash || gotHeight != tipHeight {
		t.Fatal("Build must not change the chain tip")
	}
	if status, err := h.Chain.ProcessNewBlock(block); err != nil || status != blockchain.StatusAcceptedMainChain {
		t.Fatalf("the block Build returned must still be independently submittable, got status=%v err=%v", status, err)
	}
}
