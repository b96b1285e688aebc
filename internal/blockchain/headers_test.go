// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/0xnohan/Kernel/chainhash"
)

func TestLocateHeadersFromGenesis(t *testing.T) {
	mgr, params := newTestManager(t)
	genesisHash, _ := mgr.Tip()

	block1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock(block1): %v", err)
	}
	block2 := mineChild(t, params, block1.BlockHash(), 2, params.PowLimitBits, block1.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block2); err != nil {
		t.Fatalf("ProcessNewBlock(block2): %v", err)
	}

	headers := mgr.LocateHeaders([]chainhash.Hash{genesisHash}, chainhash.Hash{})
	if len(headers) != 2 {
		t.Fatalf("len(headers) = %d, want 2", len(headers))
	}
	if headers[0].BlockHash() != block1.BlockHash() || headers[1].BlockHash() != block2.BlockHash() {
		t.Fatal("LocateHeaders did not return block1 then block2 in order")
	}

	// A locator hash the chain doesn't recognize must fall back to
	// returning headers from genesis, rather than an empty batch.
	var unknown chainhash.Hash
	unknown[0] = 0xff
	fromGenesis := mgr.LocateHeaders([]chainhash.Hash{unknown}, chainhash.Hash{})
	if len(fromGenesis) != 2 || fromGenesis[0].BlockHash() != block1.BlockHash() {
		t.Fatal("LocateHeaders with an unrecognized locator must start from genesis")
	}
}

func TestBlockByHashReturnsStoredBlock(t *testing.T) {
	mgr, params := newTestManager(t)
	genesisHash, _ := mgr.Tip()

	block1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}

	got, err := mgr.BlockByHash(block1.BlockHash())
	if err != nil {
		t.Fatalf("BlockByHash: %v", err)
	}
	if got.BlockHash() != block1.BlockHash() {
		t.Fatal("BlockByHash returned the wrong block")
	}
}

func TestBlockHeightReturnsIndexedHeight(t *testing.T) {
	mgr, params := newTestManager(t)
	genesisHash, _ := mgr.Tip()

	block1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}

	height, ok := mgr.BlockHeight(block1.BlockHash())
	if !ok {
		t.Fatal("expected block1 to be found in the index")
	}
	if height != 1 {
		t.Fatalf("height = %d, want 1", height)
	}

	if _, ok := mgr.BlockHeight(chainhash.Hash{0xff}); ok {
		t.Fatal("expected an unknown hash to report not-found")
	}
}

func TestBlockHashAtHeightWalksFromTip(t *testing.T) {
	mgr, params := newTestManager(t)
	genesisHash, _ := mgr.Tip()

	block1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock(block1): %v", err)
	}
	block2 := mineChild(t, params, block1.BlockHash(), 2, params.PowLimitBits, block1.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(block2); err != nil {
		t.Fatalf("ProcessNewBlock(block2): %v", err)
	}

	if hash, ok := mgr.BlockHashAtHeight(0); !ok || hash != genesisHash {
		t.Fatalf("BlockHashAtHeight(0) = %s, %v, want genesis", hash, ok)
	}
	if hash, ok := mgr.BlockHashAtHeight(1); !ok || hash != block1.BlockHash() {
		t.Fatalf("BlockHashAtHeight(1) = %s, %v, want block1", hash, ok)
	}
	if hash, ok := mgr.BlockHashAtHeight(2); !ok || hash != block2.BlockHash() {
		t.Fatalf("BlockHashAtHeight(2) = %s, %v, want block2", hash, ok)
	}
	if _, ok := mgr.BlockHashAtHeight(3); ok {
		t.Fatal("expected a height past the tip to report not-found")
	}
}
