// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"math/big"
	"testing"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBlockRoundTrip(t *testing.T) {
	s := openTestStore(t)
	hash := chainhash.HashH([]byte("block"))

	if has, err := s.HasBlock(hash); err != nil || has {
		t.Fatalf("unexpected presence before write: has=%v err=%v", has, err)
	}

	if err := s.PutBlock(hash, []byte("raw-block-bytes")); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}
	got, err := s.GetBlock(hash)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if string(got) != "raw-block-bytes" {
		t.Fatalf("GetBlock = %q", got)
	}
}

func TestIndexEntryRoundTripAndIteration(t *testing.T) {
	s := openTestStore(t)

	hashes := make([]chainhash.Hash, 3)
	for i := range hashes {
		hashes[i] = chainhash.HashH([]byte{byte(i)})
		entry := &IndexEntry{
			Height:          int64(i),
			ParentHash:      chainhash.Hash{},
			AccumulatedWork: big.NewInt(int64(i) * 1000),
			Status:          StatusValid,
		}
		if err := s.PutIndexEntry(hashes[i], entry); err != nil {
			t.Fatalf("PutIndexEntry: %v", err)
		}
	}

	got, err := s.GetIndexEntry(hashes[1])
	if err != nil {
		t.Fatalf("GetIndexEntry: %v", err)
	}
	if got.Height != 1 || got.AccumulatedWork.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected entry: %+v", got)
	}

	seen := 0
	if err := s.ForEachIndexEntry(func(hash chainhash.Hash, e *IndexEntry) error {
		seen++
		return nil
	}); err != nil {
		t.Fatalf("ForEachIndexEntry: %v", err)
	}
	if seen != len(hashes) {
		t.Fatalf("iterated %d entries, want %d", seen, len(hashes))
	}

	if err := s.PutTip(hashes[2]); err != nil {
		t.Fatalf("PutTip: %v", err)
	}
	tip, err := s.GetTip()
	if err != nil {
		t.Fatalf("GetTip: %v", err)
	}
	if tip != hashes[2] {
		t.Fatalf("GetTip = %s, want %s", tip, hashes[2])
	}
}

func TestUTXOBatchCommitsAtomicallyWithLastApplied(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetLastAppliedHash(); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	op := wire.OutPoint{Hash: chainhash.HashH([]byte("tx")), Index: 0}
	blockHash := chainhash.HashH([]byte("block-1"))

	batch := s.NewUTXOBatch()
	batch.PutEntry(op, &UTXOEntry{Value: 5_000_000_000, PkScript: []byte{0x76, 0xa9}})
	if err := s.Commit(batch, blockHash); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entry, err := s.GetUTXO(op)
	if err != nil {
		t.Fatalf("GetUTXO: %v", err)
	}
	if entry.Value != 5_000_000_000 {
		t.Fatalf("entry.Value = %d", entry.Value)
	}

	lastApplied, err := s.GetLastAppliedHash()
	if err != nil {
		t.Fatalf("GetLastAppliedHash: %v", err)
	}
	if lastApplied != blockHash {
		t.Fatalf("GetLastAppliedHash = %s, want %s", lastApplied, blockHash)
	}

	// Spend it in a second batch and confirm it disappears.
	spend := s.NewUTXOBatch()
	spend.DeleteEntry(op)
	blockHash2 := chainhash.HashH([]byte("block-2"))
	if err := s.Commit(spend, blockHash2); err != nil {
		t.Fatalf("Commit (spend): %v", err)
	}
	if has, err := s.HasUTXO(op); err != nil || has {
		t.Fatalf("expected spent output to be gone: has=%v err=%v", has, err)
	}
}

func TestForEachUTXOSkipsLastAppliedMetadata(t *testing.T) {
	s := openTestStore(t)

	ops := []wire.OutPoint{
		{Hash: chainhash.HashH([]byte("tx-a")), Index: 0},
		{Hash: chainhash.HashH([]byte("tx-b")), Index: 1},
	}
	batch := s.NewUTXOBatch()
	for i, op := range ops {
		batch.PutEntry(op, &UTXOEntry{Value: int64(i + 1), PkScript: []byte{0x76, 0xa9}})
	}
	if err := s.Commit(batch, chainhash.HashH([]byte("block"))); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	seen := make(map[wire.OutPoint]int64)
	if err := s.ForEachUTXO(func(op wire.OutPoint, entry *UTXOEntry) error {
		seen[op] = entry.Value
		return nil
	}); err != nil {
		t.Fatalf("ForEachUTXO: %v", err)
	}
	if len(seen) != len(ops) {
		t.Fatalf("ForEachUTXO visited %d entries, want %d (metadata key leaked through)", len(seen), len(ops))
	}
	for i, op := range ops {
		if seen[op] != int64(i+1) {
			t.Fatalf("seen[%d] = %d, want %d", i, seen[op], i+1)
		}
	}
}

func TestConsistentWithTip(t *testing.T) {
	s := openTestStore(t)

	consistent, err := s.ConsistentWithTip()
	if err != nil {
		t.Fatalf("ConsistentWithTip (empty): %v", err)
	}
	if !consistent {
		t.Fatalf("an empty store should be trivially consistent")
	}

	blockHash := chainhash.HashH([]byte("only-block"))
	if err := s.PutTip(blockHash); err != nil {
		t.Fatalf("PutTip: %v", err)
	}

	consistent, err = s.ConsistentWithTip()
	if err != nil {
		t.Fatalf("ConsistentWithTip (tip set, utxo meta absent): %v", err)
	}
	if consistent {
		t.Fatalf("tip recorded but no last-applied hash must be inconsistent")
	}

	batch := s.NewUTXOBatch()
	if err := s.Commit(batch, blockHash); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	consistent, err = s.ConsistentWithTip()
	if err != nil {
		t.Fatalf("ConsistentWithTip (matching): %v", err)
	}
	if !consistent {
		t.Fatalf("matching tip and last-applied hash must be consistent")
	}
}

func TestTxIndexRoundTrip(t *testing.T) {
	s := openTestStore(t)
	txID := chainhash.HashH([]byte("tx-1"))
	loc := TxLocation{BlockHash: chainhash.HashH([]byte("block")), Index: 2}

	if err := s.PutTxLocation(txID, loc); err != nil {
		t.Fatalf("PutTxLocation: %v", err)
	}
	got, err := s.GetTxLocation(txID)
	if err != nil {
		t.Fatalf("GetTxLocation: %v", err)
	}
	if got != loc {
		t.Fatalf("GetTxLocation = %+v, want %+v", got, loc)
	}

	if err := s.DeleteTxLocation(txID); err != nil {
		t.Fatalf("DeleteTxLocation: %v", err)
	}
	if _, err := s.GetTxLocation(txID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
