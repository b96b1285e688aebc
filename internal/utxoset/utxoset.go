// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxoset implements §4.4's UTXO set maintenance: applying a
// connected block's net effect, undoing a disconnected block's, and
// rebuilding the set from scratch by replaying the main chain. It is a
// thin, storage-aware layer above internal/database's atomic UTXO batch
// so that the chain manager never touches leveldb directly.
package utxoset

import (
	"fmt"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// Set maintains the persisted UTXO set on top of a database.Store.
type Set struct {
	store *database.Store
}

// New returns a UTXO set manager backed by store.
func New(store *database.Store) *Set {
	return &Set{store: store}
}

// Lookup adapts the UTXO set to validate.UTXOSource, for use by
// transaction-input validation.
func (s *Set) Lookup(op wire.OutPoint) (validate.UTXOEntry, bool) {
	entry, err := s.store.GetUTXO(op)
	if err != nil {
		return validate.UTXOEntry{}, false
	}
	return validate.UTXOEntry{Value: entry.Value, PkScript: entry.PkScript}, true
}

// Entry pairs an unspent output with the outpoint that identifies it,
// returned by EntriesForPkHash for wallet balance and coin selection.
type Entry struct {
	Outpoint wire.OutPoint
	Value    int64
	PkScript []byte
}

// EntriesForPkHash returns every unspent output in the set whose locking
// script is a standard pay-to-pubkey-hash script paying pkHash. It scans
// the entire UTXO set, since no address-keyed index exists; callers that
// need this repeatedly (wallet balance, coin selection) should expect an
// O(set size) cost.
func (s *Set) EntriesForPkHash(pkHash [20]byte) ([]Entry, error) {
	var entries []Entry
	err := s.store.ForEachUTXO(func(op wire.OutPoint, entry *database.UTXOEntry) error {
		hash, ok := txscript.ExtractPubKeyHash(entry.PkScript)
		if !ok || len(hash) != len(pkHash) {
			return nil
		}
		if [20]byte(hash) != pkHash {
			return nil
		}
		entries = append(entries, Entry{Outpoint: op, Value: entry.Value, PkScript: entry.PkScript})
		return nil
	})
	return entries, err
}

// Apply reflects block's connection in the UTXO set: every non-coinbase
// input's referenced output is removed, then every output the block's
// transactions create is added. The mutation and the new last-applied
// hash commit atomically, so a crash mid-apply never leaves the set
// attributed to no block at all.
func (s *Set) Apply(block *wire.MsgBlock) error {
	batch := s.store.NewUTXOBatch()

	for _, tx := range block.Transactions {
		if !tx.IsCoinBase() {
			for _, in := range tx.TxIn {
				batch.DeleteEntry(in.PreviousOutPoint)
			}
		}

		txHash := tx.TxHash()
		for i, out := range tx.TxOut {
			op := wire.OutPoint{Hash: txHash, Index: uint32(i)}
			batch.PutEntry(op, &database.UTXOEntry{Value: out.Value, PkScript: out.PkScript})
		}

		if err := s.store.PutTxLocation(txHash, database.TxLocation{
			BlockHash: block.BlockHash(),
			Index:     uint32(indexOf(block.Transactions, tx)),
		}); err != nil {
			return fmt.Errorf("utxoset: recording tx location: %w", err)
		}
	}

	return s.store.Commit(batch, block.BlockHash())
}

// Undo reverses block's effect on the UTXO set: every output it created
// is removed, and every output its non-coinbase inputs spent is restored
// by reading the spent output's originating transaction back out of the
// block store via the transaction index. newTip is the block that
// becomes the UTXO set's new last-applied hash once the undo commits —
// ordinarily block's parent.
func (s *Set) Undo(block *wire.MsgBlock, newTip chainhash.Hash) error {
	batch := s.store.NewUTXOBatch()

	for _, tx := range block.Transactions {
		txHash := tx.TxHash()
		for i := range tx.TxOut {
			batch.DeleteEntry(wire.OutPoint{Hash: txHash, Index: uint32(i)})
		}
		if err := s.store.DeleteTxLocation(txHash); err != nil {
			return fmt.Errorf("utxoset: removing tx location: %w", err)
		}

		if tx.IsCoinBase() {
			continue
		}
		for _, in := range tx.TxIn {
			out, err := s.resolveOutput(in.PreviousOutPoint)
			if err != nil {
				return fmt.Errorf("utxoset: restoring spent output %s:%d: %w",
					in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index, err)
			}
			batch.PutEntry(in.PreviousOutPoint, &database.UTXOEntry{Value: out.Value, PkScript: out.PkScript})
		}
	}

	return s.store.Commit(batch, newTip)
}

// resolveOutput looks up the transaction that created op's output via the
// transaction index and the block store, independent of whether that
// output is currently spent.
func (s *Set) resolveOutput(op wire.OutPoint) (*wire.TxOut, error) {
	loc, err := s.store.GetTxLocation(op.Hash)
	if err != nil {
		return nil, err
	}
	raw, err := s.store.GetBlock(loc.BlockHash)
	if err != nil {
		return nil, err
	}
	srcBlock, err := wire.DeserializeBlock(raw)
	if err != nil {
		return nil, err
	}
	if loc.Index >= uint32(len(srcBlock.Transactions)) {
		return nil, fmt.Errorf("tx index location %d out of range in block %s", loc.Index, loc.BlockHash)
	}
	srcTx := srcBlock.Transactions[loc.Index]
	if op.Index >= uint32(len(srcTx.TxOut)) {
		return nil, fmt.Errorf("output index %d out of range in transaction %s", op.Index, op.Hash)
	}
	return srcTx.TxOut[op.Index], nil
}

// RebuildFromChain discards the current UTXO set and replays blocks (which
// must be supplied in main-chain order starting from genesis) to
// reconstruct it. It is used at startup when ConsistentWithTip finds the
// set out of sync with the block index, per §6's crash-recovery path.
func (s *Set) RebuildFromChain(blocks []*wire.MsgBlock) error {
	log.Infof("rebuilding UTXO set from %d blocks", len(blocks))
	if err := s.store.ResetUTXOSet(); err != nil {
		return fmt.Errorf("utxoset: clearing existing set: %w", err)
	}
	for _, block := range blocks {
		if err := s.Apply(block); err != nil {
			return fmt.Errorf("utxoset: replaying block %s: %w", block.BlockHash(), err)
		}
	}
	log.Infof("UTXO set rebuild complete")
	return nil
}

func indexOf(txs []*wire.MsgTx, target *wire.MsgTx) int {
	for i, tx := range txs {
		if tx == target {
			return i
		}
	}
	return -1
}
