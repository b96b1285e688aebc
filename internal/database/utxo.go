// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

var lastAppliedKey = []byte("meta:last-applied-hash")

// UTXOEntry is a single unspent output's persisted form: its value and
// locking script, the fields process_new_block needs to validate a
// spend, per §4.4.
type UTXOEntry struct {
	Value    int64
	PkScript []byte
}

func utxoKey(op wire.OutPoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, op.Hash[:])
	binary.LittleEndian.PutUint32(key[chainhash.HashSize:], op.Index)
	return key
}

func encodeUTXOEntry(e *UTXOEntry) []byte {
	buf := make([]byte, 8, 8+len(e.PkScript))
	binary.LittleEndian.PutUint64(buf, uint64(e.Value))
	return append(buf, e.PkScript...)
}

func decodeUTXOEntry(data []byte) (*UTXOEntry, error) {
	if len(data) < 8 {
		return nil, errCorruptUTXOEntry
	}
	return &UTXOEntry{
		Value:    int64(binary.LittleEndian.Uint64(data[:8])),
		PkScript: append([]byte(nil), data[8:]...),
	}, nil
}

var errCorruptUTXOEntry = dbErr("database: truncated utxo entry")

type dbErr string

func (e dbErr) Error() string { return string(e) }

// GetUTXO returns the unspent output at op, or ErrNotFound if it does
// not exist in the current UTXO set.
func (s *Store) GetUTXO(op wire.OutPoint) (*UTXOEntry, error) {
	data, err := get(s.utxo, utxoKey(op))
	if err != nil {
		return nil, err
	}
	return decodeUTXOEntry(data)
}

// HasUTXO reports whether op is currently unspent.
func (s *Store) HasUTXO(op wire.OutPoint) (bool, error) {
	return s.utxo.Has(utxoKey(op), nil)
}

// GetLastAppliedHash returns the hash of the block whose effects are
// fully reflected in the current UTXO set, or ErrNotFound if the set is
// empty.
func (s *Store) GetLastAppliedHash() (chainhash.Hash, error) {
	var hash chainhash.Hash
	data, err := get(s.utxo, lastAppliedKey)
	if err != nil {
		return hash, err
	}
	copy(hash[:], data)
	return hash, nil
}

// ConsistentWithTip reports whether the UTXO set's last-applied-block
// hash matches the block index's recorded tip, the crash-safety
// invariant a boot-time check must hold before trusting the UTXO set.
// A mismatch (or either value being absent while the other is present)
// means the process crashed between committing one store and the other,
// and the UTXO set must be rebuilt from the chain.
func (s *Store) ConsistentWithTip() (bool, error) {
	lastApplied, err := s.GetLastAppliedHash()
	if err == ErrNotFound {
		_, tipErr := s.GetTip()
		return tipErr == ErrNotFound, nil
	}
	if err != nil {
		return false, err
	}

	tip, err := s.GetTip()
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}

	return lastApplied == tip, nil
}

// UTXOBatch accumulates UTXO set mutations (spends and new outputs) for
// a single block so they, and the resulting last-applied-hash metadata,
// commit to the store atomically: a crash between writing the mutations
// and recording the new last-applied hash would otherwise leave the UTXO
// set in a state that belongs to no block at all.
type UTXOBatch struct {
	batch *leveldb.Batch
}

// NewUTXOBatch returns an empty batch.
func (s *Store) NewUTXOBatch() *UTXOBatch {
	return &UTXOBatch{batch: new(leveldb.Batch)}
}

// PutEntry stages the creation of a new unspent output.
func (b *UTXOBatch) PutEntry(op wire.OutPoint, entry *UTXOEntry) {
	b.batch.Put(utxoKey(op), encodeUTXOEntry(entry))
}

// DeleteEntry stages the removal of a spent output.
func (b *UTXOBatch) DeleteEntry(op wire.OutPoint) {
	b.batch.Delete(utxoKey(op))
}

// Commit applies every staged mutation together with the new
// last-applied-block hash in a single atomic goleveldb write.
func (s *Store) Commit(b *UTXOBatch, newLastApplied chainhash.Hash) error {
	b.batch.Put(lastAppliedKey, newLastApplied[:])
	return s.utxo.Write(b.batch, nil)
}

// ForEachUTXO calls fn once for every unspent output currently in the
// set, in key order. The last-applied-hash metadata entry, which shares
// the same goleveldb database, is skipped: it is not shaped like a UTXO
// key (chainhash.HashSize+4 bytes) so it is simply filtered out rather
// than requiring its own store. Iteration stops at the first error
// returned by fn.
func (s *Store) ForEachUTXO(fn func(op wire.OutPoint, entry *UTXOEntry) error) error {
	iter := s.utxo.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		if len(key) != chainhash.HashSize+4 {
			continue
		}
		var op wire.OutPoint
		copy(op.Hash[:], key[:chainhash.HashSize])
		op.Index = binary.LittleEndian.Uint32(key[chainhash.HashSize:])

		entry, err := decodeUTXOEntry(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(op, entry); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ResetUTXOSet deletes every entry in the UTXO set, including the
// last-applied-hash metadata. It is used only by rebuild-from-chain
// recovery, which repopulates the set from scratch by replaying the main
// chain.
func (s *Store) ResetUTXOSet() error {
	iter := s.utxo.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return s.utxo.Write(batch, nil)
}
