// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database implements the persisted state layout of §6: four
// ordered key-value stores under a data directory — blocks by hash, the
// block index plus tip metadata, the UTXO set plus its last-applied-block
// metadata, and the transaction index.
//
// Each store is its own goleveldb database so that a corrupted or
// missing store is diagnosable independently, the way the teacher's own
// storage layer separates concerns into distinct database handles rather
// than one shared keyspace.
package database

import (
	"errors"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/0xnohan/Kernel/chainhash"
)

// ErrNotFound is returned when a lookup key has no entry. Callers that
// need to distinguish "not found" from other errors should use
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("database: key not found")

// Store bundles the four persisted key-value tables backing a running
// node.
type Store struct {
	blocks  *leveldb.DB
	index   *leveldb.DB
	utxo    *leveldb.DB
	txIndex *leveldb.DB
}

// Open opens (creating if necessary) the four goleveldb databases rooted
// at dataDir/{blockchain,block_index,utxos,tx_index}.
func Open(dataDir string) (*Store, error) {
	opts := &opt.Options{}

	blocks, err := leveldb.OpenFile(filepath.Join(dataDir, "blockchain"), opts)
	if err != nil {
		return nil, err
	}
	index, err := leveldb.OpenFile(filepath.Join(dataDir, "block_index"), opts)
	if err != nil {
		blocks.Close()
		return nil, err
	}
	utxo, err := leveldb.OpenFile(filepath.Join(dataDir, "utxos"), opts)
	if err != nil {
		blocks.Close()
		index.Close()
		return nil, err
	}
	txIndex, err := leveldb.OpenFile(filepath.Join(dataDir, "tx_index"), opts)
	if err != nil {
		blocks.Close()
		index.Close()
		utxo.Close()
		return nil, err
	}

	log.Infof("opened stores under %s", dataDir)
	return &Store{blocks: blocks, index: index, utxo: utxo, txIndex: txIndex}, nil
}

// Close releases all four underlying databases. It is safe to call Close
// only once.
func (s *Store) Close() error {
	var firstErr error
	for _, db := range []*leveldb.DB{s.blocks, s.index, s.utxo, s.txIndex} {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func get(db *leveldb.DB, key []byte) ([]byte, error) {
	val, err := db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// --- blocks: raw serialized blocks keyed by hash ---

// PutBlock stores the canonical serialization of a block keyed by its
// hash.
func (s *Store) PutBlock(hash chainhash.Hash, raw []byte) error {
	return s.blocks.Put(hash[:], raw, nil)
}

// GetBlock returns the canonical serialization of the block with the
// given hash, or ErrNotFound.
func (s *Store) GetBlock(hash chainhash.Hash) ([]byte, error) {
	return get(s.blocks, hash[:])
}

// HasBlock reports whether a block with the given hash is stored.
func (s *Store) HasBlock(hash chainhash.Hash) (bool, error) {
	return s.blocks.Has(hash[:], nil)
}
