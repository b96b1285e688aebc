// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/0xnohan/Kernel/chainhash"
)

// BlockStatus records what validation has determined about a block, per
// §4.6's block-index entry.
type BlockStatus byte

const (
	StatusUnknown BlockStatus = iota
	StatusValid
	StatusInvalid
)

// IndexEntry is the block-index entry of §4.6: height, parent hash,
// accumulated work, and validation status.
type IndexEntry struct {
	Height          int64
	ParentHash      chainhash.Hash
	AccumulatedWork *big.Int
	Status          BlockStatus
}

var tipKey = []byte("meta:tip")

func entryKey(hash chainhash.Hash) []byte {
	key := make([]byte, 0, 6+chainhash.HashSize)
	key = append(key, []byte("entry:")...)
	key = append(key, hash[:]...)
	return key
}

// encodeIndexEntry serializes an IndexEntry as: 8-byte height (LE),
// 32-byte parent hash, 1-byte status, 4-byte work-length (LE), work bytes
// (big-endian magnitude).
func encodeIndexEntry(e *IndexEntry) []byte {
	work := e.AccumulatedWork.Bytes()
	buf := make([]byte, 0, 8+chainhash.HashSize+1+4+len(work))

	var heightBuf [8]byte
	binary.LittleEndian.PutUint64(heightBuf[:], uint64(e.Height))
	buf = append(buf, heightBuf[:]...)
	buf = append(buf, e.ParentHash[:]...)
	buf = append(buf, byte(e.Status))

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(work)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, work...)
	return buf
}

func decodeIndexEntry(data []byte) (*IndexEntry, error) {
	if len(data) < 8+chainhash.HashSize+1+4 {
		return nil, errors.New("database: truncated index entry")
	}
	e := &IndexEntry{}
	e.Height = int64(binary.LittleEndian.Uint64(data[:8]))
	copy(e.ParentHash[:], data[8:8+chainhash.HashSize])
	off := 8 + chainhash.HashSize
	e.Status = BlockStatus(data[off])
	off++
	workLen := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	if len(data[off:]) < int(workLen) {
		return nil, errors.New("database: truncated index entry work field")
	}
	e.AccumulatedWork = new(big.Int).SetBytes(data[off : off+int(workLen)])
	return e, nil
}

// PutIndexEntry stores the block-index entry for hash.
func (s *Store) PutIndexEntry(hash chainhash.Hash, e *IndexEntry) error {
	return s.index.Put(entryKey(hash), encodeIndexEntry(e), nil)
}

// GetIndexEntry returns the block-index entry for hash, or ErrNotFound.
func (s *Store) GetIndexEntry(hash chainhash.Hash) (*IndexEntry, error) {
	data, err := get(s.index, entryKey(hash))
	if err != nil {
		return nil, err
	}
	return decodeIndexEntry(data)
}

// PutTip records hash as the current main-chain tip.
func (s *Store) PutTip(hash chainhash.Hash) error {
	return s.index.Put(tipKey, hash[:], nil)
}

// GetTip returns the current main-chain tip hash, or ErrNotFound if no
// tip has ever been recorded (an empty store).
func (s *Store) GetTip() (chainhash.Hash, error) {
	var hash chainhash.Hash
	data, err := get(s.index, tipKey)
	if err != nil {
		return hash, err
	}
	copy(hash[:], data)
	return hash, nil
}

var orphanPrefix = []byte("orphan:")

func orphanKey(hash chainhash.Hash) []byte {
	key := make([]byte, 0, len(orphanPrefix)+chainhash.HashSize)
	key = append(key, orphanPrefix...)
	key = append(key, hash[:]...)
	return key
}

// PutOrphan records block as an orphan whose declared parent, parentHash,
// is not yet known to the index — the SUPPLEMENTED orphan-handling path
// of §4.8 step 2.
func (s *Store) PutOrphan(hash, parentHash chainhash.Hash) error {
	return s.index.Put(orphanKey(hash), parentHash[:], nil)
}

// GetOrphanParent returns the declared parent hash recorded for an
// orphan block, or ErrNotFound.
func (s *Store) GetOrphanParent(hash chainhash.Hash) (chainhash.Hash, error) {
	var parent chainhash.Hash
	data, err := get(s.index, orphanKey(hash))
	if err != nil {
		return parent, err
	}
	copy(parent[:], data)
	return parent, nil
}

// DeleteOrphan removes the orphan record for hash, once it has been
// reconnected to the main index.
func (s *Store) DeleteOrphan(hash chainhash.Hash) error {
	return s.index.Delete(orphanKey(hash), nil)
}

// ForEachOrphanChild invokes fn with the hash of every orphan block whose
// recorded parent is parentHash, the lookup resolveOrphans uses to find
// candidates for reconnection once parentHash itself becomes known.
func (s *Store) ForEachOrphanChild(parentHash chainhash.Hash, fn func(hash chainhash.Hash) error) error {
	iter := s.index.NewIterator(&util.Range{Start: orphanPrefix, Limit: prefixUpperBound(orphanPrefix)}, nil)
	defer iter.Release()

	for iter.Next() {
		var recordedParent chainhash.Hash
		copy(recordedParent[:], iter.Value())
		if recordedParent != parentHash {
			continue
		}
		var hash chainhash.Hash
		copy(hash[:], iter.Key()[len(orphanPrefix):])
		if err := fn(hash); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ForEachIndexEntry invokes fn for every stored block-index entry. It is
// used at startup to rebuild the in-memory block tree.
func (s *Store) ForEachIndexEntry(fn func(hash chainhash.Hash, e *IndexEntry) error) error {
	iter := s.index.NewIterator(indexEntryRange(), nil)
	defer iter.Release()

	for iter.Next() {
		key := iter.Key()
		var hash chainhash.Hash
		copy(hash[:], key[len("entry:"):])

		e, err := decodeIndexEntry(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(hash, e); err != nil {
			return err
		}
	}
	return iter.Error()
}

func indexEntryRange() *util.Range {
	prefix := []byte("entry:")
	return &util.Range{Start: prefix, Limit: prefixUpperBound(prefix)}
}

// prefixUpperBound returns the smallest key that sorts after every key
// beginning with prefix, for use as a half-open range limit.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil // prefix was all 0xff; unbounded above
}
