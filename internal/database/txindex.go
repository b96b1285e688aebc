// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"encoding/binary"

	"github.com/0xnohan/Kernel/chainhash"
)

// TxLocation records where a confirmed transaction lives: which block,
// and its position within that block's transaction list.
type TxLocation struct {
	BlockHash chainhash.Hash
	Index     uint32
}

// PutTxLocation records where txID was confirmed.
func (s *Store) PutTxLocation(txID chainhash.Hash, loc TxLocation) error {
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, loc.BlockHash[:])
	binary.LittleEndian.PutUint32(buf[chainhash.HashSize:], loc.Index)
	return s.txIndex.Put(txID[:], buf, nil)
}

// GetTxLocation returns where txID was confirmed, or ErrNotFound.
func (s *Store) GetTxLocation(txID chainhash.Hash) (TxLocation, error) {
	var loc TxLocation
	data, err := get(s.txIndex, txID[:])
	if err != nil {
		return loc, err
	}
	if len(data) != chainhash.HashSize+4 {
		return loc, errCorruptUTXOEntry
	}
	copy(loc.BlockHash[:], data[:chainhash.HashSize])
	loc.Index = binary.LittleEndian.Uint32(data[chainhash.HashSize:])
	return loc, nil
}

// DeleteTxLocation removes the confirmation record for txID, used when a
// block is disconnected during reorganization.
func (s *Store) DeleteTxLocation(txID chainhash.Hash) error {
	return s.txIndex.Delete(txID[:], nil)
}
