// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"time"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/wire"
)

// node is an in-memory block-index entry: everything the chain manager
// needs about a block without re-reading it from the block store,
// linked to its parent so ancestor walks (retarget lookups, fork-point
// search) never touch disk.
type node struct {
	hash       chainhash.Hash
	parent     *node
	height     int64
	bits       uint32
	timestamp  time.Time
	work       *big.Int // this block's own work plus every ancestor's
	status     database.BlockStatus
}

// newNode builds a node for header, linked to parent (nil only for
// genesis). Its accumulated work is parent's plus its own.
func newNode(header *wire.BlockHeader, parent *node, ownWork *big.Int) *node {
	n := &node{
		hash:      header.BlockHash(),
		parent:    parent,
		bits:      header.Bits,
		timestamp: header.Timestamp,
		status:    database.StatusValid,
	}
	if parent != nil {
		n.height = parent.height + 1
		n.work = new(big.Int).Add(parent.work, ownWork)
	} else {
		n.height = 0
		n.work = ownWork
	}
	return n
}

// ancestorAt walks parent pointers back to the node at the given height,
// or nil if height is out of range for this node's chain.
func (n *node) ancestorAt(height int64) *node {
	if n == nil || height < 0 || height > n.height {
		return nil
	}
	walk := n
	for walk.height > height {
		walk = walk.parent
	}
	return walk
}

// ancestorHashes returns this node's hash chain back to (and including)
// genesis, ordered from genesis to this node — the shape a freshly
// opened store needs to replay for rebuild_from_chain.
func (n *node) ancestorHashes() []chainhash.Hash {
	hashes := make([]chainhash.Hash, n.height+1)
	walk := n
	for walk != nil {
		hashes[walk.height] = walk.hash
		walk = walk.parent
	}
	return hashes
}
