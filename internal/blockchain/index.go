// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"

	"github.com/0xnohan/Kernel/chainhash"
)

// blockIndex is the in-memory tree of every known block (main chain and
// forks alike), keyed by hash. It exists so ancestor walks, fork-point
// search, and retarget lookups never touch the on-disk store.
type blockIndex struct {
	mu    sync.RWMutex
	nodes map[chainhash.Hash]*node
}

func newBlockIndex() *blockIndex {
	return &blockIndex{nodes: make(map[chainhash.Hash]*node)}
}

func (idx *blockIndex) add(n *node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.nodes[n.hash] = n
}

func (idx *blockIndex) lookup(hash chainhash.Hash) (*node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, ok := idx.nodes[hash]
	return n, ok
}

func (idx *blockIndex) have(hash chainhash.Hash) bool {
	_, ok := idx.lookup(hash)
	return ok
}

// findFork walks a and b back in lock-step by height until their paths
// meet, returning the common ancestor plus the two divergent hash lists
// in old-chain/new-chain order as §4.8 step 5 describes: oldChain from
// a (the current tip) down toward the ancestor, newChain from b (the
// candidate) down toward the ancestor. Both lists run tip-to-ancestor;
// callers reverse newChain to connect ancestor-to-tip.
func findFork(a, b *node) (ancestor *node, oldChain, newChain []*node) {
	for a.height > b.height {
		oldChain = append(oldChain, a)
		a = a.parent
	}
	for b.height > a.height {
		newChain = append(newChain, b)
		b = b.parent
	}
	for a.hash != b.hash {
		oldChain = append(oldChain, a)
		newChain = append(newChain, b)
		a = a.parent
		b = b.parent
	}
	return a, oldChain, newChain
}
