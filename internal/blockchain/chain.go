// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the chain manager of §4.8: the in-memory
// block index, main-chain tip tracking, block acceptance, and
// reorganization, built on top of internal/database for persistence,
// internal/utxoset for UTXO maintenance, and internal/validate for the
// consensus rules.
package blockchain

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// Status reports the outcome of ProcessNewBlock, per §4.8.
type Status int

const (
	// StatusDuplicate indicates a block whose hash was already indexed.
	StatusDuplicate Status = iota

	// StatusOrphan indicates a block whose parent is not yet known; it
	// is persisted and revisited once its parent arrives.
	StatusOrphan

	// StatusAcceptedFork indicates a block accepted into the index but
	// not onto the main chain, because its accumulated work does not
	// exceed the current tip's.
	StatusAcceptedFork

	// StatusAcceptedMainChain indicates a block that became (or
	// extended) the new main-chain tip, possibly after a
	// reorganization.
	StatusAcceptedMainChain
)

// Manager is the chain manager: it serializes every block acceptance
// decision behind a single "chain lock" mutex, per §5, to prevent
// interleaved reorganizations.
type Manager struct {
	mu sync.Mutex

	params   *chaincfg.Params
	store    *database.Store
	utxo     *utxoset.Set
	pool     *mempool.Pool
	sigCache *txscript.SigCache

	index *blockIndex
	tip   *node
}

// Open constructs a chain manager over an already-opened store,
// bootstrapping genesis if the store is empty, rebuilding the in-memory
// block index from persisted index entries otherwise, and rebuilding the
// UTXO set from the main chain if the crash-safety check finds it out of
// sync with the indexed tip.
func Open(params *chaincfg.Params, store *database.Store, utxo *utxoset.Set, pool *mempool.Pool, sigCache *txscript.SigCache) (*Manager, error) {
	m := &Manager{
		params:   params,
		store:    store,
		utxo:     utxo,
		pool:     pool,
		sigCache: sigCache,
		index:    newBlockIndex(),
	}

	if err := m.loadIndex(); err != nil {
		return nil, fmt.Errorf("blockchain: loading block index: %w", err)
	}

	tipHash, err := store.GetTip()
	if err == database.ErrNotFound {
		if err := m.bootstrapGenesis(); err != nil {
			return nil, fmt.Errorf("blockchain: bootstrapping genesis: %w", err)
		}
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blockchain: reading tip: %w", err)
	}

	tip, ok := m.index.lookup(tipHash)
	if !ok {
		return nil, fmt.Errorf("blockchain: recorded tip %s is not in the block index", tipHash)
	}
	m.tip = tip

	consistent, err := store.ConsistentWithTip()
	if err != nil {
		return nil, fmt.Errorf("blockchain: checking UTXO/tip consistency: %w", err)
	}
	if !consistent {
		if err := m.rebuildUTXOSet(); err != nil {
			return nil, fmt.Errorf("blockchain: rebuilding UTXO set: %w", err)
		}
	}

	return m, nil
}

// loadIndex reconstructs the in-memory block tree from every persisted
// index entry, in height order so each node's parent already exists by
// the time it is linked.
func (m *Manager) loadIndex() error {
	type loaded struct {
		hash   chainhash.Hash
		entry  *database.IndexEntry
		header wire.BlockHeader
	}
	var all []loaded

	err := m.store.ForEachIndexEntry(func(hash chainhash.Hash, e *database.IndexEntry) error {
		raw, err := m.store.GetBlock(hash)
		if err != nil {
			return err
		}
		block, err := wire.DeserializeBlock(raw)
		if err != nil {
			return err
		}
		all = append(all, loaded{hash: hash, entry: e, header: block.Header})
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].entry.Height < all[j].entry.Height })

	for _, l := range all {
		var parent *node
		if l.entry.Height > 0 {
			p, ok := m.index.lookup(l.entry.ParentHash)
			if !ok {
				return fmt.Errorf("blockchain: index entry %s references unknown parent %s", l.hash, l.entry.ParentHash)
			}
			parent = p
		}
		n := &node{
			hash:      l.hash,
			parent:    parent,
			height:    l.entry.Height,
			bits:      l.header.Bits,
			timestamp: l.header.Timestamp,
			work:      l.entry.AccumulatedWork,
			status:    l.entry.Status,
		}
		m.index.add(n)
	}
	return nil
}

func (m *Manager) bootstrapGenesis() error {
	genesis := m.params.GenesisBlock
	work := standalone.CalcWork(genesis.Header.Bits)
	n := newNode(&genesis.Header, nil, work)

	if err := m.store.PutBlock(n.hash, genesis.Serialize()); err != nil {
		return err
	}
	if err := m.store.PutIndexEntry(n.hash, &database.IndexEntry{
		Height:          0,
		AccumulatedWork: work,
		Status:          database.StatusValid,
	}); err != nil {
		return err
	}
	if err := m.store.PutTip(n.hash); err != nil {
		return err
	}
	if err := m.utxo.Apply(genesis); err != nil {
		return err
	}

	m.index.add(n)
	m.tip = n
	log.Infof("bootstrapped chain at genesis %s", n.hash)
	return nil
}

// rebuildUTXOSet replays every block from genesis to the current tip
// through internal/utxoset, per §4.4's rebuild_from_chain.
func (m *Manager) rebuildUTXOSet() error {
	hashes := m.tip.ancestorHashes()
	blocks := make([]*wire.MsgBlock, len(hashes))
	for i, hash := range hashes {
		block, err := m.loadBlock(hash)
		if err != nil {
			return err
		}
		blocks[i] = block
	}
	return m.utxo.RebuildFromChain(blocks)
}

func (m *Manager) loadBlock(hash chainhash.Hash) (*wire.MsgBlock, error) {
	raw, err := m.store.GetBlock(hash)
	if err != nil {
		return nil, err
	}
	return wire.DeserializeBlock(raw)
}

// Tip returns the current main-chain tip's hash and height.
func (m *Manager) Tip() (chainhash.Hash, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tip.hash, m.tip.height
}

// NextRequiredBits returns the proof-of-work target a block extending
// the current tip must satisfy.
func (m *Manager) NextRequiredBits() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return calcNextRequiredBits(m.params, m.tip)
}

// NextSubsidy returns the coinbase subsidy for a block extending the
// current tip.
func (m *Manager) NextSubsidy() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return CalcSubsidy(m.params, m.tip.height+1)
}

// UTXOSource returns a validate.UTXOSource backed by the chain's current
// UTXO set, for mempool transaction admission against live chain state.
func (m *Manager) UTXOSource() validate.UTXOSource {
	return m.utxo.Lookup
}

// Params returns the network parameters this manager was opened with.
func (m *Manager) Params() *chaincfg.Params {
	return m.params
}

// HaveBlock reports whether hash is already indexed (main chain or a
// known fork), distinct from an orphan.
func (m *Manager) HaveBlock(hash chainhash.Hash) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.have(hash)
}

// BlockHeight returns the indexed height of hash, for callers (the
// wallet's coinbase-maturity check) that need a block's height without
// walking the full node it belongs to.
func (m *Manager) BlockHeight(hash chainhash.Hash) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.index.lookup(hash)
	if !ok {
		return 0, false
	}
	return n.height, true
}

// BlockHashAtHeight returns the main-chain block hash at height, walking
// parent pointers back from the tip the same way findFork does. Used by
// the explorer API's paginated block listing, which addresses blocks by
// height rather than hash.
func (m *Manager) BlockHashAtHeight(height int64) (chainhash.Hash, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tip == nil || height < 0 || height > m.tip.height {
		return chainhash.Hash{}, false
	}
	n := m.tip
	for n.height > height {
		n = n.parent
	}
	return n.hash, true
}

// ProcessNewBlock is §4.8's entry point. It acquires the chain lock for
// its entire duration, serializing every acceptance decision against
// concurrent peer and miner submissions.
func (m *Manager) ProcessNewBlock(block *wire.MsgBlock) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processNewBlockLocked(block)
}

func (m *Manager) processNewBlockLocked(block *wire.MsgBlock) (Status, error) {
	hash := block.BlockHash()
	if m.index.have(hash) {
		return StatusDuplicate, nil
	}

	parentHash := block.Header.PrevBlock
	parent, haveParent := m.index.lookup(parentHash)
	if !haveParent {
		if err := m.store.PutBlock(hash, block.Serialize()); err != nil {
			return 0, err
		}
		if err := m.store.PutOrphan(hash, parentHash); err != nil {
			return 0, err
		}
		log.Debugf("stored orphan block %s with unknown parent %s", hash, parentHash)
		return StatusOrphan, nil
	}

	parentInfo := validate.ParentInfo{Known: true, Timestamp: parent.timestamp}
	if err := validate.CheckBlockHeader(&block.Header, parentInfo, m.params.PowLimit, time.Now()); err != nil {
		return 0, err
	}

	if required := calcNextRequiredBits(m.params, parent); block.Header.Bits != required {
		return 0, validate.RuleError{
			ErrorCode: validate.ErrUnexpectedDifficulty,
			Description: fmt.Sprintf("block %s has bits %#x, chain requires %#x at height %d",
				hash, block.Header.Bits, required, parent.height+1),
		}
	}

	height := parent.height + 1
	if err := validate.CheckBlockBody(block, height, m.params.MaxBlockSize); err != nil {
		return 0, err
	}

	ownWork := standalone.CalcWork(block.Header.Bits)
	n := newNode(&block.Header, parent, ownWork)

	if err := m.store.PutBlock(hash, block.Serialize()); err != nil {
		return 0, err
	}
	if err := m.store.PutIndexEntry(hash, &database.IndexEntry{
		Height:          n.height,
		ParentHash:      parentHash,
		AccumulatedWork: n.work,
		Status:          database.StatusValid,
	}); err != nil {
		return 0, err
	}
	m.index.add(n)

	if n.work.Cmp(m.tip.work) <= 0 {
		log.Debugf("block %s accepted as a side chain fork at height %d", hash, n.height)
		if err := m.resolveOrphans(hash); err != nil {
			return 0, err
		}
		return StatusAcceptedFork, nil
	}

	if n.parent.hash != m.tip.hash {
		log.Infof("reorganizing from tip %s to %s at height %d", m.tip.hash, hash, n.height)
	}
	if err := m.reorganize(n); err != nil {
		return 0, err
	}
	log.Infof("new main chain tip %s at height %d", hash, n.height)

	if err := m.resolveOrphans(hash); err != nil {
		return 0, err
	}
	return StatusAcceptedMainChain, nil
}

// reorganize implements §4.8 step 5: find the fork point between the
// current tip and candidate, disconnect the current tip's chain down to
// it, then connect candidate's chain up from it. A failure partway
// through connecting halts the reorganization, marks the offending block
// invalid, and attempts to restore the original chain.
func (m *Manager) reorganize(candidate *node) error {
	ancestor, oldChain, newChain := findFork(m.tip, candidate)
	reverseNodes(newChain) // ancestor-to-tip order for connecting

	reinstateCandidates, err := m.disconnectNodes(oldChain, ancestor)
	if err != nil {
		return fmt.Errorf("blockchain: disconnecting old chain: %w", err)
	}

	connected, err := m.connectNodes(newChain)
	if err != nil {
		m.rollbackFailedReorg(newChain, connected, oldChain, ancestor)
		return fmt.Errorf("blockchain: connecting new chain: %w", err)
	}

	m.tip = candidate
	if err := m.store.PutTip(candidate.hash); err != nil {
		return err
	}

	for _, tx := range reinstateCandidates {
		_, _ = m.pool.AddTransaction(tx, m.utxo.Lookup)
	}
	return nil
}

// disconnectNodes undoes oldChain (tip-to-ancestor order) one block at a
// time, returning every non-coinbase transaction it contained so the
// caller can attempt to return them to the mempool once the new chain is
// in place.
func (m *Manager) disconnectNodes(oldChain []*node, ancestor *node) ([]*wire.MsgTx, error) {
	var reinstate []*wire.MsgTx
	for _, n := range oldChain {
		block, err := m.loadBlock(n.hash)
		if err != nil {
			return nil, err
		}
		if err := m.utxo.Undo(block, n.parent.hash); err != nil {
			return nil, err
		}
		for _, tx := range block.Transactions {
			if !tx.IsCoinBase() {
				reinstate = append(reinstate, tx)
			}
		}
	}
	return reinstate, nil
}

// connectNodes applies newChain (ancestor-to-tip order) one block at a
// time: re-validating every transaction in context (inputs against the
// UTXO set as of the blocks already connected, and the coinbase against
// subsidy plus fees) before committing its UTXO effect. It returns the
// number of blocks successfully connected, which equals len(newChain)
// only on full success.
func (m *Manager) connectNodes(newChain []*node) (int, error) {
	for i, n := range newChain {
		block, err := m.loadBlock(n.hash)
		if err != nil {
			return i, err
		}

		var totalFees int64
		for _, tx := range block.Transactions {
			if tx.IsCoinBase() {
				continue
			}
			fee, err := validate.CheckTransactionInputs(tx, m.utxo.Lookup, m.sigCache)
			if err != nil {
				return i, fmt.Errorf("block %s transaction %s: %w", n.hash, tx.TxHash(), err)
			}
			totalFees += fee
		}

		subsidy := CalcSubsidy(m.params, n.height)
		if err := validate.CheckCoinbaseValue(block.Transactions[0], subsidy, totalFees); err != nil {
			return i, err
		}

		if err := m.utxo.Apply(block); err != nil {
			return i, err
		}
		m.pool.RemoveConfirmed(block)
	}
	return len(newChain), nil
}

// rollbackFailedReorg undoes however many of newChain's blocks did
// connect before failure, marks the failing block invalid, and attempts
// to reconnect the original chain so the manager is left in a state
// consistent with some chain rather than neither.
func (m *Manager) rollbackFailedReorg(newChain []*node, connected int, oldChain []*node, ancestor *node) {
	for i := connected - 1; i >= 0; i-- {
		n := newChain[i]
		block, err := m.loadBlock(n.hash)
		if err != nil {
			continue
		}
		newTip := ancestor.hash
		if i > 0 {
			newTip = newChain[i-1].hash
		}
		_ = m.utxo.Undo(block, newTip)
	}

	if connected < len(newChain) {
		failing := newChain[connected]
		failing.status = database.StatusInvalid
		_ = m.store.PutIndexEntry(failing.hash, &database.IndexEntry{
			Height:          failing.height,
			ParentHash:      failing.parent.hash,
			AccumulatedWork: failing.work,
			Status:          database.StatusInvalid,
		})
	}

	reconnect := make([]*node, len(oldChain))
	for i, n := range oldChain {
		reconnect[len(oldChain)-1-i] = n
	}
	_, _ = m.connectNodes(reconnect)
}

// resolveOrphans reconnects any orphan blocks declaring parentHash as
// their parent, now that parentHash is indexed. It is the SUPPLEMENTED
// orphan-handling path of §4.8 step 2 / Open Question b.
func (m *Manager) resolveOrphans(parentHash chainhash.Hash) error {
	var candidates []chainhash.Hash
	if err := m.store.ForEachOrphanChild(parentHash, func(hash chainhash.Hash) error {
		candidates = append(candidates, hash)
		return nil
	}); err != nil {
		return err
	}

	for _, hash := range candidates {
		if err := m.store.DeleteOrphan(hash); err != nil {
			return err
		}
		block, err := m.loadBlock(hash)
		if err != nil {
			continue
		}
		if _, err := m.processNewBlockLocked(block); err != nil {
			continue
		}
	}
	return nil
}

func reverseNodes(nodes []*node) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
