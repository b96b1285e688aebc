// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// Entry is a single admitted mempool transaction: the transaction
// itself, its fee, and when it was admitted, per §3's mempool data
// model.
type Entry struct {
	Tx      *wire.MsgTx
	Fee     int64
	Size    int64
	AddedAt time.Time
}

// feePerByte is an entry's mining priority: its fee per serialized byte,
// highest first. SelectTemplate breaks ties by earliest admission.
func (e *Entry) feePerByte() float64 {
	if e.Size == 0 {
		return 0
	}
	return float64(e.Fee) / float64(e.Size)
}

// Pool is the mempool of §4.5: transactions validated against the
// current UTXO set and against each other, not yet included in a block.
// It is never persisted — a restart starts with an empty pool, per §4.3.
type Pool struct {
	mu sync.RWMutex

	entries map[chainhash.Hash]*Entry
	spentBy map[wire.OutPoint]chainhash.Hash

	totalBytes int64
	maxBytes   int64

	sigCache *txscript.SigCache
}

// New returns an empty pool that evicts its lowest fee-per-byte entries
// once its total serialized size would exceed maxBytes. sigCache, if
// non-nil, is shared with script execution to skip signatures already
// verified elsewhere.
func New(maxBytes int64, sigCache *txscript.SigCache) *Pool {
	return &Pool{
		entries:  make(map[chainhash.Hash]*Entry),
		spentBy:  make(map[wire.OutPoint]chainhash.Hash),
		maxBytes: maxBytes,
		sigCache: sigCache,
	}
}

// Have reports whether txHash is currently admitted.
func (p *Pool) Have(txHash chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[txHash]
	return ok
}

// Get returns the entry for txHash, if admitted.
func (p *Pool) Get(txHash chainhash.Hash) (*Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[txHash]
	return e, ok
}

// Count returns the number of admitted transactions.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// AddTransaction attempts to admit tx, resolving its inputs against
// source (ordinarily the UTXO set). It implements admission rules 1-5 of
// §4.5. Admitting a transaction already in the pool is a no-op that
// returns the previously computed fee, the idempotence testable property
// requires.
func (p *Pool) AddTransaction(tx *wire.MsgTx, source validate.UTXOSource) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := tx.TxHash()
	if existing, ok := p.entries[txHash]; ok {
		return existing.Fee, nil
	}

	if tx.IsCoinBase() {
		return 0, ruleError(ErrMempoolCoinbase, "coinbase transactions are not relayed to the mempool")
	}

	for _, in := range tx.TxIn {
		if conflict, ok := p.spentBy[in.PreviousOutPoint]; ok {
			return 0, ruleError(ErrMempoolConflict, fmt.Sprintf(
				"outpoint %s:%d already spent by mempool entry %s",
				in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index, conflict))
		}
	}

	if err := validate.CheckTransactionSanity(tx, wire.MaxBlockSize); err != nil {
		return 0, err
	}
	fee, err := validate.CheckTransactionInputs(tx, source, p.sigCache)
	if err != nil {
		return 0, err
	}

	size := int64(tx.SerializeSize())
	p.entries[txHash] = &Entry{Tx: tx, Fee: fee, Size: size, AddedAt: time.Now()}
	for _, in := range tx.TxIn {
		p.spentBy[in.PreviousOutPoint] = txHash
	}
	p.totalBytes += size
	log.Debugf("accepted %s into mempool (%d bytes, fee %d)", txHash, size, fee)

	p.evictToCapacityLocked()
	return fee, nil
}

// Remove evicts txHash without regard to why, releasing the outpoints it
// held so other entries may spend them.
func (p *Pool) Remove(txHash chainhash.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash chainhash.Hash) {
	entry, ok := p.entries[txHash]
	if !ok {
		return
	}
	delete(p.entries, txHash)
	p.totalBytes -= entry.Size
	for _, in := range entry.Tx.TxIn {
		if p.spentBy[in.PreviousOutPoint] == txHash {
			delete(p.spentBy, in.PreviousOutPoint)
		}
	}
}

// RemoveConfirmed drops every mempool entry that block just confirmed,
// and every remaining entry that conflicts with one of the newly spent
// outpoints (it can no longer be valid, since the UTXO set it depended
// on has moved). Called by the chain manager after a block connects.
func (p *Pool) RemoveConfirmed(block *wire.MsgBlock) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, tx := range block.Transactions {
		txHash := tx.TxHash()
		p.removeLocked(txHash)

		if tx.IsCoinBase() {
			continue
		}
		for _, in := range tx.TxIn {
			if conflict, ok := p.spentBy[in.PreviousOutPoint]; ok {
				p.removeLocked(conflict)
			}
		}
	}
}

// evictToCapacityLocked drops the lowest fee-per-byte entries until the
// pool's total size is at or under its configured cap. Supplements
// §4.5's admission rules with the fee-rate-driven eviction under memory
// pressure a production mempool needs but the base admission algorithm
// does not itself specify.
func (p *Pool) evictToCapacityLocked() {
	if p.maxBytes <= 0 || p.totalBytes <= p.maxBytes {
		return
	}

	victims := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].feePerByte() < victims[j].feePerByte()
	})

	for _, e := range victims {
		if p.totalBytes <= p.maxBytes {
			return
		}
		log.Debugf("evicting %s from mempool (fee/byte %.4f) to stay under capacity", e.Tx.TxHash(), e.feePerByte())
		p.removeLocked(e.Tx.TxHash())
	}
}

// Template is the result of block template selection: the transactions
// chosen (in selection order, a valid ordering for inclusion after the
// coinbase), their total fees, and their combined serialized size.
type Template struct {
	Transactions []*wire.MsgTx
	TxIDs        []chainhash.Hash
	TotalFees    int64
	Size         int64
}

// SelectTemplate chooses mempool entries for a block template: highest
// fee-per-byte first, skipping any entry whose inputs conflict with one
// already selected, stopping once the running size would exceed
// maxBlockSize-reservedForCoinbase. Selection order is a mining
// optimization, not a consensus rule, per §4.5.
func (p *Pool) SelectTemplate(maxBlockSize, reservedForCoinbase int64) Template {
	p.mu.RLock()
	defer p.mu.RUnlock()

	budget := maxBlockSize - reservedForCoinbase
	candidates := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		fi, fj := candidates[i].feePerByte(), candidates[j].feePerByte()
		if fi != fj {
			return fi > fj
		}
		return candidates[i].AddedAt.Before(candidates[j].AddedAt)
	})

	tmpl := Template{}
	spent := make(map[wire.OutPoint]bool)
	for _, e := range candidates {
		conflicts := false
		for _, in := range e.Tx.TxIn {
			if spent[in.PreviousOutPoint] {
				conflicts = true
				break
			}
		}
		if conflicts {
			continue
		}
		if tmpl.Size+e.Size > budget {
			break
		}

		for _, in := range e.Tx.TxIn {
			spent[in.PreviousOutPoint] = true
		}
		tmpl.Transactions = append(tmpl.Transactions, e.Tx)
		tmpl.TxIDs = append(tmpl.TxIDs, e.Tx.TxHash())
		tmpl.TotalFees += e.Fee
		tmpl.Size += e.Size
	}

	return tmpl
}
