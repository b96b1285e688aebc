// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2016-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/dchest/siphash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

// ProactiveEvictionDepth is how many blocks deep a block needs to be before
// EvictEntries is worth calling for it: a signature checked once in
// CheckTransactionInputs for a mempool-accepted transaction is re-checked at
// most once more, when that transaction is mined, so the cache has no reason
// to hold its entry past that block's confirmation.
const ProactiveEvictionDepth = 2

const shortTxHashKeySize = 16

// sigCacheEntry is one verified (sig, pubKey) pair, plus the keyed short
// hash of the transaction it belongs to so EvictEntries can find it without
// storing the full transaction hash.
type sigCacheEntry struct {
	sig         *ecdsa.Signature
	pubKey      *secp256k1.PublicKey
	shortTxHash uint64
}

// SigCache memoizes ECDSA signature verifications so a transaction that
// passed mempool admission in CheckTransactionInputs isn't re-verified
// signature-by-signature when the same transaction is later validated as
// part of a mined block. It is bounded at maxEntries and evicts at random
// rather than tracking usage order, since Kernel's one-transaction-list
// blocks give no stronger locality to exploit.
type SigCache struct {
	sync.RWMutex
	validSigs      map[chainhash.Hash]sigCacheEntry
	maxEntries     uint
	shortTxHashKey [shortTxHashKeySize]byte
}

// NewSigCache returns an empty cache bounded at maxEntries.
func NewSigCache(maxEntries uint) (*SigCache, error) {
	shortTxHashKey, err := createShortTxHashKey()
	if err != nil {
		return nil, err
	}

	return &SigCache{
		validSigs:      make(map[chainhash.Hash]sigCacheEntry, maxEntries),
		maxEntries:     maxEntries,
		shortTxHashKey: shortTxHashKey,
	}, nil
}

// Exists reports whether sig over sigHash by pubKey is already cached.
//
// This function is safe for concurrent access.
func (s *SigCache) Exists(sigHash chainhash.Hash, sig *ecdsa.Signature, pubKey *secp256k1.PublicKey) bool {
	s.RLock()
	entry, ok := s.validSigs[sigHash]
	s.RUnlock()

	return ok && entry.pubKey.IsEqual(pubKey) && entry.sig.IsEqual(sig)
}

// Add records a known-valid signature over sigHash by pubKey, belonging to
// tx, evicting a random existing entry first if the cache is already at
// maxEntries.
//
// This function is safe for concurrent access.
func (s *SigCache) Add(sigHash chainhash.Hash, sig *ecdsa.Signature, pubKey *secp256k1.PublicKey, tx *wire.MsgTx) {
	s.Lock()
	defer s.Unlock()

	if s.maxEntries == 0 {
		return
	}

	if uint(len(s.validSigs)+1) > s.maxEntries {
		for sigEntry := range s.validSigs {
			delete(s.validSigs, sigEntry)
			break
		}
	}
	s.validSigs[sigHash] = sigCacheEntry{sig, pubKey, shortTxHash(tx, s.shortTxHashKey)}
}

func createShortTxHashKey() ([shortTxHashKeySize]byte, error) {
	var key [shortTxHashKeySize]byte
	_, err := rand.Read(key[:])
	if err != nil {
		return key, err
	}
	return key, nil
}

// shortTxHash derives a keyed 64-bit SipHash-2-4 digest of a transaction's
// id, used in place of its 32-byte hash to find the cache entries belonging
// to it.
func shortTxHash(msg *wire.MsgTx, key [shortTxHashKeySize]byte) uint64 {
	k0 := binary.LittleEndian.Uint64(key[0:8])
	k1 := binary.LittleEndian.Uint64(key[8:16])
	txHash := msg.TxHash()
	return siphash.Hash(k0, k1, txHash[:])
}

// EvictEntries drops every cached signature belonging to a transaction in
// block. Call it once block has reached ProactiveEvictionDepth confirmations.
func (s *SigCache) EvictEntries(block *wire.MsgBlock) {
	s.RLock()
	if len(s.validSigs) == 0 {
		s.RUnlock()
		return
	}
	s.RUnlock()

	go s.evictEntries(block)
}

// evictEntries does the actual work for EvictEntries and is run from its own
// goroutine so a caller on the block-validation path never blocks on it.
func (s *SigCache) evictEntries(block *wire.MsgBlock) {
	shortTxHashSet := make(map[uint64]struct{}, len(block.Transactions))
	for _, tx := range block.Transactions {
		shortTxHashSet[shortTxHash(tx, s.shortTxHashKey)] = struct{}{}
	}

	s.Lock()
	for sigHash, sigEntry := range s.validSigs {
		if _, ok := shortTxHashSet[sigEntry.shortTxHash]; ok {
			delete(s.validSigs, sigHash)
		}
	}
	s.Unlock()
}
