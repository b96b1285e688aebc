// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaintest provides rpctest-style harness helpers for
// constructing deterministic chains of test blocks against a
// regression-net chain manager backed by a temporary on-disk store,
// scaled down to this repo's P2PKH-only script support. It has the same
// shape as the mineChild/newTestManager helpers that internal/blockchain
// and internal/explorerapi keep in their own _test.go files, the way
// EXCCoin-exccd's blockchain/chaingen and daglabs-btcd's
// integration/rpctest/blockgen.go exist to do for their own chains.
package chaintest

import (
	"testing"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// Harness bundles a freshly-opened regression-net chain manager with its
// storage and mempool, the shape every caller in this repo needs to
// drive block acceptance in a test.
type Harness struct {
	t      *testing.T
	Params *chaincfg.Params
	Store  *database.Store
	Utxo   *utxoset.Set
	Pool   *mempool.Pool
	Chain  *blockchain.Manager
}

// New opens a Harness over a temporary on-disk store, bootstrapping
// genesis the same way a fresh node would. The store is closed
// automatically when the test completes.
func New(t *testing.T) *Harness {
	t.Helper()

	params := chaincfg.RegressionNetParams()
	store, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("chaintest: database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	set := utxoset.New(store)
	pool := mempool.New(1024*1024, nil)
	chain, err := blockchain.Open(params, store, set, pool, nil)
	if err != nil {
		t.Fatalf("chaintest: blockchain.Open: %v", err)
	}

	return &Harness{t: t, Params: params, Store: store, Utxo: set, Pool: pool, Chain: chain}
}

// TipTimestamp returns a timestamp guaranteed to be strictly after the
// current tip's, satisfying §4.6's monotonic-timestamp rule regardless
// of how many blocks a test has already mined.
func (h *Harness) TipTimestamp() time.Time {
	tipHash, _ := h.Chain.Tip()
	block, err := h.Chain.BlockByHash(tipHash)
	if err != nil {
		h.t.Fatalf("chaintest: loading tip block %s: %v", tipHash, err)
	}
	return block.Header.Timestamp.Add(time.Minute)
}

// Build assembles, solves, and returns (without submitting) a valid
// child of the current tip paying the block subsidy to payScript, plus
// any extraTxs. Regression-net's proof-of-work limit is loose enough
// that the search always terminates quickly.
func (h *Harness) Build(payScript []byte, extraTxs ...*wire.MsgTx) *wire.MsgBlock {
	h.t.Helper()

	tipHash, tipHeight := h.Chain.Tip()
	height := tipHeight + 1

	scriptSig, err := txscript.CoinbaseScriptSig(height, nil)
	if err != nil {
		h.t.Fatalf("chaintest: CoinbaseScriptSig: %v", err)
	}
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: blockchain.CalcSubsidy(h.Params, height), PkScript: payScript})

	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	for _, tx := range extraTxs {
		block.AddTransaction(tx)
	}
	block.Header = wire.BlockHeader{
		Version:   1,
		PrevBlock: tipHash,
		Timestamp: h.TipTimestamp(),
		Bits:      h.Params.PowLimitBits,
	}
	block.Header.MerkleRoot = chainhash.MerkleRoot(block.TxHashes())

	for nonce := uint32(0); ; nonce++ {
		block.Header.Nonce = nonce
		if err := standalone.CheckProofOfWork(block.Header.BlockHash(), h.Params.PowLimitBits, h.Params.PowLimit); err == nil {
			break
		}
		if nonce > 1_000_000 {
			h.t.Fatal("chaintest: failed to mine a valid block within a reasonable number of nonces")
		}
	}
	return block
}

// Mine builds a block and submits it, failing the test unless it
// becomes (or extends) the main-chain tip.
func (h *Harness) Mine(payScript []byte, extraTxs ...*wire.MsgTx) *wire.MsgBlock {
	h.t.Helper()

	block := h.Build(payScript, extraTxs...)
	status, err := h.Chain.ProcessNewBlock(block)
	if err != nil {
		h.t.Fatalf("chaintest: ProcessNewBlock: %v", err)
	}
	if status != blockchain.StatusAcceptedMainChain {
		h.t.Fatalf("chaintest: status = %v, want StatusAcceptedMainChain", status)
	}
	return block
}

// MineN mines n consecutive blocks paying payScript, returning them in
// order.
func (h *Harness) MineN(n int, payScript []byte) []*wire.MsgBlock {
	h.t.Helper()

	blocks := make([]*wire.MsgBlock, n)
	for i := 0; i < n; i++ {
		blocks[i] = h.Mine(payScript)
	}
	return blocks
}
