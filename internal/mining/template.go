// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mining assembles block templates from the current chain tip
// and mempool, and runs the CPU nonce-search loop that turns a template
// into an accepted block.
package mining

import (
	"time"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// coinbaseReserveBytes is a conservative estimate of the header plus
// coinbase transaction's serialized size, reserved out of MaxBlockSize
// before selecting mempool transactions. Template selection is a mining
// optimization, not a consensus rule, so this only needs to be safely
// generous, not exact.
const coinbaseReserveBytes = 512

// NewBlockTemplate assembles a candidate block extending the chain's
// current tip: a coinbase paying the next subsidy plus collected fees to
// payoutScript, followed by the mempool's highest fee-per-byte
// selection. The header is fully populated except for Nonce, which the
// caller (or an external miner via get_work/submit_block) must solve.
func NewBlockTemplate(chain *blockchain.Manager, pool *mempool.Pool, payoutScript []byte) (*wire.MsgBlock, error) {
	params := chain.Params()
	tipHash, tipHeight := chain.Tip()
	parent, err := chain.BlockByHash(tipHash)
	if err != nil {
		return nil, err
	}

	height := tipHeight + 1
	bits := chain.NextRequiredBits()
	subsidy := chain.NextSubsidy()
	sel := pool.SelectTemplate(params.MaxBlockSize, coinbaseReserveBytes)

	scriptSig, err := txscript.CoinbaseScriptSig(height, nil)
	if err != nil {
		return nil, err
	}
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: subsidy + sel.TotalFees, PkScript: payoutScript})

	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	for _, tx := range sel.Transactions {
		block.AddTransaction(tx)
	}

	timestamp := time.Now()
	if !timestamp.After(parent.Header.Timestamp) {
		timestamp = parent.Header.Timestamp.Add(time.Second)
	}

	block.Header = wire.BlockHeader{
		Version:   1,
		PrevBlock: tipHash,
		Timestamp: timestamp,
		Bits:      bits,
	}
	block.Header.MerkleRoot = chainhash.MerkleRoot(block.TxHashes())
	return block, nil
}
