// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validate

import (
	"fmt"
	"math/big"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// maxFutureDrift is the maximum amount a block header's timestamp may
// lie ahead of the validating node's clock, per §3/§4.6.
const maxFutureDrift = 2 * time.Hour

// ParentInfo is what block header validation needs to know about a
// candidate block's parent: whether it is known at all (or the genesis
// sentinel), and its timestamp for the strictly-greater-than check.
type ParentInfo struct {
	Known     bool
	Timestamp time.Time
}

// CheckBlockHeader validates header against §3/§4.6's header rules: its
// own proof of work, a known (or genesis-sentinel) parent, and a
// timestamp strictly after the parent's and no more than two hours in
// the future of now.
func CheckBlockHeader(header *wire.BlockHeader, parent ParentInfo, powLimit *big.Int, now time.Time) error {
	if !parent.Known {
		return ruleError(ErrUnknownParent, "block's previous-block hash is not the genesis sentinel and is not indexed")
	}

	if !header.Timestamp.After(parent.Timestamp) {
		return ruleError(ErrTimeTooOld, fmt.Sprintf(
			"block timestamp %s is not strictly after parent timestamp %s",
			header.Timestamp, parent.Timestamp))
	}
	if header.Timestamp.After(now.Add(maxFutureDrift)) {
		return ruleError(ErrTimeTooNew, fmt.Sprintf(
			"block timestamp %s is more than %s ahead of %s", header.Timestamp, maxFutureDrift, now))
	}

	if err := standalone.CheckProofOfWork(header.BlockHash(), header.Bits, powLimit); err != nil {
		return ruleError(ErrHighHash, err.Error())
	}

	return nil
}

// CheckBlockBody validates a block's transaction list against §4.6's
// body rules: the first (and only the first) transaction is a coinbase
// whose scriptSig begins with the block's own height, the computed
// Merkle root matches the header's, no in-block double spend, and the
// serialized block fits MAX_BLOCK_SIZE.
func CheckBlockBody(block *wire.MsgBlock, height int64, maxBlockSize int64) error {
	if int64(block.SerializeSize()) > maxBlockSize {
		return ruleError(ErrBlockTooBig, fmt.Sprintf(
			"serialized block is too big: %d > %d", block.SerializeSize(), maxBlockSize))
	}

	if len(block.Transactions) == 0 || !block.Transactions[0].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "block's first transaction is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinBase() {
			return ruleError(ErrMultipleCoinbases, "block contains more than one coinbase transaction")
		}
	}

	gotHeight, err := txscript.ExtractCoinbaseHeight(block.Transactions[0].TxIn[0].SignatureScript)
	if err != nil {
		return ruleError(ErrBadCoinbaseHeight, err.Error())
	}
	if gotHeight != height {
		return ruleError(ErrBadCoinbaseHeight, fmt.Sprintf(
			"coinbase height %d does not match block height %d", gotHeight, height))
	}

	gotRoot := chainhash.MerkleRoot(block.TxHashes())
	if gotRoot != block.Header.MerkleRoot {
		return ruleError(ErrBadMerkleRoot, fmt.Sprintf(
			"computed Merkle root %s does not match header's %s", gotRoot, block.Header.MerkleRoot))
	}

	if err := CheckInBlockDoubleSpends(block.Transactions); err != nil {
		return err
	}

	for _, tx := range block.Transactions {
		if err := CheckTransactionSanity(tx, maxBlockSize); err != nil {
			return err
		}
	}

	return nil
}

// CheckCoinbaseValue validates §4.6's connect-time coinbase rule: the
// coinbase's total output amount must not exceed the per-height subsidy
// plus the block's total collected fees.
func CheckCoinbaseValue(coinbase *wire.MsgTx, subsidy, totalFees int64) error {
	var total int64
	for _, out := range coinbase.TxOut {
		total += out.Value
	}
	if total > subsidy+totalFees {
		return ruleError(ErrBadCoinbaseValue, fmt.Sprintf(
			"coinbase pays %d, exceeding subsidy+fees %d+%d", total, subsidy, totalFees))
	}
	return nil
}
