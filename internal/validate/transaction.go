// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validate

import (
	"fmt"

	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// UTXOEntry is the minimal view of an unspent output validation needs:
// its value and locking script. Callers adapt their own storage (the
// UTXO set, or a UTXO set overlaid with in-flight mempool spends) to
// this shape rather than validate depending on any particular store.
type UTXOEntry struct {
	Value    int64
	PkScript []byte
}

// UTXOSource resolves a previous outpoint to its unspent entry. It
// returns ok == false if the outpoint is unknown or already spent in the
// caller's view.
type UTXOSource func(op wire.OutPoint) (entry UTXOEntry, ok bool)

// CheckTransactionSanity performs context-free structural checks on a
// transaction: non-empty inputs and outputs, non-negative output
// amounts, and a serialized size that could fit in some block.
func CheckTransactionSanity(tx *wire.MsgTx, maxBlockSize int64) error {
	if len(tx.TxIn) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}
	if int64(tx.SerializeSize()) > maxBlockSize {
		return ruleError(ErrTxTooBig, fmt.Sprintf(
			"serialized transaction is too big: %d > %d", tx.SerializeSize(), maxBlockSize))
	}

	for i, out := range tx.TxOut {
		if out.Value < 0 {
			return ruleError(ErrBadTxOutValue, fmt.Sprintf(
				"transaction output %d has negative value %d", i, out.Value))
		}
	}

	if tx.IsCoinBase() {
		return nil
	}
	for i, in := range tx.TxIn {
		if in.PreviousOutPoint.IsCoinBaseOutPoint() {
			return ruleError(ErrInvalidCoinbase, fmt.Sprintf(
				"non-coinbase transaction input %d spends the coinbase sentinel outpoint", i))
		}
	}
	return nil
}

// CheckTransactionInputs resolves every input against source, verifies
// input total is at least output total, and verifies every unlocking
// script against its referenced locking script. It implements admission
// rules 2, 4 and 5 of §4.5; rules 1 (not coinbase) and 3 (mempool
// conflict) are the caller's responsibility since they depend on context
// this function has no view of. It returns the transaction's fee (input
// total minus output total).
func CheckTransactionInputs(tx *wire.MsgTx, source UTXOSource, sigCache *txscript.SigCache) (int64, error) {
	var totalIn int64
	for i, in := range tx.TxIn {
		entry, ok := source(in.PreviousOutPoint)
		if !ok {
			return 0, ruleError(ErrMissingTxOut, fmt.Sprintf(
				"input %d references unknown or already-spent outpoint %s:%d",
				i, in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index))
		}
		totalIn += entry.Value

		sigHash, err := txscript.CalcSignatureHash(tx, i, entry.PkScript)
		if err != nil {
			return 0, ruleError(ErrBadSignature, fmt.Sprintf(
				"input %d: computing signature hash: %v", i, err))
		}
		if err := txscript.Execute(in.SignatureScript, entry.PkScript, sigHash, sigCache, tx); err != nil {
			return 0, ruleError(ErrBadSignature, fmt.Sprintf(
				"input %d: script validation failed: %v", i, err))
		}
	}

	var totalOut int64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}

	if totalOut > totalIn {
		return 0, ruleError(ErrSpendTooHigh, fmt.Sprintf(
			"transaction outputs total %d exceeds inputs total %d", totalOut, totalIn))
	}

	return totalIn - totalOut, nil
}

// CheckInBlockDoubleSpends reports an error if any two transactions in
// txs spend the same previous outpoint, per §4.6's block-body rule.
// Coinbase inputs (the all-zero sentinel) are exempt, since every
// coinbase shares that same sentinel by construction.
func CheckInBlockDoubleSpends(txs []*wire.MsgTx) error {
	seen := make(map[wire.OutPoint]struct{})
	for _, tx := range txs {
		if tx.IsCoinBase() {
			continue
		}
		for _, in := range tx.TxIn {
			if _, dup := seen[in.PreviousOutPoint]; dup {
				return ruleError(ErrDoubleSpend, fmt.Sprintf(
					"outpoint %s:%d double-spent within the same block",
					in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index))
			}
			seen[in.PreviousOutPoint] = struct{}{}
		}
	}
	return nil
}
