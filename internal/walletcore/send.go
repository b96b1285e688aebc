// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletcore

import (
	"fmt"
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

// Size estimates used for fee calculation before a transaction is fully
// built, the standard pay-to-pubkey-hash figures: a signed input (36-byte
// outpoint, ~107-byte sigScript, 4-byte sequence) and an output (8-byte
// value, 25-byte script, push-size overhead). §1 rules out any fee
// estimation smarter than a fixed per-byte rate, so these constants —
// not the transaction's eventual exact size — are what send_tx prices
// against.
const (
	estimatedInputSize  = 148
	estimatedOutputSize = 34
	estimatedOverhead   = 10
)

func estimateSize(numInputs, numOutputs int) int64 {
	return int64(estimatedOverhead + numInputs*estimatedInputSize + numOutputs*estimatedOutputSize)
}

// ErrInsufficientFunds is returned when a wallet's mature spendable
// outputs cannot cover the requested amount plus fee.
var ErrInsufficientFunds = fmt.Errorf("walletcore: insufficient spendable funds")

// Balance returns the sum of every UTXO whose locking script pays w's
// address, with no maturity filtering — get_wallets' "current confirmed
// balance".
func (w *Wallet) Balance(utxos *utxoset.Set) (int64, error) {
	entries, err := utxos.EntriesForPkHash(*w.Address.Hash160())
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Value
	}
	return total, nil
}

// isMatureOutput reports whether the output at op is spendable: every
// non-coinbase output is always mature, and a coinbase output is mature
// once the chain tip is at least coinbaseMaturity blocks ahead of the
// block that created it. The originating block's height and whether its
// creating transaction was the coinbase (tx index 0) both come from
// store's transaction and block indexes, so this needs no dependency on
// internal/blockchain.
func isMatureOutput(store *database.Store, op wire.OutPoint, tipHeight, coinbaseMaturity int64) (bool, error) {
	loc, err := store.GetTxLocation(op.Hash)
	if err != nil {
		return false, fmt.Errorf("walletcore: locating origin of %s:%d: %w", op.Hash, op.Index, err)
	}
	if loc.Index != 0 {
		return true, nil
	}

	entry, err := store.GetIndexEntry(loc.BlockHash)
	if err != nil {
		return false, fmt.Errorf("walletcore: locating origin block %s: %w", loc.BlockHash, err)
	}
	return tipHeight-entry.Height >= coinbaseMaturity, nil
}

// spendableEntries returns w's mature outputs: the candidate set coin
// selection draws from.
func spendableEntries(w *Wallet, utxos *utxoset.Set, store *database.Store, tipHeight, coinbaseMaturity int64) ([]utxoset.Entry, error) {
	all, err := utxos.EntriesForPkHash(*w.Address.Hash160())
	if err != nil {
		return nil, err
	}

	spendable := make([]utxoset.Entry, 0, len(all))
	for _, e := range all {
		mature, err := isMatureOutput(store, e.Outpoint, tipHeight, coinbaseMaturity)
		if err != nil {
			return nil, err
		}
		if mature {
			spendable = append(spendable, e)
		}
	}
	return spendable, nil
}

// selectCoins greedily selects from candidates, largest output first,
// until the accumulated value covers amount plus the fee its own input
// count implies, recomputing the fee (which grows with every added
// input) as it goes.
func selectCoins(candidates []utxoset.Entry, amount, feeRate int64) (selected []utxoset.Entry, fee int64, err error) {
	sorted := append([]utxoset.Entry(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	var total int64
	for _, e := range sorted {
		selected = append(selected, e)
		total += e.Value

		// Two outputs: payment plus change. If the exact remainder
		// later turns out to be zero, the caller drops the change
		// output and the fee paid, still this estimate, is marginally
		// more per byte than feeRate; that is the conservative
		// direction to round.
		fee = feeRate * estimateSize(len(selected), 2)
		if total >= amount+fee {
			return selected, fee, nil
		}
	}
	return nil, 0, ErrInsufficientFunds
}

// SendParams are send_tx's parameters: the paying wallet, destination
// address string, amount, and fixed satoshi-per-byte fee rate.
type SendParams struct {
	From    *Wallet
	To      string
	Amount  int64
	FeeRate int64
}

// BuildSignedTransaction performs send_tx's work: select mature UTXOs
// covering amount plus fee, build a transaction paying the destination
// (with a change output back to From when the selected inputs overshoot),
// and sign every input. The returned transaction is ready for mempool
// admission and relay.
func BuildSignedTransaction(params SendParams, utxos *utxoset.Set, store *database.Store, tipHeight, coinbaseMaturity int64) (*wire.MsgTx, error) {
	if params.Amount <= 0 {
		return nil, fmt.Errorf("walletcore: amount must be positive")
	}
	if params.FeeRate < 0 {
		return nil, fmt.Errorf("walletcore: fee_rate must not be negative")
	}

	destAddr, err := chainutil.DecodeAddress(params.To)
	if err != nil {
		return nil, fmt.Errorf("walletcore: destination address: %w", err)
	}
	destScript, err := txscript.PayToPubKeyHashScript(destAddr.Hash160()[:])
	if err != nil {
		return nil, err
	}

	candidates, err := spendableEntries(params.From, utxos, store, tipHeight, coinbaseMaturity)
	if err != nil {
		return nil, err
	}
	selected, fee, err := selectCoins(candidates, params.Amount, params.FeeRate)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range selected {
		total += e.Value
	}
	change := total - params.Amount - fee

	tx := wire.NewMsgTx(1)
	for _, e := range selected {
		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: e.Outpoint, Sequence: wire.MaxTxInSequenceNum})
	}
	tx.AddTxOut(&wire.TxOut{Value: params.Amount, PkScript: destScript})
	if change > 0 {
		changeScript, err := txscript.PayToPubKeyHashScript(params.From.Address.Hash160()[:])
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(&wire.TxOut{Value: change, PkScript: changeScript})
	}

	pubKey := params.From.privKey.PubKey().SerializeCompressed()
	for i, e := range selected {
		sigHash, err := txscript.CalcSignatureHash(tx, i, e.PkScript)
		if err != nil {
			return nil, fmt.Errorf("walletcore: computing sighash for input %d: %w", i, err)
		}
		sig := ecdsa.Sign(params.From.privKey, sigHash[:])
		sigScript, err := txscript.SignatureScript(sig.Serialize(), pubKey)
		if err != nil {
			return nil, fmt.Errorf("walletcore: building signature script for input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	return tx, nil
}
