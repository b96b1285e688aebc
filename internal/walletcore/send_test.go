// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package walletcore

import (
	"math/big"
	"testing"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

func openTestStore(t *testing.T) (*database.Store, *utxoset.Set) {
	t.Helper()
	store, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, utxoset.New(store)
}

// fundWallet applies a one-output coinbase block paying w, recording its
// index entry and tx location the way blockchain.Manager would on
// connect, and returns the funding outpoint.
func fundWallet(t *testing.T, store *database.Store, set *utxoset.Set, w *Wallet, value, height int64) wire.OutPoint {
	t.Helper()

	script, err := txscript.PayToPubKeyHashScript(w.Address.Hash160()[:])
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}

	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex}})
	coinbase.AddTxOut(&wire.TxOut{Value: value, PkScript: script})
	coinbase.LockTime = uint32(height) // forces a distinct tx hash per call

	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	blockHash := block.BlockHash()

	if err := set.Apply(block); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := store.PutIndexEntry(blockHash, &database.IndexEntry{
		Height:          height,
		AccumulatedWork: big.NewInt(height),
		Status:          database.StatusValid,
	}); err != nil {
		t.Fatalf("PutIndexEntry: %v", err)
	}

	return wire.OutPoint{Hash: coinbase.TxHash(), Index: 0}
}

func TestBalanceSumsMatchingOutputsOnly(t *testing.T) {
	store, set := openTestStore(t)

	alice, err := New("alice")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bob, err := New("bob")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fundWallet(t, store, set, alice, 5_000_000_000, 1)
	fundWallet(t, store, set, bob, 1_000_000_000, 2)

	balance, err := alice.Balance(set)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 5_000_000_000 {
		t.Fatalf("alice balance = %d, want 5000000000", balance)
	}
}

func TestBuildSignedTransactionProducesPaymentAndChange(t *testing.T) {
	store, set := openTestStore(t)
	const coinbaseMaturity = 1

	alice, err := New("alice")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bob, err := New("bob")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fundWallet(t, store, set, alice, 5_000_000_000, 1)
	const tipHeight = 2 // one confirmation past the funding coinbase

	tx, err := BuildSignedTransaction(SendParams{
		From:    alice,
		To:      bob.Address.String(),
		Amount:  1_000_000_000,
		FeeRate: 5,
	}, set, store, tipHeight, coinbaseMaturity)
	if err != nil {
		t.Fatalf("BuildSignedTransaction: %v", err)
	}

	if len(tx.TxIn) != 1 {
		t.Fatalf("len(TxIn) = %d, want 1", len(tx.TxIn))
	}
	if len(tx.TxOut) != 2 {
		t.Fatalf("len(TxOut) = %d, want 2 (payment + change)", len(tx.TxOut))
	}
	if tx.TxOut[0].Value != 1_000_000_000 {
		t.Fatalf("payment output = %d, want 1000000000", tx.TxOut[0].Value)
	}

	var totalOut int64
	for _, out := range tx.TxOut {
		totalOut += out.Value
	}
	if totalOut >= 5_000_000_000 {
		t.Fatal("expected a nonzero fee to have been deducted")
	}

	entry, ok := set.Lookup(tx.TxIn[0].PreviousOutPoint)
	if !ok {
		t.Fatal("selected input must reference a real UTXO")
	}
	sigHash, err := txscript.CalcSignatureHash(tx, 0, entry.PkScript)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	if err := txscript.Execute(tx.TxIn[0].SignatureScript, entry.PkScript, sigHash, nil, nil); err != nil {
		t.Fatalf("expected the built input's signature to verify, got: %v", err)
	}
}

func TestBuildSignedTransactionRejectsImmatureCoinbase(t *testing.T) {
	store, set := openTestStore(t)
	const coinbaseMaturity = 100

	alice, err := New("alice")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fundWallet(t, store, set, alice, 5_000_000_000, 10)

	_, err = BuildSignedTransaction(SendParams{
		From:    alice,
		To:      alice.Address.String(),
		Amount:  1_000_000_000,
		FeeRate: 5,
	}, set, store, 11, coinbaseMaturity)
	if err == nil {
		t.Fatal("expected spending an immature coinbase output to fail")
	}
}

func TestBuildSignedTransactionRejectsInsufficientFunds(t *testing.T) {
	store, set := openTestStore(t)
	const coinbaseMaturity = 1

	alice, err := New("alice")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fundWallet(t, store, set, alice, 1_000, 1)

	_, err = BuildSignedTransaction(SendParams{
		From:    alice,
		To:      alice.Address.String(),
		Amount:  1_000_000_000,
		FeeRate: 5,
	}, set, store, 2, coinbaseMaturity)
	if err == nil {
		t.Fatal("expected insufficient funds to be rejected")
	}
}

func TestSelectCoinsNoChangeWhenExact(t *testing.T) {
	entries := []utxoset.Entry{
		{Outpoint: wire.OutPoint{Hash: chainhash.HashH([]byte("a"))}, Value: 1000},
	}
	selected, fee, err := selectCoins(entries, 1000-feeFor(1, 2), 1)
	if err != nil {
		t.Fatalf("selectCoins: %v", err)
	}
	if len(selected) != 1 {
		t.Fatalf("len(selected) = %d, want 1", len(selected))
	}
	if fee != feeFor(1, 2) {
		t.Fatalf("fee = %d, want %d", fee, feeFor(1, 2))
	}
}

func feeFor(numInputs, numOutputs int) int64 {
	return estimateSize(numInputs, numOutputs)
}
