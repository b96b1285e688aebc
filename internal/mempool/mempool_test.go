// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

func signedSpend(t *testing.T, privKey *secp256k1.PrivateKey, prevOp wire.OutPoint, prevPkScript []byte, outValue int64) *wire.MsgTx {
	t.Helper()
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: prevOp, Sequence: wire.MaxTxInSequenceNum})
	tx.AddTxOut(&wire.TxOut{Value: outValue, PkScript: prevPkScript})

	sigHash, err := txscript.CalcSignatureHash(tx, 0, prevPkScript)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	sig := ecdsa.Sign(privKey, sigHash[:])
	sigScript, err := txscript.SignatureScript(sig.Serialize(), privKey.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatalf("SignatureScript: %v", err)
	}
	tx.TxIn[0].SignatureScript = sigScript
	return tx
}

func fixedSourceFor(prevOp wire.OutPoint, prevPkScript []byte, value int64) validate.UTXOSource {
	return func(op wire.OutPoint) (validate.UTXOEntry, bool) {
		if op != prevOp {
			return validate.UTXOEntry{}, false
		}
		return validate.UTXOEntry{Value: value, PkScript: prevPkScript}, true
	}
}

func TestAddTransactionHappyPathAndIdempotence(t *testing.T) {
	privKey := secp256k1.PrivKeyFromBytes(bytesOfN(0x11))
	pkHash := chainutil.Hash160(privKey.PubKey().SerializeCompressed())
	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	prevOp := wire.OutPoint{Index: 0}
	tx := signedSpend(t, privKey, prevOp, pkScript, 900)

	pool := New(1024*1024, nil)
	fee, err := pool.AddTransaction(tx, fixedSourceFor(prevOp, pkScript, 1000))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if fee != 100 {
		t.Fatalf("fee = %d, want 100", fee)
	}
	if pool.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", pool.Count())
	}

	// Re-admitting the same transaction must be a no-op, per the
	// mempool idempotence testable property.
	fee2, err := pool.AddTransaction(tx, fixedSourceFor(prevOp, pkScript, 1000))
	if err != nil {
		t.Fatalf("second AddTransaction: %v", err)
	}
	if fee2 != fee || pool.Count() != 1 {
		t.Fatal("re-admitting an already-admitted transaction changed the pool")
	}
}

func TestAddTransactionRejectsCoinbase(t *testing.T) {
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex}})
	coinbase.AddTxOut(&wire.TxOut{Value: 100})

	pool := New(1024*1024, nil)
	if _, err := pool.AddTransaction(coinbase, func(wire.OutPoint) (validate.UTXOEntry, bool) { return validate.UTXOEntry{}, false }); err == nil {
		t.Fatal("expected error admitting a coinbase transaction")
	}
}

func TestAddTransactionRejectsMempoolConflict(t *testing.T) {
	privKey := secp256k1.PrivKeyFromBytes(bytesOfN(0x22))
	pkHash := chainutil.Hash160(privKey.PubKey().SerializeCompressed())
	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	prevOp := wire.OutPoint{Index: 0}
	source := fixedSourceFor(prevOp, pkScript, 1000)

	pool := New(1024*1024, nil)
	first := signedSpend(t, privKey, prevOp, pkScript, 900)
	if _, err := pool.AddTransaction(first, source); err != nil {
		t.Fatalf("AddTransaction(first): %v", err)
	}

	second := signedSpend(t, privKey, prevOp, pkScript, 800)
	if _, err := pool.AddTransaction(second, source); err == nil {
		t.Fatal("expected conflict error admitting a second spend of the same outpoint")
	}
	if pool.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after a rejected conflicting spend", pool.Count())
	}
}

func TestSelectTemplateOrdersByFeePerByteAndRespectsBudget(t *testing.T) {
	privKey := secp256k1.PrivKeyFromBytes(bytesOfN(0x33))
	pkHash := chainutil.Hash160(privKey.PubKey().SerializeCompressed())
	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}

	pool := New(1024*1024, nil)

	lowFeeOp := wire.OutPoint{Index: 0}
	lowFee := signedSpend(t, privKey, lowFeeOp, pkScript, 995) // fee 5
	if _, err := pool.AddTransaction(lowFee, fixedSourceFor(lowFeeOp, pkScript, 1000)); err != nil {
		t.Fatalf("AddTransaction(lowFee): %v", err)
	}

	highFeeOp := wire.OutPoint{Index: 1}
	highFee := signedSpend(t, privKey, highFeeOp, pkScript, 500) // fee 500
	if _, err := pool.AddTransaction(highFee, fixedSourceFor(highFeeOp, pkScript, 1000)); err != nil {
		t.Fatalf("AddTransaction(highFee): %v", err)
	}

	tmpl := pool.SelectTemplate(1024*1024, 0)
	if len(tmpl.Transactions) != 2 {
		t.Fatalf("len(Transactions) = %d, want 2", len(tmpl.Transactions))
	}
	if tmpl.Transactions[0].TxHash() != highFee.TxHash() {
		t.Fatal("higher fee-per-byte transaction should be selected first")
	}
	if tmpl.TotalFees != 505 {
		t.Fatalf("TotalFees = %d, want 505", tmpl.TotalFees)
	}

	tight := pool.SelectTemplate(int64(highFee.SerializeSize()), 0)
	if len(tight.Transactions) != 1 || tight.Transactions[0].TxHash() != highFee.TxHash() {
		t.Fatal("a budget fitting only one transaction should select the higher fee-per-byte one")
	}
}

func TestRemoveConfirmedDropsConflictingEntries(t *testing.T) {
	privKey := secp256k1.PrivKeyFromBytes(bytesOfN(0x44))
	pkHash := chainutil.Hash160(privKey.PubKey().SerializeCompressed())
	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	sharedOp := wire.OutPoint{Index: 0}

	pool := New(1024*1024, nil)
	mempoolTx := signedSpend(t, privKey, sharedOp, pkScript, 900)
	if _, err := pool.AddTransaction(mempoolTx, fixedSourceFor(sharedOp, pkScript, 1000)); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// A different transaction confirms on-chain spending the same
	// outpoint (e.g. it was mined by another node first); the mempool
	// entry depending on it is no longer valid and must be dropped.
	minedSpend := signedSpend(t, privKey, sharedOp, pkScript, 950)
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex}})
	coinbase.AddTxOut(&wire.TxOut{Value: 5_000_000_000})
	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	block.AddTransaction(minedSpend)

	pool.RemoveConfirmed(block)
	if pool.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after the conflicting spend confirmed", pool.Count())
	}
}

func bytesOfN(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}
