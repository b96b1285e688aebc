// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcserver

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/0xnohan/Kernel/internal/chaintest"
	"github.com/0xnohan/Kernel/internal/walletcore"
	"github.com/0xnohan/Kernel/txscript"
)

func newTestServer(t *testing.T) (*Server, *chaintest.Harness) {
	t.Helper()
	h := chaintest.New(t)
	s := New(Config{
		ChainParams: h.Params,
		Chain:       h.Chain,
		Pool:        h.Pool,
		Utxo:        h.Utxo,
		Store:       h.Store,
		WalletDir:   t.TempDir(),
	})
	return s, h
}

// fundWallet mines a coinbase block paying w, then a second block on top
// of it so the payout matures under regression-net's coinbase maturity.
func fundWallet(t *testing.T, h *chaintest.Harness, w *walletcore.Wallet) {
	t.Helper()

	script, err := txscript.PayToPubKeyHashScript(w.Address.Hash160()[:])
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	h.Mine(script)
	h.MineN(int(h.Params.CoinbaseMaturity), script)
}

func call(s *Server, command string, params interface{}) response {
	raw, _ := json.Marshal(params)
	return s.dispatch([]byte(fmt.Sprintf(`{"command":%q,"params":%s}`, command, raw)))
}

func TestDispatchUnknownCommandReturnsErrorEnvelope(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.dispatch([]byte(`{"command":"nonsense","params":{}}`))
	if resp.Status != "error" || resp.Message == "" {
		t.Fatalf("resp = %+v, want a structured error envelope", resp)
	}
}

func TestDispatchMalformedRequestReturnsErrorEnvelope(t *testing.T) {
	s, _ := newTestServer(t)
	resp := s.dispatch([]byte(`not json`))
	if resp.Status != "error" {
		t.Fatalf("resp.Status = %q, want error", resp.Status)
	}
}

func TestPingReturnsPong(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(s, "ping", nil)
	if resp.Status != "ok" || resp.Result != "pong" {
		t.Fatalf("resp = %+v, want ok/pong", resp)
	}
}

func TestCreateWalletThenGetWalletsReportsZeroBalance(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(s, "create_wallet", map[string]string{"name": "alice"})
	if resp.Status != "ok" {
		t.Fatalf("create_wallet failed: %+v", resp)
	}

	resp = call(s, "get_wallets", nil)
	if resp.Status != "ok" {
		t.Fatalf("get_wallets failed: %+v", resp)
	}
	list, ok := resp.Result.([]walletBalance)
	if !ok || len(list) != 1 {
		t.Fatalf("get_wallets result = %#v, want one wallet", resp.Result)
	}
	if list[0].Name != "alice" || list[0].Balance != 0 {
		t.Fatalf("wallet entry = %+v, want alice with zero balance", list[0])
	}
}

func TestCreateWalletRejectsDuplicateName(t *testing.T) {
	s, _ := newTestServer(t)
	if resp := call(s, "create_wallet", map[string]string{"name": "alice"}); resp.Status != "ok" {
		t.Fatalf("first create_wallet failed: %+v", resp)
	}
	resp := call(s, "create_wallet", map[string]string{"name": "alice"})
	if resp.Status != "error" {
		t.Fatal("expected create_wallet to reject a duplicate name")
	}
}

func TestSendTxAdmitsTransactionToMempool(t *testing.T) {
	s, h := newTestServer(t)

	aliceResp := call(s, "create_wallet", map[string]string{"name": "alice"})
	bobResp := call(s, "create_wallet", map[string]string{"name": "bob"})
	if aliceResp.Status != "ok" || bobResp.Status != "ok" {
		t.Fatal("create_wallet setup failed")
	}
	bobAddr := bobResp.Result.(map[string]string)["address"]

	alice, err := walletcore.Load(s.cfg.WalletDir, "alice")
	if err != nil {
		t.Fatalf("walletcore.Load: %v", err)
	}
	fundWallet(t, h, alice)

	resp := call(s, "send_tx", map[string]interface{}{
		"from":     "alice",
		"to":       bobAddr,
		"amount":   1_000_000_000,
		"fee_rate": 5,
	})
	if resp.Status != "ok" {
		t.Fatalf("send_tx failed: %+v", resp)
	}
	result, ok := resp.Result.(map[string]string)
	if !ok || result["txid"] == "" {
		t.Fatalf("send_tx result = %#v, want a txid", resp.Result)
	}
	if s.cfg.Pool.Count() != 1 {
		t.Fatalf("mempool count = %d, want 1", s.cfg.Pool.Count())
	}
}

func TestSendTxRejectsUnknownWallet(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(s, "send_tx", map[string]interface{}{
		"from":     "nobody",
		"to":       "anything",
		"amount":   1,
		"fee_rate": 1,
	})
	if resp.Status != "error" {
		t.Fatal("expected send_tx with an unknown wallet to fail")
	}
}

func TestGetWorkReturnsTemplateForDefaultMiner(t *testing.T) {
	s, _ := newTestServer(t)
	created := call(s, "create_wallet", map[string]string{"name": "miner"})
	s.cfg.DefaultMiner = created.Result.(map[string]string)["address"]

	resp := call(s, "get_work", nil)
	if resp.Status != "ok" {
		t.Fatalf("get_work failed: %+v", resp)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("get_work result = %#v, want a map", resp.Result)
	}
	if _, ok := result["previous_block_hash"]; !ok {
		t.Fatal("get_work result missing previous_block_hash")
	}
}

func TestGetWorkWithoutPayoutAddressFails(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(s, "get_work", nil)
	if resp.Status != "error" {
		t.Fatal("expected get_work with no payout address configured to fail")
	}
}

func TestGetChainHeightReportsGenesis(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(s, "get_chain_height", nil)
	if resp.Status != "ok" || resp.Result != int64(0) {
		t.Fatalf("resp = %+v, want height 0", resp)
	}
}

func TestShutdownInvokesRequestShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	done := make(chan struct{})
	s.cfg.RequestShutdown = func() { close(done) }

	resp := call(s, "shutdown", nil)
	if resp.Status != "ok" {
		t.Fatalf("shutdown failed: %+v", resp)
	}
	<-done
}

func TestSubmitBlockRejectsGarbageHex(t *testing.T) {
	s, _ := newTestServer(t)
	resp := call(s, "submit_block", map[string]string{"block_hex": "not hex"})
	if resp.Status != "error" {
		t.Fatal("expected submit_block with invalid hex to fail")
	}
}
