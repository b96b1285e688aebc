// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package explorerapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
	"github.com/gorilla/mux"
)

func newTestExplorer(t *testing.T) (*Server, *blockchain.Manager, *chaincfg.Params) {
	t.Helper()
	params := chaincfg.RegressionNetParams()
	store, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	set := utxoset.New(store)
	pool := mempool.New(1024*1024, nil)
	chain, err := blockchain.Open(params, store, set, pool, nil)
	if err != nil {
		t.Fatalf("blockchain.Open: %v", err)
	}

	s := &Server{cfg: Config{Chain: chain, Store: store, Utxo: set, Pool: pool}}
	return s, chain, params
}

func mineChild(t *testing.T, params *chaincfg.Params, parentHash chainhash.Hash, height int64, payScript []byte, timestamp time.Time) *wire.MsgBlock {
	t.Helper()

	scriptSig, err := txscript.CoinbaseScriptSig(height, nil)
	if err != nil {
		t.Fatalf("CoinbaseScriptSig: %v", err)
	}
	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: blockchain.CalcSubsidy(params, height), PkScript: payScript})

	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	block.Header = wire.BlockHeader{
		Version:   1,
		PrevBlock: parentHash,
		Timestamp: timestamp,
		Bits:      params.PowLimitBits,
	}
	block.Header.MerkleRoot = chainhash.MerkleRoot(block.TxHashes())

	for nonce := uint32(0); ; nonce++ {
		block.Header.Nonce = nonce
		if err := standalone.CheckProofOfWork(block.Header.BlockHash(), params.PowLimitBits, params.PowLimit); err == nil {
			break
		}
		if nonce > 1_000_000 {
			t.Fatal("failed to mine a valid block within a reasonable number of nonces")
		}
	}
	return block
}

func get(t *testing.T, s *Server, path string) (*http.Response, []byte) {
	t.Helper()
	router := mux.NewRouter()
	addRoutes(router, s)

	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Result(), rec.Body.Bytes()
}

func TestGetStatsReportsTipAndHeight(t *testing.T) {
	s, _, _ := newTestExplorer(t)

	resp, body := get(t, s, "/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var stats statsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.Height != 0 {
		t.Fatalf("height = %d, want 0 (genesis only)", stats.Height)
	}
}

func TestGetBlockByHeightAndHashAgree(t *testing.T) {
	s, chain, params := newTestExplorer(t)
	genesisHash, _ := chain.Tip()

	pkScript, err := txscript.PayToPubKeyHashScript(make([]byte, 20))
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	block1 := mineChild(t, params, genesisHash, 1, pkScript, params.GenesisBlock.Header.Timestamp.Add(time.Minute))
	if _, err := chain.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}

	_, byHeight := get(t, s, "/blocks/height/1")
	_, byHash := get(t, s, "/blocks/"+block1.BlockHash().String())

	var dh, dhash blockDetail
	if err := json.Unmarshal(byHeight, &dh); err != nil {
		t.Fatalf("decoding by-height response: %v", err)
	}
	if err := json.Unmarshal(byHash, &dhash); err != nil {
		t.Fatalf("decoding by-hash response: %v", err)
	}
	if dh.Hash != dhash.Hash || dh.Hash != block1.BlockHash().String() {
		t.Fatalf("by-height (%s) and by-hash (%s) disagree, want %s", dh.Hash, dhash.Hash, block1.BlockHash())
	}
}

func TestGetBlocksListsNewestFirst(t *testing.T) {
	s, chain, params := newTestExplorer(t)
	genesisHash, _ := chain.Tip()

	pkScript, err := txscript.PayToPubKeyHashScript(make([]byte, 20))
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	block1 := mineChild(t, params, genesisHash, 1, pkScript, params.GenesisBlock.Header.Timestamp.Add(time.Minute))
	if _, err := chain.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock(block1): %v", err)
	}
	block2 := mineChild(t, params, block1.BlockHash(), 2, pkScript, block1.Header.Timestamp.Add(time.Minute))
	if _, err := chain.ProcessNewBlock(block2); err != nil {
		t.Fatalf("ProcessNewBlock(block2): %v", err)
	}

	_, body := get(t, s, "/blocks?limit=2")
	var list []blockSummary
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}
	if list[0].Hash != block2.BlockHash().String() || list[1].Hash != block1.BlockHash().String() {
		t.Fatal("expected newest-first ordering")
	}
}

func TestGetTransactionReturnsDecodedOutputs(t *testing.T) {
	s, chain, params := newTestExplorer(t)
	genesisHash, _ := chain.Tip()

	addr, err := chainutil.NewAddressPubKeyHash(make([]byte, 20))
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %v", err)
	}
	pkScript, err := txscript.PayToPubKeyHashScript(addr.Hash160()[:])
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	block1 := mineChild(t, params, genesisHash, 1, pkScript, params.GenesisBlock.Header.Timestamp.Add(time.Minute))
	if _, err := chain.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}
	coinbaseTxID := block1.Transactions[0].TxHash().String()

	_, body := get(t, s, "/transactions/"+coinbaseTxID)
	var detail txDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !detail.IsCoinbase {
		t.Fatal("expected the coinbase transaction to be reported as such")
	}
	if len(detail.Outputs) != 1 || detail.Outputs[0].Address != addr.String() {
		t.Fatalf("outputs = %+v, want one output paying %s", detail.Outputs, addr.String())
	}
}

func TestGetAddressReportsUnspentBalance(t *testing.T) {
	s, chain, params := newTestExplorer(t)
	genesisHash, _ := chain.Tip()

	addr, err := chainutil.NewAddressPubKeyHash(make([]byte, 20))
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: %v", err)
	}
	pkScript, err := txscript.PayToPubKeyHashScript(addr.Hash160()[:])
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	block1 := mineChild(t, params, genesisHash, 1, pkScript, params.GenesisBlock.Header.Timestamp.Add(time.Minute))
	if _, err := chain.ProcessNewBlock(block1); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}

	_, body := get(t, s, "/address/"+addr.String())
	var resp addressResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Balance != block1.Transactions[0].TxOut[0].Value {
		t.Fatalf("balance = %d, want %d", resp.Balance, block1.Transactions[0].TxOut[0].Value)
	}
	if len(resp.UTXOs) != 1 {
		t.Fatalf("len(UTXOs) = %d, want 1", len(resp.UTXOs))
	}
}

func TestGetBlockByHashRejectsMalformedHash(t *testing.T) {
	s, _, _ := newTestExplorer(t)
	resp, _ := get(t, s, "/blocks/not-a-hash")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetAddressRejectsInvalidAddress(t *testing.T) {
	s, _, _ := newTestExplorer(t)
	resp, _ := get(t, s, "/address/not-an-address")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
