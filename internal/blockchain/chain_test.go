// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

func newTestManager(t *testing.T) (*Manager, *chaincfg.Params) {
	t.Helper()
	params := chaincfg.RegressionNetParams()
	store, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	set := utxoset.New(store)
	pool := mempool.New(1024*1024, nil)
	mgr, err := Open(params, store, set, pool, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return mgr, params
}

// mineChild assembles and mines a valid child of parentHash at the given
// height, with coinbase paying subsidy to an arbitrary P2PKH script.
// Regression-net's proof-of-work limit is loose enough that the first
// nonce tried always qualifies.
func mineChild(t *testing.T, params *chaincfg.Params, parentHash chainhash.Hash, height int64, bits uint32, timestamp time.Time, extraTxs []*wire.MsgTx) *wire.MsgBlock {
	t.Helper()

	scriptSig, err := txscript.CoinbaseScriptSig(height, nil)
	if err != nil {
		t.Fatalf("CoinbaseScriptSig: %v", err)
	}
	pkHash := make([]byte, 20)
	pkScript, err := txscript.PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}

	coinbase := wire.NewMsgTx(1)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: wire.CoinbaseIndex},
		SignatureScript:  scriptSig,
		Sequence:         wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(&wire.TxOut{Value: CalcSubsidy(params, height), PkScript: pkScript})

	block := &wire.MsgBlock{}
	block.AddTransaction(coinbase)
	for _, tx := range extraTxs {
		block.AddTransaction(tx)
	}
	block.Header = wire.BlockHeader{
		Version:   1,
		PrevBlock: parentHash,
		Timestamp: timestamp,
		Bits:      bits,
	}
	block.Header.MerkleRoot = chainhash.MerkleRoot(block.TxHashes())

	for nonce := uint32(0); ; nonce++ {
		block.Header.Nonce = nonce
		if err := standalone.CheckProofOfWork(block.Header.BlockHash(), bits, params.PowLimit); err == nil {
			break
		}
		if nonce > 1_000_000 {
			t.Fatal("failed to mine a valid block within a reasonable number of nonces")
		}
	}
	return block
}

func TestOpenBootstrapsGenesis(t *testing.T) {
	mgr, params := newTestManager(t)
	hash, height := mgr.Tip()
	if height != 0 {
		t.Fatalf("tip height = %d, want 0", height)
	}
	if hash != params.GenesisHash {
		t.Fatal("tip hash does not match params.GenesisHash after bootstrap")
	}
}

func TestProcessNewBlockExtendsMainChain(t *testing.T) {
	mgr, params := newTestManager(t)
	tipHash, _ := mgr.Tip()

	child := mineChild(t, params, tipHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	status, err := mgr.ProcessNewBlock(child)
	if err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}
	if status != StatusAcceptedMainChain {
		t.Fatalf("status = %v, want StatusAcceptedMainChain", status)
	}

	newTip, newHeight := mgr.Tip()
	if newHeight != 1 || newTip != child.BlockHash() {
		t.Fatal("tip did not advance to the newly connected block")
	}
}

func TestProcessNewBlockRejectsDuplicate(t *testing.T) {
	mgr, params := newTestManager(t)
	tipHash, _ := mgr.Tip()
	child := mineChild(t, params, tipHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)

	if _, err := mgr.ProcessNewBlock(child); err != nil {
		t.Fatalf("first ProcessNewBlock: %v", err)
	}
	status, err := mgr.ProcessNewBlock(child)
	if err != nil {
		t.Fatalf("second ProcessNewBlock: %v", err)
	}
	if status != StatusDuplicate {
		t.Fatalf("status = %v, want StatusDuplicate", status)
	}
}

func TestProcessNewBlockOrphanThenResolved(t *testing.T) {
	mgr, params := newTestManager(t)
	tipHash, _ := mgr.Tip()

	block1 := mineChild(t, params, tipHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	block2 := mineChild(t, params, block1.BlockHash(), 2, params.PowLimitBits, block1.Header.Timestamp.Add(time.Minute), nil)

	// Submit block2 before block1: its parent is unknown, so it must be
	// stored as an orphan rather than rejected outright.
	status, err := mgr.ProcessNewBlock(block2)
	if err != nil {
		t.Fatalf("ProcessNewBlock(block2): %v", err)
	}
	if status != StatusOrphan {
		t.Fatalf("status = %v, want StatusOrphan", status)
	}
	if _, height := mgr.Tip(); height != 0 {
		t.Fatal("tip must not advance while the chain has a gap")
	}

	status, err = mgr.ProcessNewBlock(block1)
	if err != nil {
		t.Fatalf("ProcessNewBlock(block1): %v", err)
	}
	if status != StatusAcceptedMainChain {
		t.Fatalf("status = %v, want StatusAcceptedMainChain", status)
	}

	// Resolving block1 should have pulled the orphaned block2 back in
	// and extended the tip to it automatically.
	tip, height := mgr.Tip()
	if height != 2 || tip != block2.BlockHash() {
		t.Fatal("orphan was not reconnected once its parent arrived")
	}
}

func TestProcessNewBlockForkThenReorg(t *testing.T) {
	mgr, params := newTestManager(t)
	genesisHash, _ := mgr.Tip()

	blockA1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if status, err := mgr.ProcessNewBlock(blockA1); err != nil || status != StatusAcceptedMainChain {
		t.Fatalf("ProcessNewBlock(blockA1): status=%v err=%v", status, err)
	}

	// A competing block at height 1, seen after A1 is already the tip:
	// it must be stored as a side chain, not swap the tip (equal work,
	// first-seen wins).
	blockB1 := mineChild(t, params, genesisHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(2*time.Minute), nil)
	status, err := mgr.ProcessNewBlock(blockB1)
	if err != nil {
		t.Fatalf("ProcessNewBlock(blockB1): %v", err)
	}
	if status != StatusAcceptedFork {
		t.Fatalf("status = %v, want StatusAcceptedFork", status)
	}
	if tip, _ := mgr.Tip(); tip != blockA1.BlockHash() {
		t.Fatal("equal-work competitor must not displace the first-seen tip")
	}

	// Extending B's branch past A's accumulated work must trigger a
	// reorganization onto B.
	blockB2 := mineChild(t, params, blockB1.BlockHash(), 2, params.PowLimitBits, blockB1.Header.Timestamp.Add(time.Minute), nil)
	status, err = mgr.ProcessNewBlock(blockB2)
	if err != nil {
		t.Fatalf("ProcessNewBlock(blockB2): %v", err)
	}
	if status != StatusAcceptedMainChain {
		t.Fatalf("status = %v, want StatusAcceptedMainChain", status)
	}
	if tip, height := mgr.Tip(); height != 2 || tip != blockB2.BlockHash() {
		t.Fatal("tip did not reorganize onto the heavier branch")
	}
}

func TestCalcSubsidyHalvesAndFloors(t *testing.T) {
	params := chaincfg.RegressionNetParams()
	if got := CalcSubsidy(params, 0); got != params.InitialSubsidy {
		t.Fatalf("CalcSubsidy(0) = %d, want %d", got, params.InitialSubsidy)
	}
	expectedAtOneHalving := int64(float64(params.InitialSubsidy) * params.SubsidyReductionFactor)
	if got := CalcSubsidy(params, params.SubsidyHalvingInterval); got != expectedAtOneHalving {
		t.Fatalf("CalcSubsidy at first halving = %d, want %d", got, expectedAtOneHalving)
	}

	// Many halvings must floor at zero rather than go negative or loop
	// forever.
	if got := CalcSubsidy(params, params.SubsidyHalvingInterval*200); got != 0 {
		t.Fatalf("CalcSubsidy after 200 halvings = %d, want 0", got)
	}
}

func TestCalcNextRequiredBitsInheritsOffBoundary(t *testing.T) {
	mgr, params := newTestManager(t)
	tipHash, _ := mgr.Tip()
	child := mineChild(t, params, tipHash, 1, params.PowLimitBits, params.GenesisBlock.Header.Timestamp.Add(time.Minute), nil)
	if _, err := mgr.ProcessNewBlock(child); err != nil {
		t.Fatalf("ProcessNewBlock: %v", err)
	}

	// Height 2 is not a retarget boundary (RetargetInterval = 10), so
	// the next block must inherit its parent's bits unchanged.
	if got := mgr.NextRequiredBits(); got != params.PowLimitBits {
		t.Fatalf("NextRequiredBits() = %#x, want parent's %#x", got, params.PowLimitBits)
	}
}
