// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "testing"

func TestMainNetParamsGenesisInternallyConsistent(t *testing.T) {
	params := MainNetParams()

	if got := params.GenesisBlock.BlockHash(); got != params.GenesisHash {
		t.Fatalf("GenesisHash %s does not match GenesisBlock.BlockHash() %s", params.GenesisHash, got)
	}
	if len(params.GenesisBlock.Transactions) != 1 {
		t.Fatalf("genesis must carry exactly one transaction, got %d", len(params.GenesisBlock.Transactions))
	}
	coinbase := params.GenesisBlock.Transactions[0]
	if !coinbase.IsCoinBase() {
		t.Fatalf("genesis transaction must be a coinbase")
	}
	if got, want := coinbase.TxOut[0].Value, int64(genesisSubsidy); got != want {
		t.Fatalf("genesis subsidy = %d, want %d", got, want)
	}
	if got := params.GenesisBlock.Header.MerkleRoot; got != coinbase.TxHash() {
		t.Fatalf("genesis Merkle root must equal its single transaction's hash")
	}
}

func TestRegressionNetParamsGenesisInternallyConsistent(t *testing.T) {
	params := RegressionNetParams()
	if got := params.GenesisBlock.BlockHash(); got != params.GenesisHash {
		t.Fatalf("GenesisHash mismatch: %s vs %s", params.GenesisHash, got)
	}
}

func TestRetargetFactorBounds(t *testing.T) {
	params := MainNetParams()
	if params.RetargetMinFactor != 0.25 || params.RetargetMaxFactor != 4.0 {
		t.Fatalf("retarget clamp bounds must be [0.25, 4.0], got [%v, %v]",
			params.RetargetMinFactor, params.RetargetMaxFactor)
	}
}

func TestSubsidyScheduleConstants(t *testing.T) {
	params := MainNetParams()
	if params.InitialSubsidy != 5_000_000_000 {
		t.Fatalf("InitialSubsidy = %d, want 5_000_000_000", params.InitialSubsidy)
	}
	if params.SubsidyHalvingInterval != 250_000 {
		t.Fatalf("SubsidyHalvingInterval = %d, want 250000", params.SubsidyHalvingInterval)
	}
	if params.SubsidyReductionFactor != 0.75 {
		t.Fatalf("SubsidyReductionFactor = %v, want 0.75", params.SubsidyReductionFactor)
	}
}
