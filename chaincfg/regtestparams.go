// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "time"

// RegressionNetParams returns parameters for a local, low-difficulty
// network intended for chain-manager and mining tests: its proof-of-work
// limit is the loosest compact target this engine can decode.
func RegressionNetParams() *Params {
	pkHash := make([]byte, 20) // all-zero recipient; only used to boot an empty test chain.

	genesisBlock := buildGenesisBlock(1700000000, 0x207fffff, 0, pkHash, 5_000_000_000)

	return &Params{
		Name:        "regtest",
		Net:         0x524b4e54, // "RKNT"
		DefaultPort: "18433",
		DNSSeeds:    nil,

		GenesisBlock: genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),

		PowLimit:     powLimitFromBits(1),
		PowLimitBits: 0x207fffff,

		TargetBlockTime:  120 * time.Second,
		RetargetInterval: 10,

		RetargetMinFactor: 0.25,
		RetargetMaxFactor: 4.0,

		InitialSubsidy:         5_000_000_000,
		SubsidyHalvingInterval: 250_000,
		SubsidyReductionFactor: 0.75,

		MaxBlockSize:     1 * 1024 * 1024,
		CoinbaseMaturity: 1,
	}
}
