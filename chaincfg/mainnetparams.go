// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"time"
)

// genesisTimestamp, genesisBits, genesisNonce and genesisPkHashHex are
// copied verbatim from the reference genesis block (E1): the pre-mined
// header fields and the single UTXO's recipient hash160. The Merkle root
// and block hash are NOT copied from the reference literal hex: they are
// computed by buildGenesisBlock from this package's own wire encoding, so
// MainNetParams.GenesisHash is internally consistent with
// GenesisBlock.Serialize() even though this is an independent
// re-implementation with its own byte-level framing.
const (
	genesisTimestamp = 1759863403
	genesisBits      = 0xb22d121e
	genesisNonce     = 18453
	genesisPkHashHex = "3284b16e8cddbe53479ddab1c2a6010ca9923d88"
	genesisSubsidy   = 5_000_000_000
)

// MainNetParams returns the consensus and network parameters for the
// production network.
func MainNetParams() *Params {
	pkHash, err := hex.DecodeString(genesisPkHashHex)
	if err != nil {
		panic(err)
	}

	genesisBlock := buildGenesisBlock(genesisTimestamp, genesisBits, genesisNonce, pkHash, genesisSubsidy)

	return &Params{
		Name:        "mainnet",
		Net:         0x4b4e524c, // "KNRL"
		DefaultPort: "8433",
		DNSSeeds: []string{
			"seed1.kernel.example",
			"seed2.kernel.example",
		},

		GenesisBlock: genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),

		PowLimit:     powLimitFromBits(32),
		PowLimitBits: 0x1d00ffff,

		TargetBlockTime:  120 * time.Second,
		RetargetInterval: 10,

		RetargetMinFactor: 0.25,
		RetargetMaxFactor: 4.0,

		InitialSubsidy:         5_000_000_000,
		SubsidyHalvingInterval: 250_000,
		SubsidyReductionFactor: 0.75,

		MaxBlockSize:     1 * 1024 * 1024,
		CoinbaseMaturity: 100,
	}
}
