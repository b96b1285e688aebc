// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the consensus and network parameters that
// distinguish one instance of the chain from another: the genesis block,
// the proof-of-work limit, the subsidy and retarget schedule constants of
// §5, and the P2P bootstrap settings of §6.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

// Params holds the full set of parameters that vary between networks.
type Params struct {
	// Name is the human-readable identifier for the network, e.g. "mainnet".
	Name string

	// Net is the 4-byte magic prefixing every P2P message frame, per
	// §4.9/§7. It is the single value that lets peers refuse to talk
	// across networks.
	Net uint32

	// DefaultPort is the network's conventional P2P TCP port. The node's
	// listener does not read it; it binds the configured P2P listen
	// address.
	DefaultPort string

	// DNSSeeds lists bootstrap hostnames for the network. The node does
	// not resolve them; outbound dialing uses the configured seed nodes
	// and the persisted address book.
	DNSSeeds []string

	// GenesisBlock is the hardcoded block at height 0.
	GenesisBlock *wire.MsgBlock

	// GenesisHash is GenesisBlock's identifier, computed once here so
	// chain-manager bootstrap never needs to hash it more than once.
	GenesisHash chainhash.Hash

	// PowLimit is the highest (easiest) proof-of-work target permitted
	// on this network, i.e. MAX_TARGET from §5.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in compact "bits" form.
	PowLimitBits uint32

	// TargetBlockTime is the per-block spacing the retarget algorithm
	// aims to hold, TARGET_BLOCK_TIME from §5.
	TargetBlockTime time.Duration

	// RetargetInterval is the number of blocks between difficulty
	// retargets, RESET_INTERVAL from §5.
	RetargetInterval int64

	// RetargetMinFactor and RetargetMaxFactor bound the ratio applied
	// to the previous target on each retarget, clamp(..., 0.25, 4.0)
	// from §5.
	RetargetMinFactor float64
	RetargetMaxFactor float64

	// InitialSubsidy is the coinbase reward at height 0, INITIAL_REWARD
	// from §5.
	InitialSubsidy int64

	// SubsidyHalvingInterval is the block count between subsidy
	// reductions, HALVING_INTERVAL from §5.
	SubsidyHalvingInterval int64

	// SubsidyReductionFactor is the multiplier applied at each halving
	// boundary, REDUCTION_FACTOR from §5.
	SubsidyReductionFactor float64

	// MaxBlockSize bounds serialized block size, per §3.
	MaxBlockSize int64

	// CoinbaseMaturity is the number of blocks a coinbase output must
	// have on top of it before the wallet's coin selection will spend
	// it. Mempool admission and block validation do not check it. Not
	// named explicitly by §4.5 but implied by "standard UTXO spend
	// rules"; kept small since this chain targets fast blocks.
	CoinbaseMaturity int64
}

// bigOne is 1 as a *big.Int, used to build PowLimit by bit-shifting.
var bigOne = big.NewInt(1)

// powLimitFromBits returns the highest target representable by the given
// number of leading-zero bits below 256, i.e. 2^(256-zeroBits) - 1.
func powLimitFromBits(zeroBits uint) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(bigOne, 256-zeroBits), bigOne)
}
