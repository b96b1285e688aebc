// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xnohan/Kernel/blockchain/standalone"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/wire"
)

// hashesPerTipCheck bounds how often the solver re-reads the chain tip
// while searching a nonce, trading a little staleness for not taking the
// chain lock on every hash attempt.
const hashesPerTipCheck = 1 << 15

// Broadcaster announces a locally mined block to the rest of the
// network. internal/netsync.Manager satisfies this.
type Broadcaster interface {
	AnnounceBlock(hash chainhash.Hash)
}

// Config holds everything the CPU miner needs to build and solve
// templates and publish what it finds.
type Config struct {
	ChainParams  *chaincfg.Params
	Chain        *blockchain.Manager
	Pool         *mempool.Pool
	PayoutScript []byte
	Broadcaster  Broadcaster
}

// CPUMiner repeatedly builds a block template off the current tip and
// searches for a winning nonce, submitting and announcing any block it
// solves. Only one mining loop runs at a time.
type CPUMiner struct {
	cfg     Config
	quit    chan struct{}
	wg      sync.WaitGroup
	running int32
}

// New constructs a CPUMiner. Call Start to begin mining.
func New(cfg Config) *CPUMiner {
	return &CPUMiner{cfg: cfg}
}

// Start begins the mining loop in a background goroutine. It is a no-op
// if mining is already running.
func (m *CPUMiner) Start() {
	if !atomic.CompareAndSwapInt32(&m.running, 0, 1) {
		return
	}
	m.quit = make(chan struct{})
	m.wg.Add(1)
	go m.miningLoop()
}

// Stop halts the mining loop and waits for it to exit. It is a no-op if
// mining is not running.
func (m *CPUMiner) Stop() {
	if !atomic.CompareAndSwapInt32(&m.running, 1, 0) {
		return
	}
	close(m.quit)
	m.wg.Wait()
}

// Running reports whether the mining loop is active.
func (m *CPUMiner) Running() bool {
	return atomic.LoadInt32(&m.running) != 0
}

func (m *CPUMiner) miningLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.quit:
			return
		default:
		}

		block, err := NewBlockTemplate(m.cfg.Chain, m.cfg.Pool, m.cfg.PayoutScript)
		if err != nil {
			log.Errorf("building block template: %v", err)
			select {
			case <-m.quit:
				return
			case <-time.After(time.Second):
			}
			continue
		}

		tipAtBuild, height := m.cfg.Chain.Tip()
		height++
		if !m.solve(block, tipAtBuild) {
			continue
		}

		hash := block.BlockHash()
		status, err := m.cfg.Chain.ProcessNewBlock(block)
		if err != nil {
			log.Warnf("mined block %s at height %d rejected: %v", hash, height, err)
			continue
		}
		if status != blockchain.StatusAcceptedMainChain {
			log.Debugf("mined block %s at height %d accepted off the main chain (%v)", hash, height, status)
			continue
		}

		log.Infof("mined block %s at height %d", hash, height)
		if m.cfg.Broadcaster != nil {
			m.cfg.Broadcaster.AnnounceBlock(hash)
		}
	}
}

// solve searches the full nonce space for a header satisfying the
// target in block.Header.Bits, abandoning the attempt if the chain's
// tip moves out from under it (the template is now stale) or Stop is
// called. It reports whether a winning nonce was found and left set in
// block.Header.Nonce.
func (m *CPUMiner) solve(block *wire.MsgBlock, tipAtBuild chainhash.Hash) bool {
	for attempt := int64(0); attempt <= math.MaxUint32; attempt++ {
		if attempt%hashesPerTipCheck == 0 {
			select {
			case <-m.quit:
				return false
			default:
			}
			if tip, _ := m.cfg.Chain.Tip(); tip != tipAtBuild {
				return false
			}
		}

		nonce := uint32(attempt)
		block.Header.Nonce = nonce
		if err := standalone.CheckProofOfWork(block.Header.BlockHash(), block.Header.Bits, m.cfg.ChainParams.PowLimit); err == nil {
			return true
		}
	}
	return false
}
