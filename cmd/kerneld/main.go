// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// kerneld is the node daemon: it loads configuration, opens on-disk
// storage, wires the chain manager, mempool, optional CPU miner, P2P
// sync layer, RPC server, and explorer API together, and runs until
// asked to shut down.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/config"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/explorerapi"
	"github.com/0xnohan/Kernel/internal/kernellog"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/mining"
	"github.com/0xnohan/Kernel/internal/netsync"
	"github.com/0xnohan/Kernel/internal/rpcserver"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/internal/walletcore"
	"github.com/0xnohan/Kernel/peer"
	"github.com/0xnohan/Kernel/txscript"
)

var log = kernellog.NewSubLogger("CFGS", "info")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(defaultConfigPath(), os.Args[1:])
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.Network.DataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory %s: %w", cfg.Network.DataDir, err)
	}
	if err := kernellog.InitLogRotator(filepath.Join(cfg.Network.DataDir, "logs", "kernel.log")); err != nil {
		return err
	}
	wireLoggers()

	params, err := cfg.Params()
	if err != nil {
		return err
	}

	store, err := database.Open(cfg.Network.DataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	sigCache, err := txscript.NewSigCache(50000)
	if err != nil {
		return fmt.Errorf("creating signature cache: %w", err)
	}

	utxo := utxoset.New(store)
	pool := mempool.New(64*1024*1024, sigCache)

	chain, err := blockchain.Open(params, store, utxo, pool, sigCache)
	if err != nil {
		return fmt.Errorf("opening chain manager: %w", err)
	}

	walletDir := filepath.Join(cfg.Network.DataDir, "wallets")
	if err := os.MkdirAll(walletDir, 0700); err != nil {
		return fmt.Errorf("creating wallet directory %s: %w", walletDir, err)
	}

	syncMgr, err := netsync.New(netsync.Config{
		ChainParams: params,
		Chain:       chain,
		Pool:        pool,
		DataDir:     cfg.Network.DataDir,
	})
	if err != nil {
		return fmt.Errorf("starting sync manager: %w", err)
	}

	shutdownCh := make(chan struct{})
	var shutdownOnce sync.Once
	requestShutdown := func() {
		shutdownOnce.Do(func() { close(shutdownCh) })
	}

	rpc := rpcserver.New(rpcserver.Config{
		ListenAddr:      cfg.API.RPCListenAddr,
		WSListenAddr:    cfg.API.WSListenAddr,
		ChainParams:     params,
		Chain:           chain,
		Pool:            pool,
		Utxo:            utxo,
		Store:           store,
		Sync:            syncMgr,
		WalletDir:       walletDir,
		DefaultMiner:    cfg.Mining.PayoutAddress,
		RequestShutdown: requestShutdown,
	})
	if err := rpc.Start(); err != nil {
		return fmt.Errorf("starting RPC server: %w", err)
	}
	defer rpc.Stop()

	explorer := explorerapi.New(explorerapi.Config{
		ListenAddr: cfg.API.HTTPListenAddr,
		Chain:      chain,
		Store:      store,
		Utxo:       utxo,
		Pool:       pool,
	})
	if err := explorer.Start(); err != nil {
		return fmt.Errorf("starting explorer API: %w", err)
	}
	defer explorer.Stop()

	var miner *mining.CPUMiner
	if cfg.Mining.Enabled {
		payoutAddr, err := chainutil.DecodeAddress(cfg.Mining.PayoutAddress)
		if err != nil {
			return fmt.Errorf("decoding MINING.payout_address: %w", err)
		}
		payoutScript, err := txscript.PayToPubKeyHashScript(payoutAddr.Hash160()[:])
		if err != nil {
			return fmt.Errorf("building payout script: %w", err)
		}
		miner = mining.New(mining.Config{
			ChainParams:  params,
			Chain:        chain,
			Pool:         pool,
			PayoutScript: payoutScript,
			Broadcaster:  rpc,
		})
		miner.Start()
		defer miner.Stop()
	}

	listener, err := net.Listen("tcp", cfg.P2P.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.P2P.ListenAddr, err)
	}
	defer listener.Close()
	log.Infof("P2P listener on %s", cfg.P2P.ListenAddr)

	go acceptPeers(listener, syncMgr, shutdownCh)
	dialSeeds(syncMgr, cfg.SeedNodes.Addresses)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-interrupt:
		log.Infof("received interrupt, shutting down")
	case <-shutdownCh:
		log.Infof("shutdown requested over RPC")
	}

	if err := syncMgr.Shutdown(); err != nil {
		log.Warnf("saving address book: %v", err)
	}
	return nil
}

// acceptPeers accepts inbound P2P connections until the listener is
// closed or shutdownCh fires.
func acceptPeers(listener net.Listener, syncMgr *netsync.Manager, shutdownCh <-chan struct{}) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-shutdownCh:
				return
			default:
				log.Warnf("accepting inbound connection: %v", err)
				return
			}
		}
		syncMgr.AcceptInbound(conn)
	}
}

// dialSeeds attempts an outbound connection to every configured seed and
// every address recalled from a prior session's address book, logging
// failures rather than treating them as fatal: a fresh node with no
// reachable seed yet should still come up and serve RPC/explorer
// traffic.
func dialSeeds(syncMgr *netsync.Manager, seeds []string) {
	addrs := make(map[string]struct{})
	for _, addr := range seeds {
		addrs[addr] = struct{}{}
	}
	for _, addr := range syncMgr.KnownAddrs() {
		addrs[addr] = struct{}{}
	}
	for addr := range addrs {
		addr := addr
		go func() {
			if _, err := syncMgr.ConnectOutbound(addr); err != nil {
				log.Warnf("connecting to seed %s: %v", addr, err)
			}
		}()
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".kernel", "kernel.conf")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// wireLoggers hands every package its tagged sub-logger, keeping the
// level every subsystem runs at in one place. internal/database shares
// blockchain's BCHN tag: it is that package's storage layer and the
// subsystem tag list has no separate entry for it.
func wireLoggers() {
	const level = "info"
	blockchain.UseLogger(kernellog.NewSubLogger("BCHN", level))
	database.UseLogger(kernellog.NewSubLogger("BCHN", level))
	utxoset.UseLogger(kernellog.NewSubLogger("UTXO", level))
	mempool.UseLogger(kernellog.NewSubLogger("MEMP", level))
	validate.UseLogger(kernellog.NewSubLogger("VLDT", level))
	mining.UseLogger(kernellog.NewSubLogger("MINR", level))
	peer.UseLogger(kernellog.NewSubLogger("PEER", level))
	netsync.UseLogger(kernellog.NewSubLogger("SYNC", level))
	rpcserver.UseLogger(kernellog.NewSubLogger("RPCS", level))
	explorerapi.UseLogger(kernellog.NewSubLogger("EXPL", level))
	walletcore.UseLogger(kernellog.NewSubLogger("WLLT", level))
	config.UseLogger(kernellog.NewSubLogger("CFGS", level))
}
