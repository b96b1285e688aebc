// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config loads the daemon's configuration from an INI file
// (sections NETWORK, P2P, API, MINING, SEED_NODES) overlaid with
// command-line flags, per spec.md §6's persisted config file and §9's
// "load once, pass by value" rule: Load returns a single value that
// cmd/kerneld passes into each component's constructor, with no
// package-level mutable config singleton anywhere in the tree.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"gopkg.in/ini.v1"

	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainutil"
)

// NetworkSection selects the chain parameters and on-disk data
// directory, [NETWORK] in the config file.
type NetworkSection struct {
	ChainParams string `ini:"chain_params" long:"chain" default:"mainnet" description:"Network to connect to (mainnet, regtest)"`
	DataDir     string `ini:"data_dir" long:"datadir" description:"Directory to store blocks, chain state, and wallets"`
}

// P2PSection configures the peer-to-peer listener and outbound limits,
// [P2P] in the config file.
type P2PSection struct {
	ListenAddr string `ini:"listen_addr" long:"listen" default:":8333" description:"P2P listen address"`
	MaxPeers   int    `ini:"max_peers" long:"maxpeers" default:"32" description:"Maximum number of peers to maintain"`
}

// APISection configures the RPC and explorer HTTP listeners, [API] in
// the config file.
type APISection struct {
	RPCListenAddr  string `ini:"rpc_listen_addr" long:"rpclisten" default:"127.0.0.1:8336" description:"RPC server listen address"`
	HTTPListenAddr string `ini:"http_listen_addr" long:"httplisten" default:"127.0.0.1:8337" description:"Explorer HTTP API listen address"`
	WSListenAddr   string `ini:"ws_listen_addr" long:"wslisten" description:"RPC websocket push-notification listen address (empty disables it)"`
}

// MiningSection configures the built-in CPU miner, [MINING] in the
// config file.
type MiningSection struct {
	Enabled       bool   `ini:"enabled" long:"mine" description:"Enable the built-in CPU miner"`
	PayoutAddress string `ini:"payout_address" long:"miningaddr" description:"Address to pay mined block subsidies to"`
}

// SeedNodesSection lists the addresses dialed at startup to discover the
// rest of the network, [SEED_NODES] in the config file.
type SeedNodesSection struct {
	Addresses []string `ini:"addresses" long:"seed" description:"Seed node address (host:port); may be specified multiple times"`
}

// Config is the daemon's full configuration, loaded once in
// cmd/kerneld/main.go and passed by value to every component.
type Config struct {
	Network   NetworkSection   `group:"Network Options" ini:"NETWORK"`
	P2P       P2PSection       `group:"P2P Options" ini:"P2P"`
	API       APISection       `group:"API Options" ini:"API"`
	Mining    MiningSection    `group:"Mining Options" ini:"MINING"`
	SeedNodes SeedNodesSection `group:"Seed Node Options" ini:"SEED_NODES"`
}

func defaultConfig() *Config {
	dataDir := filepath.Join(".", "kernel-data")
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".kernel")
	}
	return &Config{
		Network: NetworkSection{
			ChainParams: "mainnet",
			DataDir:     dataDir,
		},
		P2P: P2PSection{
			ListenAddr: ":8333",
			MaxPeers:   32,
		},
		API: APISection{
			RPCListenAddr:  "127.0.0.1:8336",
			HTTPListenAddr: "127.0.0.1:8337",
		},
	}
}

// Load builds a Config from its built-in defaults, overlaid by
// configFile's [NETWORK]/[P2P]/[API]/[MINING]/[SEED_NODES] sections (if
// configFile names a file that exists), overlaid in turn by args
// (typically os.Args[1:]). Later sources win.
func Load(configFile string, args []string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			iniFile, err := ini.Load(configFile)
			if err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", configFile, err)
			}
			if err := iniFile.MapTo(cfg); err != nil {
				return nil, fmt.Errorf("config: mapping %s: %w", configFile, err)
			}
		}
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.Network.DataDir == "" {
		return fmt.Errorf("config: NETWORK.data_dir must not be empty")
	}
	if _, err := cfg.Params(); err != nil {
		return err
	}
	if cfg.Mining.Enabled {
		if cfg.Mining.PayoutAddress == "" {
			return fmt.Errorf("config: MINING.enabled requires MINING.payout_address")
		}
		if _, err := chainutil.DecodeAddress(cfg.Mining.PayoutAddress); err != nil {
			return fmt.Errorf("config: MINING.payout_address: %w", err)
		}
	}
	return nil
}

// Params resolves the configured network name to its chaincfg.Params.
func (cfg *Config) Params() (*chaincfg.Params, error) {
	switch cfg.Network.ChainParams {
	case "", "mainnet":
		return chaincfg.MainNetParams(), nil
	case "regtest", "regression":
		return chaincfg.RegressionNetParams(), nil
	default:
		return nil, fmt.Errorf("config: unknown NETWORK.chain_params %q", cfg.Network.ChainParams)
	}
}
