// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package walletcore implements §6's wallet file format and the send
// path's coin selection, fee estimation, and signing (§1's "Wallet send
// path" module). Routing RPC commands stays in internal/rpcserver; this
// package creates, loads, and lists wallet files and spends from a wallet.
package walletcore

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/0xnohan/Kernel/chainutil"
)

// privateKeySize is the length, in bytes, of a serialized secp256k1
// private key.
const privateKeySize = 32

// Wallet is a single keypair and its derived pay-to-pubkey-hash address.
type Wallet struct {
	Name    string
	Address *chainutil.AddressPubKeyHash

	privKey *secp256k1.PrivateKey
}

// walletFile is the on-disk JSON shape of wallets/<name>.json: the
// private key is stored as a decimal string rather than hex or raw
// bytes, per §6.
type walletFile struct {
	WalletName    string `json:"WalletName"`
	PublicAddress string `json:"PublicAddress"`
	PrivateKey    string `json:"privateKey"`
}

// New generates a fresh secp256k1 keypair and derives its address. It
// does not touch disk; call Save to persist it.
func New(name string) (*Wallet, error) {
	privKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("walletcore: generating key: %w", err)
	}
	return fromPrivateKey(name, privKey)
}

func fromPrivateKey(name string, privKey *secp256k1.PrivateKey) (*Wallet, error) {
	pkHash := chainutil.Hash160(privKey.PubKey().SerializeCompressed())
	addr, err := chainutil.NewAddressPubKeyHash(pkHash)
	if err != nil {
		return nil, fmt.Errorf("walletcore: deriving address: %w", err)
	}
	return &Wallet{Name: name, Address: addr, privKey: privKey}, nil
}

func walletPath(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// Save writes the wallet to dir/<name>.json. It fails if a wallet with
// the same name already exists there, per create_wallet's "error if name
// exists" rule.
func (w *Wallet) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("walletcore: creating wallet directory: %w", err)
	}

	dest := walletPath(dir, w.Name)
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("walletcore: wallet %q already exists", w.Name)
	} else if !os.IsNotExist(err) {
		return err
	}

	file := walletFile{
		WalletName:    w.Name,
		PublicAddress: w.Address.String(),
		PrivateKey:    new(big.Int).SetBytes(w.privKey.Serialize()).String(),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("walletcore: encoding wallet %q: %w", w.Name, err)
	}
	return os.WriteFile(dest, data, 0600)
}

// Load reads a wallet back from dir/<name>.json.
func Load(dir, name string) (*Wallet, error) {
	data, err := os.ReadFile(walletPath(dir, name))
	if err != nil {
		return nil, err
	}

	var file walletFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("walletcore: parsing %s: %w", walletPath(dir, name), err)
	}

	keyInt, ok := new(big.Int).SetString(file.PrivateKey, 10)
	if !ok {
		return nil, fmt.Errorf("walletcore: %s: privateKey is not a decimal integer", walletPath(dir, name))
	}
	privKey := secp256k1.PrivKeyFromBytes(keyInt.FillBytes(make([]byte, privateKeySize)))
	return fromPrivateKey(file.WalletName, privKey)
}

// LoadAll reads every wallet file in dir, for the get_wallets RPC
// command. A missing directory is treated as zero wallets rather than an
// error, since a fresh node has not created any yet.
func LoadAll(dir string) ([]*Wallet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var wallets []*Wallet
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		w, err := Load(dir, name)
		if err != nil {
			return nil, fmt.Errorf("walletcore: loading %s: %w", entry.Name(), err)
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}
