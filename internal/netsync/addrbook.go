// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// addrBookFile is the name of the known-peers file written under a
// node's data directory, the SUPPLEMENTED peer-address-persistence
// feature grounded on the teacher's sibling addrmgr package's Save/Load
// convention, scaled down to a flat known-address set with no
// reputation scoring.
const addrBookFile = "peers.json"

// AddressBook is the flat set of known peer addresses ("host:port")
// learned from addr/getaddr exchanges, persisted to disk across
// restarts.
type AddressBook struct {
	mu    sync.Mutex
	path  string
	addrs map[string]struct{}
}

// LoadAddressBook reads peers.json from dataDir if it exists, or starts
// with an empty book otherwise.
func LoadAddressBook(dataDir string) (*AddressBook, error) {
	ab := &AddressBook{
		path:  filepath.Join(dataDir, addrBookFile),
		addrs: make(map[string]struct{}),
	}

	data, err := os.ReadFile(ab.path)
	if errors.Is(err, os.ErrNotExist) {
		return ab, nil
	}
	if err != nil {
		return nil, err
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	for _, addr := range list {
		ab.addrs[addr] = struct{}{}
	}
	return ab, nil
}

// Add records addr as known, a no-op if already present.
func (ab *AddressBook) Add(addr string) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	ab.addrs[addr] = struct{}{}
}

// Addrs returns a sorted snapshot of every known address.
func (ab *AddressBook) Addrs() []string {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	out := make([]string, 0, len(ab.addrs))
	for addr := range ab.addrs {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// Save writes the address book to disk, overwriting any previous file.
func (ab *AddressBook) Save() error {
	data, err := json.MarshalIndent(ab.Addrs(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ab.path, data, 0644)
}
