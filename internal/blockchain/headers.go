// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

// LocateHeaders answers a getheaders request per §4.9: it returns up to
// wire.MaxHeaders consecutive main-chain headers starting just after the
// first locator hash it recognizes as being on the main chain (or just
// after genesis, if none match), stopping early at stopHash if it is
// reached.
func (m *Manager) LocateHeaders(locator []chainhash.Hash, stopHash chainhash.Hash) []*wire.BlockHeader {
	m.mu.Lock()
	defer m.mu.Unlock()

	startHeight := int64(1)
	for _, hash := range locator {
		n, ok := m.index.lookup(hash)
		if !ok {
			continue
		}
		if anc := m.tip.ancestorAt(n.height); anc != nil && anc.hash == n.hash {
			startHeight = n.height + 1
			break
		}
	}

	var headers []*wire.BlockHeader
	for h := startHeight; h <= m.tip.height && len(headers) < wire.MaxHeaders; h++ {
		n := m.tip.ancestorAt(h)
		if n == nil {
			break
		}
		block, err := m.loadBlock(n.hash)
		if err != nil {
			break
		}
		hdr := block.Header
		headers = append(headers, &hdr)
		if n.hash == stopHash {
			break
		}
	}
	return headers
}

// BlockByHash returns the full block for hash, whether or not it is on
// the main chain, for answering a getdata request.
func (m *Manager) BlockByHash(hash chainhash.Hash) (*wire.MsgBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBlock(hash)
}
