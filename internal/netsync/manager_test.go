// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
	"github.com/0xnohan/Kernel/peer"
	"github.com/0xnohan/Kernel/wire"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	params := chaincfg.RegressionNetParams()
	store, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	set := utxoset.New(store)
	pool := mempool.New(1024*1024, nil)
	chain, err := blockchain.Open(params, store, set, pool, nil)
	if err != nil {
		t.Fatalf("blockchain.Open: %v", err)
	}

	mgr, err := New(Config{
		ChainParams: params,
		Chain:       chain,
		Pool:        pool,
		DataDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return mgr
}

// connectPipe wires a and b together over an in-memory connection as
// peers registered with their respective managers, and waits for both
// handshakes to complete.
func connectPipe(t *testing.T, a, b *Manager) (*peer.Peer, *peer.Peer) {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	serverPeer := b.AcceptInbound(serverConn)

	clientPeer := peer.NewOutboundPeer(a.newPeerConfig(), "pipe")
	clientPeer.AssociateConnection(clientConn)
	a.trackPeer(clientPeer)

	if err := clientPeer.WaitForHandshake(); err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	if err := serverPeer.WaitForHandshake(); err != nil {
		t.Fatalf("server handshake: %v", err)
	}
	// onVerAck registration happens asynchronously from dispatch.
	deadline := time.Now().Add(time.Second)
	for a.PeerCount() == 0 || b.PeerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("peers never registered: a=%d b=%d", a.PeerCount(), b.PeerCount())
		}
		time.Sleep(time.Millisecond)
	}
	return clientPeer, serverPeer
}

func TestOnVerAckRegistersPeerAndPicksSyncPeer(t *testing.T) {
	a := newTestManager(t)
	b := newTestManager(t)

	clientPeer, serverPeer := connectPipe(t, a, b)
	defer clientPeer.Disconnect()
	defer serverPeer.Disconnect()

	if a.PeerCount() != 1 || b.PeerCount() != 1 {
		t.Fatalf("PeerCount() = %d, %d, want 1, 1", a.PeerCount(), b.PeerCount())
	}

	a.mu.Lock()
	syncPeer := a.syncPeer
	a.mu.Unlock()
	if syncPeer != clientPeer {
		t.Fatal("first registered peer was not chosen as sync peer")
	}
}

func TestRemovePeerClearsSyncPeerAndPicksAnother(t *testing.T) {
	a := newTestManager(t)
	b := newTestManager(t)
	c := newTestManager(t)

	p1, _ := connectPipe(t, a, b)
	p2, _ := connectPipe(t, a, c)

	a.mu.Lock()
	initialSync := a.syncPeer
	a.mu.Unlock()
	if initialSync != p1 {
		t.Fatalf("expected p1 as initial sync peer")
	}

	p1.Disconnect()
	deadline := time.Now().Add(time.Second)
	for a.PeerCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("peer never removed after disconnect")
		}
		time.Sleep(time.Millisecond)
	}

	a.mu.Lock()
	newSync := a.syncPeer
	a.mu.Unlock()
	if newSync != p2 {
		t.Fatal("sync peer was not reassigned to the remaining peer after disconnect")
	}
}

// observerPeer wires a's side of a pipe into a's own registry (so relay
// can reach it) and returns the peer on the far end with a spy OnInv
// listener, so a test can observe whether a given relay reached it.
func observerPeer(t *testing.T, a *Manager, addr string, gotInv *int32) *peer.Peer {
	t.Helper()
	clientConn, serverConn := net.Pipe()

	obsCfg := &peer.Config{ChainParams: chaincfg.RegressionNetParams()}
	obsCfg.Listeners.OnInv = func(_ *peer.Peer, _ *wire.MsgInv) { atomic.AddInt32(gotInv, 1) }
	observer := peer.NewInboundPeer(obsCfg, serverConn)

	managerSide := peer.NewOutboundPeer(a.newPeerConfig(), addr)
	managerSide.AssociateConnection(clientConn)
	a.trackPeer(managerSide)

	if err := managerSide.WaitForHandshake(); err != nil {
		t.Fatalf("managerSide handshake: %v", err)
	}
	if err := observer.WaitForHandshake(); err != nil {
		t.Fatalf("observer handshake: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for findPeerOn(a, managerSide.Addr()) == nil {
		if time.Now().After(deadline) {
			t.Fatal("peer never registered")
		}
		time.Sleep(time.Millisecond)
	}
	return managerSide
}

func findPeerOn(m *Manager, addr string) *peer.Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.peers {
		if p.Addr() == addr {
			return p
		}
	}
	return nil
}

// TestRelayExcludesSource verifies relay reaches every registered peer
// except the one inventory was excluded for (typically its source).
func TestRelayExcludesSource(t *testing.T) {
	a := newTestManager(t)

	var excludedGotInv, otherGotInv int32
	excluded := observerPeer(t, a, "pipe-excluded", &excludedGotInv)
	_ = observerPeer(t, a, "pipe-other", &otherGotInv)

	a.relay(&wire.InvVect{Type: wire.InvTypeTx}, excluded)

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&otherGotInv) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("non-excluded peer never observed the relayed inv")
		}
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&excludedGotInv) != 0 {
		t.Fatal("relay's source exclusion failed: excluded peer observed the inv")
	}
}

func TestPenalizeDisconnectsOnRepeatOffense(t *testing.T) {
	a := newTestManager(t)
	b := newTestManager(t)

	clientPeer, serverPeer := connectPipe(t, a, b)
	defer serverPeer.Disconnect()

	a.penalize(clientPeer, offenseMalformedFrame)
	if !clientPeer.Connected() {
		t.Fatal("peer disconnected after a single offense")
	}

	a.penalize(clientPeer, offenseMalformedFrame)

	deadline := time.Now().Add(time.Second)
	for clientPeer.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("peer was not disconnected after a repeated offense")
		}
		time.Sleep(time.Millisecond)
	}
}
