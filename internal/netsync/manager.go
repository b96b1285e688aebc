// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync implements §4.9's header-first chain synchronization
// on top of the peer package's connection state machines: requesting and
// validating headers, fetching the blocks and transactions they
// announce, relaying newly accepted inventory to every other peer, and
// keeping a small peer registry with a misbehavior scoreboard and a
// persisted address book.
package netsync

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/validate"
	"github.com/0xnohan/Kernel/peer"
	"github.com/0xnohan/Kernel/wire"
)

// Config holds the chain manager and mempool a sync Manager orchestrates
// peers around, plus the data directory its address book persists to.
type Config struct {
	ChainParams *chaincfg.Params
	Chain       *blockchain.Manager
	Pool        *mempool.Pool
	DataDir     string
}

// peerState is what the sync manager tracks per connected peer beyond
// what the peer package itself keeps: its misbehavior scoreboard.
type peerState struct {
	mb *misbehaviorTracker
}

// Manager orchestrates every connected peer's participation in chain
// sync and inventory relay.
type Manager struct {
	cfg      Config
	addrBook *AddressBook

	mu       sync.Mutex
	peers    map[*peer.Peer]*peerState
	syncPeer *peer.Peer
}

// New constructs a sync Manager, loading its address book from
// cfg.DataDir/peers.json if present.
func New(cfg Config) (*Manager, error) {
	addrBook, err := LoadAddressBook(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		addrBook: addrBook,
		peers:    make(map[*peer.Peer]*peerState),
	}, nil
}

// Shutdown persists the address book. It does not disconnect peers;
// callers own their own connection lifecycle.
func (m *Manager) Shutdown() error {
	return m.addrBook.Save()
}

// PeerCount reports how many peers have completed the handshake.
func (m *Manager) PeerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.peers)
}

// KnownAddrs returns every address in the persisted address book, for
// seeding outbound connection attempts at startup.
func (m *Manager) KnownAddrs() []string {
	return m.addrBook.Addrs()
}

func (m *Manager) newestBlock() (chainhash.Hash, int64, error) {
	hash, height := m.cfg.Chain.Tip()
	return hash, height, nil
}

func (m *Manager) newPeerConfig() *peer.Config {
	return &peer.Config{
		ChainParams: m.cfg.ChainParams,
		NewestBlock: m.newestBlock,
		Listeners: peer.MessageListeners{
			OnVerAck:     m.onVerAck,
			OnGetHeaders: m.onGetHeaders,
			OnHeaders:    m.onHeaders,
			OnInv:        m.onInv,
			OnGetData:    m.onGetData,
			OnTx:         m.onTx,
			OnBlock:      m.onBlock,
			OnGetAddr:    m.onGetAddr,
			OnAddr:       m.onAddr,
		},
	}
}

// ConnectOutbound dials addr and registers the resulting peer.
func (m *Manager) ConnectOutbound(addr string) (*peer.Peer, error) {
	p := peer.NewOutboundPeer(m.newPeerConfig(), addr)
	if err := p.Connect(); err != nil {
		return nil, err
	}
	m.trackPeer(p)
	return p, nil
}

// AcceptInbound wraps an already-accepted connection and registers the
// resulting peer.
func (m *Manager) AcceptInbound(conn net.Conn) *peer.Peer {
	p := peer.NewInboundPeer(m.newPeerConfig(), conn)
	m.trackPeer(p)
	return p
}

// trackPeer arranges for the peer to be unregistered once its
// connection drops.
func (m *Manager) trackPeer(p *peer.Peer) {
	go func() {
		p.WaitForDisconnect()
		m.removePeer(p)
	}()
}

func (m *Manager) removePeer(p *peer.Peer) {
	m.mu.Lock()
	_, ok := m.peers[p]
	delete(m.peers, p)
	wasSyncPeer := m.syncPeer == p
	if wasSyncPeer {
		m.syncPeer = nil
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	log.Infof("peer %s disconnected", p.Addr())
	if wasSyncPeer {
		m.pickNewSyncPeer()
	}
}

// pickNewSyncPeer promotes an arbitrary remaining peer to sync peer and
// resumes header sync against it, after the previous sync peer drops.
func (m *Manager) pickNewSyncPeer() {
	m.mu.Lock()
	var next *peer.Peer
	for p := range m.peers {
		next = p
		break
	}
	m.syncPeer = next
	m.mu.Unlock()

	if next != nil {
		m.requestHeaders(next)
	}
}

// onVerAck fires once both sides of the handshake have exchanged
// version and verack (§4.9); it registers the peer and, if no sync is
// already in progress, kicks one off against it.
func (m *Manager) onVerAck(p *peer.Peer, _ *wire.MsgVerAck) {
	m.mu.Lock()
	if _, already := m.peers[p]; already {
		m.mu.Unlock()
		return
	}
	m.peers[p] = &peerState{mb: newMisbehaviorTracker()}
	startSync := m.syncPeer == nil
	if startSync {
		m.syncPeer = p
	}
	m.mu.Unlock()

	log.Infof("peer %s ready (protocol %d, height %d)", p.Addr(), p.ProtocolVersion(), p.StartHeight())
	m.addrBook.Add(p.Addr())
	if startSync {
		m.requestHeaders(p)
	}
}

// requestHeaders sends a getheaders request anchored at the local
// chain's current tip, per §4.9's header-first sync.
func (m *Manager) requestHeaders(p *peer.Peer) {
	tipHash, _ := m.cfg.Chain.Tip()
	if err := p.QueueMessage(&wire.MsgGetHeaders{LocatorHash: tipHash}); err != nil {
		log.Debugf("requesting headers from %s: %v", p.Addr(), err)
	}
}

func (m *Manager) onGetHeaders(p *peer.Peer, msg *wire.MsgGetHeaders) {
	headers := m.cfg.Chain.LocateHeaders([]chainhash.Hash{msg.LocatorHash}, msg.StopHash)
	reply := &wire.MsgHeaders{}
	for _, h := range headers {
		reply.AddBlockHeader(h)
	}
	_ = p.QueueMessage(reply)
}

// onHeaders requests the full block for every header not already known,
// and continues the batch if a full page suggests more headers follow,
// per §4.9's getheaders -> headers -> getdata -> block sequence.
func (m *Manager) onHeaders(p *peer.Peer, msg *wire.MsgHeaders) {
	if len(msg.Headers) == 0 {
		return
	}

	getdata := &wire.MsgGetData{}
	for _, h := range msg.Headers {
		if !m.cfg.Chain.HaveBlock(h.BlockHash()) {
			getdata.AddInvVect(&wire.InvVect{Type: wire.InvTypeBlock, Hash: h.BlockHash()})
		}
	}
	if len(getdata.InvList) > 0 {
		_ = p.QueueMessage(getdata)
	}

	if len(msg.Headers) == wire.MaxHeaders {
		last := msg.Headers[len(msg.Headers)-1].BlockHash()
		_ = p.QueueMessage(&wire.MsgGetHeaders{LocatorHash: last})
	}
}

func (m *Manager) onInv(p *peer.Peer, msg *wire.MsgInv) {
	getdata := &wire.MsgGetData{}
	for _, inv := range msg.InvList {
		switch inv.Type {
		case wire.InvTypeBlock:
			if !m.cfg.Chain.HaveBlock(inv.Hash) {
				getdata.AddInvVect(inv)
			}
		case wire.InvTypeTx:
			if !m.cfg.Pool.Have(inv.Hash) {
				getdata.AddInvVect(inv)
			}
		}
	}
	if len(getdata.InvList) > 0 {
		_ = p.QueueMessage(getdata)
	}
}

func (m *Manager) onGetData(p *peer.Peer, msg *wire.MsgGetData) {
	for _, inv := range msg.InvList {
		switch inv.Type {
		case wire.InvTypeBlock:
			block, err := m.cfg.Chain.BlockByHash(inv.Hash)
			if err != nil {
				continue
			}
			_ = p.QueueMessage(block)
		case wire.InvTypeTx:
			entry, ok := m.cfg.Pool.Get(inv.Hash)
			if !ok {
				continue
			}
			_ = p.QueueMessage(entry.Tx)
		}
	}
}

func (m *Manager) onTx(p *peer.Peer, msg *wire.MsgTx) {
	txHash := msg.TxHash()
	if m.cfg.Pool.Have(txHash) {
		return
	}
	if _, err := m.cfg.Pool.AddTransaction(msg, m.cfg.Chain.UTXOSource()); err != nil {
		log.Debugf("rejected tx %s from %s: %v", txHash, p.Addr(), err)
		m.penalize(p, offenseMalformedFrame)
		return
	}
	m.relay(&wire.InvVect{Type: wire.InvTypeTx, Hash: txHash}, p)
}

// onBlock feeds a received block straight to the chain manager, per
// §4.8's ProcessNewBlock, and relays it onward only once it is actually
// accepted.
func (m *Manager) onBlock(p *peer.Peer, msg *wire.MsgBlock) {
	hash := msg.BlockHash()
	status, err := m.cfg.Chain.ProcessNewBlock(msg)
	if err != nil {
		log.Warnf("rejected block %s from %s: %v", hash, p.Addr(), err)
		m.penalize(p, categorizeBlockError(err))
		return
	}

	switch status {
	case blockchain.StatusAcceptedMainChain:
		log.Infof("accepted block %s from %s", hash, p.Addr())
		m.relay(&wire.InvVect{Type: wire.InvTypeBlock, Hash: hash}, p)
	case blockchain.StatusAcceptedFork:
		log.Debugf("accepted side-chain block %s from %s", hash, p.Addr())
	case blockchain.StatusOrphan:
		log.Debugf("orphan block %s from %s", hash, p.Addr())
	}
}

// categorizeBlockError maps a rejected block's error to the misbehavior
// category it represents, defaulting to the generic malformed-frame
// category for anything that isn't specifically a bad-PoW or bad-Merkle
// rule violation.
func categorizeBlockError(err error) int {
	var ruleErr validate.RuleError
	if errors.As(err, &ruleErr) {
		switch ruleErr.ErrorCode {
		case validate.ErrHighHash, validate.ErrUnexpectedDifficulty:
			return offenseBadPoW
		case validate.ErrBadMerkleRoot:
			return offenseBadMerkle
		}
	}
	return offenseMalformedFrame
}

// penalize records an offense category against p, disconnecting it if
// the category has already been seen within the current window.
func (m *Manager) penalize(p *peer.Peer, category int) {
	m.mu.Lock()
	st, ok := m.peers[p]
	m.mu.Unlock()
	if !ok {
		return
	}
	if st.mb.record(category) {
		log.Warnf("disconnecting %s after a repeated offense", p.Addr())
		p.Disconnect()
	}
}

// relay announces inv to every registered peer other than exclude (nil
// to announce to all of them), used both for peer-sourced inventory and
// for locally produced blocks/transactions from mining and the wallet.
func (m *Manager) relay(inv *wire.InvVect, exclude *peer.Peer) {
	m.mu.Lock()
	targets := make([]*peer.Peer, 0, len(m.peers))
	for p := range m.peers {
		if p != exclude {
			targets = append(targets, p)
		}
	}
	m.mu.Unlock()

	msg := &wire.MsgInv{}
	msg.AddInvVect(inv)
	for _, p := range targets {
		_ = p.QueueMessage(msg)
	}
}

// AnnounceBlock relays a locally accepted block's hash to every peer.
func (m *Manager) AnnounceBlock(hash chainhash.Hash) {
	m.relay(&wire.InvVect{Type: wire.InvTypeBlock, Hash: hash}, nil)
}

// AnnounceTx relays a locally accepted transaction's hash to every peer.
func (m *Manager) AnnounceTx(hash chainhash.Hash) {
	m.relay(&wire.InvVect{Type: wire.InvTypeTx, Hash: hash}, nil)
}

func (m *Manager) onGetAddr(p *peer.Peer, _ *wire.MsgGetAddr) {
	reply := &wire.MsgAddr{}
	for _, addr := range m.addrBook.Addrs() {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		reply.AddrList = append(reply.AddrList, wire.NetAddress{Host: host, Port: uint16(port)})
	}
	_ = p.QueueMessage(reply)
}

func (m *Manager) onAddr(_ *peer.Peer, msg *wire.MsgAddr) {
	for _, a := range msg.AddrList {
		m.addrBook.Add(net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port))))
	}
}
