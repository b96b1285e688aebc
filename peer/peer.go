// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer implements the per-connection protocol state machine of
// §4.9: handshake sequencing, message dispatch, and ping/pong liveness,
// built directly on wire's message framing.
package peer

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xnohan/Kernel/wire"
)

// ErrPeerDisconnected is returned by QueueMessage and by blocking
// request/response helpers once a peer's connection has gone away. It is
// the Transient category of the error-handling taxonomy.
var ErrPeerDisconnected = errors.New("peer: disconnected")

const (
	// idlePingInterval is how long a peer may go without traffic before
	// this side pings it to confirm it is still alive.
	idlePingInterval = 30 * time.Second

	// stallTimeout is how long to wait for ANY traffic, including a
	// pong, before the connection is considered dead.
	stallTimeout = 120 * time.Second

	// sendQueueSize bounds how many messages may be queued for delivery
	// before QueueMessage blocks.
	sendQueueSize = 100
)

// Peer represents one connected remote node: its transport, its
// handshake state, and the goroutines that read and write wire messages
// on its behalf.
type Peer struct {
	cfg     Config
	addr    string
	inbound bool

	conn net.Conn

	connected  int32 // atomic bool
	disconnect int32 // atomic bool

	handshakeMu   sync.Mutex
	versionKnown  bool
	verAckRecv    bool
	protocolVers  uint32
	remoteHeight  int64
	handshakeDone chan struct{}

	sendQueue chan wire.Message
	quit      chan struct{}
	wg        sync.WaitGroup

	lastPingNonce uint64
	lastPingSent  time.Time
	lastRecv      atomic.Value // time.Time

	timeConnected time.Time
}

// NewOutboundPeer creates a peer that will dial addr once
// AssociateConnection or Connect is called.
func NewOutboundPeer(cfg *Config, addr string) *Peer {
	return &Peer{
		cfg:           *cfg,
		addr:          addr,
		inbound:       false,
		handshakeDone: make(chan struct{}),
		sendQueue:     make(chan wire.Message, sendQueueSize),
		quit:          make(chan struct{}),
	}
}

// NewInboundPeer creates a peer wrapping an already-accepted connection.
func NewInboundPeer(cfg *Config, conn net.Conn) *Peer {
	p := &Peer{
		cfg:           *cfg,
		addr:          conn.RemoteAddr().String(),
		inbound:       true,
		handshakeDone: make(chan struct{}),
		sendQueue:     make(chan wire.Message, sendQueueSize),
		quit:          make(chan struct{}),
	}
	p.AssociateConnection(conn)
	return p
}

// Addr returns the remote address this peer is connected to or dialing.
func (p *Peer) Addr() string { return p.addr }

// Inbound reports whether this peer was accepted rather than dialed.
func (p *Peer) Inbound() bool { return p.inbound }

// Connected reports whether the connection is currently up.
func (p *Peer) Connected() bool {
	return atomic.LoadInt32(&p.connected) != 0 && atomic.LoadInt32(&p.disconnect) == 0
}

// ProtocolVersion returns the remote peer's advertised protocol version,
// valid only after the handshake completes.
func (p *Peer) ProtocolVersion() uint32 {
	p.handshakeMu.Lock()
	defer p.handshakeMu.Unlock()
	return p.protocolVers
}

// StartHeight returns the remote peer's advertised chain height from its
// version message, valid only after the handshake completes.
func (p *Peer) StartHeight() int64 {
	p.handshakeMu.Lock()
	defer p.handshakeMu.Unlock()
	return p.remoteHeight
}

// TimeConnected reports when this peer's connection was established.
func (p *Peer) TimeConnected() time.Time { return p.timeConnected }

// Connect dials an outbound peer's address and starts its protocol
// goroutines. It blocks until the connection is established or fails.
func (p *Peer) Connect() error {
	conn, err := net.DialTimeout("tcp", p.addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("peer: dial %s: %w", p.addr, err)
	}
	p.AssociateConnection(conn)
	return nil
}

// AssociateConnection wires an established net.Conn to this peer and
// starts its read/write/ping goroutines plus the handshake.
func (p *Peer) AssociateConnection(conn net.Conn) {
	p.conn = conn
	p.timeConnected = time.Now()
	p.lastRecv.Store(time.Now())
	atomic.StoreInt32(&p.connected, 1)

	p.wg.Add(3)
	go p.inHandler()
	go p.outHandler()
	go p.pingHandler()

	if !p.inbound {
		p.pushVersionMsg()
	}
}

// QueueMessage schedules msg for delivery to the remote peer. It returns
// ErrPeerDisconnected if the peer has already disconnected.
func (p *Peer) QueueMessage(msg wire.Message) error {
	if !p.Connected() {
		return ErrPeerDisconnected
	}
	select {
	case p.sendQueue <- msg:
		return nil
	case <-p.quit:
		return ErrPeerDisconnected
	}
}

// Disconnect closes the peer's connection and stops its goroutines. It
// is safe to call more than once.
func (p *Peer) Disconnect() {
	if !atomic.CompareAndSwapInt32(&p.disconnect, 0, 1) {
		return
	}
	close(p.quit)
	if p.conn != nil {
		p.conn.Close()
	}
	atomic.StoreInt32(&p.connected, 0)
}

// WaitForDisconnect blocks until the peer's goroutines have exited.
func (p *Peer) WaitForDisconnect() {
	p.wg.Wait()
}

func (p *Peer) pushVersionMsg() {
	var height int64
	if p.cfg.NewestBlock != nil {
		if _, h, err := p.cfg.NewestBlock(); err == nil {
			height = h
		}
	}
	msg := &wire.MsgVersion{ProtocolVersion: ProtocolVersion, StartHeight: int32(height)}
	if err := p.QueueMessage(msg); err != nil {
		log.Debugf("peer %s: failed to queue version message: %v", p.addr, err)
	}
}

// inHandler reads and dispatches every message the remote peer sends
// until the connection closes or a stall is detected.
func (p *Peer) inHandler() {
	defer p.wg.Done()
	defer p.Disconnect()

	idleTimer := time.AfterFunc(stallTimeout, func() {
		log.Warnf("peer %s: no message received for %s, disconnecting", p.addr, stallTimeout)
		p.Disconnect()
	})
	defer idleTimer.Stop()

	for {
		msg, _, err := wire.ReadMessage(p.conn, p.cfg.ChainParams.Net)
		if err != nil {
			if !isDisconnectErr(err) {
				log.Debugf("peer %s: read error: %v", p.addr, err)
			}
			return
		}
		idleTimer.Reset(stallTimeout)
		p.lastRecv.Store(time.Now())
		p.dispatch(msg)
	}
}

func isDisconnectErr(err error) bool {
	return err != nil && errors.Is(err, net.ErrClosed)
}

// outHandler drains the send queue and writes each message to the
// connection, in order, until told to quit.
func (p *Peer) outHandler() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.sendQueue:
			if err := wire.WriteMessage(p.conn, msg, p.cfg.ChainParams.Net); err != nil {
				log.Debugf("peer %s: write error: %v", p.addr, err)
				p.Disconnect()
				return
			}
		case <-p.quit:
			return
		}
	}
}

// pingHandler sends a ping whenever the connection has been idle for
// idlePingInterval, giving the stall timer in inHandler a chance to
// detect a peer that stopped responding rather than one that is merely
// quiet.
func (p *Peer) pingHandler() {
	defer p.wg.Done()
	ticker := time.NewTicker(idlePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			last, _ := p.lastRecv.Load().(time.Time)
			if time.Since(last) < idlePingInterval {
				continue
			}
			nonce := rand.Uint64()
			p.lastPingNonce = nonce
			p.lastPingSent = time.Now()
			if err := p.QueueMessage(&wire.MsgPing{Nonce: nonce}); err != nil {
				return
			}
		case <-p.quit:
			return
		}
	}
}

// handshakeComplete reports whether both sides have exchanged version
// and verack, per §4.9's per-peer state machine
// {connected, version-exchanged, verack-received}.
func (p *Peer) handshakeComplete() bool {
	p.handshakeMu.Lock()
	defer p.handshakeMu.Unlock()
	return p.versionKnown && p.verAckRecv
}

// dispatch routes an incoming message to its handshake handling (if
// applicable) and the configured listener. Per §4.9, "only after both
// sides have exchanged version and verack may any other message be
// processed": every message type besides version/verack is dropped
// until the handshake completes.
func (p *Peer) dispatch(msg wire.Message) {
	switch m := msg.(type) {
	case *wire.MsgVersion:
		p.handleVersion(m)
		return
	case *wire.MsgVerAck:
		p.handleVerAck(m)
		return
	}

	if !p.handshakeComplete() {
		log.Debugf("peer %s: dropping %T received before handshake completed", p.addr, msg)
		return
	}

	switch m := msg.(type) {
	case *wire.MsgPing:
		_ = p.QueueMessage(&wire.MsgPong{Nonce: m.Nonce})
		if p.cfg.Listeners.OnPing != nil {
			p.cfg.Listeners.OnPing(p, m)
		}
	case *wire.MsgPong:
		if p.cfg.Listeners.OnPong != nil {
			p.cfg.Listeners.OnPong(p, m)
		}
	case *wire.MsgGetAddr:
		if p.cfg.Listeners.OnGetAddr != nil {
			p.cfg.Listeners.OnGetAddr(p, m)
		}
	case *wire.MsgAddr:
		if p.cfg.Listeners.OnAddr != nil {
			p.cfg.Listeners.OnAddr(p, m)
		}
	case *wire.MsgGetHeaders:
		if p.cfg.Listeners.OnGetHeaders != nil {
			p.cfg.Listeners.OnGetHeaders(p, m)
		}
	case *wire.MsgHeaders:
		if p.cfg.Listeners.OnHeaders != nil {
			p.cfg.Listeners.OnHeaders(p, m)
		}
	case *wire.MsgInv:
		if p.cfg.Listeners.OnInv != nil {
			p.cfg.Listeners.OnInv(p, m)
		}
	case *wire.MsgGetData:
		if p.cfg.Listeners.OnGetData != nil {
			p.cfg.Listeners.OnGetData(p, m)
		}
	case *wire.MsgTx:
		if p.cfg.Listeners.OnTx != nil {
			p.cfg.Listeners.OnTx(p, m)
		}
	case *wire.MsgBlock:
		if p.cfg.Listeners.OnBlock != nil {
			p.cfg.Listeners.OnBlock(p, m)
		}
	default:
		log.Debugf("peer %s: unhandled message %T", p.addr, m)
	}
}

// handleVersion completes the responder's half of the handshake
// (§4.9): an inbound peer replies with its own version then a verack;
// an outbound peer, having already sent its version, replies with just
// a verack.
func (p *Peer) handleVersion(msg *wire.MsgVersion) {
	p.handshakeMu.Lock()
	if p.versionKnown {
		p.handshakeMu.Unlock()
		return
	}
	p.versionKnown = true
	p.protocolVers = msg.ProtocolVersion
	p.remoteHeight = int64(msg.StartHeight)
	p.handshakeMu.Unlock()

	if p.inbound {
		p.pushVersionMsg()
	}
	_ = p.QueueMessage(&wire.MsgVerAck{})

	if p.cfg.Listeners.OnVersion != nil {
		p.cfg.Listeners.OnVersion(p, msg)
	}
}

func (p *Peer) handleVerAck(msg *wire.MsgVerAck) {
	p.handshakeMu.Lock()
	alreadyDone := p.verAckRecv
	p.verAckRecv = true
	done := p.versionKnown && p.verAckRecv
	p.handshakeMu.Unlock()

	if done && !alreadyDone {
		close(p.handshakeDone)
	}
	if p.cfg.Listeners.OnVerAck != nil {
		p.cfg.Listeners.OnVerAck(p, msg)
	}
}

// WaitForHandshake blocks until both sides have exchanged version and
// verack, or the peer disconnects first.
func (p *Peer) WaitForHandshake() error {
	select {
	case <-p.handshakeDone:
		return nil
	case <-p.quit:
		return ErrPeerDisconnected
	}
}
