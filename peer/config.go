// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/wire"
)

// ProtocolVersion is the version number advertised in every version
// message this package sends, per §4.9.
const ProtocolVersion = 1

// MessageListeners holds the set of callbacks a Peer invokes as it
// receives each wire message type. A nil listener is simply skipped.
type MessageListeners struct {
	OnVersion    func(p *Peer, msg *wire.MsgVersion)
	OnVerAck     func(p *Peer, msg *wire.MsgVerAck)
	OnGetAddr    func(p *Peer, msg *wire.MsgGetAddr)
	OnAddr       func(p *Peer, msg *wire.MsgAddr)
	OnGetHeaders func(p *Peer, msg *wire.MsgGetHeaders)
	OnHeaders    func(p *Peer, msg *wire.MsgHeaders)
	OnInv        func(p *Peer, msg *wire.MsgInv)
	OnGetData    func(p *Peer, msg *wire.MsgGetData)
	OnTx         func(p *Peer, msg *wire.MsgTx)
	OnBlock      func(p *Peer, msg *wire.MsgBlock)
	OnPing       func(p *Peer, msg *wire.MsgPing)
	OnPong       func(p *Peer, msg *wire.MsgPong)
}

// Config holds everything needed to construct a Peer, mirroring the
// teacher's convention of passing a single config struct into both
// inbound and outbound peer constructors.
type Config struct {
	// ChainParams selects the network magic every message is framed
	// with, and is included in the version handshake.
	ChainParams *chaincfg.Params

	// NewestBlock reports the caller's current tip, used to populate
	// the StartHeight field of the version message this peer sends.
	NewestBlock func() (hash chainhash.Hash, height int64, err error)

	// UserAgentName and UserAgentVersion are carried for diagnostics;
	// this protocol's version message has no free-form user agent
	// field, so they only ever appear in logs.
	UserAgentName    string
	UserAgentVersion string

	Listeners MessageListeners
}
