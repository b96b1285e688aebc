// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpcserver implements §6's local RPC: a TCP, line-oriented JSON
// request/response protocol feeding wallet actions and mining control
// into the core, plus a websocket push channel (SUPPLEMENTED) for new-tip
// and new-tx notifications.
package rpcserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/chaincfg"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
)

// Broadcaster decouples this package from internal/netsync, the same way
// internal/mining does: a server that accepts an RPC-submitted block or
// transaction only needs to tell the rest of the network about it, not
// drive the sync protocol directly.
type Broadcaster interface {
	AnnounceBlock(hash chainhash.Hash)
	AnnounceTx(hash chainhash.Hash)
}

// Config bundles every collaborator the RPC server dispatches commands
// into.
type Config struct {
	ListenAddr      string
	WSListenAddr    string // empty disables the websocket push listener
	ChainParams     *chaincfg.Params
	Chain           *blockchain.Manager
	Pool            *mempool.Pool
	Utxo            *utxoset.Set
	Store           *database.Store
	Sync            Broadcaster // may be nil (no P2P relay, e.g. a solo test node)
	WalletDir       string
	DefaultMiner    string // payout address used by get_work when none is given
	RequestShutdown func()
}

// Server is the running RPC listener plus its websocket notification hub.
type Server struct {
	cfg Config
	hub *hub

	listener   net.Listener
	httpServer *http.Server

	wg   sync.WaitGroup
	quit chan struct{}
}

// New constructs a Server. Call Start to begin accepting connections.
func New(cfg Config) *Server {
	return &Server{cfg: cfg, hub: newHub(), quit: make(chan struct{})}
}

// Start binds the TCP RPC listener (and the websocket listener, if
// configured) and begins serving in background goroutines.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("rpcserver: listening on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln
	log.Infof("RPC server listening on %s", s.cfg.ListenAddr)

	s.wg.Add(1)
	go s.acceptLoop()

	if s.cfg.WSListenAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", s.hub.ServeWS)
		s.httpServer = &http.Server{Addr: s.cfg.WSListenAddr, Handler: mux}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.Infof("websocket notification listener on %s", s.cfg.WSListenAddr)
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("websocket listener: %v", err)
			}
		}()
	}
	return nil
}

// Stop closes the listeners and waits for in-flight connections to
// finish their current request.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	if s.httpServer != nil {
		s.httpServer.Shutdown(context.Background())
	}
	s.wg.Wait()
}

// AnnounceBlock notifies websocket clients of a new tip. It also
// satisfies internal/mining.Broadcaster, so the built-in CPU miner's
// blocks reach the push channel the same way RPC-submitted ones do.
func (s *Server) AnnounceBlock(hash chainhash.Hash) {
	_, height := s.cfg.Chain.Tip()
	s.hub.notifyNewTip(hash.String(), height)
}

// AnnounceTx notifies websocket clients of a newly-admitted mempool
// transaction.
func (s *Server) AnnounceTx(hash chainhash.Hash) {
	s.hub.notifyNewTx(hash.String())
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Warnf("rpcserver: accept: %v", err)
				return
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.dispatch(line)
		if err := enc.Encode(resp); err != nil {
			log.Warnf("rpcserver: writing response: %v", err)
			return
		}
	}
}

// request is the line-oriented envelope: a command name plus its
// command-specific parameters.
type request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// response is the structured {status, ...} shape of §7's "User-visible
// failures are structured {status: "error", message} for RPC".
type response struct {
	Status  string      `json:"status"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

func errorResponse(format string, args ...interface{}) response {
	return response{Status: "error", Message: fmt.Sprintf(format, args...)}
}

func okResponse(result interface{}) response {
	return response{Status: "ok", Result: result}
}

func (s *Server) dispatch(line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return errorResponse("malformed request: %v", err)
	}

	handler, ok := commandTable[req.Command]
	if !ok {
		return errorResponse("unknown command %q", req.Command)
	}
	return handler(s, req.Params)
}
