// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package explorerapi implements §6's read-only HTTP API for a block
// explorer: chain stats, paginated blocks, block-by-hash, tx-by-id, and
// address balance/transaction list, read from the chain manager,
// internal/database and internal/utxoset, plus the mempool's
// transaction count for the stats route.
package explorerapi

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/database"
	"github.com/0xnohan/Kernel/internal/mempool"
	"github.com/0xnohan/Kernel/internal/utxoset"
)

// Config bundles the read-only collaborators explorer handlers consult.
type Config struct {
	ListenAddr string
	Chain      *blockchain.Manager
	Store      *database.Store
	Utxo       *utxoset.Set
	Pool       *mempool.Pool
}

// Server is the running explorer HTTP listener.
type Server struct {
	cfg        Config
	httpServer *http.Server
}

// New builds a Server and wires its route table. Call Start to begin
// serving.
func New(cfg Config) *Server {
	router := mux.NewRouter()
	s := &Server{cfg: cfg}
	addRoutes(router, s)
	s.httpServer = &http.Server{Addr: cfg.ListenAddr, Handler: router}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	ln, err := newListener(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	log.Infof("explorer API listening on %s", s.cfg.ListenAddr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("explorer API: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the listener.
func (s *Server) Stop() {
	s.httpServer.Shutdown(context.Background())
}

func newListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
