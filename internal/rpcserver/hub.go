// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcserver

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// notification is a single push message sent to every connected websocket
// client: a new main-chain tip or a newly-admitted mempool transaction.
type notification struct {
	Event  string `json:"event"`
	Hash   string `json:"hash"`
	Height int64  `json:"height,omitempty"`
}

// hub fans out chain and mempool events to every websocket client
// connected to ServeWS, the SUPPLEMENTED real-time push transport
// (notify_new_tip/notify_new_tx) layered on top of the line-oriented
// request/response RPC.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades r to a websocket connection and registers it for
// broadcast notifications until the client disconnects.
func (h *hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("rpcserver: websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// The client sends nothing; ReadMessage only exists to detect
	// disconnection (a failed read), since gorilla/websocket requires a
	// reader pumping to notice a closed connection.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				delete(h.clients, conn)
				h.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func (h *hub) broadcast(n notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(n); err != nil {
			log.Debugf("rpcserver: dropping websocket client after write error: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *hub) notifyNewTip(hash string, height int64) {
	h.broadcast(notification{Event: "new_tip", Hash: hash, Height: height})
}

func (h *hub) notifyNewTx(hash string) {
	h.broadcast(notification{Event: "new_tx", Hash: hash})
}
