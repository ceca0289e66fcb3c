// Copyright (C) 2008-2018 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "gopkg.in/inconshreveable/log15.v2"
)

// The hub pushes per-tick frames to every connected client. It never reads
// control messages back: the HTTP surface this package exposes is
// read-only (spec.md §6, no start/pause/restart actions).
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// connection wraps one subscriber's websocket, grounded on
// lox-pokerforbots/internal/server/connection.go's writePump/readPump
// discipline, stripped down to the push-only direction this feed needs.
type connection struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out frames broadcast via Publish to every subscribed connection.
type Hub struct {
	mu          sync.Mutex
	connections map[*connection]bool
	logger      log.Logger
}

// NewHub builds an empty Hub.
func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.New()
	}
	return &Hub{
		connections: make(map[*connection]bool),
		logger:      logger.New("module", "server", "submodule", "hub"),
	}
}

// Publish broadcasts a JSON-encoded frame to every connected subscriber,
// dropping any client whose send buffer is full rather than blocking.
func (h *Hub) Publish(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.connections {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping subscriber, send buffer full")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) add(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

func (h *Hub) remove(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *connection) {
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// ServeWs upgrades the request to a websocket and subscribes it to the hub's
// push feed until the client disconnects.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &connection{conn: conn, send: make(chan []byte, 32)}
	h.add(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only watches for the connection closing (pong/close frames);
// any client message is a protocol violation for a read-only feed and ends
// the connection.
func (h *Hub) readPump(c *connection) {
	defer h.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	// ReadMessage handles pong/close control frames internally and returns on
	// the first data message or error; either way the connection ends here.
	_, _, _ = c.conn.ReadMessage()
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
