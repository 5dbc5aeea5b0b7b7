// Package ws pushes auto-quote events to connected hosts and guests.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"spacesBack/internal/autoquote/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Logger defines minimal logging interface required by the hub.
type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// peer is one user connection. Writes are serialized by mu.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub keeps at most one connection per user; a reconnect replaces the old one.
type Hub struct {
	logger   Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[int64]*peer
}

func NewHub(logger Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		peers: make(map[int64]*peer),
	}
}

// ServeWS upgrades /ws/autoquote?user_id=N.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "missing user_id", http.StatusUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.errorf("autoquote ws upgrade failed: %v", err)
		return
	}

	p := &peer{conn: conn}
	h.mu.Lock()
	if old, ok := h.peers[id]; ok {
		_ = old.conn.Close()
	}
	h.peers[id] = p
	h.mu.Unlock()
	h.infof("autoquote ws user %d connected", id)

	go h.pingLoop(id, p)
	go h.readLoop(id, p)
}

// Connected reports whether userID has a live connection.
func (h *Hub) Connected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.peers[userID]
	return ok
}

// Publish sends e to each of its recipients that is online.
func (h *Hub) Publish(_ context.Context, e events.Event) {
	if len(e.Recipients) == 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.errorf("autoquote ws marshal %s failed: %v", e.Type, err)
		return
	}
	for _, id := range e.Recipients {
		h.write(id, func(c *websocket.Conn) error {
			return c.WriteMessage(websocket.TextMessage, data)
		})
	}
}

func (h *Hub) pingLoop(id int64, p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if !h.current(id, p) {
			return
		}
		h.write(id, func(c *websocket.Conn) error {
			return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		})
	}
}

func (h *Hub) readLoop(id int64, p *peer) {
	defer h.drop(id, p)

	conn := p.conn
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if mt == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(msg)), "ping") {
			h.write(id, func(c *websocket.Conn) error {
				return c.WriteMessage(websocket.TextMessage, []byte("pong"))
			})
		}
	}
}

func (h *Hub) current(id int64, p *peer) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.peers[id] == p
}

func (h *Hub) drop(id int64, p *peer) {
	_ = p.conn.Close()
	h.mu.Lock()
	if h.peers[id] == p {
		delete(h.peers, id)
	}
	h.mu.Unlock()
}

func (h *Hub) write(id int64, fn func(*websocket.Conn) error) {
	h.mu.RLock()
	p := h.peers[id]
	h.mu.RUnlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := fn(p.conn)
	p.mu.Unlock()
	if err != nil {
		h.errorf("autoquote ws user %d write failed: %v", id, err)
		h.drop(id, p)
	}
}

func (h *Hub) infof(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Infof(format, args...)
	}
}

func (h *Hub) errorf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Errorf(format, args...)
	}
}
