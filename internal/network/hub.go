// Package network exposes games over websockets and HTTP. The hub
// tracks live connections; each connection runs a read pump, a write
// pump and a driver poller bridging the socket to its game.
package network

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/EvLab-MIT/cb2/internal/coordinator"
	"github.com/EvLab-MIT/cb2/internal/platform/logger"
	"github.com/EvLab-MIT/cb2/internal/platform/metrics"
)

// Hub maintains the set of active player connections.
type Hub struct {
	coord      *coordinator.Coordinator
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	mu         sync.Mutex
	lifetime   context.Context
	logger     *logger.Logger
	upgrader   websocket.Upgrader
}

// NewHub initializes a new websocket hub over a coordinator.
func NewHub(coord *coordinator.Coordinator, lg *logger.Logger) *Hub {
	return &Hub{
		coord:      coord,
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		lifetime:   context.Background(),
		logger:     lg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run tracks session registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.lifetime = ctx
	h.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket hub shutting down.")
			h.closeAll()
			return
		case session := <-h.register:
			h.mu.Lock()
			h.sessions[session] = true
			h.mu.Unlock()
			metrics.RecordWSConnection(1)
			h.logger.Info("New player connection")
		case session := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[session]; ok {
				delete(h.sessions, session)
				close(session.send)
				h.mu.Unlock()
				metrics.RecordWSConnection(-1)
				h.logger.Info("Player connection closed")
			} else {
				h.mu.Unlock()
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for session := range h.sessions {
		session.conn.Close()
	}
}

// ServeWS upgrades an HTTP request to a player websocket session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}
	session := newSession(h, conn)
	session.Register()
	go session.WritePump()
	go session.ReadPump(h.serverContext())
}

// serverContext is the context games created through this hub inherit.
// The upgrade request's context is unusable here: net/http cancels it
// when ServeWS returns, which is before the session ends.
func (h *Hub) serverContext() context.Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lifetime
}
