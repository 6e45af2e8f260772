// Package gateway implements the event gateway of spec.md §4.4: the
// WebSocket transport boundary that upgrades connections, decodes inbound
// events, and forwards them to the matchmaker, which owns all resulting
// state.
package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"taprace-server/identity"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Matchmaker is the subset of matchmaker.Matchmaker the gateway needs.
// Declared locally so gateway never imports the matchmaker package's
// concrete type, avoiding a circular dependency between the two.
type Matchmaker interface {
	JoinQueue(playerID, displayName, connID string, send chan []byte)
	LeaveQueue(playerID string, send chan []byte)
	MarkReady(playerID, matchID string, send chan []byte)
	SubmitTap(playerID, matchID string, clientTimestampMs int64, send chan []byte)
	OnDisconnect(connID string)
}

// Hub tracks every live connection and upgrades new ones into Clients.
type Hub struct {
	Matchmaker Matchmaker
	Identity   *identity.Verifier // nil disables JWT verification

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	logger *slog.Logger
}

// NewHub creates a Hub. verifier may be nil to disable JWT verification
// (local dev and tests), per spec.md's identity-issuance non-goal.
func NewHub(mm Matchmaker, verifier *identity.Verifier, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Matchmaker: mm,
		Identity:   verifier,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With("tag", "gateway"),
	}
}

// Run is the hub's connection-bookkeeping loop. Run it in its own
// goroutine; it returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("shutdown signal received, stopping")
			return
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("client connected", "total", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
				h.logger.Debug("client disconnected", "total", len(h.clients))
				h.Matchmaker.OnDisconnect(c.ConnID)
			}
		}
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection and registers
// the resulting Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn)
	h.register <- client

	go client.writePump()
	go client.readPump()
}
