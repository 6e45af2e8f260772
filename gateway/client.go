package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taprace-server/identity"
	"taprace-server/wsutil"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is a middleman between one WebSocket connection and the Hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	Send   chan []byte
	ConnID string

	PlayerID      string
	DisplayName   string
	Authenticated bool

	matchID string // "" when not in a match
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		Send:   make(chan []byte, 256),
		ConnID: uuid.NewString(),
	}
}

// readPump pumps inbound messages from the connection to handleMessage. It
// runs in its own goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps outbound messages from Send to the connection. It runs in
// its own goroutine per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	allowedWithoutAuth := envelope.Type == "auth" || c.hub.Identity == nil
	if !c.Authenticated && !allowedWithoutAuth {
		c.sendError("Authentication required. Send an auth message first.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "join_queue":
		c.handleJoinQueue(envelope.Raw)
	case "leave_queue":
		c.handleLeaveQueue()
	case "player_ready":
		c.handlePlayerReady(envelope.Raw)
	case "tap":
		c.handleTap(envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	if c.Authenticated {
		c.sendError("Already authenticated.")
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if c.hub.Identity == nil {
		c.sendError("Server identity verification not configured.")
		return
	}
	playerID, err := c.hub.Identity.Verify(msg.Token)
	if err != nil {
		c.sendError("Invalid or expired token.")
		return
	}
	c.PlayerID = playerID
	c.DisplayName = identity.DisplayNameFromClaims(msg.Token, playerID)
	c.Authenticated = true
}

func (c *Client) handleJoinQueue(raw json.RawMessage) {
	if c.hub.Identity == nil {
		var msg JoinQueueMsg
		if err := json.Unmarshal(raw, &msg); err != nil || msg.PlayerID == "" {
			c.sendError("Invalid join_queue message.")
			return
		}
		c.PlayerID = msg.PlayerID
		c.DisplayName = msg.DisplayName
		if c.DisplayName == "" {
			c.DisplayName = msg.PlayerID
		}
		c.Authenticated = true
	}
	c.hub.Matchmaker.JoinQueue(c.PlayerID, c.DisplayName, c.ConnID, c.Send)
}

func (c *Client) handleLeaveQueue() {
	c.hub.Matchmaker.LeaveQueue(c.PlayerID, c.Send)
}

func (c *Client) handlePlayerReady(raw json.RawMessage) {
	var msg PlayerReadyMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.MatchID == "" {
		c.sendError("Invalid player_ready message.")
		return
	}
	c.matchID = msg.MatchID
	c.hub.Matchmaker.MarkReady(c.PlayerID, msg.MatchID, c.Send)
}

func (c *Client) handleTap(raw json.RawMessage) {
	var msg TapMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.MatchID == "" {
		c.sendError("Invalid tap message.")
		return
	}
	c.matchID = msg.MatchID
	c.hub.Matchmaker.SubmitTap(c.PlayerID, msg.MatchID, msg.ClientTimestampMs, c.Send)
}

func (c *Client) sendError(message string) {
	data, err := json.Marshal(ErrorMsg{Type: "error", Message: message})
	if err != nil {
		return
	}
	wsutil.SafeSend(c.Send, data)
}
