package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gatherline/server/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler upgrades HTTP requests and registers the connection with the
// hub. Origin checks are handled by the CORS layer for the REST surface;
// the upgrader accepts any origin since the connection carries no session.
type WSHandler struct {
	hub      *realtime.Hub
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// wsConn adapts a gorilla connection to the hub's Conn interface. The mutex
// serializes writes between the broadcast path and the echo loop, which
// gorilla requires.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsConn{conn: conn}
	h.hub.Add(client)
	defer func() {
		h.hub.Remove(client)
		_ = client.Close()
	}()

	welcome := realtime.Envelope{
		Type:      realtime.TypeConnected,
		Message:   "Successfully connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if data, err := json.Marshal(welcome); err == nil {
		if err := client.WriteMessage(data); err != nil {
			return
		}
	}

	// Read loop: every client text message is echoed back. Exits on any
	// read error, which covers client close.
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		echo := realtime.NewEnvelope(realtime.TypeEcho, string(message))
		data, err := json.Marshal(echo)
		if err != nil {
			continue
		}
		if err := client.WriteMessage(data); err != nil {
			return
		}
	}
}
