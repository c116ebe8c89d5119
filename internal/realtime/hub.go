package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gatherline/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Envelope types pushed to connected clients.
const (
	TypeConnected     = "CONNECTED"
	TypeEcho          = "ECHO"
	TypeEventCreated  = "EVENT_CREATED"
	TypeEventUpdated  = "EVENT_UPDATED"
	TypeEventDeleted  = "EVENT_DELETED"
	TypeEventApproved = "EVENT_APPROVED"
	TypeRSVPCreated   = "RSVP_CREATED"
	TypeRSVPUpdated   = "RSVP_UPDATED"
)

// Envelope is the wire structure pushed to every open connection.
type Envelope struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewEnvelope(typ string, payload any) Envelope {
	return Envelope{
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Conn is the minimal surface the hub needs from a live client connection.
type Conn interface {
	WriteMessage(data []byte) error
	Close() error
}

// Hub is the registry of open realtime connections. It is the only piece of
// shared mutable state in the process; all access goes through the mutex.
type Hub struct {
	mu     sync.Mutex
	conns  map[Conn]struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[Conn]struct{}),
		logger: logger.With().Str("component", "realtime").Logger(),
	}
}

// Add registers a connection. Idempotent.
func (h *Hub) Add(c Conn) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	h.logger.Debug().Int("connections", count).Msg("connection opened")
}

// Remove unregisters a connection. Idempotent.
func (h *Hub) Remove(c Conn) {
	if c == nil {
		return
	}
	h.mu.Lock()
	delete(h.conns, c)
	count := len(h.conns)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	h.logger.Debug().Int("connections", count).Msg("connection closed")
}

// Count returns the number of currently open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast serializes the envelope once and sends it to every connection
// open at call time. A failed send closes and drops that connection without
// aborting delivery to the rest. Connections added mid-broadcast are not
// guaranteed to receive this message.
func (h *Hub) Broadcast(typ string, payload any) {
	envelope := NewEnvelope(typ, payload)
	data, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error().Err(err).Str("type", typ).Msg("broadcast payload not serializable")
		return
	}

	h.mu.Lock()
	snapshot := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range snapshot {
		if err := c.WriteMessage(data); err != nil {
			metrics.BroadcastSendFailures.Inc()
			h.logger.Warn().Err(err).Str("type", typ).Msg("dropping connection after send failure")
			_ = c.Close()
			h.Remove(c)
			continue
		}
		sent++
	}

	metrics.BroadcastsTotal.WithLabelValues(typ).Inc()
	h.logger.Info().Str("type", typ).Int("sent", sent).Msg("broadcast")
}
