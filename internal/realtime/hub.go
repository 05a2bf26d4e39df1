// Package realtime pushes booking events to websocket clients watching a
// professional's calendar.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clinicbook/internal/domain/booking"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// WSEvent is the frame written to clients.
type WSEvent struct {
	Type    string `json:"type"`
	Topic   string `json:"topic"`
	Payload any    `json:"payload,omitempty"`
}

// ProfessionalTopic names the stream of one professional's bookings.
func ProfessionalTopic(professionalID int64) string {
	return fmt.Sprintf("professional:%d", professionalID)
}

type connection struct {
	id       string
	tenantID int64
	conn     *websocket.Conn
	send     chan []byte
	topics   map[string]bool
}

// Hub tracks live connections and fans booking events out to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*connection
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]*connection),
		log:         log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.connections[c.id]; ok && existing == c {
		delete(h.connections, c.id)
		close(c.send)
	}
}

// Connections returns the number of live clients.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish implements booking.EventSink. Clients of other tenants never see
// the event; slow clients drop it.
func (h *Hub) Publish(_ context.Context, e booking.Event) error {
	topic := ProfessionalTopic(e.ProfessionalID)
	data, err := json.Marshal(&WSEvent{Type: string(e.Type), Topic: topic, Payload: e})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		if !c.topics[topic] || c.tenantID != e.TenantID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn("websocket client too slow, event dropped",
				zap.String("connection_id", c.id),
				zap.String("event_id", e.ID),
			)
		}
	}
	return nil
}

// ServeWS registers conn and runs its pumps until the client leaves.
func (h *Hub) ServeWS(conn *websocket.Conn, tenantID int64, topics []string) {
	c := &connection{
		id:       uuid.NewString(),
		tenantID: tenantID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		topics:   make(map[string]bool, len(topics)),
	}
	for _, t := range topics {
		c.topics[t] = true
	}

	h.register(c)
	h.log.Debug("websocket connected", zap.String("connection_id", c.id), zap.Strings("topics", topics))

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients do not send commands.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("websocket disconnected", zap.String("connection_id", c.id))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
