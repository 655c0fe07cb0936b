// Package push fans shared store updates out to connected WebSocket
// clients so the UI reacts to transaction and window changes live.
package push

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/internal/metrics"
	"github.com/mjkid221/cctp-bridge/pkg/store"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
)

// Envelope is the wire format for outgoing messages.
type Envelope struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// Hub bridges store subscriptions to WebSocket connections.
type Hub struct {
	shared         *store.Store
	logger         *zap.Logger
	allowedOrigins []string
	upgrader       websocket.Upgrader

	mu          sync.Mutex
	clients     map[string]*client
	unsubscribe func()
}

// NewHub creates a hub. allowedOrigins restricts which browser origins may
// connect; empty means allow all.
func NewHub(shared *store.Store, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		shared:         shared,
		logger:         logger.Named("push"),
		allowedOrigins: allowedOrigins,
		clients:        make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Start subscribes the hub to store updates. Call once before serving.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsubscribe != nil {
		return
	}
	h.unsubscribe = h.shared.Subscribe(func(update store.Update) {
		h.broadcast(Envelope{
			Type:      update.Kind,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Data:      update,
		})
	})
}

// Stop detaches from the store and closes all connections.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.unsubscribe != nil {
		h.unsubscribe()
		h.unsubscribe = nil
	}
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	metrics.WebsocketClients.Set(0)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	h.logger.Warn("websocket origin rejected", zap.String("origin", origin))
	return false
}

// HandleConnect upgrades the request and serves the connection until the
// client disconnects.
func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	metrics.WebsocketClients.Set(float64(count))

	h.logger.Info("client connected",
		zap.String("client_id", c.id),
		zap.String("remote_addr", conn.RemoteAddr().String()))

	c.enqueue(mustMarshal(Envelope{
		Type:      "connected",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      map[string]string{"client_id": c.id},
	}))

	go h.readPump(c)
	go c.writePump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to marshal update", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.enqueue(data)
	}
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Error("websocket read error",
					zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		h.handleMessage(c, message)
	}
}

// handleMessage processes client traffic. The protocol is push-first; the
// only inbound message is an application-level ping.
func (h *Hub) handleMessage(c *client, message []byte) {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		c.enqueue(mustMarshal(Envelope{
			Type:      "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Data:      map[string]string{"message": "failed to parse message"},
		}))
		return
	}

	switch msg.Type {
	case "ping":
		c.enqueue(mustMarshal(Envelope{
			Type:      "pong",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}))
	default:
		c.enqueue(mustMarshal(Envelope{
			Type:      "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Data:      map[string]string{"message": "unknown message type: " + msg.Type},
		}))
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	metrics.WebsocketClients.Set(float64(count))
	if ok {
		h.logger.Info("client disconnected", zap.String("client_id", c.id))
	}
}

func mustMarshal(env Envelope) []byte {
	data, err := json.Marshal(env)
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return data
}
