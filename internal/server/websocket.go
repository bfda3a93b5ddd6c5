package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SmitUplenchwar2687/ps2emu/internal/recorder"
)

const (
	writeTimeout = 5 * time.Second
	// sendBuffer is how far a viewer may fall behind before events are
	// dropped for it.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev tool.
	},
}

// Hub manages WebSocket clients and broadcasts captured events. It is a
// recorder.EventSink. Each client has its own writer goroutine, so
// broadcasting never waits on the network.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*viewer
	logger  *slog.Logger
}

type viewer struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped int
}

var _ recorder.EventSink = (*Hub)(nil)

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*viewer),
		logger:  logger.With("component", "hub"),
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[conn] = v
	h.mu.Unlock()
	h.logger.Debug("viewer connected", "remote", r.RemoteAddr)

	go h.writeLoop(v)

	// Read loop: keep connection alive, handle disconnects.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if v, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(v.send)
		if v.dropped > 0 {
			h.logger.Info("viewer fell behind", "dropped_events", v.dropped)
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// writeLoop delivers queued messages until the client is removed.
func (h *Hub) writeLoop(v *viewer) {
	failed := false
	for data := range v.send {
		if failed {
			continue
		}
		v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			failed = true
			// Closing unblocks the read loop, which removes the client.
			v.conn.Close()
		}
	}
}

// Publish sends a captured event to all connected clients.
func (h *Hub) Publish(ev recorder.CapturedEvent) {
	h.Broadcast(ev)
}

// Broadcast queues v as JSON for all connected WebSocket clients without
// blocking. A client whose queue is full misses the message.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			c.dropped++
		}
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "capture finished"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
