package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/queue"
)

// Hub fans dispatch outcomes out to connected admin clients. It implements
// queue.EventSink.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
	h.logger.Infof("WebSocket client connected (%d total)", h.clientCount())

	// Drain reads; the first error means the client is gone.
	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends one dispatch event to every connected client, dropping
// connections that fail.
func (h *Hub) Publish(e queue.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		h.logger.Errorf("Failed to marshal dispatch event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warnf("Dropping WebSocket client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
