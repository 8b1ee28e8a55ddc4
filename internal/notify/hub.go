package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hounsou/bookstore/internal/domain/consts"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
)

// Hub pushes every newly created order to connected admin sockets and keeps
// a bounded most-recent-first list for the dashboard badge.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	recent   []models.Order
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and holds the connection until the peer goes
// away. The read loop exists only to notice the close.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.Get()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish fans the order out to every connected client and records it in
// the recent list. Write failures drop the client; ordering relative to
// other UI state is not guaranteed and not assumed.
func (h *Hub) Publish(order models.Order) {
	log := logger.Get()
	data, err := json.Marshal(order)
	if err != nil {
		log.Error().Err(err).Msg("marshal order for broadcast failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = append([]models.Order{order}, h.recent...)
	if len(h.recent) > consts.RecentOrdersCap {
		h.recent = h.recent[:consts.RecentOrdersCap]
	}

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Recent returns a copy of the bounded most-recent-first order list.
func (h *Hub) Recent() []models.Order {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Order, len(h.recent))
	copy(out, h.recent)
	return out
}

// ClearNewOrders empties the recent list; persisted orders are untouched.
func (h *Hub) ClearNewOrders() {
	h.mu.Lock()
	h.recent = nil
	h.mu.Unlock()
}

// Close drops every connection, releasing the subscription on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
