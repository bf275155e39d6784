package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

// Event is pushed to connected pages over the websocket change feed.
type Event struct {
	Type  string            `json:"type"`
	Sort  *domain.SortState `json:"sort,omitempty"`
	Error string            `json:"error,omitempty"`
}

// Hub fans events out to every connected browser tab. It implements the
// refresh pipeline's Notifier.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The page is served from the same local process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Drain reads until the peer goes away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

// HoldingsUpdated tells every page to re-render with the given sort order.
func (h *Hub) HoldingsUpdated(sort domain.SortState) {
	h.Broadcast(Event{Type: "holdings_updated", Sort: &sort})
}

// Broadcast writes under the hub lock: gorilla connections allow only one
// concurrent writer.
func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		if err := c.WriteJSON(e); err != nil {
			h.logger.Debug("dropping dead websocket client", zap.Error(err))
			delete(h.conns, c)
			c.Close()
		}
	}
}
