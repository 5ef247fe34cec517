package stream

import (
	"net/http"
	"sync"
	"time"

	"rotation_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// TickEvent is what dashboards get after every completed cycle.
type TickEvent struct {
	Time       time.Time `json:"time"`
	State      string    `json:"state"`
	BasePrice  float64   `json:"base_price"`
	LevPrice   float64   `json:"lev_price"`
	Divergence float64   `json:"divergence"`
}

// Hub fans tick events out to connected websocket clients. Slow or dead
// clients are dropped, never waited on.
type Hub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws upgrade: %v", err)
			return
		}

		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()

		// Clients only listen; the read loop just detects the close.
		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (h *Hub) Broadcast(ev TickEvent) {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		logger.Error("marshal tick event: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}
