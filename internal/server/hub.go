package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
)

const sendBuffer = 64

// Hub fans snapshots out to every connected client. Broadcast never blocks: a
// client whose queue is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	log     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[*Client]struct{}), log: logger}
}

// Broadcast implements game.Broadcaster.
func (h *Hub) Broadcast(snap arena.Snapshot) {
	b, err := json.Marshal(WSOut{Type: MsgState, Payload: snap})
	if err != nil {
		h.log.Error("encode state", "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueueLocked(c, b)
	}
}

// NumClients returns the number of registered clients.
func (h *Hub) NumClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// send queues one message for a single client.
func (h *Hub) send(c *Client, out WSOut) {
	b, err := json.Marshal(out)
	if err != nil {
		h.log.Error("encode message", "type", out.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueLocked(c, b)
	}
}

func (h *Hub) enqueueLocked(c *Client, b []byte) {
	select {
	case c.send <- b:
	default:
		h.log.Warn("client too slow, dropping", "session", c.id)
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
