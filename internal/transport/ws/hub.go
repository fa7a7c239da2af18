package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/coderoom/internal/event"
)

// Hub is the directory of live connections. It implements service.Sink.
type Hub struct {
	mu      sync.RWMutex
	conns   map[string]*conn
	metrics Metrics
}

func NewHub(m Metrics) *Hub {
	if m == nil {
		m = noopMetrics{}
	}
	return &Hub{conns: make(map[string]*conn), metrics: m}
}

func (h *Hub) Add(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) Remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Deliver encodes msg once and queues it on every listed connection.
// It never blocks: a connection whose queue is full is closed.
func (h *Hub) Deliver(connIDs []string, msg event.Message) {
	if len(connIDs) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws encode failed", "type", msg.Type, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		c, ok := h.conns[id]
		if !ok {
			continue
		}
		if !c.enqueue(data) {
			h.metrics.EventDropped("slow_consumer")
			slog.Warn("ws send queue full, closing", "conn", id, "type", msg.Type)
			c.close()
		}
	}
}
