package ws

import (
	"sync"
)

// Hub maps connection IDs to sockets. Room membership lives in the Room
// Store; fan-out targets arrive here as ID lists taken from store snapshots,
// so the hub never holds a second copy of membership truth.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*clientConn
}

func NewHub() *Hub { return &Hub{conns: make(map[string]*clientConn)} }

func (h *Hub) register(c *clientConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()
	if ok {
		c.rawConn.Close()
	}
}

// Send emits one envelope to a single connection.
func (h *Hub) Send(connID string, v any) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.writeJSON(v); err != nil {
		h.unregister(connID)
	}
}

// Broadcast emits one envelope to every listed connection.
func (h *Hub) Broadcast(connIDs []string, v any) {
	h.BroadcastExcept(connIDs, "", v)
}

// BroadcastExcept emits to every listed connection but the excluded one.
func (h *Hub) BroadcastExcept(connIDs []string, exceptID string, v any) {
	// Snapshot under the read lock, do the I/O outside it.
	h.mu.RLock()
	targets := make([]*clientConn, 0, len(connIDs))
	for _, id := range connIDs {
		if id == exceptID {
			continue
		}
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	var failed []*clientConn
	for _, c := range targets {
		if err := c.writeJSON(v); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.unregister(c.id)
	}
}
