package ws

import (
	"sync"
)

// Hub keeps the local connections subscribed to each room code.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*localRoom
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*localRoom)} }

// Broadcast is called by the Redis subscriber.
func (h *Hub) Broadcast(code string, msg []byte) {
	h.mu.RLock()
	r, ok := h.rooms[code]
	h.mu.RUnlock()
	if ok {
		r.broadcast(msg)
	}
}

// Join adds c to the room and reports whether it was not a member yet.
func (h *Hub) Join(code string, c *clientConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	if !ok {
		r = newLocalRoom()
		h.rooms[code] = r
	}
	return r.add(c)
}

// Leave removes c from the room and reports whether it was a member.
func (h *Hub) Leave(code string, c *clientConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[code]
	if !ok || !r.remove(c) {
		return false
	}
	if r.len() == 0 {
		delete(h.rooms, code)
	}
	return true
}

// Drop removes c from every room and returns the codes it was removed from.
func (h *Hub) Drop(c *clientConn) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var codes []string
	for code, r := range h.rooms {
		if !r.remove(c) {
			continue
		}
		codes = append(codes, code)
		if r.len() == 0 {
			delete(h.rooms, code)
		}
	}
	return codes
}

// CloseRoom forgets the room and closes every connection that was in it.
func (h *Hub) CloseRoom(code string) int {
	h.mu.Lock()
	r, ok := h.rooms[code]
	delete(h.rooms, code)
	h.mu.Unlock()
	if !ok {
		return 0
	}
	conns := r.snapshot()
	for _, c := range conns {
		c.close()
	}
	return len(conns)
}

func (h *Hub) Members(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.rooms[code]; ok {
		return r.len()
	}
	return 0
}
