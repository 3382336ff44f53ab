package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// localRoom is the set of connections of one room on this process.
type localRoom struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newLocalRoom() *localRoom { return &localRoom{conns: map[*clientConn]struct{}{}} }

func (r *localRoom) add(c *clientConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

func (r *localRoom) remove(c *clientConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	delete(r.conns, c)
	return true
}

func (r *localRoom) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *localRoom) snapshot() []*clientConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// broadcast writes msg to every member. A member that cannot be written to
// is closed; its reader then takes it out of the hub.
func (r *localRoom) broadcast(msg []byte) {
	for _, c := range r.snapshot() {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			c.close()
		}
	}
}
