// Package presence tracks which live connection speaks for which
// participant of which room.
//
// The registry is a liveness index only. It is built empty at process start
// and never persisted; room membership truth lives in the room store.
package presence

import (
	"sync"

	"go.uber.org/zap"
)

// ReasonDuplicate is sent to a connection replaced by a newer one for the
// same participant.
const ReasonDuplicate = "duplicate-connection"

// Conn is the part of a client connection the registry needs.
type Conn interface {
	ID() string
	// Kick notifies the peer and closes the connection.
	Kick(reason string)
}

type Entry struct {
	RoomCode      string
	ParticipantID string
}

type pairKey struct {
	room        string
	participant string
}

type Registry struct {
	mu      sync.RWMutex
	byConn  map[string]Entry
	byPair  map[pairKey]Conn
	conns   map[string]Conn
	perRoom map[string]map[string]struct{} // roomCode -> connIDs
}

func NewRegistry() *Registry {
	return &Registry{
		byConn:  make(map[string]Entry),
		byPair:  make(map[pairKey]Conn),
		conns:   make(map[string]Conn),
		perRoom: make(map[string]map[string]struct{}),
	}
}

// Register binds c to (roomCode, participantID). A different connection
// already bound to the same pair is dropped from the index and kicked before
// Register returns. Registering the same connection again is a no-op.
func (r *Registry) Register(c Conn, roomCode, participantID string) {
	key := pairKey{room: roomCode, participant: participantID}
	id := c.ID()

	r.mu.Lock()
	stale, hadStale := r.byPair[key]
	if hadStale && stale.ID() == id {
		r.mu.Unlock()
		return
	}
	if hadStale {
		r.removeLocked(stale.ID())
	}
	// A connection speaks for one participant at a time.
	r.removeLocked(id)

	r.byConn[id] = Entry{RoomCode: roomCode, ParticipantID: participantID}
	r.byPair[key] = c
	r.conns[id] = c
	if r.perRoom[roomCode] == nil {
		r.perRoom[roomCode] = make(map[string]struct{})
	}
	r.perRoom[roomCode][id] = struct{}{}
	r.mu.Unlock()

	if hadStale {
		zap.L().Info("presence.evict",
			zap.String("room", roomCode),
			zap.String("participant", participantID),
			zap.String("conn", stale.ID()),
			zap.String("replaced_by", id))
		stale.Kick(ReasonDuplicate)
	}
}

// Unregister drops the entry owned by connID. The participant's room
// membership is untouched.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	r.removeLocked(connID)
	r.mu.Unlock()
}

// PurgeRoom drops every entry of roomCode and returns the affected
// connections.
func (r *Registry) PurgeRoom(roomCode string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.perRoom[roomCode]
	out := make([]Conn, 0, len(ids))
	for id := range ids {
		if c, ok := r.conns[id]; ok {
			out = append(out, c)
		}
		r.removeLocked(id)
	}
	delete(r.perRoom, roomCode)
	return out
}

func (r *Registry) LookupConnection(roomCode, participantID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byPair[pairKey{room: roomCode, participant: participantID}]
	return c, ok
}

func (r *Registry) LookupParticipant(connID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byConn[connID]
	return e, ok
}

// Len reports the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func (r *Registry) removeLocked(connID string) {
	e, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	delete(r.conns, connID)

	key := pairKey{room: e.RoomCode, participant: e.ParticipantID}
	// The pair may already point at a newer connection.
	if cur, ok := r.byPair[key]; ok && cur.ID() == connID {
		delete(r.byPair, key)
	}
	if ids, ok := r.perRoom[e.RoomCode]; ok {
		delete(ids, connID)
		if len(ids) == 0 {
			delete(r.perRoom, e.RoomCode)
		}
	}
}
