package room

import (
	"context"
	"time"

	"moviedrawgo/internal/presence"
)

// Store persists room aggregates by code.
type Store interface {
	FindByCode(ctx context.Context, code string) (*Room, error)
	Create(ctx context.Context, r *Room) error
	// Save writes r if the stored version still equals r.Version and bumps
	// r.Version on success. A stale version yields ErrConflict.
	Save(ctx context.Context, r *Room) error
	DeleteByCode(ctx context.Context, code string) error
}

// Catalog resolves movie ids to records. The order of the returned slice
// must be stable for a given id set.
type Catalog interface {
	ResolveByIDs(ctx context.Context, ids []string) ([]Movie, error)
}

type HistoryStore interface {
	Append(ctx context.Context, e HistoryEntry) error
	ListByUser(ctx context.Context, userID string, limit, skip int) ([]HistoryEntry, int, error)
}

// Conn is a client connection addressed directly (acks, errors, kicks).
type Conn interface {
	presence.Conn
	Send(event string, body any) error
}

// Channel is the group-addressed broadcast keyed by room code.
type Channel interface {
	Subscribe(roomCode string, c Conn)
	Unsubscribe(roomCode string, c Conn)
	Publish(ctx context.Context, roomCode, event string, body any) error
	// Close publishes room-closed and disconnects every member connection.
	Close(ctx context.Context, roomCode, reason string) error
}

type Presence interface {
	Register(c presence.Conn, roomCode, participantID string)
	Unregister(connID string)
	PurgeRoom(roomCode string) []presence.Conn
}

// RevealGate fences the delayed draw-result across instances: Release
// publishes only while the token armed for the room is still current.
type RevealGate interface {
	Arm(ctx context.Context, roomCode, token string, ttl time.Duration) error
	Release(ctx context.Context, roomCode, token, event string, body any) (bool, error)
	Revoke(ctx context.Context, roomCode string) error
}
