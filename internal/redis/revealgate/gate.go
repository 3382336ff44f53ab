// Package revealgate fences delayed draw-result broadcasts in Redis so that a
// reset or close handled by one instance cancels a reveal scheduled on
// another.
package revealgate

import (
	"context"
	"time"

	"moviedrawgo/internal/redis/redis_functions"
	"moviedrawgo/internal/redis/roomevents"
	"moviedrawgo/internal/services/room"

	"github.com/redis/go-redis/v9"
)

type Gate struct {
	rdb *redis.Client
}

var _ room.RevealGate = (*Gate)(nil)

func New(rdb *redis.Client) *Gate { return &Gate{rdb: rdb} }

func fenceKey(code string) string { return "room_reveal:" + code }

// Arm installs token as the room's current reveal, replacing any previous
// one.
func (g *Gate) Arm(ctx context.Context, code, token string, ttl time.Duration) error {
	return g.rdb.Set(ctx, fenceKey(code), token, ttl).Err()
}

// Release publishes the frame if token is still armed and reports whether it
// did. The check, the fence removal and the publish are one atomic call.
func (g *Gate) Release(ctx context.Context, code, token, event string, body any) (bool, error) {
	payload, err := roomevents.Encode(event, body)
	if err != nil {
		return false, err
	}
	n, err := g.rdb.FCall(ctx, redis_functions.RevealFire,
		[]string{fenceKey(code), roomevents.Channel(code)},
		token, payload,
	).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke drops whatever reveal is armed for the room.
func (g *Gate) Revoke(ctx context.Context, code string) error {
	return g.rdb.Del(ctx, fenceKey(code)).Err()
}
