package ws

import (
	"context"

	"moviedrawgo/internal/redis/roomevents"
	"moviedrawgo/internal/services/room"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisChannel is the room broadcast: frames are published on Redis and
// every instance with local members of the room delivers them through its
// Hub.
type RedisChannel struct {
	rdb    *redis.Client
	hub    *Hub
	subMgr *subscriptionManager
}

var _ room.Channel = (*RedisChannel)(nil)

func NewRedisChannel(rdb *redis.Client, hub *Hub) *RedisChannel {
	return &RedisChannel{
		rdb:    rdb,
		hub:    hub,
		subMgr: newSubscriptionManager(rdb, hub),
	}
}

func (ch *RedisChannel) Subscribe(code string, c room.Conn) {
	cc, ok := c.(*clientConn)
	if !ok {
		zap.L().Warn("ws.subscribe_foreign_conn", zap.String("room", code), zap.String("conn", c.ID()))
		return
	}
	if ch.hub.Join(code, cc) {
		ch.subMgr.Subscribe(code) // may be a no‑op (already subscribed)
	}
}

func (ch *RedisChannel) Unsubscribe(code string, c room.Conn) {
	cc, ok := c.(*clientConn)
	if !ok {
		return
	}
	if ch.hub.Leave(code, cc) {
		ch.subMgr.Unsubscribe(code)
	}
}

func (ch *RedisChannel) Publish(ctx context.Context, code, event string, body any) error {
	return roomevents.Publish(ctx, ch.rdb, code, event, body)
}

// Close broadcasts room-closed. Every instance closes its local members of
// the room when the frame reaches it.
func (ch *RedisChannel) Close(ctx context.Context, code, reason string) error {
	return roomevents.Publish(ctx, ch.rdb, code, room.EventRoomClosed, room.RoomClosed{Reason: reason})
}

// forget takes c out of every room it was subscribed to.
func (ch *RedisChannel) forget(c *clientConn) {
	for _, code := range ch.hub.Drop(c) {
		ch.subMgr.Unsubscribe(code)
	}
}

// Shutdown stops every fan‑out loop.
func (ch *RedisChannel) Shutdown() {
	ch.subMgr.closeAll()
}
