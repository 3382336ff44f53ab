package ws

import (
	"context"
	"sync"
	"time"

	"moviedrawgo/internal/redis/roomevents"
	"moviedrawgo/internal/services/room"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const subscribeTimeout = 3 * time.Second

// subscriptionManager guarantees that we have exactly one Redis subscription
// per "room:<CODE>:events" channel no matter how many websocket clients are
// in the same room.
type subscriptionManager struct {
	rdb  *redis.Client
	hub  *Hub
	mu   sync.Mutex
	subs map[string]*subEntry // room code ➜ subscription data
}

type subEntry struct {
	refCnt int
	cancel context.CancelFunc
	ready  chan struct{}
}

func newSubscriptionManager(rdb *redis.Client, hub *Hub) *subscriptionManager {
	return &subscriptionManager{
		rdb:  rdb,
		hub:  hub,
		subs: make(map[string]*subEntry),
	}
}

// Subscribe ensures that the process is subscribed to the room's channel;
// subsequent calls for the same room only increment the ref‑counter. It
// returns once Redis has confirmed the subscription, so a publish issued
// right after is delivered locally.
func (sm *subscriptionManager) Subscribe(code string) {
	sm.mu.Lock()
	if e, ok := sm.subs[code]; ok {
		e.refCnt++
		sm.mu.Unlock()
		<-e.ready
		return
	}

	// First consumer → create Redis SUB and fan‑out loop.
	ctx, cancel := context.WithCancel(context.Background())
	e := &subEntry{refCnt: 1, cancel: cancel, ready: make(chan struct{})}
	sm.subs[code] = e
	sm.mu.Unlock()

	ps := sm.rdb.Subscribe(ctx, roomevents.Channel(code))
	confirmCtx, confirmCancel := context.WithTimeout(ctx, subscribeTimeout)
	if _, err := ps.Receive(confirmCtx); err != nil {
		zap.L().Warn("ws.subscribe", zap.String("room", code), zap.Error(err))
	}
	confirmCancel()
	close(e.ready)

	go sm.fanOut(ctx, code, ps, e)
}

func (sm *subscriptionManager) fanOut(ctx context.Context, code string, ps *redis.PubSub, e *subEntry) {
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok { // Redis connection closed.
				return
			}

			if sm.deliver(code, []byte(m.Payload)) {
				sm.drop(code, e)
				return
			}
		}
	}
}

// deliver hands one published frame to the room's local connections. It
// reports whether the frame closed the room, in which case every local
// connection in it has been closed too.
func (sm *subscriptionManager) deliver(code string, payload []byte) bool {
	// Frames are published already wrapped in the client envelope.
	sm.hub.Broadcast(code, payload)

	evt, err := roomevents.Peek(payload)
	if err != nil {
		zap.L().Warn("ws.peek_event_failed", zap.String("room", code), zap.Error(err))
		return false
	}
	if evt != room.EventRoomClosed {
		return false
	}
	n := sm.hub.CloseRoom(code)
	zap.L().Debug("ws.room_closed", zap.String("room", code), zap.Int("conns", n))
	return true
}

// Unsubscribe decrements the ref‑counter and tears the Redis SUB down when the
// last websocket client leaves the room.
func (sm *subscriptionManager) Unsubscribe(code string) {
	sm.mu.Lock()
	e, ok := sm.subs[code]
	if !ok {
		sm.mu.Unlock()
		return
	}
	e.refCnt--
	if e.refCnt > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.subs, code)
	sm.mu.Unlock()

	// Outside the lock → stop the fan‑out goroutine.
	e.cancel()
}

// drop removes the subscription e regardless of its ref‑counter. A newer
// subscription for the same code is left alone.
func (sm *subscriptionManager) drop(code string, e *subEntry) {
	sm.mu.Lock()
	if sm.subs[code] == e {
		delete(sm.subs, code)
	}
	sm.mu.Unlock()
	e.cancel()
}

func (sm *subscriptionManager) closeAll() {
	sm.mu.Lock()
	subs := sm.subs
	sm.subs = make(map[string]*subEntry)
	sm.mu.Unlock()
	for _, e := range subs {
		e.cancel()
	}
}
