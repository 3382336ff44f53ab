// Package sweeper closes rooms nobody has touched for a while.
package sweeper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockKey   = "room_sweep:lock"
	batchSize = 100
	minLock   = time.Second
)

type IdleLister interface {
	ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error)
}

type RoomCloser interface {
	CloseIdleRoom(ctx context.Context, code string, idleSince time.Time) (bool, error)
}

type Options struct {
	IdleTTL  time.Duration
	Interval time.Duration
	// Owner identifies this instance in the sweep lock.
	Owner string
	Now   func() time.Time
}

type Sweeper struct {
	rdb    *redis.Client
	rooms  IdleLister
	closer RoomCloser

	idleTTL  time.Duration
	interval time.Duration
	owner    string
	now      func() time.Time
}

func New(rdb *redis.Client, rooms IdleLister, closer RoomCloser, opts Options) *Sweeper {
	s := &Sweeper{
		rdb:      rdb,
		rooms:    rooms,
		closer:   closer,
		idleTTL:  opts.IdleTTL,
		interval: opts.Interval,
		owner:    opts.Owner,
		now:      opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	tk := time.NewTicker(s.interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				s.sweepOnce(ctx)
			}
		}
	}()
}

// sweepOnce closes up to one batch of idle rooms. Only the instance holding
// the sweep lock does any work, so each room gets a single room-closed.
func (s *Sweeper) sweepOnce(ctx context.Context) int {
	ttl := s.interval / 2
	if ttl < minLock {
		ttl = minLock
	}
	ok, err := s.rdb.SetNX(ctx, lockKey, s.owner, ttl).Result()
	if err != nil {
		zap.L().Warn("sweeper.lock", zap.Error(err))
		return 0
	}
	if !ok {
		return 0
	}

	cutoff := s.now().Add(-s.idleTTL)
	codes, err := s.rooms.ListIdle(ctx, cutoff, batchSize)
	if err != nil {
		zap.L().Error("sweeper.list_idle", zap.Error(err))
		return 0
	}

	closed := 0
	for _, code := range codes {
		done, err := s.closer.CloseIdleRoom(ctx, code, cutoff)
		if err != nil {
			zap.L().Warn("sweeper.close", zap.String("room", code), zap.Error(err))
			continue
		}
		if done {
			closed++
		}
	}
	if closed > 0 {
		zap.L().Info("sweeper.closed", zap.Int("rooms", closed), zap.Time("idle_since", cutoff))
	}
	return closed
}
