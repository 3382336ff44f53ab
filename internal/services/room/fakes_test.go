package room

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

type memStore struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	saveHook func(r *Room) error
	saves    int
}

func newMemStore(rooms ...*Room) *memStore {
	s := &memStore{rooms: make(map[string]*Room)}
	for _, r := range rooms {
		s.rooms[r.Code] = r.clone()
	}
	return s
}

func (s *memStore) FindByCode(_ context.Context, code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.clone(), nil
}

func (s *memStore) Create(_ context.Context, r *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.Code]; ok {
		return ErrRoomExists
	}
	s.rooms[r.Code] = r.clone()
	return nil
}

func (s *memStore) Save(_ context.Context, r *Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveHook != nil {
		if err := s.saveHook(r); err != nil {
			return err
		}
	}
	cur, ok := s.rooms[r.Code]
	if !ok {
		return ErrRoomNotFound
	}
	if cur.Version != r.Version {
		return ErrConflict
	}
	r.Version++
	r.UpdatedAt = time.Now()
	s.rooms[r.Code] = r.clone()
	return nil
}

func (s *memStore) DeleteByCode(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return ErrRoomNotFound
	}
	delete(s.rooms, code)
	return nil
}

func (s *memStore) get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

type memCatalog struct {
	movies map[string]Movie
	err    error
	calls  int
	mu     sync.Mutex
}

func newMemCatalog(movies ...Movie) *memCatalog {
	c := &memCatalog{movies: make(map[string]Movie)}
	for _, m := range movies {
		c.movies[m.ID] = m
	}
	return c
}

func (c *memCatalog) ResolveByIDs(_ context.Context, ids []string) ([]Movie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	out := make([]Movie, 0, len(ids))
	for _, id := range sorted {
		if m, ok := c.movies[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	err     error
}

func (h *memHistory) Append(_ context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, e)
	return nil
}

func (h *memHistory) ListByUser(_ context.Context, userID string, limit, skip int) ([]HistoryEntry, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var mine []HistoryEntry
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].UserID == userID {
			mine = append(mine, h.entries[i])
		}
	}
	total := len(mine)
	if skip >= total {
		return []HistoryEntry{}, total, nil
	}
	mine = mine[skip:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, total, nil
}

func (h *memHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

type published struct {
	Room  string
	Event string
	Body  json.RawMessage
}

type fakeChannel struct {
	mu     sync.Mutex
	events []published
	subs   map[string]map[string]Conn
	closed map[string]string
	err    error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		subs:   make(map[string]map[string]Conn),
		closed: make(map[string]string),
	}
}

func (f *fakeChannel) Subscribe(code string, c Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[code] == nil {
		f.subs[code] = make(map[string]Conn)
	}
	f.subs[code][c.ID()] = c
}

func (f *fakeChannel) Unsubscribe(code string, c Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[code], c.ID())
}

func (f *fakeChannel) Publish(_ context.Context, code, event string, body any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	f.events = append(f.events, published{Room: code, Event: event, Body: raw})
	return nil
}

func (f *fakeChannel) Close(_ context.Context, code, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[code] = reason
	raw, _ := json.Marshal(RoomClosed{Reason: reason})
	f.events = append(f.events, published{Room: code, Event: EventRoomClosed, Body: raw})
	delete(f.subs, code)
	return nil
}

func (f *fakeChannel) byEvent(event string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeChannel) members(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[code])
}

func (f *fakeChannel) closeReason(code string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.closed[code]
	return r, ok
}

type fakeConn struct {
	id string

	mu     sync.Mutex
	kicked []string
	sent   []string
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicked = append(c.kicked, reason)
}

func (c *fakeConn) Send(event string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, event)
	return nil
}

func (c *fakeConn) kicks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.kicked)
}

type gateCall struct {
	Op    string
	Room  string
	Token string
}

type fakeGate struct {
	mu      sync.Mutex
	current map[string]string
	calls   []gateCall
	ch      *fakeChannel
}

func newFakeGate(ch *fakeChannel) *fakeGate {
	return &fakeGate{current: make(map[string]string), ch: ch}
}

func (g *fakeGate) Arm(_ context.Context, code, token string, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current[code] = token
	g.calls = append(g.calls, gateCall{Op: "arm", Room: code, Token: token})
	return nil
}

func (g *fakeGate) Release(ctx context.Context, code, token, event string, body any) (bool, error) {
	g.mu.Lock()
	g.calls = append(g.calls, gateCall{Op: "release", Room: code, Token: token})
	ok := g.current[code] == token
	if ok {
		delete(g.current, code)
	}
	g.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, g.ch.Publish(ctx, code, event, body)
}

func (g *fakeGate) Revoke(_ context.Context, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.current, code)
	g.calls = append(g.calls, gateCall{Op: "revoke", Room: code})
	return nil
}

func (g *fakeGate) ops() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	for i, c := range g.calls {
		out[i] = c.Op
	}
	return out
}
