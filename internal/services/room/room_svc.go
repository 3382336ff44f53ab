package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCodeLength = 6
	defaultIOTimeout  = 2 * time.Second
	createAttempts    = 5

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type IRoomService interface {
	CreateRoom(ctx context.Context, hostID, hostName string) (*Room, error)
	GetRoom(ctx context.Context, code string) (*View, error)
	ListHistory(ctx context.Context, userID string, limit, skip int) ([]HistoryEntry, int, error)

	Join(ctx context.Context, c Conn, code, participantID, displayName string) error
	Leave(ctx context.Context, c Conn, code, participantID string) error
	UpdateSelection(ctx context.Context, code, participantID string, movieIDs []string) error
	Disconnect(connID string)
	Reset(ctx context.Context, code, participantID string) error
	StartDraw(ctx context.Context, code, participantID string) error

	// CloseIdleRoom deletes code if it has not been updated since idleSince.
	CloseIdleRoom(ctx context.Context, code string, idleSince time.Time) (bool, error)
	Shutdown()
}

type Options struct {
	RevealDelay    time.Duration
	RoomCodeLength int
	// IOTimeout bounds store and catalog calls made outside a request,
	// i.e. by the delayed reveal.
	IOTimeout time.Duration
	// Gate is optional; without it the reveal is fenced in-process only.
	Gate RevealGate
	Seed func() int64
	Now  func() time.Time
}

type roomService struct {
	store    Store
	catalog  Catalog
	history  HistoryStore
	channel  Channel
	presence Presence
	gate     RevealGate

	locks   *keyLocks
	reveals *revealScheduler

	revealDelay time.Duration
	codeLength  int
	ioTimeout   time.Duration
	seed        func() int64
	now         func() time.Time
}

var _ IRoomService = (*roomService)(nil)

func NewRoomService(store Store, catalog Catalog, history HistoryStore,
	channel Channel, presence Presence, opts Options) IRoomService {

	svc := &roomService{
		store:       store,
		catalog:     catalog,
		history:     history,
		channel:     channel,
		presence:    presence,
		gate:        opts.Gate,
		locks:       newKeyLocks(),
		reveals:     newRevealScheduler(),
		revealDelay: opts.RevealDelay,
		codeLength:  opts.RoomCodeLength,
		ioTimeout:   opts.IOTimeout,
		seed:        opts.Seed,
		now:         opts.Now,
	}
	if svc.codeLength <= 0 {
		svc.codeLength = defaultCodeLength
	}
	if svc.ioTimeout <= 0 {
		svc.ioTimeout = defaultIOTimeout
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.seed == nil {
		svc.seed = func() int64 { return time.Now().UnixMilli() }
	}
	return svc
}

// CreateRoom allocates a fresh code and stores a waiting room whose first
// participant is the host.
func (svc *roomService) CreateRoom(ctx context.Context, hostID, hostName string) (*Room, error) {
	now := svc.now()
	for i := 0; i < createAttempts; i++ {
		r := &Room{
			Code:         newCode(svc.codeLength),
			HostID:       hostID,
			Participants: []Participant{},
			Status:       StatusWaiting,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		r.AddParticipant(hostID, hostName, now)

		err := svc.store.Create(ctx, r)
		if err == nil {
			zap.L().Info("room.create", zap.String("room", r.Code), zap.String("host", hostID))
			return r, nil
		}
		if !errors.Is(err, ErrRoomExists) {
			return nil, transient("create room", err)
		}
	}
	return nil, ErrCodeUnavailable
}

func (svc *roomService) GetRoom(ctx context.Context, code string) (*View, error) {
	r, err := svc.store.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, transient("find room", err)
	}
	items, err := svc.resolveSelections(ctx, r)
	if err != nil {
		return nil, err
	}
	return &View{Room: r, ItemsByID: items}, nil
}

func (svc *roomService) ListHistory(ctx context.Context, userID string, limit, skip int) ([]HistoryEntry, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	list, total, err := svc.history.ListByUser(ctx, userID, limit, skip)
	if err != nil {
		return nil, 0, transient("list history", err)
	}
	return list, total, nil
}

// Join adds the participant on first join, binds c as its only live
// connection and broadcasts the refreshed room.
func (svc *roomService) Join(ctx context.Context, c Conn, code, participantID, displayName string) error {
	code = NormalizeCode(code)
	unlock := svc.locks.lock(code)
	defer unlock()

	r, err := svc.store.FindByCode(ctx, code)
	if err != nil {
		return transient("find room", err)
	}
	// A rejoin changes nothing but is still saved: the write refreshes
	// updated_at so an occupied room is not swept as idle.
	added := r.AddParticipant(participantID, displayName, svc.now())
	if err := svc.store.Save(ctx, r); err != nil {
		return transient("save room", err)
	}
	if added {
		zap.L().Info("room.join", zap.String("room", code), zap.String("participant", participantID))
	} else {
		zap.L().Debug("room.rejoin", zap.String("room", code), zap.String("participant", participantID))
	}

	svc.presence.Register(c, code, participantID)
	svc.channel.Subscribe(code, c)

	return svc.publishSnapshot(ctx, r)
}

// Leave removes the participant. The host leaving closes the room for
// everyone. The connection keeps its channel and presence entry if the
// removal cannot be stored.
func (svc *roomService) Leave(ctx context.Context, c Conn, code, participantID string) error {
	code = NormalizeCode(code)
	unlock := svc.locks.lock(code)
	defer unlock()

	r, err := svc.store.FindByCode(ctx, code)
	if errors.Is(err, ErrRoomNotFound) {
		svc.presence.Unregister(c.ID())
		return nil
	}
	if err != nil {
		return transient("find room", err)
	}

	if r.HostID == participantID {
		svc.presence.Unregister(c.ID())
		return svc.closeRoomLocked(ctx, code, ReasonHostLeft)
	}

	if r.RemoveParticipant(participantID) {
		if err := svc.store.Save(ctx, r); err != nil {
			return transient("save room", err)
		}
		zap.L().Info("room.leave", zap.String("room", code), zap.String("participant", participantID))
	}
	svc.channel.Unsubscribe(code, c)
	svc.presence.Unregister(c.ID())
	return svc.publishSnapshot(ctx, r)
}

// UpdateSelection replaces the participant's selected movies.
func (svc *roomService) UpdateSelection(ctx context.Context, code, participantID string, movieIDs []string) error {
	code = NormalizeCode(code)
	unlock := svc.locks.lock(code)
	defer unlock()

	r, err := svc.store.FindByCode(ctx, code)
	if err != nil {
		return transient("find room", err)
	}
	if !r.SetSelection(participantID, movieIDs) {
		return ErrParticipantNotFound
	}
	if err := svc.store.Save(ctx, r); err != nil {
		return transient("save room", err)
	}
	return svc.publishSnapshot(ctx, r)
}

// Disconnect forgets the connection only; membership and selections stay so
// that a reconnect resumes where it left off.
func (svc *roomService) Disconnect(connID string) {
	svc.presence.Unregister(connID)
}

// Reset returns the room to waiting and clears every selection and the
// current result.
func (svc *roomService) Reset(ctx context.Context, code, participantID string) error {
	code = NormalizeCode(code)
	unlock := svc.locks.lock(code)
	defer unlock()

	r, err := svc.store.FindByCode(ctx, code)
	if err != nil {
		return transient("find room", err)
	}
	if r.HostID != participantID {
		return ErrNotHost
	}

	r.ResetDraw()
	if err := svc.store.Save(ctx, r); err != nil {
		return transient("save room", err)
	}
	svc.cancelReveal(ctx, code)
	zap.L().Info("room.reset", zap.String("room", code))

	return transient("publish", svc.channel.Publish(ctx, code, EventRoomReset, RoomReset{
		Status:       r.Status,
		Participants: r.Participants,
	}))
}

func (svc *roomService) CloseIdleRoom(ctx context.Context, code string, idleSince time.Time) (bool, error) {
	code = NormalizeCode(code)
	unlock := svc.locks.lock(code)
	defer unlock()

	r, err := svc.store.FindByCode(ctx, code)
	if errors.Is(err, ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, transient("find room", err)
	}
	if r.UpdatedAt.After(idleSince) {
		return false, nil
	}
	if err := svc.closeRoomLocked(ctx, code, ReasonExpired); err != nil {
		return false, err
	}
	return true, nil
}

func (svc *roomService) Shutdown() {
	svc.reveals.stopAll()
}

// closeRoomLocked deletes the room, drops its pending reveal and presence
// entries, and disconnects every connection in its channel.
func (svc *roomService) closeRoomLocked(ctx context.Context, code, reason string) error {
	if err := svc.store.DeleteByCode(ctx, code); err != nil && !errors.Is(err, ErrRoomNotFound) {
		return transient("delete room", err)
	}
	svc.cancelReveal(ctx, code)
	svc.presence.PurgeRoom(code)
	zap.L().Info("room.closed", zap.String("room", code), zap.String("reason", reason))

	return transient("close channel", svc.channel.Close(ctx, code, reason))
}

func (svc *roomService) publishSnapshot(ctx context.Context, r *Room) error {
	items, err := svc.resolveSelections(ctx, r)
	if err != nil {
		return err
	}
	participants := r.Participants
	if participants == nil {
		participants = []Participant{}
	}
	return transient("publish", svc.channel.Publish(ctx, r.Code, EventRoomUpdated, RoomUpdated{
		Participants: participants,
		Status:       r.Status,
		ItemsByID:    items,
	}))
}

// resolveSelections looks up every selected id once and keys the result by
// id.
func (svc *roomService) resolveSelections(ctx context.Context, r *Room) (map[string]MovieSummary, error) {
	ids := r.Pool()
	out := make(map[string]MovieSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	movies, err := svc.catalog.ResolveByIDs(ctx, ids)
	if err != nil {
		return nil, transient("resolve movies", err)
	}
	for _, m := range movies {
		out[m.ID] = summarize(m)
	}
	return out, nil
}

func newCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}
