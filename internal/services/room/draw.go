package room

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// revealGrace keeps the cross-instance fence alive a little past the reveal
// delay so a slow timer still finds it.
const revealGrace = 30 * time.Second

// StartDraw picks the winning movie for the room and starts the two-phase
// broadcast: draw-started now, draw-result after the reveal delay.
//
// The room and the history entry are written before anything is broadcast.
// On any failure the room keeps its previous status.
func (svc *roomService) StartDraw(ctx context.Context, code, participantID string) error {
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
	switch r.Status {
	case StatusDrawing:
		return ErrDrawInProgress
	case StatusCompleted:
		return ErrDrawCompleted
	}

	ids := r.Pool()
	if len(ids) == 0 {
		return ErrPoolEmpty
	}
	movies, err := svc.catalog.ResolveByIDs(ctx, ids)
	if err != nil {
		return transient("resolve movies", err)
	}
	if len(movies) == 0 {
		return ErrNoMovies
	}

	seed := svc.seed()
	winner := movies[PickIndex(seed, len(movies))]
	now := svc.now()
	prev := r.clone()

	// The claim and the result are one write: the stored room goes from
	// waiting straight to completed, so a failed save leaves it as it was.
	// Save is version guarded, so of two instances racing on the same room
	// only one gets past this point.
	r.Status = StatusCompleted
	r.DrawResult = &DrawResult{
		MovieID:    winner.ID,
		MovieTitle: winner.Title,
		Seed:       seed,
		DrawnAt:    now,
	}
	if err := svc.store.Save(ctx, r); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrDrawInProgress
		}
		return transient("save draw result", err)
	}

	entry := HistoryEntry{
		UserID:       participantID,
		RoomCode:     code,
		MovieID:      winner.ID,
		MovieTitle:   winner.Title,
		MoviePoster:  winner.Poster,
		MovieYear:    winner.Year,
		MovieRating:  winner.Rating,
		Participants: len(r.Participants),
		Seed:         seed,
		DrawnAt:      now,
	}
	if p, ok := r.Participant(participantID); ok {
		entry.UserName = p.Name
	}
	if err := svc.history.Append(ctx, entry); err != nil {
		svc.rollbackDraw(ctx, r, prev)
		return transient("append history", err)
	}

	zap.L().Info("room.draw",
		zap.String("room", code),
		zap.Int64("seed", seed),
		zap.Int("pool", len(movies)),
		zap.String("movie", winner.ID))

	token := uuid.NewString()
	gated := svc.armReveal(ctx, code, token)

	// The pool goes out in the exact order the index was computed against.
	if err := svc.channel.Publish(ctx, code, EventDrawStarted, DrawStarted{
		Seed: seed,
		Pool: poolOf(movies),
	}); err != nil {
		zap.L().Warn("room.draw_started_publish", zap.String("room", code), zap.Error(err))
	}

	result := *r.DrawResult
	svc.reveals.schedule(code, token, svc.revealDelay, func() {
		svc.fireReveal(code, token, gated, result, winner)
	})
	return nil
}

// rollbackDraw puts the room back to its pre-draw state after the history
// append failed. r carries the version of the draw save.
func (svc *roomService) rollbackDraw(ctx context.Context, r, prev *Room) {
	prev.Version = r.Version
	if err := svc.store.Save(ctx, prev); err != nil {
		zap.L().Error("room.draw_rollback", zap.String("room", r.Code), zap.Error(err))
		return
	}
	*r = *prev
}

func (svc *roomService) armReveal(ctx context.Context, code, token string) bool {
	if svc.gate == nil {
		return false
	}
	if err := svc.gate.Arm(ctx, code, token, svc.revealDelay+revealGrace); err != nil {
		zap.L().Warn("room.reveal_arm", zap.String("room", code), zap.Error(err))
		return false
	}
	return true
}

func (svc *roomService) cancelReveal(ctx context.Context, code string) {
	svc.reveals.cancel(code)
	if svc.gate == nil {
		return
	}
	if err := svc.gate.Revoke(ctx, code); err != nil {
		zap.L().Warn("room.reveal_revoke", zap.String("room", code), zap.Error(err))
	}
}

// fireReveal runs when the reveal delay elapses. It does nothing if the
// reveal was cancelled or replaced, or if the stored room no longer holds
// this result.
func (svc *roomService) fireReveal(code, token string, gated bool, result DrawResult, winner Movie) {
	unlock := svc.locks.lock(code)
	defer unlock()

	if !svc.reveals.claim(code, token) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), svc.ioTimeout)
	defer cancel()

	r, err := svc.store.FindByCode(ctx, code)
	if err != nil {
		zap.L().Debug("room.reveal_skipped", zap.String("room", code), zap.Error(err))
		return
	}
	if r.Status != StatusCompleted || r.DrawResult == nil ||
		r.DrawResult.Seed != result.Seed || r.DrawResult.MovieID != result.MovieID {
		zap.L().Debug("room.reveal_stale", zap.String("room", code))
		return
	}

	body := DrawRevealed{Item: winner}
	if gated {
		ok, err := svc.gate.Release(ctx, code, token, EventDrawResult, body)
		if err != nil {
			zap.L().Warn("room.reveal_release", zap.String("room", code), zap.Error(err))
		} else if !ok {
			zap.L().Debug("room.reveal_revoked", zap.String("room", code))
		}
		return
	}
	if err := svc.channel.Publish(ctx, code, EventDrawResult, body); err != nil {
		zap.L().Warn("room.reveal_publish", zap.String("room", code), zap.Error(err))
	}
}
