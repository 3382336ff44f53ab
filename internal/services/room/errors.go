package room

import (
	"errors"
	"fmt"
)

// Error categories. Transport code maps failures with errors.Is against
// these rather than against the specific errors below.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrTransient    = errors.New("temporarily unavailable")
)

var (
	ErrRoomNotFound        = fmt.Errorf("%w: room does not exist", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant is not in the room", ErrNotFound)

	ErrNotHost = fmt.Errorf("%w: only the host can do this", ErrUnauthorized)

	ErrPoolEmpty       = fmt.Errorf("%w: pool empty, select some movies first", ErrInvalidState)
	ErrNoMovies        = fmt.Errorf("%w: none of the selected movies exist", ErrInvalidState)
	ErrDrawInProgress  = fmt.Errorf("%w: draw already running", ErrInvalidState)
	ErrDrawCompleted   = fmt.Errorf("%w: draw already completed, reset the room first", ErrInvalidState)
	ErrConflict        = fmt.Errorf("%w: room was modified concurrently", ErrInvalidState)
	ErrRoomExists      = fmt.Errorf("%w: room code already in use", ErrInvalidState)
	ErrCodeUnavailable = fmt.Errorf("%w: could not allocate a room code", ErrTransient)
)

// transient wraps an I/O failure from a collaborator.
func transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidState) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrTransient, op, err)
}
