package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moviedrawgo/internal/services/room"
)

// RoomStore keeps room aggregates in the rooms table. Participants and the
// current draw result are stored as JSONB; every write is guarded by the
// version column.
type RoomStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ room.Store = (*RoomStore)(nil)

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db, now: time.Now}
}

func (s *RoomStore) FindByCode(ctx context.Context, code string) (*room.Room, error) {
	const q = `SELECT code, host_id, status, participants, draw_result,
	                  version, created_at, updated_at
	             FROM rooms WHERE code = $1`

	var (
		r            room.Room
		participants []byte
		drawResult   []byte
	)
	err := s.db.QueryRowContext(ctx, q, code).Scan(&r.Code, &r.HostID, &r.Status,
		&participants, &drawResult, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, room.ErrRoomNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(participants, &r.Participants); err != nil {
		return nil, fmt.Errorf("decode participants of %s: %w", code, err)
	}
	if r.Participants == nil {
		r.Participants = []room.Participant{}
	}
	if len(drawResult) > 0 && string(drawResult) != "null" {
		r.DrawResult = &room.DrawResult{}
		if err := json.Unmarshal(drawResult, r.DrawResult); err != nil {
			return nil, fmt.Errorf("decode draw result of %s: %w", code, err)
		}
	}
	return &r, nil
}

func (s *RoomStore) Create(ctx context.Context, r *room.Room) error {
	participants, drawResult, err := encode(r)
	if err != nil {
		return err
	}

	const q = `INSERT INTO rooms (code, host_id, status, participants, draw_result,
	                              version, created_at, updated_at)
	                VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
	           ON CONFLICT (code) DO NOTHING`

	res, err := s.db.ExecContext(ctx, q, r.Code, r.HostID, string(r.Status),
		participants, drawResult, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return room.ErrRoomExists
	}
	r.Version = 1
	return nil
}

// Save writes r only if the stored version still equals r.Version.
func (s *RoomStore) Save(ctx context.Context, r *room.Room) error {
	participants, drawResult, err := encode(r)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	const q = `UPDATE rooms
	              SET host_id = $2, status = $3, participants = $4, draw_result = $5,
	                  version = version + 1, updated_at = $6
	            WHERE code = $1 AND version = $7`

	res, err := s.db.ExecContext(ctx, q, r.Code, r.HostID, string(r.Status),
		participants, drawResult, now, r.Version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM rooms WHERE code = $1)`, r.Code).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return room.ErrRoomNotFound
		}
		return room.ErrConflict
	}
	r.Version++
	r.UpdatedAt = now
	return nil
}

func (s *RoomStore) DeleteByCode(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = $1`, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return room.ErrRoomNotFound
	}
	return nil
}

// ListIdle returns up to limit codes of rooms not updated since before.
func (s *RoomStore) ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code FROM rooms WHERE updated_at < $1 ORDER BY updated_at LIMIT $2`,
		before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func encode(r *room.Room) (string, any, error) {
	participants := r.Participants
	if participants == nil {
		participants = []room.Participant{}
	}
	p, err := json.Marshal(participants)
	if err != nil {
		return "", nil, err
	}
	if r.DrawResult == nil {
		return string(p), nil, nil
	}
	d, err := json.Marshal(r.DrawResult)
	if err != nil {
		return "", nil, err
	}
	return string(p), string(d), nil
}
