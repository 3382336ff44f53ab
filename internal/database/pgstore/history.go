package pgstore

import (
	"context"
	"database/sql"

	"moviedrawgo/internal/services/room"
)

// HistoryStore appends draw records to draw_history. Rows are never
// updated or deleted.
type HistoryStore struct {
	db *sql.DB
}

var _ room.HistoryStore = (*HistoryStore)(nil)

func NewHistoryStore(db *sql.DB) *HistoryStore { return &HistoryStore{db: db} }

func (s *HistoryStore) Append(ctx context.Context, e room.HistoryEntry) error {
	const ins = `
	  INSERT INTO draw_history (user_id, user_name, room_code, movie_id, movie_title,
	                            movie_poster, movie_year, movie_rating, participants,
	                            seed, drawn_at)
	       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, ins,
		e.UserID, e.UserName, e.RoomCode, e.MovieID, e.MovieTitle,
		e.MoviePoster, e.MovieYear, e.MovieRating, e.Participants,
		e.Seed, e.DrawnAt)
	return err
}

// ListByUser returns a page of the user's draws, newest first, and the
// user's total number of draws.
func (s *HistoryStore) ListByUser(ctx context.Context, userID string, limit, skip int) ([]room.HistoryEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM draw_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT user_id, user_name, room_code, movie_id, movie_title,
	                  movie_poster, movie_year, movie_rating, participants, seed, drawn_at
	             FROM draw_history
	            WHERE user_id = $1
	         ORDER BY drawn_at DESC
	            LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, q, userID, limit, skip)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]room.HistoryEntry, 0, limit)
	for rows.Next() {
		var e room.HistoryEntry
		if err := rows.Scan(&e.UserID, &e.UserName, &e.RoomCode, &e.MovieID, &e.MovieTitle,
			&e.MoviePoster, &e.MovieYear, &e.MovieRating, &e.Participants, &e.Seed, &e.DrawnAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}
