package pgstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"moviedrawgo/internal/services/room"
)

// Catalog reads movie metadata. The table itself is owned by the catalog
// service; this side only resolves ids.
type Catalog struct {
	db *sql.DB
}

var _ room.Catalog = (*Catalog)(nil)

func NewCatalog(db *sql.DB) *Catalog { return &Catalog{db: db} }

// ResolveByIDs returns the movies among ids that exist, ordered by id.
// Unknown ids are skipped.
func (c *Catalog) ResolveByIDs(ctx context.Context, ids []string) ([]room.Movie, error) {
	if len(ids) == 0 {
		return []room.Movie{}, nil
	}

	var sb strings.Builder
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("$" + strconv.Itoa(i+1))
		args[i] = id
	}

	q := `SELECT id, title, coalesce(poster, ''), coalesce(year, ''),
	             coalesce(director, ''), coalesce(rating, 0)
	        FROM movies
	       WHERE id IN (` + sb.String() + `)
	    ORDER BY id`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]room.Movie, 0, len(ids))
	for rows.Next() {
		var m room.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Poster, &m.Year, &m.Director, &m.Rating); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
