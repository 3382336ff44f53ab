package room

import (
	"slices"
	"strings"
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusDrawing   Status = "drawing"
	StatusCompleted Status = "completed"
)

// Participant is one user's membership in a room.
type Participant struct {
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	IsHost      bool      `json:"isHost"`
	JoinedAt    time.Time `json:"joinedAt"`
	SelectedIDs []string  `json:"selectedIds"`
}

// DrawResult is the current result cached on the room. It is replaced by
// the next draw and cleared by reset.
type DrawResult struct {
	MovieID    string    `json:"movieId"`
	MovieTitle string    `json:"movieTitle"`
	Seed       int64     `json:"seed"`
	DrawnAt    time.Time `json:"drawnAt"`
}

type Room struct {
	Code         string        `json:"code"`
	HostID       string        `json:"hostId"`
	Participants []Participant `json:"participants"`
	Status       Status        `json:"status"`
	DrawResult   *DrawResult   `json:"drawResult,omitempty"`
	Version      int64         `json:"-"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Movie is a catalog record as returned by the catalog lookup.
type Movie struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Poster   string  `json:"poster"`
	Year     string  `json:"year"`
	Director string  `json:"director"`
	Rating   float64 `json:"rating"`
}

// HistoryEntry is the immutable record of a persisted draw.
type HistoryEntry struct {
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	RoomCode     string    `json:"roomCode"`
	MovieID      string    `json:"movieId"`
	MovieTitle   string    `json:"movieTitle"`
	MoviePoster  string    `json:"moviePoster"`
	MovieYear    string    `json:"movieYear"`
	MovieRating  float64   `json:"movieRating"`
	Participants int       `json:"participants"`
	Seed         int64     `json:"seed"`
	DrawnAt      time.Time `json:"drawnAt"`
}

// NormalizeCode upper-cases and trims a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *Room) participantIndex(userID string) int {
	return slices.IndexFunc(r.Participants, func(p Participant) bool { return p.UserID == userID })
}

func (r *Room) Participant(userID string) (*Participant, bool) {
	i := r.participantIndex(userID)
	if i < 0 {
		return nil, false
	}
	return &r.Participants[i], true
}

// AddParticipant appends userID unless it is already a member. It reports
// whether the room changed.
func (r *Room) AddParticipant(userID, name string, now time.Time) bool {
	if r.participantIndex(userID) >= 0 {
		return false
	}
	r.Participants = append(r.Participants, Participant{
		UserID:      userID,
		Name:        name,
		IsHost:      userID == r.HostID,
		JoinedAt:    now,
		SelectedIDs: []string{},
	})
	return true
}

func (r *Room) RemoveParticipant(userID string) bool {
	i := r.participantIndex(userID)
	if i < 0 {
		return false
	}
	r.Participants = slices.Delete(r.Participants, i, i+1)
	return true
}

// SetSelection replaces the participant's selection with ids, dropping
// duplicates and empty ids.
func (r *Room) SetSelection(userID string, ids []string) bool {
	p, ok := r.Participant(userID)
	if !ok {
		return false
	}
	p.SelectedIDs = dedupe(ids)
	return true
}

// ResetDraw returns the room to waiting and clears every selection.
func (r *Room) ResetDraw() {
	r.Status = StatusWaiting
	r.DrawResult = nil
	for i := range r.Participants {
		r.Participants[i].SelectedIDs = []string{}
	}
}

// Pool is the sorted, deduplicated union of every participant's selection.
func (r *Room) Pool() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range r.Participants {
		for _, id := range p.SelectedIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// PickIndex maps a seed onto a pool of size n. Clients run the same
// computation against the pool order they receive in draw-started.
func PickIndex(seed int64, n int) int {
	if n <= 0 {
		return -1
	}
	i := seed % int64(n)
	if i < 0 {
		i += int64(n)
	}
	return int(i)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *Room) clone() *Room {
	c := *r
	c.Participants = make([]Participant, len(r.Participants))
	for i, p := range r.Participants {
		p.SelectedIDs = slices.Clone(p.SelectedIDs)
		c.Participants[i] = p
	}
	if r.DrawResult != nil {
		dr := *r.DrawResult
		c.DrawResult = &dr
	}
	return &c
}
