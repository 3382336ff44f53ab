package room

const (
	EventRoomUpdated = "room-updated"
	EventDrawStarted = "draw-started"
	EventDrawResult  = "draw-result"
	EventRoomReset   = "room-reset"
	EventRoomClosed  = "room-closed"
	EventKicked      = "kicked"
	EventError       = "error"
)

const (
	ReasonHostLeft = "host-left"
	ReasonExpired  = "expired"
)

// MovieSummary is the display metadata of a selected movie.
type MovieSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Poster string  `json:"poster"`
	Year   string  `json:"year"`
	Rating float64 `json:"rating"`
}

type PoolMovie struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Poster string `json:"poster"`
}

type RoomUpdated struct {
	Participants []Participant           `json:"participants"`
	Status       Status                  `json:"status"`
	ItemsByID    map[string]MovieSummary `json:"itemsById"`
}

type DrawStarted struct {
	Seed int64       `json:"seed"`
	Pool []PoolMovie `json:"pool"`
}

type DrawRevealed struct {
	Item Movie `json:"item"`
}

type RoomReset struct {
	Status       Status        `json:"status"`
	Participants []Participant `json:"participants"`
}

type RoomClosed struct {
	Reason string `json:"reason"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

// View is a room together with the resolved metadata of its selections.
type View struct {
	Room      *Room                   `json:"room"`
	ItemsByID map[string]MovieSummary `json:"itemsById"`
}

func summarize(m Movie) MovieSummary {
	return MovieSummary{ID: m.ID, Title: m.Title, Poster: m.Poster, Year: m.Year, Rating: m.Rating}
}

func poolOf(movies []Movie) []PoolMovie {
	out := make([]PoolMovie, len(movies))
	for i, m := range movies {
		out[i] = PoolMovie{ID: m.ID, Title: m.Title, Poster: m.Poster}
	}
	return out
}
