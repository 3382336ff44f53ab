package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "join-room"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// JoinRoomRequest is the body for "join-room".
type JoinRoomRequest struct {
	RoomCode      string `json:"roomCode"      validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
	DisplayName   string `json:"displayName"   validate:"max=64"`
}

// RoomRequest is the body for "leave-room", "start-draw" and "reset-room".
type RoomRequest struct {
	RoomCode      string `json:"roomCode"      validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
}

// UpdateUserMoviesRequest is the body for "update-user-movies". An empty
// list clears the selection.
type UpdateUserMoviesRequest struct {
	RoomCode      string   `json:"roomCode"      validate:"required"`
	ParticipantID string   `json:"participantId" validate:"required"`
	SelectedIDs   []string `json:"selectedIds"   validate:"max=200,dive,required"`
}

// AckBody answers every inbound event as "<event>-ack".
type AckBody struct {
	OK bool `json:"ok"`
}

type KickedBody struct {
	Reason string `json:"reason"`
}
