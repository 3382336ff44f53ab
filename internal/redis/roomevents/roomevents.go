// Package roomevents names the Redis pub/sub channels rooms broadcast on and
// encodes the frames carried on them. A frame is published in the same
// envelope the websocket clients receive, so subscribers forward it as is.
package roomevents

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type frame struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Channel returns "room:<CODE>:events".
func Channel(code string) string { return "room:" + code + ":events" }

func Encode(event string, body any) ([]byte, error) {
	return json.Marshal(frame{Event: event, Body: body})
}

// Peek returns the event name of an encoded frame.
func Peek(payload []byte) (string, error) {
	var f struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(payload, &f); err != nil {
		return "", err
	}
	return f.Event, nil
}

// Publish encodes and publishes one frame to the room's channel.
func Publish(ctx context.Context, rdb redis.Cmdable, code, event string, body any) error {
	payload, err := Encode(event, body)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, Channel(code), payload).Err()
}
