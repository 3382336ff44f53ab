package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"moviedrawgo/internal/redis/roomevents"
	"moviedrawgo/internal/services/room"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverRoomClosedDisconnectsMembers(t *testing.T) {
	hub := NewHub()
	sm := newSubscriptionManager(nil, hub)
	a, cliA := dialPair(t)
	b, cliB := dialPair(t)
	other, cliOther := dialPair(t)
	hub.Join("ABC123", a)
	hub.Join("ABC123", b)
	hub.Join("XYZ789", other)

	ctx, cancel := context.WithCancel(context.Background())
	e := &subEntry{refCnt: 2, cancel: cancel, ready: make(chan struct{})}
	sm.subs["ABC123"] = e

	payload, err := roomevents.Encode(room.EventRoomClosed, room.RoomClosed{Reason: room.ReasonHostLeft})
	require.NoError(t, err)

	require.True(t, sm.deliver("ABC123", payload))
	sm.drop("ABC123", e)

	for _, cli := range []*websocket.Conn{cliA, cliB} {
		require.NoError(t, cli.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := cli.ReadMessage()
		require.NoError(t, err)

		var f frame
		require.NoError(t, json.Unmarshal(msg, &f))
		assert.Equal(t, room.EventRoomClosed, f.Event)
		assert.JSONEq(t, `{"reason":"host-left"}`, string(f.Body))

		_, _, err = cli.ReadMessage()
		assert.Error(t, err, "connection should be closed after room-closed")
	}

	assert.Equal(t, 0, hub.Members("ABC123"))
	assert.Equal(t, 1, hub.Members("XYZ789"))
	noFrame(t, cliOther)

	assert.Empty(t, sm.subs)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestDeliverKeepsRoomOpenForOtherEvents(t *testing.T) {
	hub := NewHub()
	sm := newSubscriptionManager(nil, hub)
	a, cliA := dialPair(t)
	hub.Join("ABC123", a)

	payload, err := roomevents.Encode(room.EventRoomUpdated, map[string]string{"status": "waiting"})
	require.NoError(t, err)

	assert.False(t, sm.deliver("ABC123", payload))
	assert.False(t, sm.deliver("ABC123", []byte("not json")))

	assert.Equal(t, room.EventRoomUpdated, readFrame(t, cliA).Event)
	assert.Equal(t, 1, hub.Members("ABC123"))
}
