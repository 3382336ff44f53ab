package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubJoinLeave(t *testing.T) {
	h := NewHub()
	c, _ := dialPair(t)

	assert.True(t, h.Join("ABC123", c))
	assert.False(t, h.Join("ABC123", c))
	assert.Equal(t, 1, h.Members("ABC123"))

	assert.True(t, h.Leave("ABC123", c))
	assert.False(t, h.Leave("ABC123", c))
	assert.False(t, h.Leave("NOPE00", c))
	assert.Equal(t, 0, h.Members("ABC123"))
}

func TestHubBroadcastOnlyToRoom(t *testing.T) {
	h := NewHub()
	a, cliA := dialPair(t)
	b, cliB := dialPair(t)
	other, cliOther := dialPair(t)

	h.Join("ABC123", a)
	h.Join("ABC123", b)
	h.Join("XYZ789", other)

	h.Broadcast("ABC123", []byte(`{"event":"room-updated","body":{"status":"waiting"}}`))

	assert.Equal(t, "room-updated", readFrame(t, cliA).Event)
	assert.Equal(t, "room-updated", readFrame(t, cliB).Event)
	noFrame(t, cliOther)
}

func TestHubCloseRoom(t *testing.T) {
	h := NewHub()
	a, cliA := dialPair(t)
	b, _ := dialPair(t)
	h.Join("ABC123", a)
	h.Join("ABC123", b)

	assert.Equal(t, 2, h.CloseRoom("ABC123"))
	assert.Equal(t, 0, h.Members("ABC123"))
	assert.Equal(t, 0, h.CloseRoom("ABC123"))

	require.NoError(t, cliA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := cliA.ReadMessage()
	assert.Error(t, err)

	select {
	case <-b.done:
	default:
		t.Fatal("connection not closed")
	}
}

func TestHubDrop(t *testing.T) {
	h := NewHub()
	c, _ := dialPair(t)
	keep, _ := dialPair(t)

	h.Join("ABC123", c)
	h.Join("XYZ789", c)
	h.Join("XYZ789", keep)

	assert.ElementsMatch(t, []string{"ABC123", "XYZ789"}, h.Drop(c))
	assert.Equal(t, 0, h.Members("ABC123"))
	assert.Equal(t, 1, h.Members("XYZ789"))
	assert.Empty(t, h.Drop(c))
}
