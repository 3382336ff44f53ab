package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body"`
}

// dialPair returns both ends of a live websocket: the server side wrapped as
// a clientConn and the raw client side.
func dialPair(t *testing.T) (*clientConn, *websocket.Conn) {
	t.Helper()

	srvConns := make(chan *websocket.Conn, 1)
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		srvConns <- c
	}))
	t.Cleanup(ts.Close)

	cli := dial(t, ts.URL)
	sc := newClientConn(<-srvConns)
	t.Cleanup(sc.close)
	return sc, cli
}

func dial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	cli, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(httpURL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })
	return cli
}

func readFrame(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, c.ReadJSON(&f))
	return f
}

// noFrame asserts nothing arrives within a short window.
func noFrame(t *testing.T, c *websocket.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
}

func send(t *testing.T, c *websocket.Conn, event string, body any) {
	t.Helper()
	require.NoError(t, c.WriteJSON(map[string]any{"event": event, "body": body}))
}
