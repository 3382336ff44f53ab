package ws

import (
	"sync"
	"time"

	"moviedrawgo/internal/redis/roomevents"
	"moviedrawgo/internal/services/room"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// clientConn is one websocket peer. gorilla allows a single concurrent
// writer, so every frame goes through mu.
type clientConn struct {
	id      string
	rawConn *websocket.Conn
	mu      sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

var _ room.Conn = (*clientConn)(nil)

func newClientConn(raw *websocket.Conn) *clientConn {
	return &clientConn{
		id:      uuid.NewString(),
		rawConn: raw,
		done:    make(chan struct{}),
	}
}

func (c *clientConn) ID() string { return c.id }

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data) // Text/Binary only
}

// Send writes a single {event, body} frame to this connection only.
func (c *clientConn) Send(event string, body any) error {
	msg, err := roomevents.Encode(event, body)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, msg)
}

// Kick tells the peer why it is being dropped and closes the connection.
func (c *clientConn) Kick(reason string) {
	if err := c.Send(room.EventKicked, KickedBody{Reason: reason}); err != nil {
		zap.L().Debug("ws.kick_write", zap.String("conn", c.id), zap.Error(err))
	}
	_ = c.rawConn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(writeWait))
	c.close()
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.rawConn.Close()
	})
}
