package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"moviedrawgo/internal/services/room"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 12 * time.Second
	pingPeriod     = 3 * time.Second // must be < pongWait
	maxMessageSize = 16 << 10

	defaultHandlerTimeout = 5 * time.Second
)

// ConnContext is what a handler knows about the connection it serves.
type ConnContext struct {
	Conn   *clientConn
	Server *WsServer
}

type WsServer struct {
	channel  *RedisChannel
	router   *Router
	roomSvc  room.IRoomService
	upgrader websocket.Upgrader

	// handlerTimeout bounds each inbound event's service call.
	handlerTimeout time.Duration
}

func NewWsServer(channel *RedisChannel, roomSvc room.IRoomService, handlerTimeout time.Duration) *WsServer {
	if handlerTimeout <= 0 {
		handlerTimeout = defaultHandlerTimeout
	}
	srv := &WsServer{
		channel:        channel,
		router:         NewRouter(),
		roomSvc:        roomSvc,
		handlerTimeout: handlerTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true }, // dev‑only
		},
	}
	srv.registerHandlers() // ← all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

// Handle upgrades the request. Rooms are joined with "join-room" afterwards,
// so the socket carries no room or user in its URL.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	conn := newClientConn(rawConn)
	zap.L().Debug("ws.connected", zap.String("conn", conn.ID()), zap.String("remote", ginCtx.ClientIP()))

	go s.reader(conn)
	go s.pinger(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, "join-room",
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) (AckBody, error) {
			return ack(s.roomSvc.Join(ctx, cc.Conn, req.RoomCode, req.ParticipantID, req.DisplayName))
		})

	Register(s.router, "leave-room",
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (AckBody, error) {
			return ack(s.roomSvc.Leave(ctx, cc.Conn, req.RoomCode, req.ParticipantID))
		})

	Register(s.router, "update-user-movies",
		func(ctx context.Context, cc *ConnContext, req UpdateUserMoviesRequest) (AckBody, error) {
			ids := req.SelectedIDs
			if ids == nil {
				ids = []string{}
			}
			return ack(s.roomSvc.UpdateSelection(ctx, req.RoomCode, req.ParticipantID, ids))
		}, Quiet())

	Register(s.router, "start-draw",
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (AckBody, error) {
			return ack(s.roomSvc.StartDraw(ctx, req.RoomCode, req.ParticipantID))
		})

	Register(s.router, "reset-room",
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (AckBody, error) {
			return ack(s.roomSvc.Reset(ctx, req.RoomCode, req.ParticipantID))
		})
}

func ack(err error) (AckBody, error) {
	return AckBody{OK: err == nil}, err
}

func (s *WsServer) reader(conn *clientConn) {
	defer s.disconnect(conn)

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{Conn: conn, Server: s}

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			_ = conn.Send(room.EventError, room.ErrorBody{Message: errBadRequest.Error()})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.handlerTimeout)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		s.reply(conn, env.Event, res, err)
	}
}

// reply sends "<event>-ack". A failure is preceded by an error frame unless
// the handler is quiet.
func (s *WsServer) reply(conn *clientConn, event string, res any, err error) {
	if err == nil {
		_ = conn.Send(event+"-ack", res)
		return
	}

	var q quietError
	if errors.As(err, &q) {
		zap.L().Debug("ws.handler_failed", zap.String("event", event), zap.String("conn", conn.ID()), zap.Error(err))
	} else {
		_ = conn.Send(room.EventError, room.ErrorBody{Message: publicMessage(event, err)})
	}
	_ = conn.Send(event+"-ack", AckBody{OK: false})
}

// publicMessage hides collaborator details behind the transient category.
func publicMessage(event string, err error) string {
	if errors.Is(err, room.ErrTransient) {
		zap.L().Warn("ws.handler_failed", zap.String("event", event), zap.Error(err))
		return room.ErrTransient.Error()
	}
	return err.Error()
}

func (s *WsServer) disconnect(conn *clientConn) {
	conn.close()
	s.channel.forget(conn)
	s.roomSvc.Disconnect(conn.ID())
	zap.L().Debug("ws.disconnected", zap.String("conn", conn.ID()))
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			err := conn.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil {
				conn.close()
				return
			}
		}
	}
}
