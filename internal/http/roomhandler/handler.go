package roomhandler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"moviedrawgo/internal/services/room"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc     room.IRoomService
	timeout time.Duration
}

// New returns the REST handlers. timeout bounds the service call of each
// request; zero leaves only the client's own cancellation.
func New(svc room.IRoomService, timeout time.Duration) *Handler {
	return &Handler{svc: svc, timeout: timeout}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/rooms", h.create)
	r.GET("/rooms/:code", h.info)
	r.GET("/history", h.history)
}

// @Summary		Create a room
// @Description	Allocates a fresh room code. The host becomes the first participant.
// @Tags			Rooms
// @Param			body	body		CreateRoomBody	true	"Host payload"
// @Success		201		{object}	room.Room
// @Failure		400		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/rooms [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateRoomBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := h.context(ginCtx)
	defer cancel()

	r, err := h.svc.CreateRoom(ctx, body.HostID, body.HostName)
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusCreated, r)
}

// @Summary		Get room details
// @Description	Returns the room with the display metadata of every selected movie.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"	default(ABC123)
// @Success		200		{object}	room.View
// @Failure		404		{object}	ErrorResponse
// @Router			/rooms/{code} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	ctx, cancel := h.context(ginCtx)
	defer cancel()

	view, err := h.svc.GetRoom(ctx, ginCtx.Param("code"))
	if err != nil {
		fail(ginCtx, err)
		return
	}
	ginCtx.JSON(http.StatusOK, view)
}

// @Summary		List draw history
// @Description	Retrieves a user's past draws, newest first.
// @Tags			History
// @Param			user_id	query		string	true	"User ID"					default(user123)
// @Param			limit	query		int		false	"Max results (0‑100)"		minimum(0)	maximum(100)	default(20)
// @Param			skip	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{object}	HistoryResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		503		{object}	ErrorResponse
// @Router			/history [get]
func (h *Handler) history(ginCtx *gin.Context) {
	var q HistoryQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := h.context(ginCtx)
	defer cancel()

	items, total, err := h.svc.ListHistory(ctx, q.UserID, q.Limit, q.Skip)
	if err != nil {
		fail(ginCtx, err)
		return
	}
	if items == nil {
		items = []room.HistoryEntry{}
	}
	ginCtx.JSON(http.StatusOK, HistoryResponse{Items: items, Total: total})
}

func (h *Handler) context(ginCtx *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ginCtx.Request.Context())
	}
	return context.WithTimeout(ginCtx.Request.Context(), h.timeout)
}

func fail(ginCtx *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zap.L().Warn("http.request_failed", zap.String("path", ginCtx.FullPath()), zap.Error(err))
		msg = room.ErrTransient.Error()
	}
	ginCtx.JSON(status, &ErrorResponse{Error: msg})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, room.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, room.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
