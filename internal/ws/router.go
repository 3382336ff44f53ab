package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	errUnknownEvent = errors.New("unknown_event")
	errBadRequest   = errors.New("bad_request")
)

var validate = validator.New()

// quietError marks a failure that is reported through the ack only.
type quietError struct{ error }

func (e quietError) Unwrap() error { return e.error }

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error)

type route struct {
	h     rawHandler
	quiet bool
}

// HandlerOption tweaks a single registration.
type HandlerOption func(*route)

// Quiet suppresses the error frame for failures of this event; the caller
// only sees {"ok":false} in the ack.
func Quiet() HandlerOption { return func(r *route) { r.quiet = true } }

// Router keeps a map[event]handler, à‑la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]route
}

func NewRouter() *Router { return &Router{handlers: make(map[string]route)} }

// Register binds an event to a strongly‑typed handler. Struct bodies are
// validated with their `validate` tags before h runs.
func Register[Req any, Res any](
	r *Router,
	event string,
	h func(ctx context.Context, c *ConnContext, req Req) (Res, error),
	opts ...HandlerOption,
) {
	if event == "" {
		panic("ws router: empty event")
	}

	rt := route{
		h: func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error) {
			var req Req
			if len(body) > 0 {
				if err := json.Unmarshal(body, &req); err != nil {
					return nil, fmt.Errorf("%w: %v", errBadRequest, err)
				}
			}
			if err := validate.Struct(req); err != nil {
				var inv *validator.InvalidValidationError
				if !errors.As(err, &inv) {
					return nil, fmt.Errorf("%w: %v", errBadRequest, err)
				}
			}
			return h(ctx, c, req)
		},
	}
	for _, o := range opts {
		o(&rt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = rt
}

// dispatch is called by the server’s reader loop.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env Envelope) (any, error) {
	r.mu.RLock()
	rt, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return nil, errUnknownEvent
	}
	res, err := rt.h(ctx, c, env.Body)
	if err != nil && rt.quiet {
		return nil, quietError{err}
	}
	return res, err
}
