package http

import (
	"context"
	"net/http"
	"time"

	"github.com/w-h-a/consult/server"
)

type Middleware func(h http.Handler) http.Handler

type middlewareKey struct{}

type timeoutsKey struct{}

// Timeouts bound how long a single connection may hold the server.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

var defaultTimeouts = Timeouts{
	ReadHeader: 10 * time.Second,
	Idle:       120 * time.Second,
}

// WithMiddleware wraps the handler; the first middleware given is the outermost.
func WithMiddleware(ms ...Middleware) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

func MiddlewareFrom(ctx context.Context) ([]Middleware, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]Middleware)
	return ms, ok
}

// WithTimeouts replaces the connection timeouts. Zero leaves a timeout unbounded.
func WithTimeouts(t Timeouts) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, timeoutsKey{}, t)
	}
}

func TimeoutsFrom(ctx context.Context) Timeouts {
	if t, ok := ctx.Value(timeoutsKey{}).(Timeouts); ok {
		return t
	}
	return defaultTimeouts
}
