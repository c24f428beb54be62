package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/w-h-a/consult/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ server.Server = (*Server)(nil)

// Server is a net/http server traced with otelhttp.
type Server struct {
	options  server.Options
	srv      *http.Server
	listener net.Listener
	mtx      sync.Mutex
	errCh    chan error
}

func (s *Server) Options() server.Options {
	return s.options
}

// Start listens and serves in the background. Listen errors are returned directly.
func (s *Server) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.listener != nil {
		return errors.New("http server already started")
	}

	listener, err := net.Listen("tcp", s.options.Address)
	if err != nil {
		return err
	}

	s.listener = listener

	errCh := make(chan error, 1)
	s.errCh = errCh

	slog.InfoContext(s.options.Context, "http server listening", "address", listener.Addr().String())

	go func() {
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(s.options.Context, "http server stopped", "error", err)
			errCh <- err
		}
		close(errCh)
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.listener == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.options.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}

	s.listener = nil

	return <-s.errCh
}

// Err is nil until Start has been called.
func (s *Server) Err() <-chan error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.errCh
}

// Addr reports the bound address once started, which matters for ":0".
func (s *Server) Addr() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.listener == nil {
		return s.options.Address
	}
	return s.listener.Addr().String()
}

func NewServer(opts ...server.Option) *Server {
	options := server.NewOptions(opts...)

	handler := options.Handler
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	handler = otelhttp.NewHandler(handler, "consult")

	timeouts := TimeoutsFrom(options.Context)

	return &Server{
		options: options,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			ReadTimeout:       timeouts.Read,
			WriteTimeout:      timeouts.Write,
			IdleTimeout:       timeouts.Idle,
		},
	}
}
