package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/w-h-a/consult"
	handler "github.com/w-h-a/consult/internal/handler/http"
	"github.com/w-h-a/consult/server"
	httpserver "github.com/w-h-a/consult/server/http"
)

type ServeCmd struct {
	Address         string        `help:"Address to listen on" default:":8000" env:"CONSULT_ADDRESS"`
	UploadDir       string        `help:"Directory for uploads while they are processed" default:"" env:"CONSULT_UPLOAD_DIR"`
	MaxUploadBytes  int64         `help:"Largest accepted audio upload" default:"67108864" env:"CONSULT_MAX_UPLOAD_BYTES"`
	ShutdownTimeout time.Duration `help:"Grace period for in-flight requests" default:"10s" env:"CONSULT_SHUTDOWN_TIMEOUT"`
	IdleTimeout     time.Duration `help:"How long idle keep-alive connections stay open" default:"2m" env:"CONSULT_IDLE_TIMEOUT"`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildConsult(ctx, g, optionalTranscriber)
	if err != nil {
		return err
	}
	defer svc.Close()

	h, err := handler.NewHandler(svc, c.UploadDir, c.MaxUploadBytes)
	if err != nil {
		return err
	}

	srv := httpserver.NewServer(
		server.WithAddress(c.Address),
		server.WithHandler(h.Router()),
		server.WithShutdownTimeout(c.ShutdownTimeout),
		httpserver.WithMiddleware(handler.Recover, handler.LogRequests),
		httpserver.WithTimeouts(httpserver.Timeouts{ReadHeader: 10 * time.Second, Idle: c.IdleTimeout}),
	)

	if err := srv.Start(); err != nil {
		return err
	}

	return serveUntilDone(ctx, srv)
}

// serveUntilDone blocks until ctx is cancelled or the server fails on its own.
func serveUntilDone(ctx context.Context, srv server.Server) error {
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		return srv.Stop(context.Background())
	case err := <-srv.Err():
		if stopErr := srv.Stop(context.Background()); stopErr != nil {
			slog.Error("failed to stop server", "error", stopErr)
		}
		if err == nil {
			err = errors.New("http server stopped unexpectedly")
		}
		return err
	}
}

type AskCmd struct {
	Question []string `arg:"" help:"Question about stored conversations"`
}

func (c *AskCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildConsult(ctx, g, noTranscriber)
	if err != nil {
		return err
	}
	defer svc.Close()

	rsp, err := svc.Answer(ctx, strings.Join(c.Question, " "))
	if err != nil {
		return err
	}

	return printJSON(rsp)
}

type IngestCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Audio files to ingest"`
}

type ingestLine struct {
	Filename string                `json:"filename"`
	Result   *consult.IngestResult `json:"result,omitempty"`
	Error    string                `json:"error,omitempty"`
}

func (c *IngestCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildConsult(ctx, g, requiredTranscriber)
	if err != nil {
		return err
	}
	defer svc.Close()

	uploads := make([]consult.Upload, 0, len(c.Files))
	for _, file := range c.Files {
		uploads = append(uploads, consult.Upload{Path: file, Filename: filepath.Base(file)})
	}

	lines := make([]ingestLine, 0, len(uploads))

	var failed int

	for _, outcome := range svc.IngestAll(ctx, uploads) {
		line := ingestLine{Filename: outcome.Upload.Filename}
		if outcome.Err != nil {
			failed++
			line.Error = outcome.Err.Error()
		} else {
			result := outcome.Result
			line.Result = &result
		}
		lines = append(lines, line)
	}

	if err := printJSON(lines); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(uploads))
	}

	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
