// Package server exposes the two core operations to the canvas editor
// over localhost HTTP: incremental connection validation and full
// snapshot compilation. The editor owns all mutable graph state; every
// request carries the snapshot data it wants judged.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/notatio-labs/curricc/internal/engine"
)

// Config holds configuration for the editor API server.
type Config struct {
	Engine *engine.Engine
	Port   int
	Logger *slog.Logger
}

// Server is the editor-facing HTTP API.
type Server struct {
	engine *engine.Engine
	port   int
	logger *slog.Logger
}

// New creates a server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{engine: cfg.Engine, port: cfg.Port, logger: logger}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.Timeout(30*time.Second),
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/connections/validate", s.handleValidateConnection)
		r.Post("/compile", s.handleCompile)
		r.Get("/graph/stats", s.handleGraphStats)
		r.Get("/runs", s.handleListRuns)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.logger.Info("starting editor API", "addr", fmt.Sprintf("http://%s", addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down editor API")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
