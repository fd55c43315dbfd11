// Package server exposes the export pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz         build information
//	GET  /metrics         Prometheus metrics
//	GET  /v1/sample.png   preview of the welcome drawing (?width=&height=)
//	POST /v1/plan         page plan for the drawing in the body
//	POST /v1/export       rendered pages for the drawing in the body
//
// Plan and export read their options from the query string: layout, view,
// paper (repeatable), margin, and for export also format, theme and
// no_text. Errors are JSON objects with "error" and "code" fields and an
// HTTP status derived from the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/cadpage/pkg/observability"
	"github.com/matzehuels/cadpage/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes limits uploaded drawings.
	DefaultMaxBodyBytes = 32 << 20

	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	Runner *pipeline.Runner
	Logger *log.Logger

	// Defaults seed every request's options; query parameters override them.
	Defaults pipeline.Options

	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Hooks receives request events. Nil uses observability.HTTP().
	Hooks observability.HTTPHooks

	MaxBodyBytes int64
}

// New returns a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{Runner: runner, Logger: logger, MaxBodyBytes: DefaultMaxBodyBytes}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sample.png", s.handleSample)
		r.Post("/plan", s.handlePlan)
		r.Post("/export", s.handleExport)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found", Code: "NOT_FOUND"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) gatherer() prometheus.Gatherer {
	if s.Gatherer != nil {
		return s.Gatherer
	}
	return prometheus.DefaultGatherer
}

func (s *Server) hooks() observability.HTTPHooks {
	if s.Hooks != nil {
		return s.Hooks
	}
	return observability.HTTP()
}
