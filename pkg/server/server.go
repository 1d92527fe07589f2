// Package server exposes the word cloud pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/clouds   compose and render one cloud; body is a JSON options object
//	GET  /healthz     liveness probe
//	GET  /version     build information
//
// The request body uses the same keys as a config file, plus "format" to
// pick the single artifact returned in the response body:
//
//	{"text": "BRICS", "words": ["Brazil", "India"], "format": "png", "scale": 2}
//
// Omitted keys keep their defaults. Errors are returned as JSON objects
// {"code": "INVALID_CONFIG", "message": "..."} with a status derived from
// the error code.
//
// Every response carries an X-Request-ID header, taken from the request
// when present.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

const (
	// DefaultMaxBodyBytes bounds the request body.
	DefaultMaxBodyBytes = 1 << 20

	// DefaultTimeout bounds a single compose and render.
	DefaultTimeout = 60 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	// Runner executes the pipeline. Its cache is shared by all requests.
	Runner *pipeline.Runner

	// Logger receives one record per request. Defaults to log.Default().
	Logger *log.Logger

	// FontDir enables custom fonts: a request font name is resolved
	// relative to it. Only the embedded font is allowed when empty.
	FontDir string

	// MaxBodyBytes bounds the request body. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Timeout bounds each request's pipeline run. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	fontDir string
	maxBody int64
	timeout time.Duration
	router  chi.Router
}

// New creates a Server. cfg.Runner is required.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		fontDir: cfg.FontDir,
		maxBody: cfg.MaxBodyBytes,
		timeout: cfg.Timeout,
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/clouds", s.handleCreateCloud)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFound(r.URL.Path))
	})
	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
