// Package server implements the imagecombiner HTTP service.
//
// Two surfaces are offered. POST /v1/combine is stateless: upload images and
// settings, receive the exported image. The /v1/workspaces routes keep an
// interactive session in memory so a client can add, reorder and remove
// images and change the layout, with the composite recomputed after every
// change.
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

	apierrors "github.com/matzehuels/imagecombiner/pkg/errors"
	"github.com/matzehuels/imagecombiner/pkg/export"
	"github.com/matzehuels/imagecombiner/pkg/layout"
	"github.com/matzehuels/imagecombiner/pkg/pipeline"
	"github.com/matzehuels/imagecombiner/pkg/session"
)

// DefaultMaxUploadBytes bounds a single request body.
const DefaultMaxUploadBytes = 32 << 20

// Config configures a Server.
type Config struct {
	Runner   *pipeline.Runner
	Sessions session.Store
	Logger   *log.Logger

	// Layout and Export are the defaults for requests that omit settings.
	Layout layout.Settings
	Export export.Settings

	MaxUploadBytes int64
	SessionTTL     time.Duration
}

// Server routes HTTP requests to the pipeline and to workspace sessions.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
	layout   layout.Settings
	export   export.Settings
	maxBytes int64
	ttl      time.Duration
	router   chi.Router
}

// New creates a server, filling unset Config fields with defaults.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		layout:   cfg.Layout.WithDefaults(),
		export:   cfg.Export.WithDefaults(),
		maxBytes: cfg.MaxUploadBytes,
		ttl:      cfg.SessionTTL,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.maxBytes <= 0 {
		s.maxBytes = DefaultMaxUploadBytes
	}
	if s.ttl <= 0 {
		s.ttl = session.DefaultTTL
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apierrors.New(apierrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/combine", s.handleCombine)

		r.Route("/workspaces", func(r chi.Router) {
			r.Post("/", s.handleCreateWorkspace)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetWorkspace)
				r.Delete("/", s.handleDeleteWorkspace)
				r.Post("/images", s.handleAddImages)
				r.Delete("/images/{index}", s.handleRemoveImage)
				r.Post("/move", s.handleMove)
				r.Put("/layout", s.handleSetLayout)
				r.Get("/composite", s.handleComposite)
				r.Get("/export", s.handleExport)
			})
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
// Expired sessions are evicted in the background while serving.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go session.RunCleanup(cleanupCtx, s.sessions, time.Minute, func(n int) {
		s.logger.Debug("evicted expired workspaces", "count", n)
	})

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
