// Package web provides the HTTP API for schedules, run history and ad-hoc
// imports.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/woimport/internal/core"
	mw "github.com/JonMunkholm/woimport/internal/web/middleware"
)

// Options holds HTTP server settings.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration // Per-request middleware timeout (default: 60s)
	MaxUploadSize  int64         // Largest accepted request body for imports (default: 50MB)
	TrustedProxies []string

	// Ping checks the database for /healthz; nil skips the check.
	Ping func(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	service *core.Service
	router  *chi.Mux
	server  *http.Server
	opts    Options
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 50 << 20
	}

	s := &Server{
		service: service,
		router:  chi.NewRouter(),
		opts:    opts,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Per-project collections
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Post("/schedules", s.handleCreateSchedule)
			r.Get("/schedules", s.handleListSchedules)
			r.Get("/history", s.handleProjectHistory)
			r.Post("/imports", s.handleImport)
			r.Post("/imports/preview", s.handlePreview)
		})

		// Single schedule
		r.Route("/schedules/{scheduleID}", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)
			r.Put("/", s.handleUpdateSchedule)
			r.Delete("/", s.handleDeleteSchedule)
			r.Post("/run", s.handleRunNow)
			r.Post("/reset", s.handleResetMarker)
			r.Get("/history", s.handleScheduleHistory)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness and the number of runs in progress.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ping(ctx); err != nil {
			slog.Warn("health check: database unreachable", "error", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]interface{}{"status": "unavailable"})
			return
		}
	}
	render.JSON(w, r, map[string]interface{}{
		"status":     "ok",
		"activeRuns": s.service.ActiveRuns(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The API serves no documents
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}
