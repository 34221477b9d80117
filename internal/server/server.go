// Package server provides the HTTP server and routing for the deal dashboard.
package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/coinvest/internal/database"
	"github.com/aristath/coinvest/internal/events"
	"github.com/aristath/coinvest/internal/modules/deals"
	dealshandlers "github.com/aristath/coinvest/internal/modules/deals/handlers"
	"github.com/aristath/coinvest/internal/observability"
	"github.com/aristath/coinvest/internal/scheduler"
	"github.com/aristath/coinvest/pkg/embedded"
)

// DealStore is the deal repository as seen by the server
type DealStore interface {
	FetchDeals(ctx context.Context) (*deals.Batch, error)
	Refresh(ctx context.Context) (*deals.Batch, error)
	Cached() (*deals.Batch, bool)
	CacheExpiresAt() time.Time
}

// SourceDescriber is implemented by sheet sources that can describe themselves
type SourceDescriber interface {
	Info(ctx context.Context) (deals.SourceInfo, error)
}

// Config holds server configuration
type Config struct {
	Log        zerolog.Logger
	Port       int
	DevMode    bool
	Deals      DealStore
	Presenter  *deals.Presenter
	Source     SourceDescriber // optional
	EventBus   *events.Bus
	Metrics    *observability.Metrics // optional, nil disables /metrics
	Scheduler  *scheduler.Scheduler   // optional
	SnapshotDB *database.DB           // optional
	Version    string
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	server     *http.Server
	log        zerolog.Logger
	port       int
	deals      DealStore
	presenter  *deals.Presenter
	source     SourceDescriber
	eventBus   *events.Bus
	metrics    *observability.Metrics
	scheduler  *scheduler.Scheduler
	snapshotDB *database.DB
	version    string
	startedAt  time.Time
	dashboard  *template.Template
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		port:       cfg.Port,
		deals:      cfg.Deals,
		presenter:  cfg.Presenter,
		source:     cfg.Source,
		eventBus:   cfg.EventBus,
		metrics:    cfg.Metrics,
		scheduler:  cfg.Scheduler,
		snapshotDB: cfg.SnapshotDB,
		version:    cfg.Version,
		startedAt:  time.Now(),
	}

	tmpl, err := parseDashboard(s.presenter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	s.dashboard = tmpl

	s.setupMiddleware(cfg.DevMode)
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open; per-request timeouts come from middleware
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	if s.metrics != nil {
		s.router.Use(s.metrics.InstrumentHandler)
	}

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() error {
	s.router.Get("/health", s.handleHealth)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	static, err := fs.Sub(embedded.Files, "static")
	if err != nil {
		return fmt.Errorf("failed to open embedded static files: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// The SSE stream must not be cut by the request timeout
	eventsStreamHandler := NewEventsStreamHandler(s.eventBus, s.log)
	s.router.Get("/api/events/stream", eventsStreamHandler.ServeHTTP)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleDashboard)
		r.Post("/refresh", s.handleDashboardRefresh)

		r.Route("/api", func(r chi.Router) {
			dealHandler := dealshandlers.NewHandler(s.deals, s.presenter, s.log)
			dealHandler.RegisterRoutes(r)

			r.Get("/source", s.handleSource)
			r.Get("/system/status", s.handleSystemStatus)
		})
	})

	return nil
}

// Router returns the HTTP handler (tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
