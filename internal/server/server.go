// Package server provides the HTTP server and routing for the comptroller.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/config"
	"github.com/aristath/comptroller/internal/di"
	historyhandlers "github.com/aristath/comptroller/internal/modules/history/handlers"
	reporthandlers "github.com/aristath/comptroller/internal/modules/report/handlers"
	snapshothandlers "github.com/aristath/comptroller/internal/modules/snapshot/handlers"
	valuationhandlers "github.com/aristath/comptroller/internal/modules/valuation/handlers"
	"github.com/aristath/comptroller/internal/scheduler"
	"github.com/aristath/comptroller/pkg/logger"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
	Jobs      *di.JobInstances
	Scheduler *scheduler.Scheduler
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       logger.Component(cfg.Log, "server"),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Container,
			cfg.Jobs,
			cfg.Scheduler,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	// WriteTimeout stays zero: the SSE stream and the host WebSocket are long-lived.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Router exposes the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(s.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// allowedOrigins turns host patterns such as "orteil.dashnet.org" into CORS origins.
func allowedOrigins(hosts []string) []string {
	if len(hosts) == 0 {
		return []string{"*"}
	}
	origins := make([]string, 0, len(hosts)*2)
	for _, h := range hosts {
		if h == "*" {
			return []string{"*"}
		}
		origins = append(origins, "https://"+h, "http://"+h)
	}
	return origins
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Long-lived streams sit outside the timeout and compression middleware.
		eventsStream := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStream.ServeHTTP)

		snapshotHandler := snapshothandlers.NewHandler(s.container.SnapshotStore, s.cfg.AllowedOrigins, s.log)
		snapshotHandler.RegisterStreamRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/jobs", s.systemHandlers.HandleListJobs)
				r.Post("/jobs/{name}/run", s.systemHandlers.HandleRunJob)
			})

			snapshotHandler.RegisterRoutes(r)

			valuationhandlers.NewHandler(
				s.container.ValuationService,
				s.container.SnapshotStore,
				valuationhandlers.Options{
					BatchTarget:       s.cfg.BatchTarget,
					MilestoneFraction: s.cfg.MilestoneFraction,
				},
				s.log,
			).RegisterRoutes(r)

			reporthandlers.NewHandler(s.container.ReportService, s.log).RegisterRoutes(r)
			historyhandlers.NewHandler(s.container.HistoryService, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
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
