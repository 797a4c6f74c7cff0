package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phishguard/phishguard/internal/alerts"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/quota"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, eng *engine.Engine, alertEngine *alerts.Engine, renderer domain.ReportRenderer, quotaSvc *quota.Service, version string) *Server {
	handler := NewHandler(repo, cache, bus, eng, alertEngine, renderer, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no user required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (user required)
	router.Route("/", func(r chi.Router) {
		r.Use(UserMiddleware)

		// Analysis submission (rate-limited)
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(quotaSvc))
			r.Post("/analyze", handler.Analyze)
			r.Post("/analyze/async", handler.AnalyzeAsync)
		})

		// Analysis retrieval
		r.Get("/analyses", handler.ListAnalyses)
		r.Get("/analyses/{id}", handler.GetAnalysis)
		r.Delete("/analyses/{id}", handler.DeleteAnalysis)
		r.Get("/analyses/{id}/report", handler.GetReport)

		// Alert rule management
		r.Get("/alert-rules", handler.ListAlertRules)
		r.Post("/alert-rules", handler.CreateAlertRule)
		r.Delete("/alert-rules/{id}", handler.DeleteAlertRule)
		r.Post("/alert-rules/reload", handler.ReloadAlertRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
