package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-portfolio/kestrel/internal/compliance"
	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/rationalize"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg *domain.Config, repo domain.Repository, cache domain.Cache, bus domain.EventBus, pipeline *rationalize.Engine, complianceEngine *compliance.Engine, version string) *Server {
	handler := NewHandler(cfg, repo, cache, bus, pipeline, complianceEngine, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Portfolio analysis
		r.Post("/portfolios/analyze", handler.AnalyzePortfolio)
		r.Post("/portfolios/analyze/government", handler.AnalyzeGovernment)

		// Analysis retrieval
		r.Get("/analyses/{id}", handler.GetAnalysis)

		// What-if simulation
		r.Post("/scenarios/recommended", handler.RecommendScenarios)
		r.Post("/scenarios/{type}", handler.Simulate)

		// Roadmap sequencing
		r.Post("/roadmap", handler.GenerateRoadmap)
		r.Post("/roadmap/summary", handler.RoadmapSummary)

		// Compliance
		r.Get("/compliance/frameworks", handler.ListFrameworks)
		r.Post("/compliance/{framework}", handler.AssessCompliance)

		// Dependency analysis
		r.Post("/dependencies/graph", handler.DependencyGraph)
		r.Post("/dependencies/blast-radius/{name}", handler.BlastRadius)

		// Cost modeling
		r.Post("/costs/tco", handler.CostAnalysis)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg.Server,
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
