// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civicpulse/internal/config"
	"civicpulse/internal/server/handlers"
	"civicpulse/internal/service/scoring"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Trends   handlers.TrendStore
	Profiles handlers.ProfileReader
	Results  handlers.ResultReader
	Selector *scoring.Selector

	Refresh  handlers.Runner
	Feedback handlers.Runner
	Decay    handlers.Runner

	NATS     *nats.Conn
	Registry *prometheus.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, scoringCfg config.ScoringConfig, eventsTopic string, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(deps.Trends)
	recommendationHandler := handlers.NewRecommendationHandler(
		deps.Profiles,
		deps.Results,
		deps.Selector,
		scoringCfg.MinScore,
		scoringCfg.SlateSize,
	)
	adminHandler := handlers.NewAdminHandler(deps.Refresh, deps.Feedback, deps.Decay, 0)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Trends API
			r.Route("/trends", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrends)
				r.Get("/{id}", trendHandler.GetTrend)
			})

			// Organization recommendations API
			r.Route("/organizations", func(r chi.Router) {
				r.Get("/{id}/recommendations", recommendationHandler.GetRecommendations)
			})

			// Admin API for manual job triggers and trend curation
			r.Route("/admin", func(r chi.Router) {
				r.Post("/refresh", adminHandler.TriggerRefresh)
				r.Post("/feedback", adminHandler.TriggerFeedback)
				r.Post("/decay", adminHandler.TriggerDecay)
				r.Post("/trends/{id}/resolve", trendHandler.ResolveTrend)
			})
		})
	})

	// Prometheus metrics
	if deps.Registry != nil {
		router.Get("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	// WebSocket endpoint for refresh notifications
	if deps.NATS != nil {
		router.Get("/ws/organizations/{id}", handlers.OrgEventsHandler(deps.NATS, eventsTopic))
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
