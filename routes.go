package main

import (
	"net/http"
	"time"

	"momentum-trader/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *APIHandler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(cfg.HTTP.CORSAllowedOrigins))

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", h.handleHealth)

		// Rebalancing
		r.Route("/rebalance", func(r chi.Router) {
			r.Post("/", h.handleRebalance)
			r.Get("/events", h.handleGetRebalanceEvents)
		})

		// Momentum scores
		r.Route("/scores", func(r chi.Router) {
			r.Get("/", h.handleGetScores)
			r.Get("/statistics", h.handleGetScoreStatistics)
		})

		// Signals
		r.Get("/signals", h.handleGetSignals)

		// Portfolio
		r.Get("/positions", h.handleGetPositions)
		r.Post("/portfolio/sync", h.handleSyncPortfolio)

		// Trades
		r.Get("/trades", h.handleGetTrades)
		r.Post("/trades/poll", h.handlePollTrades)

		// Price history
		r.Post("/prices/backfill", h.handleBackfill)
	})

	return r
}

// corsMiddleware returns CORS middleware with the specified allowed origins
func corsMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
