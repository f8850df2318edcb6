package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sol-arena/internal/game"
	"sol-arena/internal/journal"
)

// RouterConfig contains everything the HTTP surface needs. The struct is
// built for dependency injection so tests can run against httptest with a
// small pool and a throwaway journal.
type RouterConfig struct {
	Pool    *game.Pool
	Journal *journal.Journal
	Hub     *Hub

	// RateLimiter is optional; a default one is created when nil.
	RateLimiter *IPRateLimiter

	// CORSOrigins defaults to localhost-only when nil.
	CORSOrigins []string

	// DisableLogging drops the request logger, useful in benchmarks.
	DisableLogging bool
}

// NewRouter constructs the router without side effects: no goroutines, no
// listeners. Safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting sits before CORS so floods are rejected cheaply.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &handlers{pool: cfg.Pool, journal: cfg.Journal}

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleStats)
		r.Get("/leaderboard", h.handleLeaderboard)
		r.Get("/rooms", h.handleRooms)
		r.Get("/rooms/{id}", h.handleRoom)

		r.Post("/cashout", h.handleCashOut)

		r.Get("/settlements", h.handleSettlements)
		r.Get("/earnings/{address}", h.handleEarnings)
	})

	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.HandlePlayerWS)
		r.Get("/ws/spectate", cfg.Hub.HandleSpectateWS)
	}

	return r
}
