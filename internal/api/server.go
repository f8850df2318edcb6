package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sol-arena/internal/game"
	"sol-arena/internal/journal"
)

// Server bundles the router, the WebSocket hub, and the HTTP listener.
// Construction is side-effect free; only Start opens the listener.
type Server struct {
	router      *chi.Mux
	hub         *Hub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// ServerConfig wires the server's collaborators together.
type ServerConfig struct {
	Pool            *game.Pool
	Journal         *journal.Journal
	BroadcastRate   int
	MaxConnsTotal   int
	MaxConnsPerIP   int
	InputsPerSecond float64
	InputBurst      int
	CORSOrigins     []string
}

// NewServer builds the full HTTP surface.
func NewServer(cfg ServerConfig) *Server {
	hub := NewHub(HubConfig{
		Pool:            cfg.Pool,
		BroadcastRate:   cfg.BroadcastRate,
		MaxConnsTotal:   cfg.MaxConnsTotal,
		MaxConnsPerIP:   cfg.MaxConnsPerIP,
		InputsPerSecond: cfg.InputsPerSecond,
		InputBurst:      cfg.InputBurst,
		AllowedOrigins:  cfg.CORSOrigins,
	})
	rateLimiter := NewIPRateLimiter(DefaultRateLimitConfig)
	router := NewRouter(RouterConfig{
		Pool:        cfg.Pool,
		Journal:     cfg.Journal,
		Hub:         hub,
		RateLimiter: rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})
	return &Server{router: router, hub: hub, rateLimiter: rateLimiter}
}

// Router exposes the handler for httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start opens the listener and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket sessions write indefinitely
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("🌐 API server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the limiter sweep.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
