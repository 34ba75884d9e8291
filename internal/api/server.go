// Package api exposes the engine over HTTP: surveys and their responses,
// campaign lifecycle operations, and campaign analytics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/nps-engine/internal/config"
	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/service/survey"
)

// Server is the API server.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
	router  *chi.Mux
}

// Handlers bundles the services the HTTP layer fronts.
type Handlers struct {
	surveys   *survey.Service
	campaigns *campaign.Service
	ledger    *ledger.Service
	analytics *analytics.Service
}

// NewHandlers creates the handler set.
func NewHandlers(surveys *survey.Service, campaigns *campaign.Service, led *ledger.Service, an *analytics.Service) *Handlers {
	return &Handlers{surveys: surveys, campaigns: campaigns, ledger: led, analytics: an}
}

// NewServer creates an API server around the handler set.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	router := SetupRoutes(h, cfg.AllowedOrigins)
	return &Server{
		config:  cfg,
		handler: router,
		router:  router,
	}
}

// Mount attaches an extra handler tree under the given pattern. Used in dev
// mode to serve the tracking endpoints from the main server.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
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

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
