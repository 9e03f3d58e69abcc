// Package server exposes the daemon's HTTP API and metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/awylder/switchsync/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Route is one HTTP endpoint contributed by a module. Path is relative to the
// module's mount point and may use http.ServeMux patterns ({host}, {id}).
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// RouteProvider is a module that contributes HTTP routes. Routes are mounted
// under /api/v1/{name}.
type RouteProvider interface {
	Name() string
	Routes() []Route
}

// Server is the switchsync HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// New creates a server with core routes, the metrics endpoint backed by
// gatherer, and every provider's routes mounted.
func New(addr string, gatherer prometheus.Gatherer, logger *zap.Logger, providers ...RouteProvider) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	for _, p := range providers {
		s.mount(p)
	}

	return s
}

// mount registers all of a provider's routes under /api/v1/{name}.
func (s *Server) mount(p RouteProvider) {
	for _, route := range p.Routes() {
		pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, p.Name(), route.Path)
		s.mux.HandleFunc(pattern, route.Handler)
		s.logger.Debug("mounted route",
			zap.String("module", p.Name()),
			zap.String("pattern", pattern),
		)
	}
}

// Handler returns the server's root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Switchsync-Version", version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "switchsync",
		"version": version.Map(),
	})
}
