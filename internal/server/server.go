// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pendergraft/deploykit/internal/config"
	"github.com/pendergraft/deploykit/internal/explorer"
	"github.com/pendergraft/deploykit/internal/middleware/logging"
	"github.com/pendergraft/deploykit/internal/middleware/ratelimit"
	"github.com/pendergraft/deploykit/internal/netconfig"
	"github.com/pendergraft/deploykit/internal/observability/metrics"
	"github.com/pendergraft/deploykit/internal/preflight"
)

// NetworkChecker runs preflight checks against one network
type NetworkChecker interface {
	Check(ctx context.Context, name string, n netconfig.Network) preflight.Result
}

// Server is the HTTP server
type Server struct {
	cfg     *config.Config
	netCfg  *netconfig.Config
	checker NetworkChecker
	logger  *slog.Logger
	router  *chi.Mux

	stopRateLimit func()
}

// NetworkSummary is the listing entry of one network
type NetworkSummary struct {
	Name       string `json:"name"`
	ChainID    int64  `json:"chainId"`
	URL        string `json:"url"`
	Verifiable bool   `json:"verifiable"`
}

// NetworkDetail is a single network with its accounts masked
type NetworkDetail struct {
	NetworkSummary
	Accounts []string `json:"accounts"`
}

// New creates a new server serving netCfg. Secrets are always masked in responses.
func New(cfg *config.Config, netCfg *netconfig.Config, checker NetworkChecker, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		netCfg:  netCfg,
		checker: checker,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background resources held by middleware
func (s *Server) Close() {
	if s.stopRateLimit != nil {
		s.stopRateLimit()
	}
}

func (s *Server) setupMiddleware() {
	// RealIP runs first so logging and rate limiting see the client address
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", metrics.Handler())
	}

	limit, stop := ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
	})
	s.stopRateLimit = stop

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)

		r.Route("/networks", func(r chi.Router) {
			r.Get("/", s.handleListNetworks)
			r.Get("/{name}", s.handleGetNetwork)
			r.Get("/{name}/explorer", s.handleGetExplorer)

			// Checks dial the network's RPC node
			r.With(limit).Post("/{name}/check", s.handleCheckNetwork)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.netCfg.Masked())
}

func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	names := s.netCfg.NetworkNames()
	out := make([]NetworkSummary, 0, len(names))
	for _, name := range names {
		n, _ := s.netCfg.Network(name)
		out = append(out, s.summary(name, n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": out})
}

func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	n, ok := s.netCfg.Network(name)
	if !ok {
		writeError(w, http.StatusNotFound, "NETWORK_NOT_FOUND", "network "+name+" is not declared")
		return
	}

	accounts := make([]string, len(n.Accounts))
	for i, a := range n.Accounts {
		accounts[i] = netconfig.MaskSecret(a)
	}
	writeJSON(w, http.StatusOK, NetworkDetail{
		NetworkSummary: s.summary(name, n),
		Accounts:       accounts,
	})
}

func (s *Server) handleGetExplorer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.netCfg.Network(name); !ok {
		writeError(w, http.StatusNotFound, "NETWORK_NOT_FOUND", "network "+name+" is not declared")
		return
	}

	ep, err := explorer.Resolve(s.netCfg, name)
	if errors.Is(err, explorer.ErrNoExplorer) {
		writeError(w, http.StatusNotFound, "EXPLORER_NOT_FOUND", "network "+name+" has no explorer")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ep.Masked())
}

func (s *Server) handleCheckNetwork(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	n, ok := s.netCfg.Network(name)
	if !ok {
		writeError(w, http.StatusNotFound, "NETWORK_NOT_FOUND", "network "+name+" is not declared")
		return
	}

	result := s.checker.Check(r.Context(), name, n)
	if !result.OK {
		s.logger.Warn("preflight failed", "network", name, "request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) summary(name string, n netconfig.Network) NetworkSummary {
	return NetworkSummary{
		Name:       name,
		ChainID:    n.ChainID,
		URL:        n.URL,
		Verifiable: s.netCfg.Verifiable(name),
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
