// Package server provides the HTTP handlers and routing for the MCP server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"crypto-mcp/internal/protocol"
	"crypto-mcp/internal/registry"
)

const maxBodyBytes = 1 << 20

// Config contains server configuration values such as the service identity, auth token, and prefetch list.
type Config struct {
	Name            string
	Version         string
	Token           string
	PrefetchSymbols []string
}

// Prefetcher warms upstream caches for a list of symbols and reports how many succeeded.
type Prefetcher interface {
	Prefetch(ctx context.Context, symbols []string) int
}

// Server contains the configured router, registry, protocol handler, and config for the MCP server.
type Server struct {
	cfg      Config
	router   *chi.Mux
	registry *registry.Registry
	rpc      *protocol.Handler
	prefetch Prefetcher
	log      *slog.Logger
}

// New constructs a Server with middleware and routes configured. prefetch may be nil.
func New(cfg Config, reg *registry.Registry, prefetch Prefetcher, log *slog.Logger) *Server {
	if cfg.Name == "" {
		cfg.Name = "MultiServer"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		registry: reg,
		rpc:      protocol.NewHandler(reg, cfg.Name, cfg.Version, log),
		prefetch: prefetch,
		log:      log,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/servers", s.handleServers)

	s.router.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/sse", s.handleRPC)
		r.Route("/mcp", func(r chi.Router) {
			r.Post("/", s.handleRPC)
			r.Get("/tools", s.handleListTools)
			r.Post("/call", s.handleCall)
			r.Post("/scheduled", s.handleScheduled)
		})
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  s.cfg.Name,
		"version":  s.cfg.Version,
		"status":   "running",
		"servers":  s.registry.Servers(),
		"protocol": "MCP over HTTP",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"servers": s.registry.Servers(),
	})
}

func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"servers": s.registry.Servers()})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read body"})
		return
	}
	resp, parseErr := s.rpc.HandleBytes(r.Context(), body)
	status := http.StatusOK
	if parseErr {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.ListAllTools()})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req protocol.CallParams
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		result any
		err    error
	)
	if req.Server != "" {
		result, err = s.registry.CallToolOn(r.Context(), req.Server, req.Name, req.Arguments)
	} else {
		result, err = s.registry.CallTool(r.Context(), req.Name, req.Arguments)
	}
	switch {
	case errors.Is(err, registry.ErrToolNotFound), errors.Is(err, registry.ErrServerNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, registry.ErrInvalidArguments):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		s.log.Error("tool call failed", "tool", req.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// handleScheduled is intended to be called by a scheduler (e.g., GitHub Actions) to warm the price cache.
func (s *Server) handleScheduled(w http.ResponseWriter, r *http.Request) {
	warmed := 0
	if s.prefetch != nil && len(s.cfg.PrefetchSymbols) > 0 {
		warmed = s.prefetch.Prefetch(r.Context(), s.cfg.PrefetchSymbols)
	}
	s.log.Info("scheduled prefetch", "symbols", len(s.cfg.PrefetchSymbols), "warmed", warmed)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "scheduled task completed",
		"requested": len(s.cfg.PrefetchSymbols),
		"warmed":    warmed,
	})
}
