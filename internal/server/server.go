// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parcinfo-verifier/internal/alert"
	"parcinfo-verifier/internal/audit"
	"parcinfo-verifier/internal/cache"
	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/loopguard"
	"parcinfo-verifier/internal/pipeline"
)

// HealthChecker pings one backing service.
type HealthChecker func(ctx context.Context) error

// Server wires the pipeline, cache and guard behind HTTP handlers.
type Server struct {
	httpServer *http.Server
	cfg        config.ServerConfig
	logger     logger.Logger

	pipeline *pipeline.Pipeline
	cache    *cache.Manager   // may be nil
	guard    *loopguard.Guard // may be nil
	audit    *audit.Indexer   // may be nil
	alerts   *alert.Notifier  // may be nil

	checks map[string]HealthChecker
}

// Option configures optional server collaborators.
type Option func(*Server)

func WithCache(manager *cache.Manager) Option {
	return func(s *Server) { s.cache = manager }
}

func WithLoopGuard(guard *loopguard.Guard) Option {
	return func(s *Server) { s.guard = guard }
}

// WithHealthCheck registers a named dependency ping for /healthz.
func WithHealthCheck(name string, check HealthChecker) Option {
	return func(s *Server) { s.checks[name] = check }
}

func New(cfg config.ServerConfig, p *pipeline.Pipeline, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   log,
		pipeline: p,
		checks:   make(map[string]HealthChecker),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /verify", s.handleVerify)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.cfg.Address})
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
