// Package server assembles the HTTP API over chi.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/errors"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/server/handlers"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/server/middleware"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

// Config carries everything the server needs beyond its dependencies.
type Config struct {
	Host    string
	Port    int
	Version string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Deps are the wired application components the API exposes.
type Deps struct {
	Store    *worklist.Store
	Runner   *batch.Runner
	Registry *status.Registry
	Logger   *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	logger *zap.Logger
	router chi.Router
	http   *http.Server

	listener net.Listener
}

// New builds the server and its route table. baseCtx bounds batch runs
// started over the API; it should be the process lifetime context.
func New(baseCtx context.Context, cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Runner == nil || deps.Registry == nil {
		return nil, fmt.Errorf("server: store, runner, and registry are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.buildRouter(baseCtx, deps)
	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) buildRouter(baseCtx context.Context, deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusNotFound, apperrors.CodeNotFound,
			"route not found: "+req.URL.Path, middleware.GetRequestID(req.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusMethodNotAllowed, apperrors.CodeMethodNotAllowed,
			"method not allowed: "+req.Method, middleware.GetRequestID(req.Context()))
	})

	health := handlers.NewHealthManager(s.cfg.Version)
	r.Get("/health", health.HealthHandler)
	r.Get("/health/live", health.LivenessHandler)
	r.Get("/version", handlers.VersionHandler(s.cfg.Version))

	lists := handlers.NewLists(deps.Store)
	r.Get("/lists", lists.List)
	r.Post("/lists", lists.Save)
	r.Post("/lists/load", lists.Load)

	runs := handlers.NewRuns(baseCtx, deps.Store, deps.Runner, deps.Registry)
	r.Post("/runs", runs.Start)
	r.Get("/runs/{runID}", runs.Status)

	return r
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port reports the bound port; useful when configured with port 0.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.cfg.Port
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Start binds the listener and serves until Shutdown or a fatal error.
// It blocks; http.ErrServerClosed is swallowed as the normal exit.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.http.Addr, err)
	}
	s.listener = ln

	s.logger.Info("HTTP server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("version", s.cfg.Version))

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests. Background batch runs are not
// waited for; their status registers simply stop being pollable.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
