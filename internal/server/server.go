// Package server is the reference evaluator and history service the
// calculator client talks to. It evaluates expressions, records every
// successful evaluation in a store and notifies websocket subscribers when
// the history changes.
package server

import (
	"context"
	"net"
	"time"

	"github.com/conneroisu/abacus/internal/config"
	"github.com/conneroisu/abacus/internal/errors"
	apphttp "github.com/conneroisu/abacus/internal/http"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/middleware"
	"github.com/conneroisu/abacus/internal/store"
	"github.com/conneroisu/abacus/internal/websocket"
)

// hubShutdownTimeout bounds closing websocket subscribers on shutdown.
const hubShutdownTimeout = 5 * time.Second

// Server wires the store, the websocket hub and the HTTP router together.
type Server struct {
	config  *config.Config
	store   store.Store
	hub     *websocket.Hub
	router  *apphttp.Router
	logger  logging.Logger
	errs    *errors.ErrorHandler
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// anyOrigin accepts every websocket origin.
type anyOrigin struct{}

func (anyOrigin) IsAllowedOrigin(string) bool { return true }

// New creates a server backed by st. The store stays owned by the caller.
func New(cfg *config.Config, st store.Store, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "server: config cannot be nil")
	}
	if st == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "server: store cannot be nil")
	}

	s := &Server{
		config:  cfg,
		store:   st,
		logger:  logging.NewNop(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	s.errs = errors.NewErrorHandler(s.logger)

	var origins websocket.OriginValidator = websocket.AllowedOrigins(cfg.Server.AllowedOrigins)
	if cfg.Server.Environment == config.EnvDevelopment {
		origins = anyOrigin{}
	}
	s.hub = websocket.NewHub(origins, s.logger)

	chain := middleware.NewChain(middleware.Dependencies{Config: cfg, Logger: s.logger})
	s.router = apphttp.NewRouter(cfg, s, chain)

	return s, nil
}

// Router exposes the router, mainly for tests.
func (s *Server) Router() *apphttp.Router {
	return s.router
}

// Hub exposes the websocket hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Start listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting server", "addr", s.config.Server.Addr(), "environment", s.config.Server.Environment)
	err := s.router.Start(ctx)
	s.stopHub()
	return err
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info(ctx, "Starting server", "addr", ln.Addr().String(), "environment", s.config.Server.Environment)
	err := s.router.Serve(ctx, ln)
	s.stopHub()
	return err
}

// Shutdown disconnects subscribers and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, err, "WebSocket hub did not stop cleanly")
	}
	return s.router.Shutdown(ctx)
}

func (s *Server) stopHub() {
	ctx, cancel := context.WithTimeout(context.Background(), hubShutdownTimeout)
	defer cancel()
	if err := s.hub.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, err, "WebSocket hub did not stop cleanly")
	}
	s.logger.Info(ctx, "Server stopped")
}
