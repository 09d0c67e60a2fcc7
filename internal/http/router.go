// Package http routes the reference service's endpoints and owns the
// listening server's lifecycle.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/config"
)

// shutdownTimeout bounds connection draining when Start's context ends.
const shutdownTimeout = 10 * time.Second

// Router handles HTTP server lifecycle and route registration.
//
// Invariants:
// - config, mux and handlers are never nil after construction
// - httpServer is set by NewRouter and never replaced
// - isShutdown is protected by serverMutex
type Router struct {
	config     *config.Config
	httpServer *http.Server
	mux        *http.ServeMux

	serverMutex sync.RWMutex
	isShutdown  bool
	addr        net.Addr

	handlers Handlers
}

// Handlers are the endpoints the router dispatches to.
type Handlers interface {
	HandleEval(w http.ResponseWriter, r *http.Request)
	HandleHistory(w http.ResponseWriter, r *http.Request)
	HandleClearHistory(w http.ResponseWriter, r *http.Request)
	HandleStats(w http.ResponseWriter, r *http.Request)
	HandleHealth(w http.ResponseWriter, r *http.Request)
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
	HandleIndex(w http.ResponseWriter, r *http.Request)
}

// MiddlewareProvider wraps the mux with the middleware stack.
type MiddlewareProvider interface {
	Apply(handler http.Handler) http.Handler
}

// NewRouter registers every route and prepares the server. It panics if a
// dependency is missing or the port is out of range.
func NewRouter(
	config *config.Config,
	handlers Handlers,
	middlewareProvider MiddlewareProvider,
) *Router {
	if config == nil {
		panic("Router: config cannot be nil")
	}
	if handlers == nil {
		panic("Router: handlers cannot be nil")
	}
	if middlewareProvider == nil {
		panic("Router: middlewareProvider cannot be nil")
	}
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		panic(fmt.Sprintf("Router: invalid port %d, must be 0-65535", config.Server.Port))
	}

	router := &Router{
		config:   config,
		mux:      http.NewServeMux(),
		handlers: handlers,
	}
	router.registerRoutes()

	router.httpServer = &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           middlewareProvider.Apply(router.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return router
}

func (r *Router) registerRoutes() {
	r.mux.HandleFunc(api.PathEval, allow(http.MethodPost, r.handlers.HandleEval))
	r.mux.HandleFunc(api.PathHistory, allow(http.MethodGet, r.handlers.HandleHistory))
	r.mux.HandleFunc(api.PathHistoryClear, allow(http.MethodPost, r.handlers.HandleClearHistory))
	r.mux.HandleFunc(api.PathStats, allow(http.MethodGet, r.handlers.HandleStats))
	r.mux.HandleFunc(api.PathHealth, allow(http.MethodGet, r.handlers.HandleHealth))
	r.mux.HandleFunc(api.PathEvents, r.handlers.HandleWebSocket)
	r.mux.HandleFunc("/", r.handlers.HandleIndex)
}

// allow rejects any method other than method with a JSON 405. GET routes
// also answer HEAD.
func allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method == method || (method == http.MethodGet && req.Method == http.MethodHead) {
			next(w, req)
			return
		}
		w.Header().Set("Allow", method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(api.AckResponse{OK: false, Error: "method not allowed"})
	}
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (r *Router) Handler() http.Handler {
	return r.httpServer.Handler
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails. Cancellation shuts the server down
// gracefully and returns nil.
func (r *Router) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Router.Start: context cannot be nil")
	}
	ln, err := net.Listen("tcp", r.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("Router: listen on %s: %w", r.httpServer.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (r *Router) Serve(ctx context.Context, ln net.Listener) error {
	r.serverMutex.Lock()
	if r.isShutdown {
		r.serverMutex.Unlock()
		_ = ln.Close()
		return fmt.Errorf("Router.Start: router has been shut down")
	}
	r.addr = ln.Addr()
	server := r.httpServer
	r.serverMutex.Unlock()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("Router: server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return r.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting connections and drains active ones. It is
// idempotent.
func (r *Router) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Router.Shutdown: context cannot be nil")
	}

	r.serverMutex.Lock()
	defer r.serverMutex.Unlock()

	if r.isShutdown {
		return nil
	}
	r.isShutdown = true

	if err := r.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("Router.Shutdown: server shutdown failed: %w", err)
	}
	return nil
}

// GetAddr returns the bound address once serving, the configured one
// before.
func (r *Router) GetAddr() string {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	if r.addr != nil {
		return r.addr.String()
	}
	return r.httpServer.Addr
}

// IsShutdown reports whether Shutdown has been called.
func (r *Router) IsShutdown() bool {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.isShutdown
}
