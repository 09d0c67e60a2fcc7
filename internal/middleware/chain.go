// Package middleware provides the HTTP middleware stack of the reference
// service.
package middleware

import (
	"net/http"

	"github.com/conneroisu/abacus/internal/config"
	"github.com/conneroisu/abacus/internal/logging"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Dependencies are what the default stack needs.
type Dependencies struct {
	Config *config.Config
	Logger logging.Logger
}

// Chain is an ordered middleware stack. The first middleware added is the
// outermost: requests pass through the stack in the order it was built.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds the default stack, outermost first: request id, access
// log, panic recovery, CORS and security headers.
func NewChain(deps Dependencies) *Chain {
	if deps.Config == nil {
		panic("middleware.NewChain: config cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("http")

	c := &Chain{middlewares: make([]Middleware, 0, 5)}
	c.Add(RequestID())
	c.Add(AccessLog(logger))
	c.Add(Recovery(logger))
	c.Add(CORS(deps.Config.Server.AllowedOrigins, deps.Config.Server.Environment))
	c.Add(SecurityHeaders())

	return c
}

// Add appends m as the innermost middleware so far.
func (c *Chain) Add(m Middleware) {
	c.middlewares = append(c.middlewares, m)
}

// Len returns the number of middlewares.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Apply wraps handler with every middleware in the chain.
func (c *Chain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("middleware.Chain.Apply: handler cannot be nil")
	}
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	return handler
}
