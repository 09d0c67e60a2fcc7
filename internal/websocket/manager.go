// Package websocket pushes service events to connected browsers and
// clients over websocket connections.
//
// A single hub goroutine owns the client set. Connections register and
// unregister through channels, and broadcasts fan out to per-client send
// buffers. A client whose buffer is full is dropped rather than allowed to
// stall the others.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/conneroisu/abacus/internal/validation"
)

const (
	sendBuffer   = 16
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// OriginValidator decides whether a browser origin may connect.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// AllowedOrigins is an OriginValidator over a fixed list; "*" allows any
// origin.
type AllowedOrigins []string

// IsAllowedOrigin implements OriginValidator.
func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	return validation.IsAllowedOrigin(origin, a)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
}

// Hub manages the connected clients.
type Hub struct {
	clients map[*client]struct{}
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	origins OriginValidator
	logger  logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewHub creates a hub and starts its goroutine. Requests carrying an
// Origin header are only accepted when origins allows it; requests
// without one (non-browser clients) are always accepted.
func NewHub(origins OriginValidator, logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client, 8),
		unregister: make(chan *client, 8),
		origins:    origins,
		logger:     logger.WithComponent("websocket"),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go h.run()
	return h
}

// ServeHTTP upgrades the request and streams events until either side
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if origin := r.Header.Get("Origin"); origin != "" && (h.origins == nil || !h.origins.IsAllowedOrigin(origin)) {
		h.logger.Warn(r.Context(), nil, "WebSocket connection rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were checked above.
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote_addr", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), addr: r.RemoteAddr}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	h.serveClient(c)
}

// serveClient writes queued messages and pings until the connection or
// the hub closes. Incoming messages are discarded.
func (h *Hub) serveClient(c *client) {
	defer h.remove(c)

	// Closing on shutdown is left to the hub goroutine.
	ctx := c.conn.CloseRead(context.Background())
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				h.logger.Debug(ctx, "WebSocket write failed", "remote_addr", c.addr, "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.logger.Debug(ctx, "WebSocket ping failed", "remote_addr", c.addr, "error", err)
				return
			}
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug(h.ctx, "WebSocket client connected", "remote_addr", c.addr, "clients", n)

		case c := <-h.unregister:
			h.drop(c, websocket.StatusNormalClosure, "")

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*client
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.logger.Warn(h.ctx, nil, "Dropping slow WebSocket client", "remote_addr", c.addr)
				h.drop(c, websocket.StatusPolicyViolation, "too slow")
			}

		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				closeAsync(c, websocket.StatusGoingAway, "server shutting down")
			}
			h.clients = make(map[*client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// drop runs on the hub goroutine, which is the only writer of the map and
// the only closer of send channels.
func (h *Hub) drop(c *client, code websocket.StatusCode, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(c.send)
	closeAsync(c, code, reason)
	h.logger.Debug(h.ctx, "WebSocket client disconnected", "remote_addr", c.addr, "clients", n)
}

// closeAsync runs the close handshake off the hub goroutine. Close waits
// for the peer's reply, and a peer that never answers must not hold up
// broadcasts or shutdown.
func closeAsync(c *client, code websocket.StatusCode, reason string) {
	go func() {
		_ = c.conn.Close(code, reason)
	}()
}

// Broadcast queues event for every connected client. It never blocks; if
// the queue is full the event is dropped.
func (h *Hub) Broadcast(event api.Event) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to marshal broadcast event", "type", event.Type)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		h.logger.Warn(h.ctx, nil, "Broadcast queue full, dropping event", "type", event.Type)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and stops the hub. It is safe to call
// more than once.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.isShutdown.Store(true)
		h.cancel()
	})

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been called.
func (h *Hub) IsShutdown() bool {
	return h.isShutdown.Load()
}
