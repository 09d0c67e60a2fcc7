package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandlers struct{}

func reply(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name)
	}
}

func (stubHandlers) HandleEval(w http.ResponseWriter, r *http.Request)    { reply("eval")(w, r) }
func (stubHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) { reply("history")(w, r) }
func (stubHandlers) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	reply("clear")(w, r)
}
func (stubHandlers) HandleStats(w http.ResponseWriter, r *http.Request)     { reply("stats")(w, r) }
func (stubHandlers) HandleHealth(w http.ResponseWriter, r *http.Request)    { reply("health")(w, r) }
func (stubHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) { reply("ws")(w, r) }
func (stubHandlers) HandleIndex(w http.ResponseWriter, r *http.Request)     { reply("index")(w, r) }

type passthrough struct{}

func (passthrough) Apply(h http.Handler) http.Handler { return h }

func testConfig() *config.Config {
	return &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0}}
}

func TestNewRouterPanics(t *testing.T) {
	assert.Panics(t, func() { NewRouter(nil, stubHandlers{}, passthrough{}) })
	assert.Panics(t, func() { NewRouter(testConfig(), nil, passthrough{}) })
	assert.Panics(t, func() { NewRouter(testConfig(), stubHandlers{}, nil) })

	cfg := testConfig()
	cfg.Server.Port = 70000
	assert.Panics(t, func() { NewRouter(cfg, stubHandlers{}, passthrough{}) })
}

func TestRoutes(t *testing.T) {
	router := NewRouter(testConfig(), stubHandlers{}, passthrough{})

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodPost, api.PathEval, "eval"},
		{http.MethodGet, api.PathHistory, "history"},
		{http.MethodPost, api.PathHistoryClear, "clear"},
		{http.MethodGet, api.PathStats, "stats"},
		{http.MethodGet, api.PathHealth, "health"},
		{http.MethodGet, api.PathEvents, "ws"},
		{http.MethodGet, "/", "index"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := NewRouter(testConfig(), stubHandlers{}, passthrough{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, api.PathEval},
		{http.MethodPost, api.PathHistory},
		{http.MethodGet, api.PathHistoryClear},
		{http.MethodDelete, api.PathStats},
	} {
		rec := httptest.NewRecorder()
		router.Handler().ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, tc.path)
		var body api.AckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.OK)
		assert.Equal(t, "method not allowed", body.Error)
	}
}

func TestServeAndShutdown(t *testing.T) {
	router := NewRouter(testConfig(), stubHandlers{}, passthrough{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- router.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + api.PathHealth)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, ln.Addr().String(), router.GetAddr())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}

	assert.True(t, router.IsShutdown())
	assert.NoError(t, router.Shutdown(context.Background()))

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Error(t, router.Serve(context.Background(), ln2))
}
