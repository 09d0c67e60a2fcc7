package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conneroisu/abacus/internal/config"
	"github.com/conneroisu/abacus/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	c := &Chain{}
	c.Add(mark("outer"))
	c.Add(mark("inner"))
	assert.Equal(t, 2, c.Len())

	c.Apply(okHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestNewChainRequiresConfig(t *testing.T) {
	assert.Panics(t, func() { NewChain(Dependencies{}) })
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.FromConfig("info", "text", &buf)
	require.NoError(t, err)

	h := RequestID()(AccessLog(logger)(okHandler()))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/eval", nil))

	out := buf.String()
	assert.Contains(t, out, "Request handled")
	assert.Contains(t, out, "path=/api/eval")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "request_id=")
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.FromConfig("info", "json", &buf)
	require.NoError(t, err)

	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "boom")
}

func TestCORS(t *testing.T) {
	allowed := []string{"https://calc.example.com"}

	tests := []struct {
		name        string
		environment string
		origin      string
		method      string
		wantOrigin  string
		wantStatus  int
	}{
		{"allowed origin", config.EnvProduction, "https://calc.example.com", http.MethodGet, "https://calc.example.com", http.StatusTeapot},
		{"foreign origin in production", config.EnvProduction, "http://evil.example.com", http.MethodGet, "", http.StatusTeapot},
		{"foreign origin in development", config.EnvDevelopment, "http://localhost:3000", http.MethodGet, "*", http.StatusTeapot},
		{"same origin request", config.EnvProduction, "", http.MethodGet, "", http.StatusTeapot},
		{"preflight", config.EnvProduction, "https://calc.example.com", http.MethodOptions, "https://calc.example.com", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/eval", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			rec := httptest.NewRecorder()
			CORS(allowed, tt.environment)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestDefaultChain(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Environment: config.EnvProduction}}
	h := NewChain(Dependencies{Config: cfg}).Apply(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}
