package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "glreport/internal/log"
)

func newTraced(buf *bytes.Buffer, h http.HandlerFunc) (*Middleware, http.Handler) {
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentTrace, Output: buf})
	m := NewMiddleware(func(r *http.Request) string { return "192.0.2.1" }, logger)
	return m, m.Middleware(h)
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	var ctxLogger *applog.Logger
	_, h := newTraced(&buf, func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = applog.FromContext(r.Context())
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
	assert.NotEqual(t, "unknown", ctxLogger.Component())
	assert.Contains(t, buf.String(), "HTTP request started")
	assert.Contains(t, buf.String(), "HTTP request completed")
	assert.Contains(t, buf.String(), "client_ip=192.0.2.1")
}

func TestMiddleware_ReusesIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	_, h := newTraced(&buf, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "upstream-42", rr.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id with spaces")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.True(t, strings.HasPrefix(rr.Header().Get(RequestIDHeader), "req_"))
}

func TestMiddleware_Metrics(t *testing.T) {
	var buf bytes.Buffer
	m, h := newTraced(&buf, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	for _, path := range []string{"/a", "/boom", "/b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	metrics := m.GetMetrics()
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.ServerErrors)
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}
