package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentReport, Output: &buf})

	l.Info("report generated", FieldRowCount, 3)
	assert.Contains(t, buf.String(), "component=report")
	assert.Contains(t, buf.String(), "rows=3")

	buf.Reset()
	l.WithComponent(ComponentWorker).Warn("retrying")
	assert.Contains(t, buf.String(), "component=worker")
	assert.NotContains(t, buf.String(), "component=report")

	buf.Reset()
	l.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestWithLoggerAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	ctx := WithLogger(context.Background(), l.With(FieldRequestID, "req-1"))
	got := FromContext(ctx)
	got.Info("inside")

	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Contains(t, buf.String(), "request_id=req-1")

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/reports/customer-gl?company=Acme", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusServiceUnavailable, 12, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status_code=503")

	buf.Reset()
	sl.LogError(context.Background(), "export failed", errors.New("boom"), ComponentSheets, OpExport, nil)
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "operation=export")
}
