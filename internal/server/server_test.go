package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koustreak/dbinit/internal/bootstrap"
	"github.com/koustreak/dbinit/internal/config"
	"github.com/koustreak/dbinit/internal/errs"
	"github.com/koustreak/dbinit/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holder mimics a coordinator whose hook finishes partway through a test.
type holder struct {
	r atomic.Pointer[bootstrap.Report]
}

func (h *holder) Last() *bootstrap.Report { return h.r.Load() }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_BeforeAndAfterBootstrap(t *testing.T) {
	src := &holder{}
	router := NewRouter(src.Last, nil)

	assert.Equal(t, http.StatusOK, get(t, router, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, router, "/readyz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/bootstrap/report").Code)

	report := &bootstrap.Report{RunID: "run-1", Status: bootstrap.StatusOK}
	src.r.Store(report)

	rec := get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true,"bootstrap":"ok","run_id":"run-1"}`, rec.Body.String())

	rec = get(t, router, "/bootstrap/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body bootstrap.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
}

func TestRouter_DegradedIsStillReady(t *testing.T) {
	r := bootstrap.Unavailable(errs.New(errs.ErrKindConnectionFailed, "connection refused"))
	router := NewRouter(func() *bootstrap.Report { return r }, nil)

	rec := get(t, router, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bootstrap":"degraded"`)

	rec = get(t, router, "/bootstrap/report")
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRouter_RequestLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: buf})
	router := NewRouter(func() *bootstrap.Report { return nil }, log)

	get(t, router, "/readyz")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "/readyz", entry["path"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := NewRouter(func() *bootstrap.Report { return nil }, nil)
	assert.Equal(t, http.StatusNotFound, get(t, router, "/metrics").Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := config.Default().Server
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second

	srv := New(cfg, NewRouter(func() *bootstrap.Report { return nil }, nil), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
