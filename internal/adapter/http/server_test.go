package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/occurrence-etl/internal/adapter/http"
	"github.com/couchcryptid/occurrence-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ sharedobs.ReadinessChecker = (*pipeline.Pipeline)(nil)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error, status httpadapter.StatusFunc) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, status, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, srv http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	code, body := get(t, newTestServer(nil, nil), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	code, body := get(t, newTestServer(nil, nil), "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, body = get(t, newTestServer(errors.New("no batch loaded yet"), nil), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no batch loaded yet", body["error"])
}

func TestHealthz_JSONContentType(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		newTestServer(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}

func TestStatus(t *testing.T) {
	status := func() any {
		return map[string]any{"batches": 3, "rejected": map[string]int{"dates": 2}}
	}
	code, body := get(t, newTestServer(nil, status), "/status")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["batches"])
	assert.Equal(t, map[string]any{"dates": float64(2)}, body["rejected"])

	code, _ = get(t, newTestServer(nil, nil), "/status")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
