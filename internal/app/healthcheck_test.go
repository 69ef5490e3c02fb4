package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	cfg.GraphPath = "/graphs"
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	a, err := NewApp(io.Discard, validated, afero.NewMemMapFs())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name        string
		metrics     bool
		path        string
		wantCode    int
		wantContain string
	}{
		{name: "health", path: "/health", wantCode: http.StatusOK, wantContain: "OK"},
		{name: "metrics enabled", metrics: true, path: "/metrics", wantCode: http.StatusOK, wantContain: "voxelflow_evaluator_refs"},
		{name: "metrics disabled", path: "/metrics", wantCode: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{MetricsEnabled: tc.metrics}
			if tc.metrics {
				cfg.HealthcheckPort = 1
			}
			a := newTestApp(t, cfg)
			rec := get(t, a.handler(), tc.path)
			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantContain != "" {
				assert.Contains(t, rec.Body.String(), tc.wantContain)
			}
		})
	}
}

func TestStartHealthCheckServer_Disabled(t *testing.T) {
	a := newTestApp(t, Config{})
	addr, err := a.StartHealthCheckServer()
	require.NoError(t, err)
	assert.Empty(t, addr)
	assert.NoError(t, a.Close())
}
