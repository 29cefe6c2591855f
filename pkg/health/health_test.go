package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formtree/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		report := health.Run(context.Background(), nil)
		assert.True(t, report.Healthy())
		assert.Empty(t, report.Checks)
	})

	t.Run("aggregates failures", func(t *testing.T) {
		t.Parallel()
		report := health.Run(context.Background(), health.Checks{
			"ok":     func(context.Context) error { return nil },
			"broken": func(context.Context) error { return errors.New("bucket unreachable") },
		})
		assert.False(t, report.Healthy())
		assert.Equal(t, health.Check{Status: health.StatusHealthy}, report.Checks["ok"])
		assert.Equal(t, health.Check{Status: health.StatusUnhealthy, Error: "bucket unreachable"}, report.Checks["broken"])
	})

	t.Run("times out slow checks", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		defer close(release)
		report := health.Run(context.Background(), health.Checks{
			"slow": func(context.Context) error { <-release; return nil },
		}, health.WithTimeout(20*time.Millisecond))
		assert.False(t, report.Healthy())
		assert.Equal(t, health.ErrCheckTimeout.Error(), report.Checks["slow"].Error)
	})
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})

	t.Run("readiness failure as json", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{
			"definitions": func(context.Context) error { return errors.New("missing") },
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var report health.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, health.StatusUnhealthy, report.Status)
		assert.Equal(t, "missing", report.Checks["definitions"].Error)
	})

	t.Run("readiness success as text", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{"ok": func(context.Context) error { return nil }})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK", rec.Body.String())
	})
}
