package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CheckAggregates(t *testing.T) {
	r := NewRegistry()
	r.Register("postgres", func(context.Context) error { return nil })
	r.Register("redis", func(context.Context) error { return errors.New("dial tcp: refused") })

	report := r.Check(context.Background())

	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, StatusUp, report.Checks["postgres"].Status)
	assert.Equal(t, "dial tcp: refused", report.Checks["redis"].Error)
	assert.Equal(t, []string{"postgres", "redis"}, r.Names())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("all up", func(t *testing.T) {
		r := NewRegistry()
		r.Register("store", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		r.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("one down", func(t *testing.T) {
		r := NewRegistry()
		r.Register("store", func(context.Context) error { return errors.New("closed") })

		rec := httptest.NewRecorder()
		r.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var report Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, StatusDown, report.Checks["store"].Status)
	})
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRegistry().LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}
