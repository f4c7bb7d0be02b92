package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gauge reads a single-series metric from the renderer registry.
func gauge(t *testing.T, name string) float64 {
	t.Helper()
	families, err := MetricsRegistry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		m := f.GetMetric()[0]
		if m.GetCounter() != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestMetricsRecordRenderer(t *testing.T) {
	require.NoError(t, MetricsInitialize())

	MetricsRecordRenderer(4096, 3, 7, 42)
	assert.Equal(t, 4096.0, gauge(t, "lumen_geometry_arena_bytes"))
	assert.Equal(t, 3.0, gauge(t, "lumen_meshes"))
	assert.Equal(t, 7.0, gauge(t, "lumen_bindless_images"))
	assert.Equal(t, 42.0, gauge(t, "lumen_frame_index"))
}

func TestMetricsUpdateAverages(t *testing.T) {
	require.NoError(t, MetricsInitialize())
	before := gauge(t, "lumen_frames_total")

	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsUpdate(0.010)
	}
	assert.Equal(t, before+float64(AVG_COUNT), gauge(t, "lumen_frames_total"))
	assert.InDelta(t, 10.0, MetricsFrameTime(), 1e-9)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	MetricsRecordRenderer(1, 1, 1, 1)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lumen_geometry_arena_bytes 1")
	assert.Contains(t, rec.Body.String(), "lumen_frame_time_seconds_bucket")
}
