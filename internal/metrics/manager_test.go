package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRegisters(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.CounterScans.WithLabelValues("detected").Add(2)
	m.CounterWorkoutsCompleted.Inc()
	m.CounterStoreFallbacks.WithLabelValues("get_profile").Inc()
	m.GaugeActiveSessions.Set(3)
	m.HistRequestDuration.Observe(0.02)
	m.HistScanDuration.Observe(4)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				values[f.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 1.0, values["fitscan_test_request"])
	assert.Equal(t, 2.0, values["fitscan_test_scans"])
	assert.Equal(t, 1.0, values["fitscan_test_workouts_completed"])
	assert.Equal(t, 1.0, values["fitscan_test_store_fallbacks"])
	assert.Equal(t, 3.0, values["fitscan_test_active_sessions"])
	assert.Equal(t, 1.0, values["fitscan_test_request_duration_seconds"])
	assert.Equal(t, 1.0, values["fitscan_test_scan_duration_seconds"])
}

func TestSeparateRegistries(t *testing.T) {
	// Each test manager owns its registry, so building two must not panic
	// on duplicate registration.
	assert.NotPanics(t, func() {
		NewTestManager()
		NewTestManager()
	})
}
