package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterScans              *prometheus.CounterVec
	CounterWorkoutsCompleted  prometheus.Counter
	CounterStoreFallbacks     *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistScanDuration    prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("fitscan", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("fitscan", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterScans := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "scans",
		Help:      "The total number of equipment scans by outcome",
	}, []string{"status"})
	counterWorkoutsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_completed",
		Help:      "The total number of completed workout sessions",
	})
	counterStoreFallbacks := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_fallbacks",
		Help:      "Remote store failures served from the local store or defaults",
	}, []string{"op"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Current number of live workout sessions",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
	)
	histScanDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			Name:      "scan_duration_seconds",
			Help:      "Duration of a single recognition call in seconds",
		},
	)

	return &Manager{
		CounterRequests:           counterRequests,
		CounterScans:              counterScans,
		CounterWorkoutsCompleted:  counterWorkoutsCompleted,
		CounterStoreFallbacks:     counterStoreFallbacks,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeActiveSessions:       gaugeActiveSessions,
		HistRequestDuration:       histReqDuration,
		HistScanDuration:          histScanDuration,
	}
}
