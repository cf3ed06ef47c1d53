package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	requests  *prometheus.CounterVec
	errors    prometheus.Counter
	opLatency *prometheus.HistogramVec
	startedAt time.Time
}

// NewMetricsCollector registers the application metrics on reg. Pass a
// fresh registry in tests to avoid duplicate-registration panics.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)
	return &MetricsCollector{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "applynest_requests_total",
			Help: "Total HTTP requests handled, by route.",
		}, []string{"route"}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "applynest_errors_total",
			Help: "Total errors surfaced to clients.",
		}),
		opLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "applynest_operation_duration_seconds",
			Help:    "Latency of store and engine operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		startedAt: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests(route string) {
	mc.requests.WithLabelValues(route).Inc()
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.errors.Inc()
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.opLatency.WithLabelValues(operationName).Observe(duration.Seconds())
}

func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.startedAt)
}
