package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records JSON-RPC module activity.
type Metrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *Metrics
)

// ModuleMetrics returns the lazily-initialised metrics registry used to record
// JSON-RPC module activity.
func ModuleMetrics() *Metrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &Metrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "market",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "market",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module failures segmented by method.",
			}, []string{"method"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "market",
				Subsystem: "module",
				Name:      "latency_seconds",
				Help:      "JSON-RPC module handler latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(moduleRegistry.requests, moduleRegistry.errors, moduleRegistry.latency)
	})
	return moduleRegistry
}

func normalizeMethod(method string) string {
	trimmed := strings.TrimSpace(method)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

// Observe records the outcome and latency of a single module request.
func (m *Metrics) Observe(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	normalized := normalizeMethod(method)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(normalized).Inc()
	}
	m.requests.WithLabelValues(normalized, outcome).Inc()
	m.latency.WithLabelValues(normalized).Observe(time.Since(start).Seconds())
}
