package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "macropull",
			Subsystem: "api",
			Name:      "endpoint_latency_seconds",
			Help:      "Latency of analytics endpoints",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macropull",
			Subsystem: "api",
			Name:      "endpoint_errors_total",
			Help:      "Errors by analytics endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	EndpointEmpty = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macropull",
			Subsystem: "api",
			Name:      "endpoint_empty_total",
			Help:      "Requests answered with an empty payload because no data was loaded",
		},
		[]string{"endpoint"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, EndpointEmpty)
	})
}

// Observe records one endpoint call. kind is empty on success.
func Observe(endpoint string, started time.Time, kind string) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	if kind != "" {
		EndpointErrors.WithLabelValues(endpoint, kind).Inc()
	}
}

// Empty counts a no-data response.
func Empty(endpoint string) {
	EndpointEmpty.WithLabelValues(endpoint).Inc()
}
