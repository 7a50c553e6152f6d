package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	lagOrder     *prometheus.HistogramVec
	alertsTotal  *prometheus.CounterVec
	panelRows    prometheus.Gauge
}

// New creates a Prometheus metrics recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_series_fetch_total",
				Help: "Series fetch attempts by outcome",
			},
			[]string{"series", "result"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lagOrder: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropull_var_lag_order",
				Help:    "Lag order selected by AIC",
				Buckets: prometheus.LinearBuckets(1, 1, 12),
			},
			[]string{},
		),
		alertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_alerts_total",
				Help: "Threshold alerts by outcome (enqueued, dropped, suppressed, delivered, failed)",
			},
			[]string{"series", "outcome"},
		),
		panelRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "macropull_panel_rows",
				Help: "Rows in the aligned panel after the last refresh",
			},
		),
	}
}

// RecordFetch records a series fetch outcome.
func (r *Recorder) RecordFetch(seriesID string, ok bool) {
	r.fetchesTotal.WithLabelValues(seriesID, strconv.FormatBool(ok)).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordLagOrder records the VAR lag order chosen by a fit.
func (r *Recorder) RecordLagOrder(lag int) {
	r.lagOrder.WithLabelValues().Observe(float64(lag))
}

// RecordAlert records an alert lifecycle event.
func (r *Recorder) RecordAlert(seriesID, outcome string) {
	r.alertsTotal.WithLabelValues(seriesID, outcome).Inc()
}

// RecordPanelRows records the aligned panel size.
func (r *Recorder) RecordPanelRows(rows int) {
	r.panelRows.Set(float64(rows))
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, bool)      {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordLagOrder(int)            {}
func (Nop) RecordAlert(string, string)    {}
func (Nop) RecordPanelRows(int)           {}
