// Package metrics records forecast runs as Prometheus metrics. The CLI has no
// HTTP surface, so metrics are exported by writing the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for cashflow_forecasts_total.
const (
	ResultOK                  = "ok"
	ResultInsufficientHistory = "insufficient_history"
	ResultError               = "error"
)

// Recorder owns its registry so tests and repeated runs never collide with the
// default global one. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	forecasts     *prometheus.CounterVec
	duration      prometheus.Histogram
	recurring     *prometheus.GaugeVec
	endingBalance *prometheus.GaugeVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		forecasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashflow_forecasts_total",
				Help: "Forecast runs by entity and result",
			},
			[]string{"entity", "result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cashflow_forecast_duration_seconds",
				Help:    "Duration of forecast runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		recurring: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cashflow_recurring_detected",
				Help: "Recurring transactions detected in the last run",
			},
			[]string{"entity"},
		),
		endingBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cashflow_projected_ending_balance",
				Help: "Projected balance on the last forecast day",
			},
			[]string{"entity"},
		),
	}
	r.registry.MustRegister(r.forecasts, r.duration, r.recurring, r.endingBalance)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordForecast records a successful run.
func (r *Recorder) RecordForecast(entity string, elapsed time.Duration, recurring int, endingBalance float64) {
	if r == nil {
		return
	}
	r.forecasts.WithLabelValues(entity, ResultOK).Inc()
	r.duration.Observe(elapsed.Seconds())
	r.recurring.WithLabelValues(entity).Set(float64(recurring))
	r.endingBalance.WithLabelValues(entity).Set(endingBalance)
}

// RecordFailure records a failed run under result.
func (r *Recorder) RecordFailure(entity, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.forecasts.WithLabelValues(entity, result).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the current metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
