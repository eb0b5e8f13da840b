package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"georecords/internal/domain"
)

var (
	Validations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "georecords", Name: "validations_total", Help: "Validated documents."},
		[]string{"level", "outcome"}, // outcome: ok|invalid|error
	)
	ValidationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "georecords", Name: "validation_duration_seconds",
			Help:    "Decode plus validation duration seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"level"},
	)
	Failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "georecords", Name: "validation_failures_total", Help: "Schema failures by expected shape."},
		[]string{"level", "expected"},
	)
	BatchEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "georecords", Name: "batch_entries_total", Help: "Batch entries by outcome."},
		[]string{"outcome"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(Validations, ValidationLatency, Failures, BatchEntries)
	return reg
}

// WriteTextfile dumps the registry in Prometheus text format, for node_exporter's
// textfile collector. An empty path is a no-op.
func WriteTextfile(reg *prometheus.Registry, path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// Recorder implements domain.Metrics on the package collectors.
type Recorder struct{}

func (Recorder) ObserveValidation(level domain.Level, outcome string, dur time.Duration) {
	Validations.WithLabelValues(level.String(), outcome).Inc()
	ValidationLatency.WithLabelValues(level.String()).Observe(dur.Seconds())
}

func (Recorder) ObserveFailures(level domain.Level, failures []domain.Failure) {
	for _, f := range failures {
		Failures.WithLabelValues(level.String(), f.Expected).Inc()
	}
}

func (Recorder) ObserveBatchEntry(outcome string) {
	BatchEntries.WithLabelValues(outcome).Inc()
}
