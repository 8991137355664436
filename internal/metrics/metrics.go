// Package metrics holds the Prometheus collectors of the interpreter.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Interpretations *prometheus.CounterVec
	ModelFailures   prometheus.Counter
	MissingFields   *prometheus.CounterVec
	Duration        prometheus.Histogram
	BatchJobs       *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the collectors registered on the default registry. They
// are created once per process.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New registers a fresh set of collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Interpretations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_interpretations_total",
			Help: "Orders interpreted, by draft source (model or fallback)",
		}, []string{"source"}),
		ModelFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "pedidos_model_failures_total",
			Help: "Model draft requests that failed and fell back to the local heuristic",
		}),
		MissingFields: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_missing_required_fields_total",
			Help: "Interpreted orders missing a required field, by field",
		}, []string{"field"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pedidos_interpret_duration_seconds",
			Help:    "Time taken to interpret one order, model call included",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		BatchJobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedidos_batch_jobs_total",
			Help: "Batch order files processed, by final status",
		}, []string{"status"}),
	}
}
