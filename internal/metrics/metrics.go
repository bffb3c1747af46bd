// Package metrics holds the domain Prometheus collectors of the analysis pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeMisconfigured = "misconfigured"
	OutcomeFetchError    = "fetch_error"
	OutcomeClassifyError = "classification_error"
	OutcomeStoreError    = "store_error"
	OutcomeRejected      = "rejected"
)

// Pipeline records analysis outcomes and classifier latency.
type Pipeline struct {
	analyses           *prometheus.CounterVec
	classifierDuration prometheus.Histogram
}

// NewPipeline registers the collectors on reg.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skinscan_analyses_total",
				Help: "Total number of analysis requests by outcome.",
			},
			[]string{"outcome"},
		),
		classifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skinscan_classifier_duration_seconds",
			Help:    "Latency of classifier calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
	}
	for _, c := range []prometheus.Collector{p.analyses, p.classifierDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Nop returns collectors bound to a throwaway registry.
func Nop() *Pipeline {
	p, _ := NewPipeline(prometheus.NewRegistry())
	return p
}

// Analysis counts one finished analysis.
func (p *Pipeline) Analysis(outcome string) {
	p.analyses.WithLabelValues(outcome).Inc()
}

// ClassifierCall observes a classifier round trip started at start.
func (p *Pipeline) ClassifierCall(start time.Time) {
	p.classifierDuration.Observe(time.Since(start).Seconds())
}
