package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for provider calls
type Metrics struct {
	AttemptsTotal   *prometheus.CounterVec
	AttemptDuration *prometheus.HistogramVec
}

// NewMetrics creates provider metrics registered with reg (nil: default registry)
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "assistant"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Total number of attempts sent to the generative provider",
			},
			[]string{"provider", "outcome"},
		),
		AttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_attempt_duration_seconds",
				Help:      "Provider attempt duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
	}
}
