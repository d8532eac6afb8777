package suggest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for suggestion requests
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	FallbacksTotal  *prometheus.CounterVec
	CacheHits       *prometheus.CounterVec
	CacheMisses     *prometheus.CounterVec
	QuotaDenied     *prometheus.CounterVec
	TokensUsed      *prometheus.CounterVec
}

// NewMetrics creates suggestion metrics registered with reg (nil: default registry)
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "assistant"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestion_requests_total",
				Help:      "Total number of suggestion requests by result source",
			},
			[]string{"feature", "source"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "suggestion_request_duration_seconds",
				Help:      "Suggestion request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"feature"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestion_fallbacks_total",
				Help:      "Total number of requests answered from the fallback catalog",
			},
			[]string{"feature", "reason"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"feature"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"feature"},
		),
		QuotaDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_denied_total",
				Help:      "Total number of requests denied by the per-user quota",
			},
			[]string{"feature"},
		),
		TokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_used_total",
				Help:      "Estimated tokens used by live generations",
			},
			[]string{"feature"},
		),
	}
}
