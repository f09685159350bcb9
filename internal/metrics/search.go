package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search strategy Prometheus metrics.
var (
	SearchStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesearch",
			Name:      "search_strategy_total",
			Help:      "Search strategy executions by outcome",
		},
		[]string{"strategy", "outcome"}, // outcome: "win" / "empty" / "error"
	)

	SearchStrategyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitesearch",
			Name:      "search_strategy_duration_seconds",
			Help:      "Per-strategy execution duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchStrategyTotal)
	prometheus.MustRegister(SearchStrategyDuration)
	searchMetricsRegistered = true
}
