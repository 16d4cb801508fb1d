package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the counters and histograms of the search endpoint.
type Metrics struct {
	SearchesTotal  *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	ResultsServed  prometheus.Histogram
	WidgetsIssued  prometheus.Counter
}

// NewMetrics registers the endpoint's metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postsearch_searches_total",
				Help: "Total number of search requests by outcome",
			},
			[]string{"outcome"},
		),
		SearchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "postsearch_search_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		ResultsServed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "postsearch_results_served",
				Help:    "Number of posts returned per successful search",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
		WidgetsIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "postsearch_widgets_issued_total",
				Help: "Total number of widget contexts issued",
			},
		),
	}
}

const (
	outcomeOK            = "ok"
	outcomeInvalidNonce  = "invalid_nonce"
	outcomeBadRequest    = "bad_request"
	outcomeBackendFailed = "backend_failed"
)
