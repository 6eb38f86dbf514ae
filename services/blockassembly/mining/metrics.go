package mining

import (
	"sync"

	"github.com/nilaychugh/summer-of-bitcoin/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusMiningHashes         prometheus.Counter
	prometheusMiningSearches       *prometheus.CounterVec
	prometheusMiningSearchDuration prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusMiningHashes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockminer",
			Subsystem: "mining",
			Name:      "hashes",
			Help:      "Number of block header hashes computed",
		},
	)

	prometheusMiningSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockminer",
			Subsystem: "mining",
			Name:      "searches",
			Help:      "Number of nonce searches by final state",
		},
		[]string{"state"},
	)

	prometheusMiningSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blockminer",
			Subsystem: "mining",
			Name:      "search_duration",
			Help:      "Histogram of the duration of nonce searches",
			Buckets:   util.MetricsBucketsSeconds,
		},
	)
}
