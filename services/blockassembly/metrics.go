package blockassembly

import (
	"sync"

	"github.com/nilaychugh/summer-of-bitcoin/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockAssemblerTemplates        prometheus.Counter
	prometheusBlockAssemblerTemplateDuration prometheus.Histogram
	prometheusBlockAssemblerTransactions     prometheus.Gauge
	prometheusBlockAssemblerWeight           prometheus.Gauge
	prometheusBlockAssemblerFees             prometheus.Gauge
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockAssemblerTemplates = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockminer",
			Subsystem: "blockassembly",
			Name:      "templates",
			Help:      "Number of block templates created",
		},
	)

	prometheusBlockAssemblerTemplateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blockminer",
			Subsystem: "blockassembly",
			Name:      "template_duration",
			Help:      "Histogram of the time taken to select transactions and build a block template",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusBlockAssemblerTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blockminer",
			Subsystem: "blockassembly",
			Name:      "transactions",
			Help:      "Number of transactions selected into the last block template",
		},
	)

	prometheusBlockAssemblerWeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blockminer",
			Subsystem: "blockassembly",
			Name:      "weight",
			Help:      "Total weight of the transactions selected into the last block template",
		},
	)

	prometheusBlockAssemblerFees = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blockminer",
			Subsystem: "blockassembly",
			Name:      "fees",
			Help:      "Total fees in satoshis of the transactions selected into the last block template",
		},
	)
}
