package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generationsTotal,
		generationLatencySec,
		balanceBlocksTotal,
	)
}

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Design generation attempts by room, style and success.",
		},
		[]string{"room", "style", "success"},
	)

	generationLatencySec = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_seconds",
			Help:    "Image backend latency distribution in seconds.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"provider", "success"},
	)

	balanceBlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balance_blocks_total",
			Help: "Count of flow transitions denied by the balance gate.",
		},
	)
)

func ObserveGeneration(room, style, provider string, latencySec float64, success bool) {
	ok := strconv.FormatBool(success)
	generationsTotal.WithLabelValues(norm(room), norm(style), ok).Inc()
	generationLatencySec.WithLabelValues(norm(provider), ok).Observe(latencySec)
}

func BalanceBlocked() { balanceBlocksTotal.Inc() }
