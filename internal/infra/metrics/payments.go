package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal, revenueRUBTotal)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (initiated/succeeded/failed).",
		},
		[]string{"status"},
	)

	revenueRUBTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "revenue_rub_total",
			Help: "Sum of succeeded payment amounts in roubles.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddRevenue(amountRUB int64) {
	revenueRUBTotal.Add(float64(amountRUB))
}
