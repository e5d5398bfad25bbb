package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(updatesTotal, menuEditFallbacks, discardedInputsTotal)
}

var (
	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Processed Telegram updates by kind (message/photo/callback/other).",
		},
		[]string{"kind"},
	)

	menuEditFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menu_edit_fallbacks_total",
			Help: "Times the pinned menu could not be edited and was re-sent.",
		},
	)

	discardedInputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discarded_inputs_total",
			Help: "Inputs dropped by the flow's defensive filters, by reason.",
		},
		[]string{"reason"},
	)
)

func IncUpdate(kind string)        { updatesTotal.WithLabelValues(norm(kind)).Inc() }
func MenuEditFallback()            { menuEditFallbacks.Inc() }
func InputDiscarded(reason string) { discardedInputsTotal.WithLabelValues(norm(reason)).Inc() }
