package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Ticks         prometheus.Counter
	Swaps         *prometheus.CounterVec
	OrderFailures prometheus.Counter
	Divergence    prometheus.Gauge
	StateCode     prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Ticks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rotation_ticks_total",
			Help: "Completed trading loop cycles.",
		}),
		Swaps: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rotation_swaps_total",
			Help: "Completed instrument swaps by direction.",
		}, []string{"direction"}),
		OrderFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rotation_order_failures_total",
			Help: "Transitions into the OrderFailed state.",
		}),
		Divergence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_lev_divergence",
			Help: "Relative leveraged divergence against the current reference.",
		}),
		StateCode: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rotation_state_code",
			Help: "Numeric code of the active trader state.",
		}),
	}
}
