package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TableOutOfDomain = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdyn_table_out_of_domain_total",
			Help: "Derivative table queries outside the breakpoint grid (answered with 0).",
		},
		[]string{"derivative"},
	)

	TableFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdyn_table_fallbacks_total",
			Help: "Derivative tables replaced by a constant table after a build failure.",
		},
		[]string{"derivative"},
	)

	SaturationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightdyn_saturation_events_total",
			Help: "Net acceleration or moment components clamped by the aggregator.",
		},
		[]string{"quantity"},
	)

	Ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdyn_ticks_total",
			Help: "Integration ticks completed.",
		},
	)

	StateCorruptions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdyn_state_corruption_total",
			Help: "Runs halted because the integrated state contained NaN or Inf.",
		},
	)

	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flightdyn_tick_duration_seconds",
			Help:    "Wall-clock time spent in one integration tick.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	TickOverruns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flightdyn_tick_overruns_total",
			Help: "Real-time ticks that started later than their scheduled time.",
		},
	)
)

func init() {
	prometheus.MustRegister(TableOutOfDomain)
	prometheus.MustRegister(TableFallbacks)
	prometheus.MustRegister(SaturationEvents)
	prometheus.MustRegister(Ticks)
	prometheus.MustRegister(StateCorruptions)
	prometheus.MustRegister(TickDuration)
	prometheus.MustRegister(TickOverruns)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
