package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gospot_cycles_evaluated_total",
			Help: "Decision cycles evaluated (by instance and outcome).",
		},
		[]string{"instance", "outcome"},
	)

	SignalsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gospot_signals_fired_total",
			Help: "Buy or sell gate decisions that fired (by instance and side).",
		},
		[]string{"instance", "side"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gospot_orders_submitted_total",
			Help: "Total number of orders submitted (by instance).",
		},
		[]string{"instance"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gospot_trades_closed_total",
			Help: "Completed round trips (by instance and exit reason).",
		},
		[]string{"instance", "reason"},
	)

	PositionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gospot_positions_open",
			Help: "1 while the instance holds a position, 0 when flat.",
		},
		[]string{"instance"},
	)

	EquityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gospot_equity",
			Help: "Stable balance plus holdings at the last close.",
		},
		[]string{"instance"},
	)

	BacktestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gospot_backtest_runs_total",
			Help: "Backtest runs (by family).",
		},
		[]string{"family"},
	)

	BacktestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gospot_backtest_duration_seconds",
			Help:    "Wall time of a backtest run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesEvaluated, SignalsFired, OrdersSubmitted, TradesClosed,
		PositionsOpen, EquityGauge, BacktestRuns, BacktestDuration,
	)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
