package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DailyPnLGauge tracks rolling daily realized P&L in USD.
	DailyPnLGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_risk_daily_pnl_usd",
		Help: "Rolling daily realized P&L in USD",
	})

	// DailyTradeCount tracks trades counted against the daily window.
	DailyTradeCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_risk_daily_trades_total",
		Help: "Trades counted against the daily risk window",
	})

	// HaltedGauge is 1 while new entries are halted.
	HaltedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_risk_halted",
		Help: "Whether the risk manager has halted new entries",
	})

	// HaltsTotal counts halt transitions.
	HaltsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_risk_halts_total",
		Help: "Total number of risk halts",
	})

	// ExitSignalsTotal counts exit signals by reason.
	ExitSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_risk_exit_signals_total",
			Help: "Total number of exit signals emitted",
		},
		[]string{"reason"},
	)
)
