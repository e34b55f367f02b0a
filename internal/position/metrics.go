package position

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpenPositions tracks the number of open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_positions_open",
		Help: "Number of open positions",
	})

	// UnrealizedPnLUSD tracks mark-to-market P&L per market.
	UnrealizedPnLUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arb_positions_unrealized_pnl_usd",
			Help: "Unrealized P&L per open position in USD",
		},
		[]string{"market_id"},
	)
)
