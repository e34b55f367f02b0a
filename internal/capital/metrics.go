package capital

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BalanceGauge tracks the last fetched free balance per venue.
	BalanceGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arb_capital_balance_usd",
			Help: "Last known free balance per venue in USD",
		},
		[]string{"exchange"},
	)

	// AllocationSizeUSD tracks allocated trade sizes.
	AllocationSizeUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_capital_allocation_usd",
		Help:    "Allocated trade size in USD",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)
