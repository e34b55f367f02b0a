package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesRecordedTotal tracks persisted trade legs by exchange and side.
	TradesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_trades_recorded_total",
			Help: "Total number of trade legs recorded",
		},
		[]string{"exchange", "side"},
	)
)
