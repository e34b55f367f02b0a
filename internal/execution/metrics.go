package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal tracks execution attempts by outcome.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_attempts_total",
			Help: "Total number of execution attempts by outcome",
		},
		[]string{"outcome"},
	)

	// UnwindsTotal tracks defensive partial-fill unwinds.
	UnwindsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_unwinds_total",
		Help: "Total number of defensive partial-fill unwinds",
	})

	// UnwindLossUSD tracks losses realized by unwinds.
	UnwindLossUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_unwind_loss_usd_total",
		Help: "Cumulative USD lost to defensive unwinds",
	})

	// PlacementDurationSeconds tracks the dual-leg placement time.
	PlacementDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_execution_placement_duration_seconds",
		Help:    "Duration of dual-leg order placement",
		Buckets: prometheus.DefBuckets,
	})

	// LockSkipsTotal counts evaluations skipped because a market's
	// execution lock was held.
	LockSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_lock_skips_total",
		Help: "Evaluations skipped due to a held execution lock",
	})
)
