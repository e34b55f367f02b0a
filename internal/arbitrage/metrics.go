package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal tracks detected opportunities.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	// OpportunityROI tracks detected net ROI.
	OpportunityROI = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_opportunity_roi",
		Help:    "Net ROI of detected opportunities",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
	})

	// TradesExecutedTotal tracks fully filled paired entries.
	TradesExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_trades_executed_total",
		Help: "Total number of fully filled paired entries",
	})

	// LockedProfitUSD accumulates profit locked in at entry.
	LockedProfitUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_locked_profit_usd_total",
		Help: "Cumulative profit locked in at entry in USD",
	})

	// SkipsTotal tracks evaluations abandoned before execution by reason.
	SkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_evaluation_skips_total",
			Help: "Evaluations abandoned before execution by reason",
		},
		[]string{"reason"},
	)

	// SlippageAbortsTotal tracks aborts at the pre-placement recheck.
	SlippageAbortsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_slippage_aborts_total",
		Help: "Executions aborted by the slippage recheck",
	})

	// EvaluationDurationSeconds tracks per-market evaluation latency.
	EvaluationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_evaluation_duration_seconds",
		Help:    "Duration of one market evaluation",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 3},
	})

	// CacheSize tracks live cached opportunities.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_opportunity_cache_size",
		Help: "Number of live cached opportunities",
	})

	// CachePurgedTotal tracks opportunities evicted for stale books.
	CachePurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_opportunity_cache_purged_total",
		Help: "Opportunities evicted because their books went stale",
	})
)
