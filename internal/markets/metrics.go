package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsDiscoveredTotal counts newly discovered markets.
	MarketsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_markets_discovered_total",
		Help: "Total number of markets discovered",
	})

	// MarketsTracked tracks currently monitored markets.
	MarketsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_markets_tracked",
		Help: "Number of markets currently tracked",
	})

	// SubscriptionsTotal counts token book subscriptions issued.
	SubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_markets_subscriptions_total",
		Help: "Total number of token book subscriptions issued",
	})

	// PollDurationSeconds tracks discovery poll latency.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_markets_poll_duration_seconds",
		Help:    "Duration of market discovery polls",
		Buckets: prometheus.DefBuckets,
	})

	// PollErrorsTotal counts failed discovery polls.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_markets_poll_errors_total",
		Help: "Total number of failed discovery polls",
	})
)
