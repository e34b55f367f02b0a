package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks applied book updates by kind.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orderbook_updates_total",
			Help: "Total number of applied order book updates",
		},
		[]string{"kind"},
	)

	// StaleDeltasTotal tracks deltas dropped for stale sequence numbers.
	StaleDeltasTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_orderbook_stale_deltas_total",
		Help: "Total number of deltas dropped due to stale sequence numbers",
	})

	// BooksTracked tracks the number of books in memory.
	BooksTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_orderbook_books_tracked",
		Help: "Number of order books tracked in memory",
	})

	// BookResetsTotal tracks snapshot recoveries by reason.
	BookResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orderbook_resets_total",
			Help: "Total number of book snapshot recoveries",
		},
		[]string{"reason"},
	)

	// UpdatesDroppedTotal tracks update notifications dropped on full channels.
	UpdatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orderbook_updates_dropped_total",
			Help: "Total number of update notifications dropped",
		},
		[]string{"reason"},
	)
)
