package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsFormed counts cross-venue pairs formed.
	PairsFormed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_matcher_pairs_formed_total",
		Help: "Total number of cross-venue market pairs formed",
	})
)
