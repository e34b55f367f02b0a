package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmittedTotal tracks admitted requests by key and priority.
	AdmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_ratelimit_admitted_total",
			Help: "Total number of requests admitted by the rate limiter",
		},
		[]string{"key", "priority"},
	)

	// RefusedTotal tracks refused requests by key and priority.
	RefusedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_ratelimit_refused_total",
			Help: "Total number of requests refused by the rate limiter",
		},
		[]string{"key", "priority"},
	)
)
