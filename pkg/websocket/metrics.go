package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the number of live feed connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_feed_active_connections",
		Help: "Number of active book feed connections",
	})

	// SubscriptionCount tracks subscribed token count.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_feed_subscriptions",
		Help: "Number of token order books subscribed",
	})

	// MessagesReceivedTotal tracks decoded feed messages by kind.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_feed_messages_received_total",
			Help: "Total number of book feed messages received",
		},
		[]string{"kind"},
	)

	// MessagesDroppedTotal tracks messages dropped due to full channels.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_feed_messages_dropped_total",
			Help: "Total number of book feed messages dropped",
		},
		[]string{"reason"},
	)

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_feed_reconnect_attempts_total",
		Help: "Total number of feed reconnection attempts",
	})

	// ReconnectFailuresTotal tracks failed reconnection attempts.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_feed_reconnect_failures_total",
		Help: "Total number of failed feed reconnection attempts",
	})
)
