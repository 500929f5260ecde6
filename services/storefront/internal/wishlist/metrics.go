package wishlist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_wishlist_commands_total",
			Help: "Remote wishlist commands by command and result",
		},
		[]string{"command", "result"},
	)

	commandAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_wishlist_command_attempts",
			Help:    "Attempts used per remote wishlist command",
			Buckets: []float64{1, 2, 3, 5, 8},
		},
	)
)
