package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_wishlist_sync_total",
			Help: "Wishlist reconciliations by trigger and result",
		},
		[]string{"reason", "result"},
	)

	syncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_wishlist_sync_duration_seconds",
			Help:    "Duration of wishlist reconciliations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"reason"},
	)
)
