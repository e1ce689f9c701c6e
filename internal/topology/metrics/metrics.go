package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChannelsCreated   prometheus.Counter
	ChannelsAdopted   prometheus.Counter
	DuplicatesDeleted prometheus.Counter
	CleanupFailures   prometheus.Counter
	ReconcileDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		ChannelsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_topology_channels_created_total",
			Help: "Total categories and channels created by the reconciler",
		}),
		ChannelsAdopted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_topology_channels_adopted_total",
			Help: "Total pre-existing categories and channels adopted by name",
		}),
		DuplicatesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_topology_duplicates_deleted_total",
			Help: "Total duplicate categories and channels removed",
		}),
		CleanupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_topology_cleanup_failures_total",
			Help: "Total best-effort duplicate deletions that failed",
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cord_topology_reconcile_duration_seconds",
			Help:    "Duration of full topology reconciliation runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
