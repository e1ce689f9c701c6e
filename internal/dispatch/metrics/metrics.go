package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Events          *prometheus.CounterVec
	Dropped         *prometheus.CounterVec
	NotifyFailures  prometheus.Counter
	PanicsRecovered prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cord_dispatch_events_total",
			Help: "Events handled by kind",
		}, []string{"kind"}),
		Dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cord_dispatch_dropped_total",
			Help: "Events dropped before handling, by reason",
		}, []string{"reason"}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_dispatch_notify_failures_total",
			Help: "Notifications that failed to deliver",
		}),
		PanicsRecovered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_dispatch_panics_recovered_total",
			Help: "Handler panics recovered without crashing the service",
		}),
	}
}

// Drop reason label values.
const (
	DropNotReady   = "not_ready"
	DropWrongGuild = "wrong_guild"
	DropBot        = "bot"
	DropDuplicate  = "duplicate"
	DropNoPayload  = "no_payload"
)
