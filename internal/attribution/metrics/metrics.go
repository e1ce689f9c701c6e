package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Attributions        *prometheus.CounterVec
	AuditQueries        *prometheus.CounterVec
	MoveCacheHits       prometheus.Counter
	ReactionsSuppressed prometheus.Counter
	InviteBaselineSize  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Attributions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cord_attributions_total",
			Help: "Attribution attempts by query kind and outcome",
		}, []string{"kind", "outcome"}),
		AuditQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cord_audit_queries_total",
			Help: "Audit trail queries by result",
		}, []string{"result"}),
		MoveCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_move_cache_hits_total",
			Help: "Bulk-move attributions served from cache without a query",
		}),
		ReactionsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cord_reactions_suppressed_total",
			Help: "Duplicate reaction events suppressed within the dedup window",
		}),
		InviteBaselineSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cord_invite_baseline_codes",
			Help: "Invite codes tracked in the current baseline snapshot",
		}),
	}
}

// Outcome and result label values.
const (
	OutcomeResolved = "resolved"
	OutcomeUnknown  = "unknown"

	ResultOK    = "ok"
	ResultError = "error"
)
