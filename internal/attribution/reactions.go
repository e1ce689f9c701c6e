package attribution

import (
	"time"

	"cord/internal/attribution/metrics"
	"cord/internal/domain"
	"cord/internal/platform/ttlcache"
)

// reactionKey identifies one reaction action for dedup purposes.
type reactionKey struct {
	message   domain.MessageID
	user      domain.UserID
	direction domain.ReactionDirection
}

// ReactionDeduper suppresses redelivered reaction events. The event source
// is at-least-once, and reactions are the one kind it redelivers often
// enough to be visible in the log output, so each (message, user, direction)
// gets at most one notification per TTL window.
type ReactionDeduper struct {
	cache   *ttlcache.Cache[reactionKey, struct{}]
	metrics *metrics.Metrics
}

// NewReactionDeduper builds a deduper with the given suppression window.
func NewReactionDeduper(ttl time.Duration, m *metrics.Metrics, opts ...ttlcache.Option[reactionKey, struct{}]) *ReactionDeduper {
	return &ReactionDeduper{
		cache:   ttlcache.New(ttl, opts...),
		metrics: m,
	}
}

// ShouldNotify reports whether this reaction event is the first of its kind
// within the window, recording it if so.
func (d *ReactionDeduper) ShouldNotify(message domain.MessageID, user domain.UserID, direction domain.ReactionDirection) bool {
	key := reactionKey{message: message, user: user, direction: direction}
	if !d.cache.SetIfAbsent(key, struct{}{}) {
		if d.metrics != nil {
			d.metrics.ReactionsSuppressed.Inc()
		}
		return false
	}
	return true
}

// Sweep drops expired markers.
func (d *ReactionDeduper) Sweep() int {
	return d.cache.Sweep()
}
