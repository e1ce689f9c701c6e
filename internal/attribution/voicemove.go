package attribution

import (
	"context"

	"cord/internal/domain"
	"cord/internal/platform/ttlcache"
)

// moveKey identifies one bulk-move grant: the destination channel and the
// audit entry that explains moves into it.
type moveKey struct {
	dest  domain.ChannelID
	entry domain.AuditID
}

// moveGrant is what one audit entry is still good for. total comes from the
// entry's count extra; used counts the voice events already attributed to it.
type moveGrant struct {
	executor domain.UserID
	used     int
	total    int
}

// MoveTracker amortizes one audit trail query across a bulk member move.
// A single member-move entry carries a count of members moved, but the
// event stream delivers one voice-state change per member; querying once
// per member would burn the rate limit for no new information.
type MoveTracker struct {
	engine *Engine
	cache  *ttlcache.Cache[moveKey, moveGrant]
}

// NewMoveTracker builds a tracker on top of the shared engine. The cache
// window doubles as the "same bulk action" horizon.
func NewMoveTracker(engine *Engine) *MoveTracker {
	var opts []ttlcache.Option[moveKey, moveGrant]
	if engine.clock != nil {
		opts = append(opts, ttlcache.WithClock[moveKey, moveGrant](engine.clock))
	}
	return &MoveTracker{
		engine: engine,
		cache:  ttlcache.New(engine.cfg.CacheTTL, opts...),
	}
}

// AttributeMove resolves who moved target into dest. A fresh cache grant for
// the destination is consumed without touching the audit trail; only the
// first event of a bulk move (or an event after the grant is exhausted)
// pays for a query.
func (t *MoveTracker) AttributeMove(ctx context.Context, target domain.UserID, dest domain.ChannelID) domain.Actor {
	if actor, ok := t.consumeGrant(dest); ok {
		if t.engine.metrics != nil {
			t.engine.metrics.MoveCacheHits.Inc()
		}
		return actor
	}

	actor, entry := t.engine.resolve(ctx, query{
		name:    "member_move",
		kinds:   []domain.ActionKind{domain.ActionMemberMove},
		delay:   t.engine.cfg.VoiceMoveDelay,
		subject: target,
		match: func(e domain.AuditEntry) bool {
			// Move entries carry no member target; the destination channel
			// in the extra data is the only correlation handle.
			return e.Extra.ChannelID == dest
		},
	})
	if !actor.Known || entry == nil {
		return domain.UnknownActor
	}

	total := entry.Extra.Count
	if total < 1 {
		total = 1
	}
	t.cache.Set(moveKey{dest: dest, entry: entry.ID}, moveGrant{
		executor: entry.ExecutorID,
		used:     1,
		total:    total,
	})
	return actor
}

// consumeGrant finds a live, non-exhausted grant for dest and consumes one
// use. The re-check inside Update closes the race with a concurrent
// consumer taking the last use between Range and Update.
func (t *MoveTracker) consumeGrant(dest domain.ChannelID) (domain.Actor, bool) {
	var (
		key   moveKey
		found bool
	)
	t.cache.Range(func(k moveKey, g moveGrant) bool {
		if k.dest == dest && g.used < g.total {
			key = k
			found = true
			return false
		}
		return true
	})
	if !found {
		return domain.UnknownActor, false
	}

	var (
		consumed bool
		executor domain.UserID
	)
	t.cache.Update(key, func(g moveGrant) moveGrant {
		if g.used < g.total {
			g.used++
			consumed = true
			executor = g.executor
		}
		return g
	})
	if !consumed {
		return domain.UnknownActor, false
	}
	return domain.KnownActor(executor), true
}

// Sweep drops expired grants. Called opportunistically from the voice
// handler rather than from a timer.
func (t *MoveTracker) Sweep() int {
	return t.cache.Sweep()
}
