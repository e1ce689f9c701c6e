package attribution

import (
	"context"
	"log/slog"
	"sync"

	"cord/internal/attribution/metrics"
	"cord/internal/chat"
	"cord/internal/domain"
)

// JoinAttribution names the invite a member joined through and its creator.
// Code is empty when no invite could be matched.
type JoinAttribution struct {
	Inviter domain.Actor
	Code    domain.InviteCode
}

// InviteTracker attributes member joins to invites by diffing use counts.
// The platform never says which invite a join used, so the tracker keeps a
// baseline snapshot of every code's use count and, on each join, fetches a
// fresh list and looks for the count that moved.
//
// The baseline lives only in memory. A restart rebuilds it with Prime, and
// any join arriving before the first successful snapshot resolves unknown.
type InviteTracker struct {
	lister  chat.InviteLister
	guildID domain.GuildID
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	baseline map[domain.InviteCode]domain.InviteSnapshot
	primed   bool
}

// NewInviteTracker constructs a tracker with an empty baseline. Call Prime
// before the first join is handled.
func NewInviteTracker(lister chat.InviteLister, guildID domain.GuildID, logger *slog.Logger, m *metrics.Metrics) *InviteTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &InviteTracker{
		lister:  lister,
		guildID: guildID,
		logger:  logger,
		metrics: m,
	}
}

// Prime builds the initial baseline from the live invite list.
func (t *InviteTracker) Prime(ctx context.Context) error {
	invites, err := t.lister.ListInvites(ctx, t.guildID)
	if err != nil {
		return err
	}
	t.replaceBaseline(invites)
	return nil
}

// Refresh re-snapshots the baseline. Called on invite create and delete
// events so the next join diffs against current reality. Failures keep the
// previous baseline; the next join's fetch supersedes it anyway.
func (t *InviteTracker) Refresh(ctx context.Context) {
	invites, err := t.lister.ListInvites(ctx, t.guildID)
	if err != nil {
		t.logger.Warn("invite baseline refresh failed", "error", err)
		return
	}
	t.replaceBaseline(invites)
}

// AttributeJoin decides which invite a join used. Primary rule: the code
// whose use count increased against the baseline. Fallback: a code absent
// from the baseline with uses > 0, which covers a brand-new invite used
// before any refresh saw it.
// Either way the fresh snapshot unconditionally becomes the new baseline.
func (t *InviteTracker) AttributeJoin(ctx context.Context) JoinAttribution {
	fresh, err := t.lister.ListInvites(ctx, t.guildID)
	if err != nil {
		t.logger.Warn("invite list fetch failed, join unattributed", "error", err)
		return JoinAttribution{Inviter: domain.UnknownActor}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var increased, appeared *domain.InviteSnapshot
	for i := range fresh {
		inv := fresh[i]
		prev, known := t.baseline[inv.Code]
		switch {
		case known && inv.Uses > prev.Uses && increased == nil:
			increased = &fresh[i]
		case !known && t.primed && inv.Uses > 0 && appeared == nil:
			appeared = &fresh[i]
		}
	}
	match := increased
	if match == nil {
		match = appeared
	}

	t.setBaselineLocked(fresh)

	if match == nil {
		return JoinAttribution{Inviter: domain.UnknownActor}
	}
	return JoinAttribution{
		Inviter: domain.KnownActor(match.InviterID),
		Code:    match.Code,
	}
}

func (t *InviteTracker) replaceBaseline(invites []domain.InviteSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setBaselineLocked(invites)
}

func (t *InviteTracker) setBaselineLocked(invites []domain.InviteSnapshot) {
	baseline := make(map[domain.InviteCode]domain.InviteSnapshot, len(invites))
	for _, inv := range invites {
		baseline[inv.Code] = inv
	}
	t.baseline = baseline
	t.primed = true
	if t.metrics != nil {
		t.metrics.InviteBaselineSize.Set(float64(len(baseline)))
	}
}
