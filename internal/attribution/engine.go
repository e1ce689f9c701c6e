// Package attribution resolves "who caused this" for events that do not
// carry their own actor, using the guild audit trail as ground truth.
//
// The trail is eventually consistent with the event stream, so every
// resolution waits a short settle delay, fetches one small page, and picks
// the newest qualifying entry inside a bounded age window. No outcome here
// is an error: a failed query, an empty page, or an out-of-window entry all
// resolve to the unknown actor and the pipeline carries on.
package attribution

import (
	"context"
	"log/slog"
	"time"

	"cord/internal/attribution/metrics"
	"cord/internal/chat"
	"cord/internal/domain"
	"cord/internal/platform/tracer"
	domainerrors "cord/pkg/domain-errors"
)

// Config carries the timing and paging parameters for audit trail
// resolution. Zero fields fall back to defaults.
type Config struct {
	// MessageDeleteDelay is the settle delay before querying for a message
	// deletion. Deletion entries take noticeably longer to appear than
	// moderation entries.
	MessageDeleteDelay time.Duration

	// VoiceMoveDelay is the settle delay before querying for a member move.
	VoiceMoveDelay time.Duration

	// ModerationDelay is the settle delay for kick/ban/mute/deafen/thread
	// queries.
	ModerationDelay time.Duration

	// MatchWindow is the maximum entry age that still counts as caused by
	// the event being attributed.
	MatchWindow time.Duration

	// PageSize bounds every audit trail query. Anything beyond the newest
	// few entries is older than the match window by construction.
	PageSize int

	// CacheTTL bounds the bulk-move and reaction dedup windows.
	CacheTTL time.Duration
}

// DefaultConfig returns the production timing parameters.
func DefaultConfig() Config {
	return Config{
		MessageDeleteDelay: time.Second,
		VoiceMoveDelay:     800 * time.Millisecond,
		ModerationDelay:    500 * time.Millisecond,
		MatchWindow:        5 * time.Second,
		PageSize:           5,
		CacheTTL:           5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MessageDeleteDelay <= 0 {
		c.MessageDeleteDelay = d.MessageDeleteDelay
	}
	if c.VoiceMoveDelay <= 0 {
		c.VoiceMoveDelay = d.VoiceMoveDelay
	}
	if c.ModerationDelay <= 0 {
		c.ModerationDelay = d.ModerationDelay
	}
	if c.MatchWindow <= 0 {
		c.MatchWindow = d.MatchWindow
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	return c
}

// Engine is the shared wait/query/filter core behind every kind-specific
// attribution. Safe for concurrent use.
type Engine struct {
	audit   chat.AuditLog
	guildID domain.GuildID
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	clock   func() time.Time
	sleep   func(ctx context.Context, d time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer overrides the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithClock overrides the time source used for entry age checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithSleeper overrides the settle delay wait. Tests use this to skip real
// sleeps.
func WithSleeper(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// NewEngine constructs an Engine for one guild's audit trail.
func NewEngine(audit chat.AuditLog, guildID domain.GuildID, cfg Config, opts ...Option) (*Engine, error) {
	if audit == nil {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "audit log is required")
	}
	e := &Engine{
		audit:   audit,
		guildID: guildID,
		cfg:     cfg.withDefaults(),
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
		clock:   time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// query parameterizes one resolution: which action kinds to fetch, how long
// to let the trail settle, which entries qualify, and whose self-actions to
// discard.
type query struct {
	name    string
	kinds   []domain.ActionKind
	delay   time.Duration
	subject domain.UserID
	match   func(domain.AuditEntry) bool
}

// resolve runs the shared algorithm and returns the newest qualifying entry
// alongside the actor, or (UnknownActor, nil).
func (e *Engine) resolve(ctx context.Context, q query) (domain.Actor, *domain.AuditEntry) {
	e.sleep(ctx, q.delay)
	if ctx.Err() != nil {
		return domain.UnknownActor, nil
	}

	ctx, span := e.tracer.Start(ctx, tracer.SpanResolve,
		tracer.String(tracer.AttrActionKinds, q.name),
		tracer.Int64(tracer.AttrPageSize, int64(e.cfg.PageSize)),
	)
	defer span.End(nil)

	entries, err := e.audit.QueryAuditLog(ctx, chat.AuditQuery{
		GuildID: e.guildID,
		Kinds:   q.kinds,
		Limit:   e.cfg.PageSize,
	})
	if err != nil {
		e.countQuery(metrics.ResultError)
		e.countOutcome(q.name, metrics.OutcomeUnknown)
		span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeUnknown))
		e.logger.Warn("audit trail query failed, attribution unknown",
			"query", q.name, "error", err)
		return domain.UnknownActor, nil
	}
	e.countQuery(metrics.ResultOK)
	span.SetAttributes(tracer.Int64(tracer.AttrEntries, int64(len(entries))))

	now := e.clock()
	for _, entry := range entries {
		if q.match != nil && !q.match(entry) {
			continue
		}
		if entry.AgeAt(now) > e.cfg.MatchWindow {
			continue
		}
		if entry.ExecutorID.IsZero() {
			// System action; nothing to attribute.
			continue
		}
		if !q.subject.IsZero() && entry.ExecutorID == q.subject {
			// Users acting on themselves are not moderated.
			continue
		}
		e.countOutcome(q.name, metrics.OutcomeResolved)
		span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeResolved))
		return domain.KnownActor(entry.ExecutorID), &entry
	}

	e.countOutcome(q.name, metrics.OutcomeUnknown)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, metrics.OutcomeUnknown))
	return domain.UnknownActor, nil
}

func (e *Engine) countQuery(result string) {
	if e.metrics != nil {
		e.metrics.AuditQueries.WithLabelValues(result).Inc()
	}
}

func (e *Engine) countOutcome(kind, outcome string) {
	if e.metrics != nil {
		e.metrics.Attributions.WithLabelValues(kind, outcome).Inc()
	}
}

// MessageDeleter attributes a message deletion to a moderator. The entry's
// extra data names the channel the deletion happened in and must equal the
// event's channel exactly; an entry without one never qualifies, since a
// deletion in any channel would otherwise match. Author self-deletes produce
// no audit entry at all, so an unknown result usually means the author
// deleted their own message.
func (e *Engine) MessageDeleter(ctx context.Context, author domain.UserID, channel domain.ChannelID) domain.Actor {
	actor, _ := e.resolve(ctx, query{
		name:    "message_delete",
		kinds:   []domain.ActionKind{domain.ActionMessageDelete},
		delay:   e.cfg.MessageDeleteDelay,
		subject: author,
		match: func(entry domain.AuditEntry) bool {
			return entry.TargetUser() == author && entry.Extra.ChannelID == channel
		},
	})
	return actor
}

// Removal is the verdict on why a member left: the acting moderator, the
// action that removed them, and the recorded reason. Action is empty when
// the leave was voluntary (no qualifying kick or ban entry).
type Removal struct {
	Actor  domain.Actor
	Action domain.ActionKind
	Reason string
}

// MemberRemoval decides whether a member-leave was a kick or a ban and by
// whom. Kicks and bans land in the same query because a leave event carries
// no hint of which one happened.
func (e *Engine) MemberRemoval(ctx context.Context, target domain.UserID) Removal {
	actor, entry := e.resolve(ctx, query{
		name:    "member_removal",
		kinds:   []domain.ActionKind{domain.ActionMemberKick, domain.ActionMemberBanAdd},
		delay:   e.cfg.ModerationDelay,
		subject: target,
		match: func(entry domain.AuditEntry) bool {
			return entry.TargetUser() == target
		},
	})
	if !actor.Known || entry == nil {
		return Removal{Actor: domain.UnknownActor}
	}
	return Removal{Actor: actor, Action: entry.Action, Reason: entry.Reason}
}

// VoiceModerator attributes a server mute or deafen. The member-update entry
// must carry a change for the given key ("mute" or "deaf"); plain profile
// updates share the same action kind and must not qualify.
func (e *Engine) VoiceModerator(ctx context.Context, target domain.UserID, changeKey string) domain.Actor {
	actor, _ := e.resolve(ctx, query{
		name:    "voice_" + changeKey,
		kinds:   []domain.ActionKind{domain.ActionMemberUpdate},
		delay:   e.cfg.ModerationDelay,
		subject: target,
		match: func(entry domain.AuditEntry) bool {
			if entry.TargetUser() != target {
				return false
			}
			for _, ch := range entry.Changes {
				if ch.Key == changeKey {
					return true
				}
			}
			return false
		},
	})
	return actor
}

// ThreadExecutor attributes a thread archive/lock transition. Threads have
// no subject user, so self-exclusion does not apply.
func (e *Engine) ThreadExecutor(ctx context.Context, thread domain.ChannelID) domain.Actor {
	actor, _ := e.resolve(ctx, query{
		name:  "thread_update",
		kinds: []domain.ActionKind{domain.ActionThreadUpdate},
		delay: e.cfg.ModerationDelay,
		match: func(entry domain.AuditEntry) bool {
			return entry.TargetID == string(thread)
		},
	})
	return actor
}
