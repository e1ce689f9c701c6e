// Package dispatch routes incoming events to their handlers, runs the
// attribution each kind needs, and hands the resolved outcome to the
// notifier. One goroutine per delivery; a panic in one handler never takes
// down the stream.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cord/internal/attribution"
	"cord/internal/chat"
	"cord/internal/dispatch/metrics"
	"cord/internal/domain"
	domainerrors "cord/pkg/domain-errors"
)

// VoiceChange classifies one voice-state transition. The raw event is a
// before/after pair; the handler decides what actually happened.
type VoiceChange string

const (
	VoiceJoin      VoiceChange = "join"
	VoiceLeave     VoiceChange = "leave"
	VoiceSwitch    VoiceChange = "switch"
	VoiceMoved     VoiceChange = "moved"
	VoiceMute      VoiceChange = "mute"
	VoiceUnmute    VoiceChange = "unmute"
	VoiceDeafen    VoiceChange = "deafen"
	VoiceUndeafen  VoiceChange = "undeafen"
	VoiceStreamOn  VoiceChange = "stream_start"
	VoiceStreamOff VoiceChange = "stream_stop"
	VoiceVideoOn   VoiceChange = "video_start"
	VoiceVideoOff  VoiceChange = "video_stop"
)

// Resolution is everything attribution adds to a raw event before it
// reaches the notifier.
type Resolution struct {
	Actor        domain.Actor
	Action       domain.ActionKind
	Reason       string
	InviteCode   domain.InviteCode
	YoungAccount bool
	VoiceChange  VoiceChange
}

// Notifier renders a resolved event into the logging channel behind the
// given logical key. Rendering itself lives outside this package.
type Notifier interface {
	Notify(ctx context.Context, channelKey string, event domain.Event, res Resolution) error
}

// Logical channel keys the dispatcher routes to. They must exist in the
// reconciled layout.
const (
	keyModeration   = "moderation"
	keyMessages     = "messages"
	keyMembers      = "members"
	keyVoice        = "voice"
	keyRoles        = "roles"
	keyChannels     = "channels"
	keyServer       = "server"
	keyInvites      = "invites"
	keyEmojis       = "emojis"
	keyStickers     = "stickers"
	keyIntegrations = "integrations"
	keyThreads      = "threads"
	keyAutomod      = "automod"
	keyJoins        = "joins"
	keyLeaves       = "leaves"
	keyReactions    = "reactions"
	keyScreenshare  = "screenshare"
	keyEvents       = "events"
)

// Service consumes the event stream and fans each delivery out to a
// handler goroutine.
type Service struct {
	engine    *attribution.Engine
	moves     *attribution.MoveTracker
	invites   *attribution.InviteTracker
	reactions *attribution.ReactionDeduper
	notifier  Notifier

	targetGuild domain.GuildID
	youngAge    time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time

	ready    atomic.Bool
	handlers sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for account-age checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithYoungAccountAge overrides the account-age warning threshold.
func WithYoungAccountAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.youngAge = d
		}
	}
}

// New constructs the dispatcher. All collaborators are required.
func New(
	engine *attribution.Engine,
	moves *attribution.MoveTracker,
	invites *attribution.InviteTracker,
	reactions *attribution.ReactionDeduper,
	notifier Notifier,
	targetGuild domain.GuildID,
	opts ...Option,
) (*Service, error) {
	if engine == nil || moves == nil || invites == nil || reactions == nil || notifier == nil {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "all dispatcher collaborators are required")
	}
	if targetGuild.IsZero() {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "target guild id is required")
	}
	s := &Service{
		engine:      engine,
		moves:       moves,
		invites:     invites,
		reactions:   reactions,
		notifier:    notifier,
		targetGuild: targetGuild,
		youngAge:    7 * 24 * time.Hour,
		logger:      slog.Default(),
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// SetReady opens the gate. Events arriving before the topology is
// reconciled and the invite baseline primed are dropped, not queued.
func (s *Service) SetReady() {
	s.ready.Store(true)
}

// Ready reports whether the dispatcher is accepting events.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Run consumes the source until the context ends or the stream closes,
// then waits for in-flight handlers to finish.
func (s *Service) Run(ctx context.Context, source chat.Source) error {
	events, err := source.Subscribe(ctx)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransient, "subscribe to event source")
	}
	s.logger.Info("dispatcher running", "guild_id", s.targetGuild)

	for {
		select {
		case <-ctx.Done():
			s.handlers.Wait()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				s.handlers.Wait()
				return nil
			}
			s.Dispatch(ctx, ev)
		}
	}
}

// Dispatch hands one event to its handler goroutine. Exported so a
// transport with its own callback shape can feed the same pipeline.
func (s *Service) Dispatch(ctx context.Context, ev domain.Event) {
	if !s.ready.Load() {
		s.drop(metrics.DropNotReady)
		return
	}
	if ev.GuildID != s.targetGuild {
		s.drop(metrics.DropWrongGuild)
		return
	}
	s.countEvent(string(ev.Kind))

	s.handlers.Add(1)
	go func() {
		defer s.handlers.Done()
		deliveryID := uuid.NewString()
		defer func() {
			if r := recover(); r != nil {
				if s.metrics != nil {
					s.metrics.PanicsRecovered.Inc()
				}
				s.logger.Error("handler panic recovered",
					"delivery_id", deliveryID, "kind", ev.Kind, "panic", r)
			}
		}()
		s.handle(ctx, ev)
	}()
}

func (s *Service) handle(ctx context.Context, ev domain.Event) {
	switch ev.Kind {
	case domain.EventMessageDelete:
		s.handleMessageDelete(ctx, ev)
	case domain.EventMessageEdit:
		s.handleMessageEdit(ctx, ev)
	case domain.EventMemberJoin:
		s.handleMemberJoin(ctx, ev)
	case domain.EventMemberLeave:
		s.handleMemberLeave(ctx, ev)
	case domain.EventMemberUpdate, domain.EventUserUpdate:
		s.passthrough(ctx, keyMembers, ev)
	case domain.EventVoiceState:
		s.handleVoiceState(ctx, ev)
	case domain.EventReactionAdd, domain.EventReactionRemove:
		s.handleReaction(ctx, ev)
	case domain.EventThreadCreate, domain.EventThreadDelete:
		s.passthrough(ctx, keyThreads, ev)
	case domain.EventThreadUpdate:
		s.handleThreadUpdate(ctx, ev)
	case domain.EventInviteCreate, domain.EventInviteDelete:
		s.handleInviteChange(ctx, ev)
	case domain.EventScheduledCreate, domain.EventScheduledUpdate, domain.EventScheduledDelete,
		domain.EventScheduledUserAdd, domain.EventScheduledUserRemove:
		s.passthrough(ctx, keyEvents, ev)
	case domain.EventAutomodAction:
		s.passthrough(ctx, keyAutomod, ev)
	case domain.EventAuditEntry:
		s.handleAuditEntry(ctx, ev)
	default:
		s.logger.Debug("unhandled event kind", "kind", ev.Kind)
	}
}

func (s *Service) handleMessageDelete(ctx context.Context, ev domain.Event) {
	del := ev.MessageDelete
	if del == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	if del.AuthorBot {
		s.drop(metrics.DropBot)
		return
	}
	res := Resolution{}
	// Partial deliveries can lack the author; without one there is nothing
	// to match audit entries against.
	if !del.AuthorID.IsZero() {
		res.Actor = s.engine.MessageDeleter(ctx, del.AuthorID, del.ChannelID)
	}
	s.notify(ctx, keyMessages, ev, res)
}

func (s *Service) handleMessageEdit(ctx context.Context, ev domain.Event) {
	edit := ev.MessageEdit
	if edit == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	if edit.AuthorBot {
		s.drop(metrics.DropBot)
		return
	}
	if edit.OldContent == edit.NewContent {
		// Embed unfurls redeliver the message unchanged.
		s.drop(metrics.DropDuplicate)
		return
	}
	s.notify(ctx, keyMessages, ev, Resolution{})
}

func (s *Service) handleMemberJoin(ctx context.Context, ev domain.Event) {
	join := ev.MemberJoin
	if join == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	res := Resolution{}
	if !join.Bot {
		attr := s.invites.AttributeJoin(ctx)
		res.Actor = attr.Inviter
		res.InviteCode = attr.Code
	}
	if !join.AccountCreated.IsZero() {
		res.YoungAccount = s.clock().Sub(join.AccountCreated) < s.youngAge
	}
	s.notify(ctx, keyJoins, ev, res)
}

func (s *Service) handleMemberLeave(ctx context.Context, ev domain.Event) {
	leave := ev.MemberLeave
	if leave == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	removal := s.engine.MemberRemoval(ctx, leave.UserID)
	res := Resolution{Actor: removal.Actor, Action: removal.Action, Reason: removal.Reason}
	if removal.Actor.Known {
		// Kicks and bans are moderation, a voluntary leave is not.
		s.notify(ctx, keyModeration, ev, res)
		return
	}
	s.notify(ctx, keyLeaves, ev, res)
}

func (s *Service) handleVoiceState(ctx context.Context, ev domain.Event) {
	vs := ev.VoiceState
	if vs == nil {
		s.drop(metrics.DropNoPayload)
		return
	}

	// Voice traffic is the busiest stream, so it carries the opportunistic
	// cache sweeps.
	s.moves.Sweep()
	s.reactions.Sweep()

	switch {
	case vs.OldChannelID.IsZero() && !vs.NewChannelID.IsZero():
		s.notify(ctx, keyVoice, ev, Resolution{VoiceChange: VoiceJoin})
	case !vs.OldChannelID.IsZero() && vs.NewChannelID.IsZero():
		s.notify(ctx, keyVoice, ev, Resolution{VoiceChange: VoiceLeave})
	case vs.OldChannelID != vs.NewChannelID:
		actor := s.moves.AttributeMove(ctx, vs.UserID, vs.NewChannelID)
		change := VoiceSwitch
		if actor.Known {
			change = VoiceMoved
		}
		s.notify(ctx, keyVoice, ev, Resolution{Actor: actor, VoiceChange: change})
	case vs.OldMute != vs.NewMute:
		change := VoiceUnmute
		var actor domain.Actor
		if vs.NewMute {
			change = VoiceMute
			actor = s.engine.VoiceModerator(ctx, vs.UserID, "mute")
		}
		s.notify(ctx, keyVoice, ev, Resolution{Actor: actor, VoiceChange: change})
	case vs.OldDeaf != vs.NewDeaf:
		change := VoiceUndeafen
		var actor domain.Actor
		if vs.NewDeaf {
			change = VoiceDeafen
			actor = s.engine.VoiceModerator(ctx, vs.UserID, "deaf")
		}
		s.notify(ctx, keyVoice, ev, Resolution{Actor: actor, VoiceChange: change})
	case vs.OldStreaming != vs.NewStreaming:
		change := VoiceStreamOff
		if vs.NewStreaming {
			change = VoiceStreamOn
		}
		s.notify(ctx, keyScreenshare, ev, Resolution{VoiceChange: change})
	case vs.OldVideo != vs.NewVideo:
		change := VoiceVideoOff
		if vs.NewVideo {
			change = VoiceVideoOn
		}
		s.notify(ctx, keyScreenshare, ev, Resolution{VoiceChange: change})
	default:
		// Region or session churn with no visible change.
		s.drop(metrics.DropDuplicate)
	}
}

func (s *Service) handleReaction(ctx context.Context, ev domain.Event) {
	re := ev.Reaction
	if re == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	if re.UserBot {
		s.drop(metrics.DropBot)
		return
	}
	if !s.reactions.ShouldNotify(re.MessageID, re.UserID, re.Direction) {
		s.drop(metrics.DropDuplicate)
		return
	}
	s.notify(ctx, keyReactions, ev, Resolution{})
}

func (s *Service) handleThreadUpdate(ctx context.Context, ev domain.Event) {
	th := ev.Thread
	if th == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	res := Resolution{}
	// Archive and lock transitions are moderator actions worth attributing;
	// renames are not.
	if th.OldArchived != th.Archived || th.OldLocked != th.Locked {
		res.Actor = s.engine.ThreadExecutor(ctx, th.ThreadID)
	}
	s.notify(ctx, keyThreads, ev, res)
}

func (s *Service) handleInviteChange(ctx context.Context, ev domain.Event) {
	if ev.Invite == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	// Keep the baseline current so the next join diffs against reality.
	s.invites.Refresh(ctx)
	s.notify(ctx, keyInvites, ev, Resolution{})
}

// handleAuditEntry routes the pass-through audit feed: entries whose event
// kinds have no dedicated stream still deserve a log line, keyed by action
// family.
func (s *Service) handleAuditEntry(ctx context.Context, ev domain.Event) {
	entry := ev.AuditLogEntry
	if entry == nil {
		s.drop(metrics.DropNoPayload)
		return
	}
	key, ok := auditRouting[entry.Action]
	if !ok {
		s.logger.Debug("unrouted audit action", "action", entry.Action)
		return
	}
	res := Resolution{Reason: entry.Reason}
	if !entry.ExecutorID.IsZero() {
		res.Actor = domain.KnownActor(entry.ExecutorID)
	}
	res.Action = entry.Action
	s.notify(ctx, key, ev, res)
}

// auditRouting maps pass-through audit actions to logging channels. Actions
// with a dedicated event handler (kick, ban-add, message-delete, member
// move) are deliberately absent; their events carry more context than the
// bare audit entry.
var auditRouting = map[domain.ActionKind]string{
	domain.ActionGuildUpdate:       keyServer,
	domain.ActionChannelCreate:     keyChannels,
	domain.ActionChannelUpdate:     keyChannels,
	domain.ActionChannelDelete:     keyChannels,
	domain.ActionMemberBanRemove:   keyModeration,
	domain.ActionMemberRoleUpdate:  keyRoles,
	domain.ActionRoleCreate:        keyRoles,
	domain.ActionRoleUpdate:        keyRoles,
	domain.ActionRoleDelete:        keyRoles,
	domain.ActionEmojiCreate:       keyEmojis,
	domain.ActionEmojiUpdate:       keyEmojis,
	domain.ActionEmojiDelete:       keyEmojis,
	domain.ActionStickerCreate:     keyStickers,
	domain.ActionStickerUpdate:     keyStickers,
	domain.ActionStickerDelete:     keyStickers,
	domain.ActionBotAdd:            keyIntegrations,
	domain.ActionWebhookCreate:     keyIntegrations,
	domain.ActionWebhookUpdate:     keyIntegrations,
	domain.ActionWebhookDelete:     keyIntegrations,
	domain.ActionIntegrationUpdate: keyIntegrations,
	domain.ActionIntegrationDelete: keyIntegrations,
}

// passthrough forwards a kind with no attribution step. The nil-payload
// guard matches the dedicated handlers: a partial delivery is a counted
// drop, never a panic.
func (s *Service) passthrough(ctx context.Context, key string, ev domain.Event) {
	if !ev.HasPayload() {
		s.drop(metrics.DropNoPayload)
		return
	}
	s.notify(ctx, key, ev, Resolution{})
}

func (s *Service) notify(ctx context.Context, key string, ev domain.Event, res Resolution) {
	if err := s.notifier.Notify(ctx, key, ev, res); err != nil {
		if s.metrics != nil {
			s.metrics.NotifyFailures.Inc()
		}
		s.logger.Error("notification failed", "channel_key", key, "kind", ev.Kind, "error", err)
	}
}

func (s *Service) drop(reason string) {
	if s.metrics != nil {
		s.metrics.Dropped.WithLabelValues(reason).Inc()
	}
}

func (s *Service) countEvent(kind string) {
	if s.metrics != nil {
		s.metrics.Events.WithLabelValues(kind).Inc()
	}
}
