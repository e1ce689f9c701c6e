// Package notify turns a resolved event into one plain-text log line and
// delivers it to the right logging channel. Formatting here is deliberately
// minimal; the value of the service is in attribution and routing, not
// message cosmetics.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cord/internal/chat"
	"cord/internal/dispatch"
	"cord/internal/domain"
	"cord/internal/topology"
	domainerrors "cord/pkg/domain-errors"
)

// Service implements dispatch.Notifier on top of a chat messenger and the
// reconciled channel map.
type Service struct {
	messenger chat.Messenger
	channels  topology.ChannelMap
	logger    *slog.Logger
	dryRun    bool
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

// WithDryRun logs rendered lines instead of delivering them. Useful when
// pointing the service at a production guild for the first time.
func WithDryRun(dry bool) Option {
	return func(s *Service) {
		s.dryRun = dry
	}
}

// New constructs the notifier over the reconciled channel map.
func New(messenger chat.Messenger, channels topology.ChannelMap, opts ...Option) (*Service, error) {
	if messenger == nil {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "messenger is required")
	}
	if len(channels) == 0 {
		return nil, domainerrors.New(domainerrors.CodeInvalidInput, "channel map is required")
	}
	s := &Service{
		messenger: messenger,
		channels:  channels,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Notify renders and delivers one event.
func (s *Service) Notify(ctx context.Context, channelKey string, ev domain.Event, res dispatch.Resolution) error {
	id, ok := s.channels[channelKey]
	if !ok {
		return domainerrors.New(domainerrors.CodeNotFound, "no channel for key "+channelKey)
	}
	content := Render(ev, res)
	if content == "" {
		return nil
	}
	if s.dryRun {
		s.logger.Info("dry-run notification", "channel_key", channelKey, "content", content)
		return nil
	}
	return s.messenger.SendMessage(ctx, id, content)
}

// Render produces the log line for one resolved event. Returns "" for
// events with nothing worth saying, including partial deliveries that
// omitted the payload.
func Render(ev domain.Event, res dispatch.Resolution) string {
	if !ev.HasPayload() {
		return ""
	}

	var b strings.Builder

	switch ev.Kind {
	case domain.EventMessageDelete:
		del := ev.MessageDelete
		fmt.Fprintf(&b, "Message by <@%s> deleted in <#%s>", del.AuthorID, del.ChannelID)
		if res.Actor.Known {
			fmt.Fprintf(&b, " by <@%s>", res.Actor.ID)
		}
		if del.Content != "" {
			fmt.Fprintf(&b, ": %s", del.Content)
		}
	case domain.EventMessageEdit:
		edit := ev.MessageEdit
		fmt.Fprintf(&b, "Message by <@%s> edited in <#%s>: %q -> %q",
			edit.AuthorID, edit.ChannelID, edit.OldContent, edit.NewContent)
	case domain.EventMemberJoin:
		join := ev.MemberJoin
		fmt.Fprintf(&b, "<@%s> joined (member #%d)", join.UserID, join.MemberCount)
		if res.Actor.Known {
			fmt.Fprintf(&b, ", invited by <@%s> via %s", res.Actor.ID, res.InviteCode)
		}
		if res.YoungAccount {
			b.WriteString(" [new account]")
		}
	case domain.EventMemberLeave:
		leave := ev.MemberLeave
		switch res.Action {
		case domain.ActionMemberKick:
			fmt.Fprintf(&b, "<@%s> was kicked by <@%s>", leave.UserID, res.Actor.ID)
		case domain.ActionMemberBanAdd:
			fmt.Fprintf(&b, "<@%s> was banned by <@%s>", leave.UserID, res.Actor.ID)
		default:
			fmt.Fprintf(&b, "<@%s> left", leave.UserID)
		}
		if res.Reason != "" {
			fmt.Fprintf(&b, " (reason: %s)", res.Reason)
		}
	case domain.EventVoiceState:
		renderVoice(&b, ev.VoiceState, res)
	case domain.EventReactionAdd, domain.EventReactionRemove:
		re := ev.Reaction
		verb := "added"
		if re.Direction == domain.ReactionRemoved {
			verb = "removed"
		}
		fmt.Fprintf(&b, "<@%s> %s reaction %s in <#%s>", re.UserID, verb, re.Emoji, re.ChannelID)
	case domain.EventThreadCreate:
		fmt.Fprintf(&b, "Thread %q created in <#%s>", ev.Thread.Name, ev.Thread.ParentID)
	case domain.EventThreadDelete:
		fmt.Fprintf(&b, "Thread %q deleted", ev.Thread.Name)
	case domain.EventThreadUpdate:
		renderThread(&b, ev.Thread, res)
	case domain.EventInviteCreate:
		fmt.Fprintf(&b, "Invite %s created by <@%s>", ev.Invite.Code, ev.Invite.InviterID)
	case domain.EventInviteDelete:
		fmt.Fprintf(&b, "Invite %s deleted", ev.Invite.Code)
	case domain.EventScheduledCreate:
		fmt.Fprintf(&b, "Scheduled event %q created by <@%s>", ev.Scheduled.Name, ev.Scheduled.CreatorID)
	case domain.EventScheduledUpdate:
		fmt.Fprintf(&b, "Scheduled event %q updated", ev.Scheduled.Name)
	case domain.EventScheduledDelete:
		fmt.Fprintf(&b, "Scheduled event %q cancelled", ev.Scheduled.Name)
	case domain.EventScheduledUserAdd:
		fmt.Fprintf(&b, "<@%s> is interested in %q", ev.ScheduledUser.UserID, ev.ScheduledUser.EventName)
	case domain.EventScheduledUserRemove:
		fmt.Fprintf(&b, "<@%s> is no longer interested in %q", ev.ScheduledUser.UserID, ev.ScheduledUser.EventName)
	case domain.EventAutomodAction:
		am := ev.Automod
		fmt.Fprintf(&b, "Automod rule %q triggered by <@%s> in <#%s>", am.RuleName, am.UserID, am.ChannelID)
	case domain.EventMemberUpdate:
		renderMemberUpdate(&b, ev.MemberUpdate)
	case domain.EventUserUpdate:
		renderUserUpdate(&b, ev.UserUpdate)
	case domain.EventAuditEntry:
		entry := ev.AuditLogEntry
		b.WriteString(string(entry.Action))
		if res.Actor.Known {
			fmt.Fprintf(&b, " by <@%s>", res.Actor.ID)
		}
		if entry.TargetID != "" {
			fmt.Fprintf(&b, " on %s", entry.TargetID)
		}
		if res.Reason != "" {
			fmt.Fprintf(&b, " (reason: %s)", res.Reason)
		}
	}

	return b.String()
}

func renderVoice(b *strings.Builder, vs *domain.VoiceState, res dispatch.Resolution) {
	switch res.VoiceChange {
	case dispatch.VoiceJoin:
		fmt.Fprintf(b, "<@%s> joined voice <#%s>", vs.UserID, vs.NewChannelID)
	case dispatch.VoiceLeave:
		fmt.Fprintf(b, "<@%s> left voice <#%s>", vs.UserID, vs.OldChannelID)
	case dispatch.VoiceSwitch:
		fmt.Fprintf(b, "<@%s> switched voice <#%s> -> <#%s>", vs.UserID, vs.OldChannelID, vs.NewChannelID)
	case dispatch.VoiceMoved:
		fmt.Fprintf(b, "<@%s> was moved to <#%s> by <@%s>", vs.UserID, vs.NewChannelID, res.Actor.ID)
	case dispatch.VoiceMute:
		if res.Actor.Known {
			fmt.Fprintf(b, "<@%s> was server muted by <@%s>", vs.UserID, res.Actor.ID)
		} else {
			fmt.Fprintf(b, "<@%s> muted", vs.UserID)
		}
	case dispatch.VoiceUnmute:
		fmt.Fprintf(b, "<@%s> unmuted", vs.UserID)
	case dispatch.VoiceDeafen:
		if res.Actor.Known {
			fmt.Fprintf(b, "<@%s> was server deafened by <@%s>", vs.UserID, res.Actor.ID)
		} else {
			fmt.Fprintf(b, "<@%s> deafened", vs.UserID)
		}
	case dispatch.VoiceUndeafen:
		fmt.Fprintf(b, "<@%s> undeafened", vs.UserID)
	case dispatch.VoiceStreamOn:
		fmt.Fprintf(b, "<@%s> started streaming in <#%s>", vs.UserID, vs.NewChannelID)
	case dispatch.VoiceStreamOff:
		fmt.Fprintf(b, "<@%s> stopped streaming", vs.UserID)
	case dispatch.VoiceVideoOn:
		fmt.Fprintf(b, "<@%s> turned on video in <#%s>", vs.UserID, vs.NewChannelID)
	case dispatch.VoiceVideoOff:
		fmt.Fprintf(b, "<@%s> turned off video", vs.UserID)
	}
}

func renderThread(b *strings.Builder, th *domain.ThreadChange, res dispatch.Resolution) {
	switch {
	case th.OldArchived != th.Archived && th.Archived:
		fmt.Fprintf(b, "Thread %q archived", th.Name)
	case th.OldArchived != th.Archived:
		fmt.Fprintf(b, "Thread %q unarchived", th.Name)
	case th.OldLocked != th.Locked && th.Locked:
		fmt.Fprintf(b, "Thread %q locked", th.Name)
	case th.OldLocked != th.Locked:
		fmt.Fprintf(b, "Thread %q unlocked", th.Name)
	case th.OldName != "" && th.OldName != th.Name:
		fmt.Fprintf(b, "Thread renamed %q -> %q", th.OldName, th.Name)
	default:
		fmt.Fprintf(b, "Thread %q updated", th.Name)
	}
	if res.Actor.Known {
		fmt.Fprintf(b, " by <@%s>", res.Actor.ID)
	}
}

func renderMemberUpdate(b *strings.Builder, mu *domain.MemberUpdate) {
	switch {
	case mu.OldNickname != mu.NewNickname:
		fmt.Fprintf(b, "<@%s> nickname %q -> %q", mu.UserID, mu.OldNickname, mu.NewNickname)
	case mu.OldAvatar != mu.NewAvatar:
		fmt.Fprintf(b, "<@%s> changed server avatar", mu.UserID)
	}
}

func renderUserUpdate(b *strings.Builder, uu *domain.UserUpdate) {
	switch {
	case uu.OldUsername != uu.NewUsername:
		fmt.Fprintf(b, "<@%s> username %q -> %q", uu.UserID, uu.OldUsername, uu.NewUsername)
	case uu.OldDisplayName != uu.NewDisplayName:
		fmt.Fprintf(b, "<@%s> display name %q -> %q", uu.UserID, uu.OldDisplayName, uu.NewDisplayName)
	case uu.AvatarChanged:
		fmt.Fprintf(b, "<@%s> changed avatar", uu.UserID)
	}
}
