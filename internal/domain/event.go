package domain

import "time"

// EventKind discriminates the incoming event union.
type EventKind string

const (
	EventMemberJoin      EventKind = "member_join"
	EventMemberLeave     EventKind = "member_leave"
	EventMemberUpdate    EventKind = "member_update"
	EventUserUpdate      EventKind = "user_update"
	EventMessageDelete   EventKind = "message_delete"
	EventMessageEdit     EventKind = "message_edit"
	EventVoiceState      EventKind = "voice_state"
	EventReactionAdd     EventKind = "reaction_add"
	EventReactionRemove  EventKind = "reaction_remove"
	EventThreadCreate    EventKind = "thread_create"
	EventThreadUpdate    EventKind = "thread_update"
	EventThreadDelete    EventKind = "thread_delete"
	EventInviteCreate    EventKind = "invite_create"
	EventInviteDelete    EventKind = "invite_delete"
	EventScheduledCreate     EventKind = "scheduled_event_create"
	EventScheduledUpdate     EventKind = "scheduled_event_update"
	EventScheduledDelete     EventKind = "scheduled_event_delete"
	EventScheduledUserAdd    EventKind = "scheduled_event_user_add"
	EventScheduledUserRemove EventKind = "scheduled_event_user_remove"
	EventAutomodAction   EventKind = "automod_action"
	EventAuditEntry      EventKind = "audit_entry"
)

// Event is one delivery from the event source. Exactly one payload pointer
// matching Kind is set. Events are immutable; no component retains one past
// the handling of a single delivery.
type Event struct {
	Kind    EventKind `json:"kind"`
	GuildID GuildID   `json:"guild_id"`
	At      time.Time `json:"at"`

	MemberJoin    *MemberJoin     `json:"member_join,omitempty"`
	MemberLeave   *MemberLeave    `json:"member_leave,omitempty"`
	MemberUpdate  *MemberUpdate   `json:"member_update,omitempty"`
	UserUpdate    *UserUpdate     `json:"user_update,omitempty"`
	MessageDelete *MessageDelete  `json:"message_delete,omitempty"`
	MessageEdit   *MessageEdit    `json:"message_edit,omitempty"`
	VoiceState    *VoiceState     `json:"voice_state,omitempty"`
	Reaction      *Reaction       `json:"reaction,omitempty"`
	Thread        *ThreadChange   `json:"thread,omitempty"`
	Invite        *InviteChange   `json:"invite,omitempty"`
	Scheduled     *ScheduledEvent `json:"scheduled,omitempty"`
	ScheduledUser *ScheduledUser  `json:"scheduled_user,omitempty"`
	Automod       *AutomodAction  `json:"automod,omitempty"`
	AuditLogEntry *AuditEntry     `json:"audit_log_entry,omitempty"`
}

// HasPayload reports whether the delivery carried the payload matching Kind.
// Partial deliveries can omit it.
func (e Event) HasPayload() bool {
	switch e.Kind {
	case EventMemberJoin:
		return e.MemberJoin != nil
	case EventMemberLeave:
		return e.MemberLeave != nil
	case EventMemberUpdate:
		return e.MemberUpdate != nil
	case EventUserUpdate:
		return e.UserUpdate != nil
	case EventMessageDelete:
		return e.MessageDelete != nil
	case EventMessageEdit:
		return e.MessageEdit != nil
	case EventVoiceState:
		return e.VoiceState != nil
	case EventReactionAdd, EventReactionRemove:
		return e.Reaction != nil
	case EventThreadCreate, EventThreadUpdate, EventThreadDelete:
		return e.Thread != nil
	case EventInviteCreate, EventInviteDelete:
		return e.Invite != nil
	case EventScheduledCreate, EventScheduledUpdate, EventScheduledDelete:
		return e.Scheduled != nil
	case EventScheduledUserAdd, EventScheduledUserRemove:
		return e.ScheduledUser != nil
	case EventAutomodAction:
		return e.Automod != nil
	case EventAuditEntry:
		return e.AuditLogEntry != nil
	default:
		return false
	}
}

// MemberJoin fires when a user enters the guild.
type MemberJoin struct {
	UserID         UserID
	Username       string
	Bot            bool
	AccountCreated time.Time
	MemberCount    int
}

// MemberLeave fires when a user leaves, is kicked, or is banned - the event
// itself does not distinguish those, attribution does.
type MemberLeave struct {
	UserID      UserID
	Username    string
	RoleNames   []string
	MemberCount int
}

// MemberUpdate covers guild-scoped profile changes (nickname, server avatar).
type MemberUpdate struct {
	UserID      UserID
	Bot         bool
	OldNickname string
	NewNickname string
	OldAvatar   string
	NewAvatar   string
}

// UserUpdate covers global profile changes (username, display name, avatar).
type UserUpdate struct {
	UserID         UserID
	Bot            bool
	OldUsername    string
	NewUsername    string
	OldDisplayName string
	NewDisplayName string
	AvatarChanged  bool
}

// MessageDelete carries what is known about the removed message. Partial
// deliveries can lack author and content.
type MessageDelete struct {
	MessageID MessageID
	ChannelID ChannelID
	AuthorID  UserID
	AuthorBot bool
	Content   string
}

// MessageEdit carries both revisions of an edited message.
type MessageEdit struct {
	MessageID  MessageID
	ChannelID  ChannelID
	AuthorID   UserID
	AuthorBot  bool
	OldContent string
	NewContent string
}

// VoiceState is the raw before/after pair for one member's voice session.
// Classification (join, leave, switch, move, mute, deafen, stream, video)
// happens in the handler, not at the source.
type VoiceState struct {
	UserID       UserID
	OldChannelID ChannelID
	NewChannelID ChannelID
	OldMute      bool
	NewMute      bool
	OldDeaf      bool
	NewDeaf      bool
	OldStreaming bool
	NewStreaming bool
	OldVideo     bool
	NewVideo     bool
}

// ReactionDirection tags a reaction event as an add or a remove.
type ReactionDirection string

const (
	ReactionAdded   ReactionDirection = "add"
	ReactionRemoved ReactionDirection = "remove"
)

// Reaction fires for both add and remove; the source may redeliver it.
type Reaction struct {
	MessageID MessageID
	ChannelID ChannelID
	UserID    UserID
	UserBot   bool
	Emoji     string
	Direction ReactionDirection
}

// ThreadChange covers thread lifecycle; for updates the Old* fields carry
// the previous state.
type ThreadChange struct {
	ThreadID    ChannelID
	ParentID    ChannelID
	Name        string
	OldName     string
	OwnerID     UserID
	OldArchived bool
	Archived    bool
	OldLocked   bool
	Locked      bool
}

// InviteChange fires when an invite is created or revoked.
type InviteChange struct {
	Code      InviteCode
	InviterID UserID
	Uses      int
	MaxUses   int
}

// ScheduledEvent covers the scheduled-event lifecycle.
type ScheduledEvent struct {
	Name        string
	Description string
	CreatorID   UserID
	StartsAt    time.Time
	EndsAt      time.Time
	Location    string
}

// ScheduledUser fires when a user marks or withdraws interest in a
// scheduled event.
type ScheduledUser struct {
	UserID    UserID
	EventName string
}

// AutomodAction is a platform auto-moderation rule execution.
type AutomodAction struct {
	UserID         UserID
	ChannelID      ChannelID
	RuleName       string
	ActionType     int
	TriggerType    int
	MatchedContent string
	MatchedKeyword string
}
