package domain

import "time"

// ActionKind is the platform's audit trail action enum, narrowed to the
// actions this service queries or mirrors.
type ActionKind string

const (
	ActionGuildUpdate       ActionKind = "guild_update"
	ActionChannelCreate     ActionKind = "channel_create"
	ActionChannelUpdate     ActionKind = "channel_update"
	ActionChannelDelete     ActionKind = "channel_delete"
	ActionMemberKick        ActionKind = "member_kick"
	ActionMemberBanAdd      ActionKind = "member_ban_add"
	ActionMemberBanRemove   ActionKind = "member_ban_remove"
	ActionMemberUpdate      ActionKind = "member_update"
	ActionMemberRoleUpdate  ActionKind = "member_role_update"
	ActionMemberMove        ActionKind = "member_move"
	ActionBotAdd            ActionKind = "bot_add"
	ActionRoleCreate        ActionKind = "role_create"
	ActionRoleUpdate        ActionKind = "role_update"
	ActionRoleDelete        ActionKind = "role_delete"
	ActionInviteCreate      ActionKind = "invite_create"
	ActionInviteDelete      ActionKind = "invite_delete"
	ActionWebhookCreate     ActionKind = "webhook_create"
	ActionWebhookUpdate     ActionKind = "webhook_update"
	ActionWebhookDelete     ActionKind = "webhook_delete"
	ActionEmojiCreate       ActionKind = "emoji_create"
	ActionEmojiUpdate       ActionKind = "emoji_update"
	ActionEmojiDelete       ActionKind = "emoji_delete"
	ActionMessageDelete     ActionKind = "message_delete"
	ActionStickerCreate     ActionKind = "sticker_create"
	ActionStickerUpdate     ActionKind = "sticker_update"
	ActionStickerDelete     ActionKind = "sticker_delete"
	ActionThreadCreate      ActionKind = "thread_create"
	ActionThreadUpdate      ActionKind = "thread_update"
	ActionThreadDelete      ActionKind = "thread_delete"
	ActionIntegrationUpdate ActionKind = "integration_update"
	ActionIntegrationDelete ActionKind = "integration_delete"
)

// AuditChange is one field-level change recorded on an audit entry.
type AuditChange struct {
	Key string
	Old string
	New string
}

// AuditExtra is the action-specific extra payload the platform attaches to
// some entries. For message deletions and member moves it names the channel
// and how many objects the single entry covers.
type AuditExtra struct {
	ChannelID ChannelID
	Count     int
}

// AuditEntry is one administrative action from the guild's audit trail.
// Entries are immutable and fetched on demand, newest first. ExecutorID is
// empty for system actions. The Extra.Count field is documented by the
// platform as approximate for some action kinds; consumers that budget
// against it must tolerate undercount by falling back to a fresh query.
type AuditEntry struct {
	ID         AuditID
	Action     ActionKind
	TargetID   string
	ExecutorID UserID
	Reason     string
	CreatedAt  time.Time
	Changes    []AuditChange
	Extra      AuditExtra
}

// TargetUser interprets the entry target as a user id. The audit trail keys
// targets by raw id regardless of entity type.
func (e AuditEntry) TargetUser() UserID {
	return UserID(e.TargetID)
}

// AgeAt returns how old the entry was at the given instant.
func (e AuditEntry) AgeAt(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// InviteSnapshot is one invite as returned by the live invite list.
type InviteSnapshot struct {
	Code      InviteCode
	Uses      int
	MaxUses   int
	InviterID UserID
}
