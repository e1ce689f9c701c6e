// Package chat defines the contracts this service has with the chat
// platform. The live transport (gateway session, reconnects, rate-limit
// bookkeeping) sits behind these interfaces; everything above them treats
// the platform as a reliable, reconnecting event source plus a handful of
// on-demand queries.
package chat

import (
	"context"

	"cord/internal/domain"
)

//go:generate mockgen -source=chat.go -destination=mocks/mocks.go -package=mocks

// ChannelType narrows the platform channel taxonomy to what the reconciler
// handles.
type ChannelType string

const (
	ChannelText     ChannelType = "text"
	ChannelCategory ChannelType = "category"
	ChannelOther    ChannelType = "other"
)

// Channel is the reconciler's view of one live channel or category.
type Channel struct {
	ID       domain.ChannelID
	GuildID  domain.GuildID
	Name     string
	Topic    string
	Type     ChannelType
	ParentID domain.ChannelID
}

// IsCategory reports whether the channel is a category container.
func (c Channel) IsCategory() bool { return c.Type == ChannelCategory }

// IsText reports whether the channel is a plain text channel.
func (c Channel) IsText() bool { return c.Type == ChannelText }

// AuditQuery bounds one audit trail page fetch. An empty Kinds slice asks
// for entries of any action kind.
type AuditQuery struct {
	GuildID domain.GuildID
	Kinds   []domain.ActionKind
	Limit   int
}

// AuditLog is the on-demand, rate-limited query interface to the guild's
// audit trail. Entries come back newest first, by platform guarantee.
// Implementations return domain-errors codes: CodeRateLimited for throttle
// responses, CodeTransient for network failures, CodePermissionDenied when
// the view_audit_log capability is missing.
type AuditLog interface {
	QueryAuditLog(ctx context.Context, q AuditQuery) ([]domain.AuditEntry, error)
}

// InviteLister fetches the live invite list for a guild.
type InviteLister interface {
	ListInvites(ctx context.Context, guildID domain.GuildID) ([]domain.InviteSnapshot, error)
}

// CreateChannelParams carries everything needed to provision one channel.
// ParentID is empty when creating a category.
type CreateChannelParams struct {
	GuildID  domain.GuildID
	Name     string
	Topic    string
	Type     ChannelType
	ParentID domain.ChannelID
}

// ChannelAdmin is the mutation surface the topology reconciler needs.
// FetchChannel returns CodeNotFound when the id no longer resolves; callers
// treat that as "rebuild", never as a hard failure.
type ChannelAdmin interface {
	FetchChannel(ctx context.Context, id domain.ChannelID) (*Channel, error)
	ListChannels(ctx context.Context, guildID domain.GuildID) ([]Channel, error)
	CreateChannel(ctx context.Context, p CreateChannelParams) (*Channel, error)
	SetTopic(ctx context.Context, id domain.ChannelID, topic string) error
	DeleteChannel(ctx context.Context, id domain.ChannelID, reason string) error
}

// Messenger delivers one message to a logging channel.
type Messenger interface {
	SendMessage(ctx context.Context, channelID domain.ChannelID, content string) error
}

// PermissionChecker verifies the capabilities the service needs at startup.
// A failed check is the one fatal error class in the system.
type PermissionChecker interface {
	CheckPermissions(ctx context.Context, guildID domain.GuildID, required []string) (missing []string, err error)
}

// Source delivers the live event stream. Delivery is at-least-once with no
// ordering guarantee across kinds and weak ordering within a kind; the
// channel closes when the context ends or the session is torn down for good.
type Source interface {
	Subscribe(ctx context.Context) (<-chan domain.Event, error)
}

// RequiredPermissions is the capability set verified at startup in both
// guilds.
var RequiredPermissions = []string{
	"view_channel",
	"send_messages",
	"embed_links",
	"read_message_history",
	"view_audit_log",
	"manage_channels",
}
