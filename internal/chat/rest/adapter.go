package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cord/internal/chat"
	"cord/internal/domain"
)

// Adapter implements the chat platform contracts over the REST client.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a configured client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Wire shapes. The platform speaks numeric-free string enums for action and
// channel types, snowflake ids as strings, and RFC 3339 timestamps.

type wireAuditEntry struct {
	ID         string          `json:"id"`
	ActionType string          `json:"action_type"`
	TargetID   string          `json:"target_id"`
	UserID     string          `json:"user_id"`
	Reason     string          `json:"reason,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Changes    []wireChange    `json:"changes,omitempty"`
	Options    wireEntryExtras `json:"options"`
}

type wireChange struct {
	Key string `json:"key"`
	Old string `json:"old_value,omitempty"`
	New string `json:"new_value,omitempty"`
}

type wireEntryExtras struct {
	ChannelID string `json:"channel_id,omitempty"`
	Count     string `json:"count,omitempty"`
}

type wireAuditPage struct {
	Entries []wireAuditEntry `json:"audit_log_entries"`
}

type wireInvite struct {
	Code    string   `json:"code"`
	Uses    int      `json:"uses"`
	MaxUses int      `json:"max_uses"`
	Inviter wireUser `json:"inviter"`
}

type wireUser struct {
	ID string `json:"id"`
}

type wireChannel struct {
	ID       string `json:"id"`
	GuildID  string `json:"guild_id"`
	Name     string `json:"name"`
	Topic    string `json:"topic,omitempty"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
}

type wirePermissions struct {
	Permissions []string `json:"permissions"`
}

// QueryAuditLog fetches one bounded page, newest first.
func (a *Adapter) QueryAuditLog(ctx context.Context, q chat.AuditQuery) ([]domain.AuditEntry, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	for _, kind := range q.Kinds {
		params.Add("action_type", string(kind))
	}

	var page wireAuditPage
	path := fmt.Sprintf("/guilds/%s/audit-log", q.GuildID)
	if err := a.client.getJSON(ctx, path, params, &page); err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, 0, len(page.Entries))
	for _, we := range page.Entries {
		entries = append(entries, toAuditEntry(we))
	}
	return entries, nil
}

func toAuditEntry(we wireAuditEntry) domain.AuditEntry {
	entry := domain.AuditEntry{
		ID:         domain.AuditID(we.ID),
		Action:     domain.ActionKind(we.ActionType),
		TargetID:   we.TargetID,
		ExecutorID: domain.UserID(we.UserID),
		Reason:     we.Reason,
		CreatedAt:  we.CreatedAt,
		Extra: domain.AuditExtra{
			ChannelID: domain.ChannelID(we.Options.ChannelID),
		},
	}
	// The platform serializes the bulk count as a string.
	if n, err := strconv.Atoi(we.Options.Count); err == nil {
		entry.Extra.Count = n
	}
	for _, ch := range we.Changes {
		entry.Changes = append(entry.Changes, domain.AuditChange{Key: ch.Key, Old: ch.Old, New: ch.New})
	}
	return entry
}

// ListInvites fetches the live invite list for a guild.
func (a *Adapter) ListInvites(ctx context.Context, guildID domain.GuildID) ([]domain.InviteSnapshot, error) {
	var wire []wireInvite
	path := fmt.Sprintf("/guilds/%s/invites", guildID)
	if err := a.client.getJSON(ctx, path, nil, &wire); err != nil {
		return nil, err
	}

	invites := make([]domain.InviteSnapshot, 0, len(wire))
	for _, wi := range wire {
		invites = append(invites, domain.InviteSnapshot{
			Code:      domain.InviteCode(wi.Code),
			Uses:      wi.Uses,
			MaxUses:   wi.MaxUses,
			InviterID: domain.UserID(wi.Inviter.ID),
		})
	}
	return invites, nil
}

// FetchChannel resolves one channel by id.
func (a *Adapter) FetchChannel(ctx context.Context, id domain.ChannelID) (*chat.Channel, error) {
	var wc wireChannel
	if err := a.client.getJSON(ctx, "/channels/"+string(id), nil, &wc); err != nil {
		return nil, err
	}
	ch := toChannel(wc)
	return &ch, nil
}

// ListChannels lists every channel in the guild in creation order.
func (a *Adapter) ListChannels(ctx context.Context, guildID domain.GuildID) ([]chat.Channel, error) {
	var wire []wireChannel
	path := fmt.Sprintf("/guilds/%s/channels", guildID)
	if err := a.client.getJSON(ctx, path, nil, &wire); err != nil {
		return nil, err
	}

	channels := make([]chat.Channel, 0, len(wire))
	for _, wc := range wire {
		channels = append(channels, toChannel(wc))
	}
	return channels, nil
}

// CreateChannel provisions a channel or category.
func (a *Adapter) CreateChannel(ctx context.Context, p chat.CreateChannelParams) (*chat.Channel, error) {
	body := map[string]string{
		"name": p.Name,
		"type": string(p.Type),
	}
	if p.Topic != "" {
		body["topic"] = p.Topic
	}
	if !p.ParentID.IsZero() {
		body["parent_id"] = string(p.ParentID)
	}

	var wc wireChannel
	path := fmt.Sprintf("/guilds/%s/channels", p.GuildID)
	if err := a.client.sendJSON(ctx, "POST", path, body, &wc); err != nil {
		return nil, err
	}
	ch := toChannel(wc)
	return &ch, nil
}

// SetTopic updates a channel topic in place.
func (a *Adapter) SetTopic(ctx context.Context, id domain.ChannelID, topic string) error {
	return a.client.sendJSON(ctx, "PATCH", "/channels/"+string(id), map[string]string{"topic": topic}, nil)
}

// DeleteChannel removes a channel, recording the reason in the platform's
// own audit trail.
func (a *Adapter) DeleteChannel(ctx context.Context, id domain.ChannelID, reason string) error {
	path := "/channels/" + string(id)
	if reason != "" {
		path += "?" + url.Values{"reason": {reason}}.Encode()
	}
	return a.client.sendJSON(ctx, "DELETE", path, nil, nil)
}

// SendMessage posts one plain-text message to a channel.
func (a *Adapter) SendMessage(ctx context.Context, channelID domain.ChannelID, content string) error {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return a.client.sendJSON(ctx, "POST", path, map[string]string{"content": content}, nil)
}

// CheckPermissions returns the required capabilities the bot is missing in
// the guild.
func (a *Adapter) CheckPermissions(ctx context.Context, guildID domain.GuildID, required []string) ([]string, error) {
	var wire wirePermissions
	path := fmt.Sprintf("/guilds/%s/members/@me/permissions", guildID)
	if err := a.client.getJSON(ctx, path, nil, &wire); err != nil {
		return nil, err
	}

	granted := make(map[string]bool, len(wire.Permissions))
	for _, p := range wire.Permissions {
		granted[strings.ToLower(p)] = true
	}
	var missing []string
	for _, p := range required {
		if !granted[strings.ToLower(p)] {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

func toChannel(wc wireChannel) chat.Channel {
	return chat.Channel{
		ID:       domain.ChannelID(wc.ID),
		GuildID:  domain.GuildID(wc.GuildID),
		Name:     wc.Name,
		Topic:    wc.Topic,
		Type:     toChannelType(wc.Type),
		ParentID: domain.ChannelID(wc.ParentID),
	}
}

func toChannelType(t string) chat.ChannelType {
	switch t {
	case "text":
		return chat.ChannelText
	case "category":
		return chat.ChannelCategory
	default:
		return chat.ChannelOther
	}
}

var (
	_ chat.AuditLog          = (*Adapter)(nil)
	_ chat.InviteLister      = (*Adapter)(nil)
	_ chat.ChannelAdmin      = (*Adapter)(nil)
	_ chat.Messenger         = (*Adapter)(nil)
	_ chat.PermissionChecker = (*Adapter)(nil)
)
