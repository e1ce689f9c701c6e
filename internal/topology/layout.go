package topology

// ChannelSpec describes one logging channel the reconciler must converge
// to: a stable logical key, the channel name, and its topic text.
type ChannelSpec struct {
	Key   string
	Name  string
	Topic string
}

// DefaultLayout is the fixed set of logging channels, one per event family.
// Keys are stable across releases because the persisted record is indexed
// by them; names and topics may change and are reconciled in place.
func DefaultLayout() []ChannelSpec {
	return []ChannelSpec{
		{Key: "moderation", Name: "moderation", Topic: "Logs for moderation actions (bans, kicks, timeouts)"},
		{Key: "messages", Name: "message", Topic: "Logs for message events (deletes, edits, bulk deletes)"},
		{Key: "members", Name: "member", Topic: "Logs for member events (nickname, profile updates)"},
		{Key: "voice", Name: "voice", Topic: "Logs for voice channel events (joins, leaves, mutes, deafens, moves)"},
		{Key: "roles", Name: "role", Topic: "Logs for role events (create, delete, update, permissions, assigned, removed)"},
		{Key: "channels", Name: "channel", Topic: "Logs for channel events (create, delete, update, permissions)"},
		{Key: "server", Name: "server", Topic: "Logs for server events (settings, boosts, banners)"},
		{Key: "invites", Name: "invite", Topic: "Logs for invite events (create, delete, uses)"},
		{Key: "emojis", Name: "emoji", Topic: "Logs for emoji events (create, delete, update, rename)"},
		{Key: "stickers", Name: "sticker", Topic: "Logs for sticker events (create, delete, update)"},
		{Key: "integrations", Name: "integration", Topic: "Logs for integrations, bots, webhooks, and applications"},
		{Key: "threads", Name: "thread", Topic: "Logs for thread events (create, delete, archive, unarchive)"},
		{Key: "stages", Name: "stage", Topic: "Logs for stage channel events (create, delete, updates)"},
		{Key: "automod", Name: "automod", Topic: "Logs for auto moderation and rule executions"},
		{Key: "joins", Name: "member-join", Topic: "Logs for member joins with inviter info and account age"},
		{Key: "leaves", Name: "member-leave", Topic: "Logs for member leaves with role information"},
		{Key: "reactions", Name: "reaction", Topic: "Logs for message reaction events (add, remove)"},
		{Key: "screenshare", Name: "screenshare", Topic: "Logs for screenshare and video stream events"},
		{Key: "polls", Name: "poll", Topic: "Logs for poll events (create, end, votes)"},
		{Key: "events", Name: "event", Topic: "Logs for scheduled events (create, update, delete, user interest)"},
	}
}
