// Package domain holds the shared vocabulary of the service: type-safe
// platform identifiers, the incoming event union, and audit trail entries.
package domain

// Distinct ID types - compiler prevents passing a UserID where a ChannelID
// is expected. Platform identifiers are opaque snowflake strings, so these
// are string-kinded rather than UUIDs.
type (
	GuildID    string
	ChannelID  string
	UserID     string
	MessageID  string
	RoleID     string
	AuditID    string
	EventID    string
	InviteCode string
)

// String methods - for logging and debugging.

func (id GuildID) String() string    { return string(id) }
func (id ChannelID) String() string  { return string(id) }
func (id UserID) String() string     { return string(id) }
func (id MessageID) String() string  { return string(id) }
func (id RoleID) String() string     { return string(id) }
func (id AuditID) String() string    { return string(id) }
func (id EventID) String() string    { return string(id) }
func (c InviteCode) String() string  { return string(c) }

// IsZero checks - used for guard clauses in handlers.

func (id GuildID) IsZero() bool   { return id == "" }
func (id ChannelID) IsZero() bool { return id == "" }
func (id UserID) IsZero() bool    { return id == "" }
func (id MessageID) IsZero() bool { return id == "" }

// Actor is the outcome of an attribution: either a known user or unknown.
// Unknown is a valid terminal state, not an error.
type Actor struct {
	ID    UserID
	Known bool
}

// UnknownActor is the fallback attribution when no audit entry qualifies or
// the query itself failed.
var UnknownActor = Actor{}

// KnownActor wraps a user id as a resolved actor.
func KnownActor(id UserID) Actor {
	return Actor{ID: id, Known: true}
}
