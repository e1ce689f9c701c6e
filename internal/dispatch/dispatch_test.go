package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cord/internal/attribution"
	"cord/internal/chat/mocks"
	"cord/internal/domain"
)

const (
	testGuild  = domain.GuildID("guild-1")
	otherGuild = domain.GuildID("guild-2")
	moderator  = domain.UserID("mod-1")
	member     = domain.UserID("user-1")
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

type notifyCall struct {
	key string
	ev  domain.Event
	res Resolution
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	panic bool
}

func (f *fakeNotifier) Notify(_ context.Context, key string, ev domain.Event, res Resolution) error {
	if f.panic {
		panic("notifier exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{key: key, ev: ev, res: res})
	return nil
}

func (f *fakeNotifier) all() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.calls...)
}

type fixture struct {
	svc      *Service
	audit    *mocks.MockAuditLog
	lister   *mocks.MockInviteLister
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditLog(ctrl)
	lister := mocks.NewMockInviteLister(ctrl)

	engine, err := attribution.NewEngine(audit, testGuild, attribution.DefaultConfig(),
		attribution.WithClock(func() time.Time { return testNow }),
		attribution.WithSleeper(func(context.Context, time.Duration) {}),
	)
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	svc, err := New(
		engine,
		attribution.NewMoveTracker(engine),
		attribution.NewInviteTracker(lister, testGuild, nil, nil),
		attribution.NewReactionDeduper(5*time.Second, nil),
		notifier,
		testGuild,
		WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	svc.SetReady()

	return &fixture{svc: svc, audit: audit, lister: lister, notifier: notifier}
}

func (f *fixture) dispatchAndWait(ev domain.Event) {
	f.svc.Dispatch(context.Background(), ev)
	f.svc.handlers.Wait()
}

func qualifyingEntry(action domain.ActionKind, target domain.UserID) []domain.AuditEntry {
	return []domain.AuditEntry{{
		ID:         "a1",
		Action:     action,
		TargetID:   string(target),
		ExecutorID: moderator,
		Reason:     "spam",
		CreatedAt:  testNow.Add(-time.Second),
	}}
}

func TestDispatch_DropsUntilReady(t *testing.T) {
	f := newFixture(t)
	f.svc.ready.Store(false)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventReactionAdd,
		GuildID: testGuild,
		Reaction: &domain.Reaction{
			MessageID: "m1", UserID: member, Direction: domain.ReactionAdded,
		},
	})
	assert.Empty(t, f.notifier.all())
}

func TestDispatch_DropsOtherGuilds(t *testing.T) {
	f := newFixture(t)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventReactionAdd,
		GuildID: otherGuild,
		Reaction: &domain.Reaction{
			MessageID: "m1", UserID: member, Direction: domain.ReactionAdded,
		},
	})
	assert.Empty(t, f.notifier.all())
}

func TestDispatch_RecoversNotifierPanic(t *testing.T) {
	f := newFixture(t)
	f.notifier.panic = true

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventAutomodAction,
		GuildID: testGuild,
		Automod: &domain.AutomodAction{UserID: member, RuleName: "no-links"},
	})
	// Reaching this line is the assertion: the panic stayed inside the
	// handler goroutine.
}

func TestMemberLeave_KickRoutesToModeration(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return(qualifyingEntry(domain.ActionMemberKick, member), nil)

	f.dispatchAndWait(domain.Event{
		Kind:        domain.EventMemberLeave,
		GuildID:     testGuild,
		MemberLeave: &domain.MemberLeave{UserID: member, Username: "u"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyModeration, calls[0].key)
	assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
	assert.Equal(t, domain.ActionMemberKick, calls[0].res.Action)
	assert.Equal(t, "spam", calls[0].res.Reason)
}

func TestMemberLeave_VoluntaryRoutesToLeaves(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).Return(nil, nil)

	f.dispatchAndWait(domain.Event{
		Kind:        domain.EventMemberLeave,
		GuildID:     testGuild,
		MemberLeave: &domain.MemberLeave{UserID: member, Username: "u"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyLeaves, calls[0].key)
	assert.False(t, calls[0].res.Actor.Known)
}

func TestMemberJoin_AttributesInviteAndFlagsYoungAccount(t *testing.T) {
	f := newFixture(t)
	f.lister.EXPECT().ListInvites(gomock.Any(), testGuild).
		Return([]domain.InviteSnapshot{{Code: "abc", Uses: 1, InviterID: "inviter-1"}}, nil).
		Times(2)

	require.NoError(t, f.svc.invites.Prime(context.Background()))
	// Second fetch returns the same uses, so the invite is unattributed;
	// the account-age flag works regardless.
	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventMemberJoin,
		GuildID: testGuild,
		MemberJoin: &domain.MemberJoin{
			UserID:         member,
			AccountCreated: testNow.Add(-24 * time.Hour),
		},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyJoins, calls[0].key)
	assert.True(t, calls[0].res.YoungAccount)
}

func TestMemberJoin_BotSkipsInviteLookup(t *testing.T) {
	f := newFixture(t)
	// No ListInvites expectation: bots join via authorization, not invites.

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventMemberJoin,
		GuildID: testGuild,
		MemberJoin: &domain.MemberJoin{
			UserID:         member,
			Bot:            true,
			AccountCreated: testNow.Add(-365 * 24 * time.Hour),
		},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].res.YoungAccount)
}

func TestVoiceState_Classification(t *testing.T) {
	tests := []struct {
		name    string
		state   domain.VoiceState
		wantKey string
		want    VoiceChange
	}{
		{
			name:    "join",
			state:   domain.VoiceState{UserID: member, NewChannelID: "v1"},
			wantKey: keyVoice,
			want:    VoiceJoin,
		},
		{
			name:    "leave",
			state:   domain.VoiceState{UserID: member, OldChannelID: "v1"},
			wantKey: keyVoice,
			want:    VoiceLeave,
		},
		{
			name:    "self unmute",
			state:   domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v1", OldMute: true},
			wantKey: keyVoice,
			want:    VoiceUnmute,
		},
		{
			name:    "stream start",
			state:   domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v1", NewStreaming: true},
			wantKey: keyScreenshare,
			want:    VoiceStreamOn,
		},
		{
			name:    "video stop",
			state:   domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v1", OldVideo: true},
			wantKey: keyScreenshare,
			want:    VoiceVideoOff,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.dispatchAndWait(domain.Event{
				Kind:       domain.EventVoiceState,
				GuildID:    testGuild,
				VoiceState: &tt.state,
			})

			calls := f.notifier.all()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantKey, calls[0].key)
			assert.Equal(t, tt.want, calls[0].res.VoiceChange)
		})
	}
}

func TestVoiceState_SwitchBecomesMovedWhenAttributed(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{{
			ID:         "a1",
			Action:     domain.ActionMemberMove,
			ExecutorID: moderator,
			CreatedAt:  testNow.Add(-time.Second),
			Extra:      domain.AuditExtra{ChannelID: "v2", Count: 1},
		}}, nil)

	f.dispatchAndWait(domain.Event{
		Kind:       domain.EventVoiceState,
		GuildID:    testGuild,
		VoiceState: &domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v2"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, VoiceMoved, calls[0].res.VoiceChange)
	assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
}

func TestVoiceState_SwitchStaysSwitchWhenUnattributed(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).Return(nil, nil)

	f.dispatchAndWait(domain.Event{
		Kind:       domain.EventVoiceState,
		GuildID:    testGuild,
		VoiceState: &domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v2"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, VoiceSwitch, calls[0].res.VoiceChange)
	assert.False(t, calls[0].res.Actor.Known)
}

func TestVoiceState_ServerMuteIsAttributed(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{{
			ID:         "a1",
			Action:     domain.ActionMemberUpdate,
			TargetID:   string(member),
			ExecutorID: moderator,
			CreatedAt:  testNow.Add(-time.Second),
			Changes:    []domain.AuditChange{{Key: "mute", Old: "false", New: "true"}},
		}}, nil)

	f.dispatchAndWait(domain.Event{
		Kind:       domain.EventVoiceState,
		GuildID:    testGuild,
		VoiceState: &domain.VoiceState{UserID: member, OldChannelID: "v1", NewChannelID: "v1", NewMute: true},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, VoiceMute, calls[0].res.VoiceChange)
	assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
}

func TestReaction_DuplicateIsSuppressed(t *testing.T) {
	f := newFixture(t)

	ev := domain.Event{
		Kind:    domain.EventReactionAdd,
		GuildID: testGuild,
		Reaction: &domain.Reaction{
			MessageID: "m1", UserID: member, Emoji: "👍", Direction: domain.ReactionAdded,
		},
	}
	f.dispatchAndWait(ev)
	f.dispatchAndWait(ev)

	assert.Len(t, f.notifier.all(), 1)
}

func TestMessageEdit_UnchangedContentIsDropped(t *testing.T) {
	f := newFixture(t)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventMessageEdit,
		GuildID: testGuild,
		MessageEdit: &domain.MessageEdit{
			MessageID: "m1", AuthorID: member, OldContent: "same", NewContent: "same",
		},
	})
	assert.Empty(t, f.notifier.all())
}

func TestMessageDelete_BotAuthorIsDropped(t *testing.T) {
	f := newFixture(t)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventMessageDelete,
		GuildID: testGuild,
		MessageDelete: &domain.MessageDelete{
			MessageID: "m1", AuthorID: member, AuthorBot: true,
		},
	})
	assert.Empty(t, f.notifier.all())
}

func TestMessageDelete_AttributesModerator(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{{
			ID:         "a1",
			Action:     domain.ActionMessageDelete,
			TargetID:   string(member),
			ExecutorID: moderator,
			CreatedAt:  testNow.Add(-time.Second),
			Extra:      domain.AuditExtra{ChannelID: "chan-1"},
		}}, nil)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventMessageDelete,
		GuildID: testGuild,
		MessageDelete: &domain.MessageDelete{
			MessageID: "m1", ChannelID: "chan-1", AuthorID: member, Content: "hi",
		},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyMessages, calls[0].key)
	assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
}

func TestThreadUpdate_ArchiveTransitionIsAttributed(t *testing.T) {
	f := newFixture(t)
	f.audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{{
			ID:         "a1",
			Action:     domain.ActionThreadUpdate,
			TargetID:   "thread-1",
			ExecutorID: moderator,
			CreatedAt:  testNow.Add(-time.Second),
		}}, nil)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventThreadUpdate,
		GuildID: testGuild,
		Thread:  &domain.ThreadChange{ThreadID: "thread-1", Archived: true},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyThreads, calls[0].key)
	assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
}

func TestThreadUpdate_RenameIsNotAttributed(t *testing.T) {
	f := newFixture(t)
	// No audit expectation: renames do not query the trail.

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventThreadUpdate,
		GuildID: testGuild,
		Thread:  &domain.ThreadChange{ThreadID: "thread-1", OldName: "a", Name: "b"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].res.Actor.Known)
}

func TestInviteCreate_RefreshesBaseline(t *testing.T) {
	f := newFixture(t)
	f.lister.EXPECT().ListInvites(gomock.Any(), testGuild).
		Return([]domain.InviteSnapshot{{Code: "abc", Uses: 0, InviterID: "inviter-1"}}, nil)

	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventInviteCreate,
		GuildID: testGuild,
		Invite:  &domain.InviteChange{Code: "abc", InviterID: "inviter-1"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, keyInvites, calls[0].key)
}

func TestAuditEntry_RoutesByActionFamily(t *testing.T) {
	tests := []struct {
		action  domain.ActionKind
		wantKey string
	}{
		{action: domain.ActionRoleCreate, wantKey: keyRoles},
		{action: domain.ActionChannelDelete, wantKey: keyChannels},
		{action: domain.ActionGuildUpdate, wantKey: keyServer},
		{action: domain.ActionMemberBanRemove, wantKey: keyModeration},
		{action: domain.ActionEmojiUpdate, wantKey: keyEmojis},
		{action: domain.ActionWebhookCreate, wantKey: keyIntegrations},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			f := newFixture(t)
			f.dispatchAndWait(domain.Event{
				Kind:    domain.EventAuditEntry,
				GuildID: testGuild,
				AuditLogEntry: &domain.AuditEntry{
					ID: "a1", Action: tt.action, ExecutorID: moderator, CreatedAt: testNow,
				},
			})

			calls := f.notifier.all()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantKey, calls[0].key)
			assert.Equal(t, domain.KnownActor(moderator), calls[0].res.Actor)
		})
	}
}

func TestAuditEntry_HandledActionsAreNotDoubleRouted(t *testing.T) {
	f := newFixture(t)
	// Kicks arrive as member-leave events with their own handler; the raw
	// audit entry must not produce a second log line.
	f.dispatchAndWait(domain.Event{
		Kind:    domain.EventAuditEntry,
		GuildID: testGuild,
		AuditLogEntry: &domain.AuditEntry{
			ID: "a1", Action: domain.ActionMemberKick, ExecutorID: moderator, CreatedAt: testNow,
		},
	})
	assert.Empty(t, f.notifier.all())
}

func TestPassthrough_MissingPayloadIsDropped(t *testing.T) {
	kinds := []domain.EventKind{
		domain.EventMemberUpdate,
		domain.EventUserUpdate,
		domain.EventThreadCreate,
		domain.EventThreadDelete,
		domain.EventScheduledCreate,
		domain.EventScheduledUpdate,
		domain.EventScheduledDelete,
		domain.EventScheduledUserAdd,
		domain.EventScheduledUserRemove,
		domain.EventAutomodAction,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			// A partial delivery with no payload is a counted drop, not a
			// panic and not an empty notification.
			f.dispatchAndWait(domain.Event{Kind: kind, GuildID: testGuild})
			assert.Empty(t, f.notifier.all())
		})
	}
}

func TestScheduledUserInterest_RoutesToEvents(t *testing.T) {
	f := newFixture(t)

	f.dispatchAndWait(domain.Event{
		Kind:          domain.EventScheduledUserAdd,
		GuildID:       testGuild,
		ScheduledUser: &domain.ScheduledUser{UserID: member, EventName: "movie night"},
	})
	f.dispatchAndWait(domain.Event{
		Kind:          domain.EventScheduledUserRemove,
		GuildID:       testGuild,
		ScheduledUser: &domain.ScheduledUser{UserID: member, EventName: "movie night"},
	})

	calls := f.notifier.all()
	require.Len(t, calls, 2)
	assert.Equal(t, keyEvents, calls[0].key)
	assert.Equal(t, keyEvents, calls[1].key)
}

func TestRun_DrainsStreamAndStops(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSource(ctrl)

	events := make(chan domain.Event, 1)
	events <- domain.Event{
		Kind:    domain.EventAutomodAction,
		GuildID: testGuild,
		Automod: &domain.AutomodAction{UserID: member, RuleName: "no-links"},
	}
	close(events)
	source.EXPECT().Subscribe(gomock.Any()).Return((<-chan domain.Event)(events), nil)

	err := f.svc.Run(context.Background(), source)
	require.NoError(t, err)
	assert.Len(t, f.notifier.all(), 1)
}
