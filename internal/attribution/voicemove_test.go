package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cord/internal/chat"
	"cord/internal/chat/mocks"
	"cord/internal/domain"
)

func moveEntry(id domain.AuditID, dest domain.ChannelID, count int) domain.AuditEntry {
	return domain.AuditEntry{
		ID:         id,
		Action:     domain.ActionMemberMove,
		ExecutorID: moderator,
		CreatedAt:  entryAge(time.Second),
		Extra:      domain.AuditExtra{ChannelID: dest, Count: count},
	}
}

func TestMoveTracker_AmortizesBulkMove(t *testing.T) {
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditLog(ctrl)

	dest := domain.ChannelID("voice-2")

	// One bulk move of three members: exactly one query for all three
	// events, then a fresh query once the grant is exhausted.
	gomock.InOrder(
		audit.EXPECT().
			QueryAuditLog(gomock.Any(), chat.AuditQuery{
				GuildID: testGuild,
				Kinds:   []domain.ActionKind{domain.ActionMemberMove},
				Limit:   5,
			}).
			Return([]domain.AuditEntry{moveEntry("a1", dest, 3)}, nil),
		audit.EXPECT().
			QueryAuditLog(gomock.Any(), gomock.Any()).
			Return([]domain.AuditEntry{moveEntry("a2", dest, 1)}, nil),
	)

	tracker := NewMoveTracker(newTestEngine(t, audit))
	ctx := context.Background()

	for _, user := range []domain.UserID{"u1", "u2", "u3"} {
		actor := tracker.AttributeMove(ctx, user, dest)
		require.True(t, actor.Known, "member %s", user)
		assert.Equal(t, moderator, actor.ID)
	}

	// Fourth event after exhaustion pays for a new query.
	actor := tracker.AttributeMove(ctx, "u4", dest)
	require.True(t, actor.Known)
	assert.Equal(t, moderator, actor.ID)
}

func TestMoveTracker_DifferentDestinationsDoNotShareGrants(t *testing.T) {
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditLog(ctrl)

	audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{moveEntry("a1", "voice-2", 5)}, nil)
	audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{moveEntry("a2", "voice-3", 5)}, nil)

	tracker := NewMoveTracker(newTestEngine(t, audit))
	ctx := context.Background()

	require.True(t, tracker.AttributeMove(ctx, "u1", "voice-2").Known)
	require.True(t, tracker.AttributeMove(ctx, "u2", "voice-3").Known)
}

func TestMoveTracker_NoMatchingEntryIsUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditLog(ctrl)

	audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{moveEntry("a1", "voice-other", 2)}, nil)

	tracker := NewMoveTracker(newTestEngine(t, audit))
	actor := tracker.AttributeMove(context.Background(), "u1", "voice-2")
	assert.False(t, actor.Known)
}

func TestMoveTracker_MissingCountGrantsSingleUse(t *testing.T) {
	ctrl := gomock.NewController(t)
	audit := mocks.NewMockAuditLog(ctrl)

	// Entry without a count still attributes the event that triggered the
	// query, but grants nothing beyond it.
	audit.EXPECT().QueryAuditLog(gomock.Any(), gomock.Any()).
		Return([]domain.AuditEntry{moveEntry("a1", "voice-2", 0)}, nil).
		Times(2)

	tracker := NewMoveTracker(newTestEngine(t, audit))
	ctx := context.Background()

	require.True(t, tracker.AttributeMove(ctx, "u1", "voice-2").Known)
	require.True(t, tracker.AttributeMove(ctx, "u2", "voice-2").Known)
}
