package attribution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cord/internal/chat/mocks"
	"cord/internal/domain"
	domainerrors "cord/pkg/domain-errors"
)

func TestInviteTracker_AttributesByIncreasedUses(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, InviterID: "inviter-1"},
				{Code: "def", Uses: 2, InviterID: "inviter-2"},
			}, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 6, InviterID: "inviter-1"},
				{Code: "def", Uses: 2, InviterID: "inviter-2"},
			}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	require.True(t, join.Inviter.Known)
	assert.Equal(t, domain.UserID("inviter-1"), join.Inviter.ID)
	assert.Equal(t, domain.InviteCode("abc"), join.Code)
}

func TestInviteTracker_FallsBackToNewCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	// "abc" hit its max uses on this join and vanished from the list; the
	// new code "xyz" with uses > 0 is the only plausible explanation.
	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, MaxUses: 6, InviterID: "inviter-1"},
			}, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "xyz", Uses: 1, InviterID: "inviter-9"},
			}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	require.True(t, join.Inviter.Known)
	assert.Equal(t, domain.UserID("inviter-9"), join.Inviter.ID)
	assert.Equal(t, domain.InviteCode("xyz"), join.Code)
}

func TestInviteTracker_IncreasedUsesBeatsNewCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, InviterID: "inviter-1"},
			}, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "new", Uses: 1, InviterID: "inviter-9"},
				{Code: "abc", Uses: 6, InviterID: "inviter-1"},
			}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	assert.Equal(t, domain.InviteCode("abc"), join.Code)
}

func TestInviteTracker_NoMatchIsUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	snapshot := []domain.InviteSnapshot{{Code: "abc", Uses: 5, InviterID: "inviter-1"}}
	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).Return(snapshot, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).Return(snapshot, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	assert.False(t, join.Inviter.Known)
	assert.Empty(t, join.Code)
}

func TestInviteTracker_FetchFailureIsUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{{Code: "abc", Uses: 5, InviterID: "inviter-1"}}, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return(nil, domainerrors.New(domainerrors.CodeTransient, "network down")),
		// The baseline survived the failed fetch, so the next join still
		// diffs against uses=5.
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{{Code: "abc", Uses: 6, InviterID: "inviter-1"}}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	assert.False(t, join.Inviter.Known)

	join = tracker.AttributeJoin(context.Background())
	require.True(t, join.Inviter.Known)
	assert.Equal(t, domain.InviteCode("abc"), join.Code)
}

func TestInviteTracker_UnprimedJoinIsUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	// Without a baseline every code would look new; none may be attributed.
	lister.EXPECT().ListInvites(gomock.Any(), testGuild).
		Return([]domain.InviteSnapshot{{Code: "abc", Uses: 5, InviterID: "inviter-1"}}, nil).
		Times(2)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)

	join := tracker.AttributeJoin(context.Background())
	assert.False(t, join.Inviter.Known)

	// That fetch doubled as the baseline; an unchanged list still resolves
	// unknown rather than guessing.
	join = tracker.AttributeJoin(context.Background())
	assert.False(t, join.Inviter.Known)
}

func TestInviteTracker_BaselineIsReplacedNotMerged(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, InviterID: "inviter-1"},
				{Code: "old", Uses: 3, InviterID: "inviter-2"},
			}, nil),
		// "old" was deleted between joins.
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{{Code: "abc", Uses: 5, InviterID: "inviter-1"}}, nil),
		// If the old baseline were merged rather than replaced, "old"
		// reappearing with the same uses would not attribute; as a fresh
		// code with uses > 0 it must.
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, InviterID: "inviter-1"},
				{Code: "old", Uses: 3, InviterID: "inviter-2"},
			}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))

	join := tracker.AttributeJoin(context.Background())
	assert.False(t, join.Inviter.Known)

	join = tracker.AttributeJoin(context.Background())
	require.True(t, join.Inviter.Known)
	assert.Equal(t, domain.InviteCode("old"), join.Code)
}

func TestInviteTracker_RefreshRebuildsBaseline(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockInviteLister(ctrl)

	gomock.InOrder(
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{{Code: "abc", Uses: 5, InviterID: "inviter-1"}}, nil),
		// Refresh after an invite-create event picks up the new code, so
		// the following join does not misattribute to it.
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 5, InviterID: "inviter-1"},
				{Code: "fresh", Uses: 0, InviterID: "inviter-3"},
			}, nil),
		lister.EXPECT().ListInvites(gomock.Any(), testGuild).
			Return([]domain.InviteSnapshot{
				{Code: "abc", Uses: 6, InviterID: "inviter-1"},
				{Code: "fresh", Uses: 0, InviterID: "inviter-3"},
			}, nil),
	)

	tracker := NewInviteTracker(lister, testGuild, nil, nil)
	require.NoError(t, tracker.Prime(context.Background()))
	tracker.Refresh(context.Background())

	join := tracker.AttributeJoin(context.Background())
	require.True(t, join.Inviter.Known)
	assert.Equal(t, domain.InviteCode("abc"), join.Code)
}
