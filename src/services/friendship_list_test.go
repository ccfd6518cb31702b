package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
)

func usernames(items []models.FriendListItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Username)
	}
	return out
}

func TestReceivedRequestsArePaged(t *testing.T) {
	f := newFixture(t)
	senders := []models.User{
		createUser(t, f.store, "Dave"),
		createUser(t, f.store, "Erin"),
		createUser(t, f.store, "Frank"),
		createUser(t, f.store, "Grace"),
	}
	for _, sender := range senders {
		f.create(t, sender, f.alice)
	}

	first, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dave", "Erin", "Frank"}, usernames(first))
	for _, item := range first {
		assert.Equal(t, models.FriendshipPending, item.FriendshipStatus)
		assert.NotEmpty(t, item.RequestID)
	}

	second, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Grace"}, usernames(second))

	third, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 3)
	require.NoError(t, err)
	assert.Empty(t, third)

	again, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 1)
	require.NoError(t, err)
	assert.Equal(t, usernames(first), usernames(again))

	sent, err := f.friendships.List(f.ctx, f.alice.Id, models.RefSent, 1)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	dave := createUser(t, f.store, "Dave")
	erin := createUser(t, f.store, "Erin")

	confirmed := f.create(t, f.alice, f.bob)
	f.respond(t, f.bob, models.ActionAccept, confirmed.Id)
	f.create(t, f.carol, f.alice)
	f.create(t, f.alice, dave)
	cancelled := f.create(t, f.alice, erin)
	f.respond(t, erin, models.ActionReject, cancelled.Id)

	testCases := []struct {
		name string
		ref  models.FriendListRef
		want []string
	}{
		{"confirmed", models.RefConfirmed, []string{"Bob"}},
		{"received", models.RefReceived, []string{"Carol"}},
		{"sent", models.RefSent, []string{"Dave"}},
		{"all", models.RefAll, []string{"Bob", "Carol", "Dave"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := f.friendships.List(f.ctx, f.alice.Id, tc.ref, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, usernames(items))
		})
	}

	// The confirmed list is scoped to the viewer.
	items, err := f.friendships.List(f.ctx, f.carol.Id, models.RefConfirmed, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListExcludesLocked(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, f.alice, f.bob)
	f.respond(t, f.bob, models.ActionAccept, req.Id)
	_, err := f.friendships.Lock(f.ctx, req.Id)
	require.NoError(t, err)

	for _, ref := range []models.FriendListRef{models.RefAll, models.RefConfirmed} {
		items, err := f.friendships.List(f.ctx, f.alice.Id, ref, 1)
		require.NoError(t, err)
		assert.Empty(t, items, ref.String())
	}
}

func TestListReportsPresence(t *testing.T) {
	f := newFixture(t)
	online := models.PresenceOnline
	avatar := "https://cdn.example.com/bob.png"
	_, err := f.store.UpdateUser(f.ctx, f.bob.Id, models.UserUpdate{Status: &online, Avatar: &avatar})
	require.NoError(t, err)

	f.create(t, f.bob, f.alice)
	f.create(t, f.carol, f.alice)

	items, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsOnline)
	assert.Equal(t, avatar, items[0].Avatar)
	assert.False(t, items[1].IsOnline)
}

func TestListRejectsBadPage(t *testing.T) {
	f := newFixture(t)

	for _, page := range []int{0, -1} {
		_, err := f.friendships.List(f.ctx, f.alice.Id, models.RefAll, page)
		require.ErrorIs(t, err, lib.ErrValidation)
	}
}

func TestListUsesConfiguredPageSize(t *testing.T) {
	f := newFixture(t)
	f.friendships = NewFriendshipService(f.store, 1)
	f.create(t, f.bob, f.alice)
	f.create(t, f.carol, f.alice)

	items, err := f.friendships.List(f.ctx, f.alice.Id, models.RefReceived, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol"}, usernames(items))

	assert.Equal(t, 3, NewFriendshipService(f.store, 0).PageSize())
}
