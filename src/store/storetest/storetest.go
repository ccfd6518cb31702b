// Package storetest holds the behavioural checks every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run exercises newStore against the store contract.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"Users", testUsers},
		{"UpdateUser", testUpdateUser},
		{"RelationshipPairIsUnique", testRelationshipPairIsUnique},
		{"SetStatusIsConditional", testSetStatusIsConditional},
		{"MutualFriends", testMutualFriends},
		{"RunAtomicRollsBack", testRunAtomicRollsBack},
		{"ListRelationships", testListRelationships},
		{"Notifications", testNotifications},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func newUser(t *testing.T, st store.Store, username string) models.User {
	t.Helper()
	u, err := st.CreateUser(context.Background(), models.User{
		Username:    username,
		UsernameKey: lib.CanonicalUsername(username),
		Email:       lib.CanonicalUsername(username) + "@example.com",
		Status:      models.PresenceOffline,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.Id)
	return u
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")

	_, err := st.CreateUser(ctx, models.User{Username: "ALICE", UsernameKey: "alice"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := st.FindUserByID(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Empty(t, got.Friends)

	got, err = st.FindUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.Id, got.Id)

	_, err = st.FindUserByUsername(ctx, "carol")
	assert.ErrorIs(t, err, store.ErrNotFound)

	found, err := st.FindUsersByIDs(ctx, []string{alice.Id, bob.Id, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "Bob", found[bob.Id].Username)

	found, err = st.FindUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testUpdateUser(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	newUser(t, st, "Bob")

	bio := "Distributed systems"
	updated, err := st.UpdateUser(ctx, alice.Id, models.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "Alice", updated.Username)

	name, key := "BOB", "bob"
	_, err = st.UpdateUser(ctx, alice.Id, models.UserUpdate{Username: &name, UsernameKey: &key})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = st.UpdateUser(ctx, "missing", models.UserUpdate{Bio: &bio})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRelationshipPairIsUnique(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")

	f, err := st.CreateRelationship(ctx, alice.Id, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, f.Status)
	assert.Equal(t, alice.Id, f.Sender)
	assert.Equal(t, bob.Id, f.Receiver)

	_, err = st.CreateRelationship(ctx, bob.Id, alice.Id)
	assert.ErrorIs(t, err, store.ErrConflict)

	byPair, err := st.FindRelationship(ctx, bob.Id, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, f.Id, byPair.Id)

	byID, err := st.FindRelationshipByID(ctx, f.Id)
	require.NoError(t, err)
	assert.Equal(t, f.Id, byID.Id)

	_, err = st.FindRelationshipByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSetStatusIsConditional(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")
	f, err := st.CreateRelationship(ctx, alice.Id, bob.Id)
	require.NoError(t, err)

	_, err = st.SetStatus(ctx, f.Id, models.StatusChange{
		Expect: models.FriendshipConfirmed,
		Status: models.FriendshipCancelled,
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	cancelled, err := st.SetStatus(ctx, f.Id, models.StatusChange{
		Expect: models.FriendshipPending,
		Status: models.FriendshipCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipCancelled, cancelled.Status)

	reopened, err := st.SetStatus(ctx, f.Id, models.StatusChange{
		Expect:   models.FriendshipCancelled,
		Status:   models.FriendshipPending,
		Sender:   bob.Id,
		Receiver: alice.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, bob.Id, reopened.Sender)
	assert.Equal(t, alice.Id, reopened.Receiver)

	// The pair lookup still finds the record after the parties swap.
	byPair, err := st.FindRelationship(ctx, alice.Id, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, byPair.Status)

	_, err = st.SetStatus(ctx, "missing", models.StatusChange{
		Expect: models.FriendshipPending,
		Status: models.FriendshipConfirmed,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testMutualFriends(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")

	require.NoError(t, st.AddMutualFriend(ctx, alice.Id, bob.Id))
	require.NoError(t, st.AddMutualFriend(ctx, bob.Id, alice.Id))

	a, err := st.FindUserByID(ctx, alice.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.Id}, a.Friends)
	b, err := st.FindUserByID(ctx, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.Id}, b.Friends)

	require.NoError(t, st.RemoveMutualFriend(ctx, alice.Id, bob.Id))
	require.NoError(t, st.RemoveMutualFriend(ctx, alice.Id, bob.Id))

	a, err = st.FindUserByID(ctx, alice.Id)
	require.NoError(t, err)
	assert.Empty(t, a.Friends)
	b, err = st.FindUserByID(ctx, bob.Id)
	require.NoError(t, err)
	assert.Empty(t, b.Friends)

	assert.ErrorIs(t, st.AddMutualFriend(ctx, alice.Id, "missing"), store.ErrNotFound)
}

func testRunAtomicRollsBack(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")
	boom := errors.New("boom")

	var created models.Friendship
	err := st.RunAtomic(ctx, func(ctx context.Context) error {
		var err error
		created, err = st.CreateRelationship(ctx, alice.Id, bob.Id)
		if err != nil {
			return err
		}
		if err := st.AddMutualFriend(ctx, alice.Id, bob.Id); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.FindRelationshipByID(ctx, created.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	a, err := st.FindUserByID(ctx, alice.Id)
	require.NoError(t, err)
	assert.Empty(t, a.Friends)

	err = st.RunAtomic(ctx, func(ctx context.Context) error {
		f, err := st.CreateRelationship(ctx, alice.Id, bob.Id)
		if err != nil {
			return err
		}
		if _, err := st.SetStatus(ctx, f.Id, models.StatusChange{
			Expect: models.FriendshipPending,
			Status: models.FriendshipConfirmed,
		}); err != nil {
			return err
		}
		return st.AddMutualFriend(ctx, f.Sender, f.Receiver)
	})
	require.NoError(t, err)

	f, err := st.FindRelationship(ctx, alice.Id, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipConfirmed, f.Status)
	b, err := st.FindUserByID(ctx, bob.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.Id}, b.Friends)
}

func testListRelationships(t *testing.T, st store.Store) {
	ctx := context.Background()
	viewer := newUser(t, st, "Viewer")
	others := make([]models.User, 0, 6)
	for _, name := range []string{"U1", "U2", "U3", "U4", "U5", "U6"} {
		others = append(others, newUser(t, st, name))
	}

	var received []string
	for _, u := range others[:4] {
		f, err := st.CreateRelationship(ctx, u.Id, viewer.Id)
		require.NoError(t, err)
		received = append(received, f.Id)
	}
	sent, err := st.CreateRelationship(ctx, viewer.Id, others[4].Id)
	require.NoError(t, err)
	locked, err := st.CreateRelationship(ctx, viewer.Id, others[5].Id)
	require.NoError(t, err)
	_, err = st.SetStatus(ctx, locked.Id, models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipLocked})
	require.NoError(t, err)
	_, err = st.SetStatus(ctx, received[3], models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipConfirmed})
	require.NoError(t, err)

	ids := func(list []models.Friendship) []string {
		out := make([]string, 0, len(list))
		for _, f := range list {
			out = append(out, f.Id)
		}
		return out
	}

	page1, err := st.ListRelationships(ctx, models.RefReceived, viewer.Id, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, received[:2], ids(page1))
	page2, err := st.ListRelationships(ctx, models.RefReceived, viewer.Id, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, received[2:3], ids(page2))

	list, err := st.ListRelationships(ctx, models.RefSent, viewer.Id, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{sent.Id}, ids(list))

	list, err = st.ListRelationships(ctx, models.RefConfirmed, viewer.Id, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, received[3:], ids(list))

	list, err = st.ListRelationships(ctx, models.RefAll, viewer.Id, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, received...), sent.Id), ids(list))

	list, err = st.ListRelationships(ctx, models.RefSent, others[0].Id, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, received[:1], ids(list))
}

func testNotifications(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := newUser(t, st, "Alice")
	bob := newUser(t, st, "Bob")

	first, err := st.CreateNotification(ctx, models.Notification{
		Recipient:   bob.Id,
		Type:        models.NotificationFriendRequest,
		RelatedUser: alice.Id,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Id)
	second, err := st.CreateNotification(ctx, models.Notification{
		Recipient:   bob.Id,
		Type:        models.NotificationFriendshipConfirmed,
		RelatedUser: alice.Id,
	})
	require.NoError(t, err)

	list, err := st.ListNotifications(ctx, bob.Id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Id, list[0].Id)
	assert.Equal(t, first.Id, list[1].Id)

	require.NoError(t, st.MarkNotificationRead(ctx, first.Id))
	n, err := st.FindNotificationByID(ctx, first.Id)
	require.NoError(t, err)
	assert.True(t, n.Read)

	assert.ErrorIs(t, st.MarkNotificationRead(ctx, "missing"), store.ErrNotFound)

	list, err = st.ListNotifications(ctx, alice.Id)
	require.NoError(t, err)
	assert.Empty(t, list)
}
