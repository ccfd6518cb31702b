package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store/memory"
)

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	friendships *FriendshipService
	alice       models.User
	bob         models.User
	carol       models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	f := &fixture{
		ctx:         context.Background(),
		store:       st,
		friendships: NewFriendshipService(st, 3),
	}
	f.alice = createUser(t, st, "Alice")
	f.bob = createUser(t, st, "Bob")
	f.carol = createUser(t, st, "Carol")
	return f
}

func createUser(t *testing.T, st *memory.Store, username string) models.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), models.User{
		Username:    username,
		UsernameKey: lib.CanonicalUsername(username),
		Email:       lib.CanonicalUsername(username) + "@example.com",
		Status:      models.PresenceOffline,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) user(t *testing.T, id string) models.User {
	t.Helper()
	u, err := f.store.FindUserByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func (f *fixture) friendship(t *testing.T, id string) models.Friendship {
	t.Helper()
	fr, err := f.store.FindRelationshipByID(f.ctx, id)
	require.NoError(t, err)
	return fr
}

func (f *fixture) create(t *testing.T, actor models.User, target models.User) models.Friendship {
	t.Helper()
	res, err := f.friendships.Action(f.ctx, actor.Id, FriendActionRequest{
		Action:   models.ActionCreate,
		Username: target.Username,
	})
	require.NoError(t, err)
	return res.Friendship
}

func (f *fixture) respond(t *testing.T, actor models.User, action models.FriendAction, id string) models.Friendship {
	t.Helper()
	res, err := f.friendships.Action(f.ctx, actor.Id, FriendActionRequest{
		Action:    action,
		RequestID: id,
	})
	require.NoError(t, err)
	return res.Friendship
}

// requireConsistent checks that the friend sets of the pair match the
// status of their relationship.
func (f *fixture) requireConsistent(t *testing.T, id string) {
	t.Helper()
	fr := f.friendship(t, id)
	sender := f.user(t, fr.Sender)
	receiver := f.user(t, fr.Receiver)

	if fr.Status == models.FriendshipConfirmed {
		require.True(t, sender.HasFriend(receiver.Id), "sender should list receiver")
		require.True(t, receiver.HasFriend(sender.Id), "receiver should list sender")
		return
	}
	require.False(t, sender.HasFriend(receiver.Id), "sender should not list receiver while %s", fr.Status)
	require.False(t, receiver.HasFriend(sender.Id), "receiver should not list sender while %s", fr.Status)
}
