package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
	"github.com/theleywin/talent-nest-friends/src/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := lib.OpenSQLite(filepath.Join(t.TempDir(), "friends.db"))
	require.NoError(t, err)
	st, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestFriendsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "friends.db")

	db, err := lib.OpenSQLite(path)
	require.NoError(t, err)
	st, err := New(db)
	require.NoError(t, err)

	a, err := st.CreateUser(ctx, models.User{Username: "Ann", UsernameKey: "ann"})
	require.NoError(t, err)
	b, err := st.CreateUser(ctx, models.User{Username: "Ben", UsernameKey: "ben"})
	require.NoError(t, err)
	require.NoError(t, st.AddMutualFriend(ctx, a.Id, b.Id))
	require.NoError(t, st.Close(ctx))

	db, err = lib.OpenSQLite(path)
	require.NoError(t, err)
	st, err = New(db)
	require.NoError(t, err)
	defer st.Close(ctx)

	got, err := st.FindUserByUsername(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, []string{a.Id}, got.Friends)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := lib.OpenSQLite("  ")
	assert.Error(t, err)
}
