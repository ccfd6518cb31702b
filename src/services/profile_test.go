package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"golang.org/x/crypto/bcrypt"
)

func newProfileFixture(t *testing.T) (*fixture, *ProfileService, lib.PasswordHasher) {
	t.Helper()
	f := newFixture(t)
	hasher := lib.NewBcryptHasher(bcrypt.MinCost)
	return f, NewProfileService(f.store, hasher), hasher
}

func TestPasswordMustChange(t *testing.T) {
	f, profiles, hasher := newProfileFixture(t)
	hashed, err := hasher.Hash("p1")
	require.NoError(t, err)
	_, err = f.store.UpdateUser(f.ctx, f.alice.Id, models.UserUpdate{Password: &hashed})
	require.NoError(t, err)

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldPassword, "p1")
	require.ErrorIs(t, err, lib.ErrConflict)
	assert.Equal(t, "The old and new passwords cannot be the same", lib.PublicMessage(err))
	assert.Equal(t, hashed, f.user(t, f.alice.Id).Password)

	message, err := profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldPassword, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Password successfully updated", message)

	stored := f.user(t, f.alice.Id).Password
	assert.NotEqual(t, "p2", stored)
	assert.True(t, hasher.Matches(stored, "p2"))
	assert.False(t, hasher.Matches(stored, "p1"))

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldPassword, "")
	require.ErrorIs(t, err, lib.ErrValidation)
}

func TestUpdateProfileFields(t *testing.T) {
	f, profiles, _ := newProfileFixture(t)

	message, err := profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldBio, "Go developer")
	require.NoError(t, err)
	assert.Equal(t, "Profile successfully updated", message)

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldEmail, "alice@talent.nest")
	require.NoError(t, err)

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldUsername, "AliceW")
	require.NoError(t, err)

	user := f.user(t, f.alice.Id)
	assert.Equal(t, "Go developer", user.Bio)
	assert.Equal(t, "alice@talent.nest", user.Email)
	assert.Equal(t, "AliceW", user.Username)
	assert.Equal(t, "alicew", user.UsernameKey)

	profile, err := profiles.GetProfile(f.ctx, f.bob.Id, "ALICEW")
	require.NoError(t, err)
	assert.Equal(t, "AliceW", profile.Username)
}

func TestUpdateProfileRefusals(t *testing.T) {
	f, profiles, _ := newProfileFixture(t)

	_, err := profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldUsername, "BOB")
	require.ErrorIs(t, err, lib.ErrConflict)
	assert.Equal(t, "Username already taken", lib.PublicMessage(err))

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldUsername, " ")
	require.ErrorIs(t, err, lib.ErrValidation)

	_, err = profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileField("friends"), "x")
	require.ErrorIs(t, err, lib.ErrValidation)
	assert.Equal(t, "Invalid query", lib.PublicMessage(err))

	_, err = profiles.UpdateProfile(f.ctx, "missing", models.ProfileFieldBio, "x")
	require.ErrorIs(t, err, lib.ErrNotFound)

	assert.Equal(t, "Alice", f.user(t, f.alice.Id).Username)
}

func TestProfileUpdateLeavesFriendsAlone(t *testing.T) {
	f, profiles, _ := newProfileFixture(t)
	req := f.create(t, f.alice, f.bob)
	f.respond(t, f.bob, models.ActionAccept, req.Id)

	_, err := profiles.UpdateProfile(f.ctx, f.alice.Id, models.ProfileFieldBio, "hello")
	require.NoError(t, err)
	_, err = profiles.UpdateAvatar(f.ctx, f.alice.Id, "https://cdn.example.com/a.png")
	require.NoError(t, err)

	assert.Equal(t, []string{f.bob.Id}, f.user(t, f.alice.Id).Friends)
	f.requireConsistent(t, req.Id)
}

func TestGetProfile(t *testing.T) {
	f, profiles, _ := newProfileFixture(t)

	own, err := profiles.GetProfile(f.ctx, f.alice.Id, "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", own.Username)
	assert.Equal(t, "alice@example.com", own.Email)

	public, err := profiles.GetProfile(f.ctx, f.alice.Id, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", public.Username)
	assert.Empty(t, public.Email)

	_, err = profiles.GetProfile(f.ctx, f.alice.Id, "nobody")
	require.ErrorIs(t, err, lib.ErrNotFound)
	assert.Equal(t, "No profile found", lib.PublicMessage(err))
}

func TestUpdateAvatar(t *testing.T) {
	f, profiles, _ := newProfileFixture(t)

	message, err := profiles.UpdateAvatar(f.ctx, f.alice.Id, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "Avatar successfully modified", message)
	assert.Equal(t, "https://cdn.example.com/a.png", f.user(t, f.alice.Id).Avatar)

	_, err = profiles.UpdateAvatar(f.ctx, "missing", "x")
	require.ErrorIs(t, err, lib.ErrNotFound)
	assert.Equal(t, "User not modified", lib.PublicMessage(err))
}
