package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
)

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	notifications := NewNotificationService(f.store)

	f.create(t, f.alice, f.bob)
	f.create(t, f.carol, f.bob)

	list, err := notifications.List(f.ctx, f.bob.Id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, f.carol.Id, list[0].RelatedUser)
	assert.Equal(t, f.alice.Id, list[1].RelatedUser)

	err = notifications.MarkRead(f.ctx, f.alice.Id, list[0].Id)
	require.ErrorIs(t, err, lib.ErrForbidden)

	require.NoError(t, notifications.MarkRead(f.ctx, f.bob.Id, list[0].Id))

	list, err = notifications.List(f.ctx, f.bob.Id)
	require.NoError(t, err)
	assert.True(t, list[0].Read)
	assert.False(t, list[1].Read)

	err = notifications.MarkRead(f.ctx, f.bob.Id, "missing")
	require.ErrorIs(t, err, lib.ErrNotFound)

	empty, err := notifications.List(f.ctx, f.carol.Id)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNotificationStoreFailure(t *testing.T) {
	f := newFixture(t)
	notifications := NewNotificationService(f.store)

	f.store.FailNext("ListNotifications", errors.New("connection reset"))
	_, err := notifications.List(f.ctx, f.bob.Id)
	require.ErrorIs(t, err, lib.ErrStoreFailure)

	_, err = f.store.CreateNotification(f.ctx, models.Notification{Recipient: f.bob.Id, Type: models.NotificationFriendRequest})
	require.NoError(t, err)
}
