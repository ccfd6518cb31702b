package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
)

func TestDecide(t *testing.T) {
	const sender, receiver, stranger = "u-sender", "u-receiver", "u-stranger"
	record := func(status models.FriendshipStatus) *models.Friendship {
		return &models.Friendship{Id: "f-1", Sender: sender, Receiver: receiver, Status: status}
	}

	testCases := []struct {
		name     string
		current  *models.Friendship
		actor    string
		target   string
		action   models.FriendAction
		wantKind lib.Kind
		want     Transition
	}{
		{
			name: "absent create", current: nil, actor: sender, target: receiver, action: models.ActionCreate,
			want: Transition{
				Create:  true,
				Change:  models.StatusChange{Status: models.FriendshipPending, Sender: sender, Receiver: receiver},
				Message: msgRequestSent,
				Notify:  models.NotificationFriendRequest,
			},
		},
		{name: "absent cancel", current: nil, actor: sender, action: models.ActionCancel, wantKind: lib.KindNotFound},
		{name: "absent accept", current: nil, actor: receiver, action: models.ActionAccept, wantKind: lib.KindNotFound},
		{name: "absent reject", current: nil, actor: receiver, action: models.ActionReject, wantKind: lib.KindNotFound},

		{name: "pending create", current: record(models.FriendshipPending), actor: receiver, target: sender, action: models.ActionCreate, wantKind: lib.KindConflict},
		{
			name: "pending cancel", current: record(models.FriendshipPending), actor: sender, action: models.ActionCancel,
			want: Transition{
				Change:  models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipCancelled},
				Message: msgFriendshipCancel,
			},
		},
		{
			name: "pending accept", current: record(models.FriendshipPending), actor: receiver, action: models.ActionAccept,
			want: Transition{
				Change:     models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipConfirmed},
				AddFriends: true,
				Message:    msgRequestAccepted,
				Notify:     models.NotificationFriendshipConfirmed,
			},
		},
		{
			name: "pending reject", current: record(models.FriendshipPending), actor: receiver, action: models.ActionReject,
			want: Transition{
				Change:  models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipCancelled},
				Message: msgRequestRejected,
			},
		},
		{name: "pending accept by sender", current: record(models.FriendshipPending), actor: sender, action: models.ActionAccept, wantKind: lib.KindForbidden},
		{name: "pending reject by stranger", current: record(models.FriendshipPending), actor: stranger, action: models.ActionReject, wantKind: lib.KindForbidden},

		{name: "confirmed create", current: record(models.FriendshipConfirmed), actor: sender, target: receiver, action: models.ActionCreate, wantKind: lib.KindConflict},
		{
			name: "confirmed cancel", current: record(models.FriendshipConfirmed), actor: receiver, action: models.ActionCancel,
			want: Transition{
				Change:        models.StatusChange{Expect: models.FriendshipConfirmed, Status: models.FriendshipCancelled},
				RemoveFriends: true,
				Message:       msgFriendshipCancel,
			},
		},
		{name: "confirmed accept", current: record(models.FriendshipConfirmed), actor: receiver, action: models.ActionAccept, wantKind: lib.KindConflict},
		{name: "confirmed reject", current: record(models.FriendshipConfirmed), actor: receiver, action: models.ActionReject, wantKind: lib.KindConflict},

		{
			name: "cancelled create by former receiver", current: record(models.FriendshipCancelled), actor: receiver, target: sender, action: models.ActionCreate,
			want: Transition{
				Change: models.StatusChange{
					Expect:   models.FriendshipCancelled,
					Status:   models.FriendshipPending,
					Sender:   receiver,
					Receiver: sender,
				},
				Message: msgRequestSent,
				Notify:  models.NotificationFriendRequest,
			},
		},
		{name: "cancelled cancel", current: record(models.FriendshipCancelled), actor: sender, action: models.ActionCancel, wantKind: lib.KindConflict},
		{name: "cancelled accept", current: record(models.FriendshipCancelled), actor: receiver, action: models.ActionAccept, wantKind: lib.KindNotFound},
		{name: "cancelled reject", current: record(models.FriendshipCancelled), actor: receiver, action: models.ActionReject, wantKind: lib.KindNotFound},

		{name: "locked create", current: record(models.FriendshipLocked), actor: sender, target: receiver, action: models.ActionCreate, wantKind: lib.KindForbidden},
		{name: "locked cancel", current: record(models.FriendshipLocked), actor: sender, action: models.ActionCancel, wantKind: lib.KindForbidden},
		{name: "locked accept", current: record(models.FriendshipLocked), actor: receiver, action: models.ActionAccept, wantKind: lib.KindForbidden},
		{name: "locked reject", current: record(models.FriendshipLocked), actor: receiver, action: models.ActionReject, wantKind: lib.KindForbidden},

		{name: "unknown action", current: nil, actor: sender, action: models.FriendAction("block"), wantKind: lib.KindValidation},
		{name: "corrupted status", current: record(models.FriendshipStatus("archived")), actor: sender, target: receiver, action: models.ActionCreate, wantKind: lib.KindStoreFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decide(tc.current, tc.actor, tc.target, tc.action)
			if tc.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, lib.KindOf(err))
				assert.NotEmpty(t, lib.PublicMessage(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecideMessages(t *testing.T) {
	locked := &models.Friendship{Sender: "a", Receiver: "b", Status: models.FriendshipLocked}
	_, err := Decide(locked, "a", "b", models.ActionCreate)
	assert.Equal(t, "Operation forbidden. Please contact the support team", lib.PublicMessage(err))

	pending := &models.Friendship{Sender: "a", Receiver: "b", Status: models.FriendshipPending}
	_, err = Decide(pending, "a", "", models.ActionAccept)
	assert.Equal(t, "Not allowed", lib.PublicMessage(err))

	_, err = Decide(pending, "b", "a", models.ActionCreate)
	assert.Equal(t, "Friend request already awaiting confirmation", lib.PublicMessage(err))
}
