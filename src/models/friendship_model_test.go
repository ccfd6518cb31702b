package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyIsUnordered(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a:b", PairKey("b", "a"))
	assert.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
}

func TestParseFriendAction(t *testing.T) {
	for _, in := range []string{"create", "Cancel", " ACCEPT ", "reject"} {
		_, err := ParseFriendAction(in)
		assert.NoError(t, err, in)
	}

	a, err := ParseFriendAction("Accept")
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, a)
	assert.True(t, a.ByRequestID())
	assert.False(t, ActionCreate.ByRequestID())

	_, err = ParseFriendAction("block")
	assert.Error(t, err)
}

func TestParseFriendListRef(t *testing.T) {
	testCases := map[string]FriendListRef{
		"all":      RefAll,
		"received": RefReceived,
		"SENT":     RefSent,
		"":         RefConfirmed,
		"friends":  RefConfirmed,
	}
	for in, want := range testCases {
		assert.Equal(t, want, ParseFriendListRef(in), in)
	}
	assert.Equal(t, "confirmed", RefConfirmed.String())
}

func TestFriendListRefMatches(t *testing.T) {
	const viewer, other = "v", "o"
	rec := func(sender, receiver string, status FriendshipStatus) Friendship {
		return Friendship{Sender: sender, Receiver: receiver, Status: status}
	}

	testCases := []struct {
		name string
		ref  FriendListRef
		f    Friendship
		want bool
	}{
		{"all pending sent", RefAll, rec(viewer, other, FriendshipPending), true},
		{"all confirmed received side", RefAll, rec(other, viewer, FriendshipConfirmed), true},
		{"all cancelled", RefAll, rec(viewer, other, FriendshipCancelled), false},
		{"all locked", RefAll, rec(viewer, other, FriendshipLocked), false},
		{"all unrelated", RefAll, rec(other, "x", FriendshipPending), false},
		{"received pending", RefReceived, rec(other, viewer, FriendshipPending), true},
		{"received own request", RefReceived, rec(viewer, other, FriendshipPending), false},
		{"received confirmed", RefReceived, rec(other, viewer, FriendshipConfirmed), false},
		{"sent pending", RefSent, rec(viewer, other, FriendshipPending), true},
		{"sent cancelled", RefSent, rec(viewer, other, FriendshipCancelled), false},
		{"confirmed either side", RefConfirmed, rec(other, viewer, FriendshipConfirmed), true},
		{"confirmed other pair", RefConfirmed, rec(other, "x", FriendshipConfirmed), false},
		{"confirmed pending", RefConfirmed, rec(viewer, other, FriendshipPending), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ref.Matches(tc.f, viewer))
		})
	}
}

func TestViewFor(t *testing.T) {
	f := Friendship{Sender: "a", Receiver: "b", Status: FriendshipPending}
	assert.Equal(t, RelationshipSent, ViewFor(f, "a"))
	assert.Equal(t, RelationshipReceived, ViewFor(f, "b"))

	f.Status = FriendshipLocked
	assert.Equal(t, RelationshipLocked, ViewFor(f, "a"))

	assert.Equal(t, "b", f.Counterpart("a"))
	assert.Equal(t, "a", f.Counterpart("b"))
	assert.True(t, f.Involves("b"))
	assert.False(t, f.Involves("c"))
}
