package models

import (
	"fmt"
	"strings"
	"time"
)

type Friendship struct {
	Id        string           `json:"id"`
	Sender    string           `json:"sender"`
	Receiver  string           `json:"receiver"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type FriendshipStatus string

const (
	FriendshipPending   FriendshipStatus = "pending"
	FriendshipConfirmed FriendshipStatus = "confirmed"
	FriendshipCancelled FriendshipStatus = "cancelled"
	FriendshipLocked    FriendshipStatus = "locked"
)

// Involves reports whether userID is one side of the relationship.
func (f Friendship) Involves(userID string) bool {
	return f.Sender == userID || f.Receiver == userID
}

// Counterpart returns the side of the relationship that is not userID.
func (f Friendship) Counterpart(userID string) string {
	if f.Sender == userID {
		return f.Receiver
	}
	return f.Sender
}

// PairKey identifies the unordered pair {a, b}. Both stores index it as unique.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// StatusChange is a conditional status write: it only applies when the
// record is still in Expect. Empty Sender/Receiver keep the stored values.
type StatusChange struct {
	Expect   FriendshipStatus
	Status   FriendshipStatus
	Sender   string
	Receiver string
}

type FriendAction string

const (
	ActionCreate FriendAction = "create"
	ActionCancel FriendAction = "cancel"
	ActionAccept FriendAction = "accept"
	ActionReject FriendAction = "reject"
)

func ParseFriendAction(s string) (FriendAction, error) {
	switch a := FriendAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreate, ActionCancel, ActionAccept, ActionReject:
		return a, nil
	}
	return "", fmt.Errorf("unknown friend action %q", s)
}

// ByRequestID reports whether the action addresses a request by id rather
// than a target username.
func (a FriendAction) ByRequestID() bool {
	return a == ActionAccept || a == ActionReject
}

// FriendListRef selects which relationships a friend list shows.
type FriendListRef int

const (
	RefConfirmed FriendListRef = iota
	RefAll
	RefReceived
	RefSent
)

// ParseFriendListRef maps the query value to a filter. Anything unknown,
// including the empty string, lists confirmed friends.
func ParseFriendListRef(s string) FriendListRef {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return RefAll
	case "received":
		return RefReceived
	case "sent":
		return RefSent
	default:
		return RefConfirmed
	}
}

func (r FriendListRef) String() string {
	switch r {
	case RefAll:
		return "all"
	case RefReceived:
		return "received"
	case RefSent:
		return "sent"
	default:
		return "confirmed"
	}
}

// Matches is the predicate every store implements for the filter.
//
//	all:       viewer on either side, status not locked and not cancelled
//	received:  pending, viewer is receiver
//	sent:      pending, viewer is sender
//	confirmed: confirmed, viewer on either side
func (r FriendListRef) Matches(f Friendship, viewer string) bool {
	switch r {
	case RefAll:
		return f.Involves(viewer) && f.Status != FriendshipLocked && f.Status != FriendshipCancelled
	case RefReceived:
		return f.Status == FriendshipPending && f.Receiver == viewer
	case RefSent:
		return f.Status == FriendshipPending && f.Sender == viewer
	default:
		return f.Status == FriendshipConfirmed && f.Involves(viewer)
	}
}

// FriendListItem is one row of a friend list page, seen from the viewer.
type FriendListItem struct {
	RequestID        string           `json:"requestId"`
	Username         string           `json:"username"`
	Avatar           string           `json:"avatar"`
	IsOnline         bool             `json:"isOnline"`
	FriendshipStatus FriendshipStatus `json:"friendshipStatus"`
	FriendshipDate   time.Time        `json:"friendshipDate"`
}

// RelationshipView is the relationship between the viewer and another user.
type RelationshipView string

const (
	RelationshipNone      RelationshipView = "none"
	RelationshipSent      RelationshipView = "sent"
	RelationshipReceived  RelationshipView = "received"
	RelationshipConfirmed RelationshipView = "confirmed"
	RelationshipCancelled RelationshipView = "cancelled"
	RelationshipLocked    RelationshipView = "locked"
)

// ViewFor describes f from viewer's side.
func ViewFor(f Friendship, viewer string) RelationshipView {
	switch f.Status {
	case FriendshipPending:
		if f.Sender == viewer {
			return RelationshipSent
		}
		return RelationshipReceived
	case FriendshipConfirmed:
		return RelationshipConfirmed
	case FriendshipCancelled:
		return RelationshipCancelled
	case FriendshipLocked:
		return RelationshipLocked
	}
	return RelationshipNone
}
