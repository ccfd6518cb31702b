package services

import (
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
)

// Transition is the outcome of Decide: the status write and friend-set
// changes one action requires.
type Transition struct {
	// Create inserts a new pending record with Sender/Receiver.
	Create bool
	// Change is the conditional status write on an existing record.
	Change models.StatusChange
	// AddFriends and RemoveFriends update both friend sets of the pair.
	AddFriends    bool
	RemoveFriends bool
	Message       string
	Notify        models.NotificationType
}

const (
	msgRequestSent      = "Friendship request successfully sent"
	msgRequestAccepted  = "Friendship successfully validated"
	msgRequestRejected  = "Friendship successfully rejected"
	msgFriendshipCancel = "Friendship successfully cancelled"

	msgAwaiting       = "Friend request already awaiting confirmation"
	msgAlreadyFriends = "Friend already in your list"
	msgAlreadyHandled = "Friendship request already handled"
	msgAlreadyCancel  = "Person already cancelled"
	msgLocked         = "Operation forbidden. Please contact the support team"
	msgNotAllowed     = "Not allowed"
	msgNoFriendship   = "No friendship found"
	msgRequestMissing = "Friendship request not found"
)

// Decide applies the transition table to current (nil when the pair has no
// record yet). For create and cancel, target is the counterpart resolved from
// the username; accept and reject take the parties from current.
//
//	current    create         cancel            accept/reject (receiver only)
//	absent     -> pending     not found         not found
//	pending    conflict       -> cancelled      -> confirmed (+friends) / -> cancelled
//	confirmed  conflict       -> cancelled (-f) conflict
//	cancelled  -> pending     conflict          not found
//	locked     forbidden      forbidden         forbidden
func Decide(current *models.Friendship, actor, target string, action models.FriendAction) (Transition, error) {
	switch action {
	case models.ActionCreate:
		return decideCreate(current, actor, target)
	case models.ActionCancel:
		return decideCancel(current)
	case models.ActionAccept, models.ActionReject:
		return decideResponse(current, actor, action)
	}
	return Transition{}, lib.Validation("Invalid query")
}

func decideCreate(current *models.Friendship, actor, target string) (Transition, error) {
	if current == nil {
		return Transition{
			Create:  true,
			Change:  models.StatusChange{Status: models.FriendshipPending, Sender: actor, Receiver: target},
			Message: msgRequestSent,
			Notify:  models.NotificationFriendRequest,
		}, nil
	}

	switch current.Status {
	case models.FriendshipLocked:
		return Transition{}, lib.Forbidden(msgLocked)
	case models.FriendshipPending:
		return Transition{}, lib.Conflict(msgAwaiting)
	case models.FriendshipConfirmed:
		return Transition{}, lib.Conflict(msgAlreadyFriends)
	case models.FriendshipCancelled:
		// The record is reused; whoever asks now becomes the sender.
		return Transition{
			Change: models.StatusChange{
				Expect:   models.FriendshipCancelled,
				Status:   models.FriendshipPending,
				Sender:   actor,
				Receiver: target,
			},
			Message: msgRequestSent,
			Notify:  models.NotificationFriendRequest,
		}, nil
	}
	return Transition{}, unknownStatus(current.Status)
}

func decideCancel(current *models.Friendship) (Transition, error) {
	if current == nil {
		return Transition{}, lib.NotFound(msgNoFriendship)
	}

	switch current.Status {
	case models.FriendshipLocked:
		return Transition{}, lib.Forbidden(msgLocked)
	case models.FriendshipCancelled:
		return Transition{}, lib.Conflict(msgAlreadyCancel)
	case models.FriendshipPending:
		return Transition{
			Change:  models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipCancelled},
			Message: msgFriendshipCancel,
		}, nil
	case models.FriendshipConfirmed:
		return Transition{
			Change:        models.StatusChange{Expect: models.FriendshipConfirmed, Status: models.FriendshipCancelled},
			RemoveFriends: true,
			Message:       msgFriendshipCancel,
		}, nil
	}
	return Transition{}, unknownStatus(current.Status)
}

func decideResponse(current *models.Friendship, actor string, action models.FriendAction) (Transition, error) {
	if current == nil {
		return Transition{}, lib.NotFound(msgRequestMissing)
	}
	if current.Status == models.FriendshipLocked {
		return Transition{}, lib.Forbidden(msgLocked)
	}
	if current.Receiver != actor {
		return Transition{}, lib.Forbidden(msgNotAllowed)
	}

	switch current.Status {
	case models.FriendshipCancelled:
		return Transition{}, lib.NotFound(msgRequestMissing)
	case models.FriendshipConfirmed:
		return Transition{}, lib.Conflict(msgAlreadyHandled)
	case models.FriendshipPending:
		if action == models.ActionAccept {
			return Transition{
				Change:     models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipConfirmed},
				AddFriends: true,
				Message:    msgRequestAccepted,
				Notify:     models.NotificationFriendshipConfirmed,
			}, nil
		}
		// A pending request never added friends, so there is nothing to remove.
		return Transition{
			Change:  models.StatusChange{Expect: models.FriendshipPending, Status: models.FriendshipCancelled},
			Message: msgRequestRejected,
		}, nil
	}
	return Transition{}, unknownStatus(current.Status)
}

func unknownStatus(status models.FriendshipStatus) error {
	return lib.StoreFailure("Friendship record is corrupted", &unknownStatusError{status: status})
}

type unknownStatusError struct {
	status models.FriendshipStatus
}

func (e *unknownStatusError) Error() string {
	return "unknown friendship status " + string(e.status)
}
