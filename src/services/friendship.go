package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FriendshipService runs friend actions and friend list queries. Each action
// reads the relationship, decides and writes inside one atomic unit of the
// store, and the status write is also conditional on the status it read.
type FriendshipService struct {
	store    store.Store
	pageSize int
}

func NewFriendshipService(st store.Store, pageSize int) *FriendshipService {
	if pageSize < 1 {
		pageSize = 3
	}
	return &FriendshipService{store: st, pageSize: pageSize}
}

func (s *FriendshipService) PageSize() int {
	return s.pageSize
}

// FriendActionRequest addresses create/cancel by Username and accept/reject
// by RequestID.
type FriendActionRequest struct {
	Action    models.FriendAction
	Username  string
	RequestID string
}

type FriendActionResult struct {
	Friendship models.Friendship `json:"friendship"`
	Message    string            `json:"message"`
}

// Action applies req on behalf of actorID.
func (s *FriendshipService) Action(ctx context.Context, actorID string, req FriendActionRequest) (result FriendActionResult, err error) {
	ctx, span := tracer.Start(ctx, "friendship.Action", trace.WithAttributes(
		attribute.String("friendship.action", string(req.Action)),
	))
	defer func() { endSpan(span, err) }()

	entry := logrus.WithFields(logrus.Fields{
		"function": "FriendshipService.Action",
		"actor":    actorID,
		"action":   req.Action,
	})

	var transition Transition
	switch {
	case req.Action.ByRequestID():
		result, transition, err = s.respond(ctx, actorID, req)
	case req.Action == models.ActionCreate || req.Action == models.ActionCancel:
		result, transition, err = s.initiate(ctx, actorID, req)
	default:
		err = lib.Validation("Invalid query")
	}

	if err == nil {
		span.SetAttributes(attribute.String("friendship.status", string(result.Friendship.Status)))
		entry = entry.WithFields(logrus.Fields{
			"friendship_id": result.Friendship.Id,
			"status":        result.Friendship.Status,
		})
		s.notify(ctx, result.Friendship, actorID, transition.Notify)
	}
	logOutcome(entry, err, "Friend action applied")
	return result, err
}

// initiate handles create and cancel, which address the counterpart by
// username.
func (s *FriendshipService) initiate(ctx context.Context, actorID string, req FriendActionRequest) (FriendActionResult, Transition, error) {
	if strings.TrimSpace(req.Username) == "" {
		return FriendActionResult{}, Transition{}, lib.Validation("Username missing")
	}

	target, err := s.store.FindUserByUsername(ctx, lib.CanonicalUsername(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		return FriendActionResult{}, Transition{}, lib.NotFound("Target user not found")
	}
	if err != nil {
		return FriendActionResult{}, Transition{}, storeError(err, "Failed to look up target user")
	}
	if target.Id == actorID {
		return FriendActionResult{}, Transition{}, lib.Validation("You cannot target yourself")
	}

	var (
		result     FriendActionResult
		transition Transition
	)
	err = s.store.RunAtomic(ctx, func(ctx context.Context) error {
		current, err := s.findCurrent(ctx, func(ctx context.Context) (models.Friendship, error) {
			return s.store.FindRelationship(ctx, actorID, target.Id)
		})
		if err != nil {
			return err
		}

		transition, err = Decide(current, actorID, target.Id, req.Action)
		if err != nil {
			return err
		}

		f, err := s.apply(ctx, current, transition)
		if err != nil {
			return err
		}
		result = FriendActionResult{Friendship: f, Message: transition.Message}
		return nil
	})
	if err != nil {
		return FriendActionResult{}, Transition{}, storeError(err, "Failed to update friendship")
	}
	return result, transition, nil
}

// respond handles accept and reject, which address the request by id.
func (s *FriendshipService) respond(ctx context.Context, actorID string, req FriendActionRequest) (FriendActionResult, Transition, error) {
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		return FriendActionResult{}, Transition{}, lib.Validation("Friendship request ID missing")
	}

	var (
		result     FriendActionResult
		transition Transition
	)
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		current, err := s.findCurrent(ctx, func(ctx context.Context) (models.Friendship, error) {
			return s.store.FindRelationshipByID(ctx, requestID)
		})
		if err != nil {
			return err
		}

		transition, err = Decide(current, actorID, "", req.Action)
		if err != nil {
			return err
		}

		f, err := s.apply(ctx, current, transition)
		if err != nil {
			return err
		}
		result = FriendActionResult{Friendship: f, Message: transition.Message}
		return nil
	})
	if err != nil {
		return FriendActionResult{}, Transition{}, storeError(err, "Failed to update friendship")
	}
	return result, transition, nil
}

// findCurrent runs a lookup and maps a missing record to nil.
func (s *FriendshipService) findCurrent(ctx context.Context, find func(ctx context.Context) (models.Friendship, error)) (*models.Friendship, error) {
	f, err := find(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "Failed to look up friendship")
	}
	return &f, nil
}

// apply performs the writes of t. It must run inside an atomic unit.
func (s *FriendshipService) apply(ctx context.Context, current *models.Friendship, t Transition) (models.Friendship, error) {
	var (
		f   models.Friendship
		err error
	)
	if t.Create {
		f, err = s.store.CreateRelationship(ctx, t.Change.Sender, t.Change.Receiver)
		if errors.Is(err, store.ErrConflict) {
			// Another request for the same pair was created first.
			return models.Friendship{}, lib.Conflict(msgAwaiting)
		}
	} else {
		f, err = s.store.SetStatus(ctx, current.Id, t.Change)
		switch {
		case errors.Is(err, store.ErrConflict):
			return models.Friendship{}, lib.Conflict(msgAlreadyHandled)
		case errors.Is(err, store.ErrNotFound):
			return models.Friendship{}, lib.NotFound(msgRequestMissing)
		}
	}
	if err != nil {
		return models.Friendship{}, storeError(err, "Failed to update friendship")
	}

	if t.AddFriends {
		if err := s.store.AddMutualFriend(ctx, f.Sender, f.Receiver); err != nil {
			return models.Friendship{}, storeError(err, "Failed to update friend lists")
		}
	}
	if t.RemoveFriends {
		if err := s.store.RemoveMutualFriend(ctx, current.Sender, current.Receiver); err != nil {
			return models.Friendship{}, storeError(err, "Failed to update friend lists")
		}
	}
	return f, nil
}

// notify records a notification once the action has committed. A failure
// here does not change the outcome of the action.
func (s *FriendshipService) notify(ctx context.Context, f models.Friendship, actorID string, kind models.NotificationType) {
	if kind == "" {
		return
	}
	recipient := f.Counterpart(actorID)
	_, err := s.store.CreateNotification(ctx, models.Notification{
		Recipient:    recipient,
		Type:         kind,
		RelatedUser:  actorID,
		FriendshipID: f.Id,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":      "FriendshipService.notify",
			"friendship_id": f.Id,
			"type":          kind,
		}).WithError(err).Warn("Failed to create notification")
	}
}

// RelationshipStatus is the relationship between the caller and another user.
type RelationshipStatus struct {
	Status    models.RelationshipView `json:"status"`
	RequestID string                  `json:"requestId,omitempty"`
}

// Status reports how actorID relates to the user named username.
func (s *FriendshipService) Status(ctx context.Context, actorID, username string) (status RelationshipStatus, err error) {
	ctx, span := tracer.Start(ctx, "friendship.Status")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(username) == "" {
		return RelationshipStatus{}, lib.Validation("Username missing")
	}
	target, err := s.store.FindUserByUsername(ctx, lib.CanonicalUsername(username))
	if errors.Is(err, store.ErrNotFound) {
		return RelationshipStatus{}, lib.NotFound("Target user not found")
	}
	if err != nil {
		return RelationshipStatus{}, storeError(err, "Failed to look up target user")
	}

	f, err := s.store.FindRelationship(ctx, actorID, target.Id)
	if errors.Is(err, store.ErrNotFound) {
		return RelationshipStatus{Status: models.RelationshipNone}, nil
	}
	if err != nil {
		return RelationshipStatus{}, storeError(err, "Failed to look up friendship")
	}
	return RelationshipStatus{Status: models.ViewFor(f, actorID), RequestID: f.Id}, nil
}

// Lock puts a relationship under moderation. Locking a confirmed
// relationship removes the friend edge so the friend sets keep matching the
// status.
func (s *FriendshipService) Lock(ctx context.Context, requestID string) (f models.Friendship, err error) {
	ctx, span := tracer.Start(ctx, "friendship.Lock")
	defer func() { endSpan(span, err) }()

	err = s.store.RunAtomic(ctx, func(ctx context.Context) error {
		current, err := s.store.FindRelationshipByID(ctx, requestID)
		if errors.Is(err, store.ErrNotFound) {
			return lib.NotFound(msgRequestMissing)
		}
		if err != nil {
			return err
		}
		if current.Status == models.FriendshipLocked {
			return lib.Conflict("Friendship already locked")
		}

		f, err = s.store.SetStatus(ctx, current.Id, models.StatusChange{
			Expect: current.Status,
			Status: models.FriendshipLocked,
		})
		if errors.Is(err, store.ErrConflict) {
			return lib.Conflict(msgAlreadyHandled)
		}
		if err != nil {
			return err
		}
		if current.Status == models.FriendshipConfirmed {
			return s.store.RemoveMutualFriend(ctx, current.Sender, current.Receiver)
		}
		return nil
	})
	if err != nil {
		err = storeError(err, "Failed to lock friendship")
	}
	logOutcome(logrus.WithFields(logrus.Fields{
		"function":      "FriendshipService.Lock",
		"friendship_id": requestID,
	}), err, "Friendship locked")
	return f, err
}

// Unlock lifts moderation. The relationship is left cancelled so either
// party can send a fresh request.
func (s *FriendshipService) Unlock(ctx context.Context, requestID string) (f models.Friendship, err error) {
	ctx, span := tracer.Start(ctx, "friendship.Unlock")
	defer func() { endSpan(span, err) }()

	f, err = s.store.SetStatus(ctx, requestID, models.StatusChange{
		Expect: models.FriendshipLocked,
		Status: models.FriendshipCancelled,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = lib.NotFound(msgRequestMissing)
	case errors.Is(err, store.ErrConflict):
		err = lib.Conflict("Friendship is not locked")
	case err != nil:
		err = storeError(err, "Failed to unlock friendship")
	}
	logOutcome(logrus.WithFields(logrus.Fields{
		"function":      "FriendshipService.Unlock",
		"friendship_id": requestID,
	}), err, "Friendship unlocked")
	return f, err
}
