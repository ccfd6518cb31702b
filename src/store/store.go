// Package store defines the persistence contracts for users, friendships and
// notifications.
package store

import (
	"context"
	"errors"

	"github.com/theleywin/talent-nest-friends/src/models"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a uniqueness constraint was hit or a conditional
// write found the record in an unexpected state.
var ErrConflict = errors.New("record conflict")

// UserStore persists user records. The friend set is only changed through
// RelationshipStore.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	// FindUserByUsername matches on the canonical username key.
	FindUserByUsername(ctx context.Context, usernameKey string) (models.User, error)
	FindUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error)
}

// RelationshipStore is the typed accessor for friendship records and the
// friend sets they imply.
type RelationshipStore interface {
	// FindRelationship returns the record for the unordered pair {a, b}.
	FindRelationship(ctx context.Context, a, b string) (models.Friendship, error)
	FindRelationshipByID(ctx context.Context, id string) (models.Friendship, error)
	// CreateRelationship inserts a pending record. ErrConflict if the pair
	// already has one.
	CreateRelationship(ctx context.Context, sender, receiver string) (models.Friendship, error)
	// SetStatus applies change only if the stored status equals change.Expect,
	// otherwise it returns ErrConflict.
	SetStatus(ctx context.Context, id string, change models.StatusChange) (models.Friendship, error)
	AddMutualFriend(ctx context.Context, a, b string) error
	RemoveMutualFriend(ctx context.Context, a, b string) error
	// ListRelationships returns page (1-indexed) of the records matching ref
	// for viewer, in insertion order.
	ListRelationships(ctx context.Context, ref models.FriendListRef, viewer string, pageSize, page int) ([]models.Friendship, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, recipient string) ([]models.Notification, error)
	FindNotificationByID(ctx context.Context, id string) (models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Store bundles the record stores with an atomic boundary. Every store call
// made with the context passed to fn belongs to the same unit: either all of
// them take effect or none do.
type Store interface {
	UserStore
	RelationshipStore
	NotificationStore
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}

// Skip returns the number of records before page.
func Skip(pageSize, page int) int {
	if page < 1 {
		page = 1
	}
	return pageSize * (page - 1)
}
