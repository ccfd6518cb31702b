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

// ProfileService reads and edits a user's own record. It never touches the
// friend set.
type ProfileService struct {
	users  store.UserStore
	hasher lib.PasswordHasher
}

func NewProfileService(users store.UserStore, hasher lib.PasswordHasher) *ProfileService {
	return &ProfileService{users: users, hasher: hasher}
}

// GetProfile returns the public profile of username, or the caller's own
// profile (with email) when username is empty.
func (s *ProfileService) GetProfile(ctx context.Context, userID, username string) (profile models.Profile, err error) {
	ctx, span := tracer.Start(ctx, "profile.Get")
	defer func() { endSpan(span, err) }()

	var user models.User
	if strings.TrimSpace(username) != "" {
		user, err = s.users.FindUserByUsername(ctx, lib.CanonicalUsername(username))
	} else {
		user, err = s.users.FindUserByID(ctx, userID)
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.Profile{}, lib.NotFound("No profile found")
	}
	if err != nil {
		return models.Profile{}, storeError(err, "Failed to load profile")
	}

	if username != "" {
		return models.PublicProfile(user), nil
	}
	return models.OwnProfile(user), nil
}

// UpdateProfile overwrites one field of the caller's profile.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, field models.ProfileField, value string) (message string, err error) {
	ctx, span := tracer.Start(ctx, "profile.Update", trace.WithAttributes(
		attribute.String("profile.field", string(field)),
	))
	defer func() { endSpan(span, err) }()

	entry := logrus.WithFields(logrus.Fields{
		"function": "ProfileService.UpdateProfile",
		"user":     userID,
		"field":    field,
	})
	defer func() { logOutcome(entry, err, "Profile updated") }()

	var update models.UserUpdate
	switch field {
	case models.ProfileFieldBio:
		update.Bio = &value
	case models.ProfileFieldEmail:
		update.Email = &value
	case models.ProfileFieldUsername:
		if strings.TrimSpace(value) == "" {
			return "", lib.Validation("Username missing")
		}
		key := lib.CanonicalUsername(value)
		update.Username = &value
		update.UsernameKey = &key
	case models.ProfileFieldPassword:
		return s.updatePassword(ctx, userID, value)
	default:
		return "", lib.Validation("Invalid query")
	}

	_, err = s.users.UpdateUser(ctx, userID, update)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", lib.NotFound("No profile found")
	case errors.Is(err, store.ErrConflict):
		return "", lib.Conflict("Username already taken")
	case err != nil:
		return "", storeError(err, "Failed to update profile")
	}
	return "Profile successfully updated", nil
}

func (s *ProfileService) updatePassword(ctx context.Context, userID, password string) (string, error) {
	if password == "" {
		return "", lib.Validation("Password missing")
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", lib.NotFound("No profile found")
	}
	if err != nil {
		return "", storeError(err, "Failed to load profile")
	}

	if s.hasher.Matches(user.Password, password) {
		return "", lib.Conflict("The old and new passwords cannot be the same")
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", lib.StoreFailure("Failed to derive credential", err)
	}
	if _, err := s.users.UpdateUser(ctx, userID, models.UserUpdate{Password: &hashed}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", lib.NotFound("No profile found")
		}
		return "", storeError(err, "Failed to update password")
	}
	return "Password successfully updated", nil
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID, uri string) (message string, err error) {
	ctx, span := tracer.Start(ctx, "profile.UpdateAvatar")
	defer func() { endSpan(span, err) }()

	_, err = s.users.UpdateUser(ctx, userID, models.UserUpdate{Avatar: &uri})
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = lib.NotFound("User not modified")
	case err != nil:
		err = storeError(err, "Failed to update avatar")
	}
	logOutcome(logrus.WithFields(logrus.Fields{
		"function": "ProfileService.UpdateAvatar",
		"user":     userID,
	}), err, "Avatar updated")
	if err != nil {
		return "", err
	}
	return "Avatar successfully modified", nil
}
