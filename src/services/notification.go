package services

import (
	"context"
	"errors"

	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
)

type NotificationService struct {
	notifications store.NotificationStore
}

func NewNotificationService(notifications store.NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns userID's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) (list []models.Notification, err error) {
	ctx, span := tracer.Start(ctx, "notification.List")
	defer func() { endSpan(span, err) }()

	list, err = s.notifications.ListNotifications(ctx, userID)
	if err != nil {
		return nil, storeError(err, "Failed to list notifications")
	}
	return list, nil
}

// MarkRead marks one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (err error) {
	ctx, span := tracer.Start(ctx, "notification.MarkRead")
	defer func() { endSpan(span, err) }()

	n, err := s.notifications.FindNotificationByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return lib.NotFound("Notification not found")
	}
	if err != nil {
		return storeError(err, "Failed to load notification")
	}
	if n.Recipient != userID {
		return lib.Forbidden("Not authorized to update this notification")
	}
	if err := s.notifications.MarkNotificationRead(ctx, id); err != nil {
		return storeError(err, "Failed to update notification")
	}
	return nil
}
