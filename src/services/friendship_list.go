package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"github.com/theleywin/talent-nest-friends/src/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// List returns one page of viewerID's relationships selected by ref, each
// described through the counterpart's public info.
func (s *FriendshipService) List(ctx context.Context, viewerID string, ref models.FriendListRef, page int) (items []models.FriendListItem, err error) {
	ctx, span := tracer.Start(ctx, "friendship.List", trace.WithAttributes(
		attribute.String("friendship.ref", ref.String()),
		attribute.Int("friendship.page", page),
	))
	defer func() { endSpan(span, err) }()

	if page < 1 {
		return nil, lib.Validation("Page must be 1 or greater")
	}

	friendships, err := s.store.ListRelationships(ctx, ref, viewerID, s.pageSize, page)
	if err != nil {
		return nil, storeError(err, "Failed to list friendships")
	}

	ids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.Counterpart(viewerID))
	}
	users, err := s.store.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storeError(err, "Failed to load friends")
	}

	items = make([]models.FriendListItem, 0, len(friendships))
	for _, f := range friendships {
		friend, ok := users[f.Counterpart(viewerID)]
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function":      "FriendshipService.List",
				"friendship_id": f.Id,
			}).Warn("Friend record missing, skipping")
			continue
		}
		items = append(items, models.FriendListItem{
			RequestID:        f.Id,
			Username:         friend.Username,
			Avatar:           friend.Avatar,
			IsOnline:         friend.Status == models.PresenceOnline,
			FriendshipStatus: f.Status,
			FriendshipDate:   f.UpdatedAt,
		})
	}
	return items, nil
}
