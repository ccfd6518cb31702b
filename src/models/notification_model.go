package models

import (
	"time"
)

type Notification struct {
	Id           string           `json:"id"`
	Recipient    string           `json:"recipient"`
	Type         NotificationType `json:"type"`
	RelatedUser  string           `json:"relatedUser,omitempty"`
	FriendshipID string           `json:"friendshipId,omitempty"`
	Read         bool             `json:"read"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type NotificationType string

const (
	NotificationFriendRequest       NotificationType = "friendRequest"
	NotificationFriendshipConfirmed NotificationType = "friendshipConfirmed"
)
