package mongo

import (
	"time"

	"github.com/theleywin/talent-nest-friends/src/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	usersCollection         = "users"
	friendshipsCollection   = "friendships"
	notificationsCollection = "notifications"
)

type userDocument struct {
	Id          primitive.ObjectID   `bson:"_id,omitempty"`
	Username    string               `bson:"username"`
	UsernameKey string               `bson:"usernameKey"`
	Email       string               `bson:"email"`
	Password    string               `bson:"password"`
	Avatar      string               `bson:"avatar"`
	Bio         string               `bson:"bio"`
	Status      string               `bson:"status"`
	Friends     []primitive.ObjectID `bson:"friends"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type friendshipDocument struct {
	Id        primitive.ObjectID `bson:"_id,omitempty"`
	Sender    primitive.ObjectID `bson:"sender"`
	Receiver  primitive.ObjectID `bson:"receiver"`
	PairKey   string             `bson:"pairKey"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type notificationDocument struct {
	Id           primitive.ObjectID `bson:"_id,omitempty"`
	Recipient    primitive.ObjectID `bson:"recipient"`
	Type         string             `bson:"type"`
	RelatedUser  primitive.ObjectID `bson:"relatedUser,omitempty"`
	FriendshipID primitive.ObjectID `bson:"friendshipId,omitempty"`
	Read         bool               `bson:"read"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d userDocument) model() models.User {
	friends := make([]string, 0, len(d.Friends))
	for _, id := range d.Friends {
		friends = append(friends, id.Hex())
	}
	return models.User{
		Id:          d.Id.Hex(),
		Username:    d.Username,
		UsernameKey: d.UsernameKey,
		Email:       d.Email,
		Password:    d.Password,
		Avatar:      d.Avatar,
		Bio:         d.Bio,
		Status:      models.PresenceStatus(d.Status),
		Friends:     friends,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (d friendshipDocument) model() models.Friendship {
	return models.Friendship{
		Id:        d.Id.Hex(),
		Sender:    d.Sender.Hex(),
		Receiver:  d.Receiver.Hex(),
		Status:    models.FriendshipStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d notificationDocument) model() models.Notification {
	n := models.Notification{
		Id:        d.Id.Hex(),
		Recipient: d.Recipient.Hex(),
		Type:      models.NotificationType(d.Type),
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if !d.RelatedUser.IsZero() {
		n.RelatedUser = d.RelatedUser.Hex()
	}
	if !d.FriendshipID.IsZero() {
		n.FriendshipID = d.FriendshipID.Hex()
	}
	return n
}
