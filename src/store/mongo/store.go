// Package mongo provides the MongoDB-backed Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Store persists users, friendships and notifications in MongoDB. Atomic
// units run as multi-document transactions.
type Store struct {
	client        *mgo.Client
	users         *mgo.Collection
	friendships   *mgo.Collection
	notifications *mgo.Collection
	now           func() time.Time
}

// New returns a Store on database and makes sure its indexes exist.
func New(ctx context.Context, client *mgo.Client, database string) (*Store, error) {
	s := newStore(client, client.Database(database))
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(client *mgo.Client, db *mgo.Database) *Store {
	return &Store{
		client:        client,
		users:         db.Collection(usersCollection),
		friendships:   db.Collection(friendshipsCollection),
		notifications: db.Collection(notificationsCollection),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the unique keys the store relies on: one friendship
// per unordered pair and one user per canonical username.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mgo.IndexModel{
		Keys:    bson.D{{Key: "usernameKey", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.friendships.Indexes().CreateMany(ctx, []mgo.IndexModel{
		{Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create friendships indexes: %w", err)
	}

	_, err = s.notifications.Indexes().CreateOne(ctx, mgo.IndexModel{
		Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create notifications index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// RunAtomic runs fn inside a transaction. The driver retries fn on transient
// transaction errors, so fn must re-read whatever it decides on.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if mgo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mgo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// objectID parses a hex id. Malformed ids cannot match any record.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mgo.ErrNoDocuments):
		return store.ErrNotFound
	case mgo.IsDuplicateKeyError(err):
		return store.ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

/* ------------------------------ users ----------------------------- */

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := s.now()
	doc := userDocument{
		Id:          primitive.NewObjectID(),
		Username:    user.Username,
		UsernameKey: user.UsernameKey,
		Email:       user.Email,
		Password:    user.Password,
		Avatar:      user.Avatar,
		Bio:         user.Bio,
		Status:      string(user.Status),
		Friends:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if user.Id != "" {
		oid, err := primitive.ObjectIDFromHex(user.Id)
		if err != nil {
			return models.User{}, fmt.Errorf("create user: invalid id %q", user.Id)
		}
		doc.Id = oid
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return models.User{}, translate(err, "create user")
	}
	return doc.model(), nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.User{}, translate(err, "find user")
	}
	return doc.model(), nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.User{}, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByUsername(ctx context.Context, usernameKey string) (models.User, error) {
	return s.findUser(ctx, bson.M{"usernameKey": usernameKey})
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	found := make(map[string]models.User, len(oids))
	if len(oids) == 0 {
		return found, nil
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, translate(err, "find users")
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode users")
	}
	for _, doc := range docs {
		user := doc.model()
		found[user.Id] = user
	}
	return found, nil
}

func userUpdateSet(update models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.UsernameKey != nil {
		set["usernameKey"] = *update.UsernameKey
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Password != nil {
		set["password"] = *update.Password
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Status != nil {
		set["status"] = string(*update.Status)
	}
	return set
}

func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.User{}, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": userUpdateSet(update, s.now())},
		opts,
	).Decode(&doc)
	if err != nil {
		return models.User{}, translate(err, "update user")
	}
	return doc.model(), nil
}

/* --------------------------- friendships -------------------------- */

func (s *Store) FindRelationship(ctx context.Context, a, b string) (models.Friendship, error) {
	var doc friendshipDocument
	err := s.friendships.FindOne(ctx, bson.M{"pairKey": models.PairKey(a, b)}).Decode(&doc)
	if err != nil {
		return models.Friendship{}, translate(err, "find friendship")
	}
	return doc.model(), nil
}

func (s *Store) FindRelationshipByID(ctx context.Context, id string) (models.Friendship, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Friendship{}, err
	}
	var doc friendshipDocument
	if err := s.friendships.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.Friendship{}, translate(err, "find friendship")
	}
	return doc.model(), nil
}

func (s *Store) CreateRelationship(ctx context.Context, sender, receiver string) (models.Friendship, error) {
	senderID, err := objectID(sender)
	if err != nil {
		return models.Friendship{}, err
	}
	receiverID, err := objectID(receiver)
	if err != nil {
		return models.Friendship{}, err
	}

	now := s.now()
	doc := friendshipDocument{
		Id:        primitive.NewObjectID(),
		Sender:    senderID,
		Receiver:  receiverID,
		PairKey:   models.PairKey(sender, receiver),
		Status:    string(models.FriendshipPending),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.friendships.InsertOne(ctx, doc); err != nil {
		return models.Friendship{}, translate(err, "create friendship")
	}
	return doc.model(), nil
}

func statusChangeSet(change models.StatusChange, now time.Time) (bson.M, error) {
	set := bson.M{
		"status":    string(change.Status),
		"updatedAt": now,
	}
	if change.Sender != "" {
		oid, err := objectID(change.Sender)
		if err != nil {
			return nil, err
		}
		set["sender"] = oid
	}
	if change.Receiver != "" {
		oid, err := objectID(change.Receiver)
		if err != nil {
			return nil, err
		}
		set["receiver"] = oid
	}
	return set, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, change models.StatusChange) (models.Friendship, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Friendship{}, err
	}
	set, err := statusChangeSet(change, s.now())
	if err != nil {
		return models.Friendship{}, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc friendshipDocument
	err = s.friendships.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": string(change.Expect)},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if err == nil {
		return doc.model(), nil
	}
	if !errors.Is(err, mgo.ErrNoDocuments) {
		return models.Friendship{}, translate(err, "set friendship status")
	}

	// Nothing matched: either the record is gone or its status moved on.
	count, err := s.friendships.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.Friendship{}, translate(err, "count friendship")
	}
	if count == 0 {
		return models.Friendship{}, store.ErrNotFound
	}
	return models.Friendship{}, store.ErrConflict
}

func (s *Store) updateFriends(ctx context.Context, op string, a, b string) error {
	aid, err := objectID(a)
	if err != nil {
		return err
	}
	bid, err := objectID(b)
	if err != nil {
		return err
	}

	for _, pair := range [][2]primitive.ObjectID{{aid, bid}, {bid, aid}} {
		res, err := s.users.UpdateOne(ctx,
			bson.M{"_id": pair[0]},
			bson.M{op: bson.M{"friends": pair[1]}},
		)
		if err != nil {
			return translate(err, "update friends")
		}
		if res.MatchedCount == 0 {
			return store.ErrNotFound
		}
	}
	return nil
}

func (s *Store) AddMutualFriend(ctx context.Context, a, b string) error {
	return s.updateFriends(ctx, "$addToSet", a, b)
}

func (s *Store) RemoveMutualFriend(ctx context.Context, a, b string) error {
	return s.updateFriends(ctx, "$pull", a, b)
}

// listFilter is the query for ref as seen by viewer.
func listFilter(ref models.FriendListRef, viewer primitive.ObjectID) bson.M {
	eitherSide := bson.A{bson.M{"sender": viewer}, bson.M{"receiver": viewer}}

	switch ref {
	case models.RefAll:
		return bson.M{
			"$or": eitherSide,
			"status": bson.M{"$nin": bson.A{
				string(models.FriendshipLocked),
				string(models.FriendshipCancelled),
			}},
		}
	case models.RefReceived:
		return bson.M{"status": string(models.FriendshipPending), "receiver": viewer}
	case models.RefSent:
		return bson.M{"status": string(models.FriendshipPending), "sender": viewer}
	default:
		return bson.M{"$or": eitherSide, "status": string(models.FriendshipConfirmed)}
	}
}

func (s *Store) ListRelationships(ctx context.Context, ref models.FriendListRef, viewer string, pageSize, page int) ([]models.Friendship, error) {
	oid, err := objectID(viewer)
	if err != nil {
		return []models.Friendship{}, nil
	}

	// ObjectIDs grow with insertion time, so sorting on _id keeps pages stable.
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(store.Skip(pageSize, page))).
		SetLimit(int64(pageSize))

	cursor, err := s.friendships.Find(ctx, listFilter(ref, oid), opts)
	if err != nil {
		return nil, translate(err, "list friendships")
	}
	defer cursor.Close(ctx)

	var docs []friendshipDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode friendships")
	}

	out := make([]models.Friendship, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

/* -------------------------- notifications ------------------------- */

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	recipient, err := objectID(n.Recipient)
	if err != nil {
		return models.Notification{}, err
	}
	now := s.now()
	doc := notificationDocument{
		Id:        primitive.NewObjectID(),
		Recipient: recipient,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.RelatedUser != "" {
		if doc.RelatedUser, err = objectID(n.RelatedUser); err != nil {
			return models.Notification{}, err
		}
	}
	if n.FriendshipID != "" {
		if doc.FriendshipID, err = objectID(n.FriendshipID); err != nil {
			return models.Notification{}, err
		}
	}

	if _, err := s.notifications.InsertOne(ctx, doc); err != nil {
		return models.Notification{}, translate(err, "create notification")
	}
	return doc.model(), nil
}

func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]models.Notification, error) {
	oid, err := objectID(recipient)
	if err != nil {
		return []models.Notification{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.notifications.Find(ctx, bson.M{"recipient": oid}, opts)
	if err != nil {
		return nil, translate(err, "list notifications")
	}
	defer cursor.Close(ctx)

	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode notifications")
	}
	out := make([]models.Notification, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.model())
	}
	return out, nil
}

func (s *Store) FindNotificationByID(ctx context.Context, id string) (models.Notification, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Notification{}, err
	}
	var doc notificationDocument
	if err := s.notifications.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.Notification{}, translate(err, "find notification")
	}
	return doc.model(), nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"read": true, "updatedAt": s.now()}},
	)
	if err != nil {
		return translate(err, "mark notification read")
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
