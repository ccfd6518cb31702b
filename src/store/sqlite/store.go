// Package sqlite provides a gorm/SQLite-backed Store. The friend set lives in
// a user_friends join table instead of an array field.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRow struct {
	ID          string `gorm:"primaryKey"`
	Username    string
	UsernameKey string `gorm:"uniqueIndex"`
	Email       string
	Password    string
	Avatar      string
	Bio         string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (userRow) TableName() string { return "users" }

type friendRow struct {
	UserID   string `gorm:"primaryKey"`
	FriendID string `gorm:"primaryKey"`
}

func (friendRow) TableName() string { return "user_friends" }

type friendshipRow struct {
	ID        string `gorm:"primaryKey"`
	Sender    string `gorm:"index:idx_friendships_sender_status"`
	Receiver  string `gorm:"index:idx_friendships_receiver_status"`
	PairKey   string `gorm:"uniqueIndex"`
	Status    string `gorm:"index:idx_friendships_sender_status;index:idx_friendships_receiver_status"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (friendshipRow) TableName() string { return "friendships" }

type notificationRow struct {
	ID           string `gorm:"primaryKey"`
	Recipient    string `gorm:"index"`
	Type         string
	RelatedUser  string
	FriendshipID string
	Read         bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (notificationRow) TableName() string { return "notifications" }

func (r friendshipRow) model() models.Friendship {
	return models.Friendship{
		Id:        r.ID,
		Sender:    r.Sender,
		Receiver:  r.Receiver,
		Status:    models.FriendshipStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r notificationRow) model() models.Notification {
	return models.Notification{
		Id:           r.ID,
		Recipient:    r.Recipient,
		Type:         models.NotificationType(r.Type),
		RelatedUser:  r.RelatedUser,
		FriendshipID: r.FriendshipID,
		Read:         r.Read,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type txKey struct{}

// Store persists state through gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New migrates the schema on db and returns a Store.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&userRow{}, &friendRow{}, &friendshipRow{}, &notificationRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// conn returns the transaction bound to ctx, if any.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case isUniqueViolation(err):
		return store.ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

/* ------------------------------ users ----------------------------- */

func (s *Store) loadFriends(db *gorm.DB, ids []string) (map[string][]string, error) {
	var rows []friendRow
	if err := db.Where("user_id IN ?", ids).Order("rowid").Find(&rows).Error; err != nil {
		return nil, err
	}
	friends := make(map[string][]string, len(ids))
	for _, row := range rows {
		friends[row.UserID] = append(friends[row.UserID], row.FriendID)
	}
	return friends, nil
}

func userModel(row userRow, friends []string) models.User {
	if friends == nil {
		friends = []string{}
	}
	return models.User{
		Id:          row.ID,
		Username:    row.Username,
		UsernameKey: row.UsernameKey,
		Email:       row.Email,
		Password:    row.Password,
		Avatar:      row.Avatar,
		Bio:         row.Bio,
		Status:      models.PresenceStatus(row.Status),
		Friends:     friends,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	now := s.now()
	row := userRow{
		ID:          user.Id,
		Username:    user.Username,
		UsernameKey: user.UsernameKey,
		Email:       user.Email,
		Password:    user.Password,
		Avatar:      user.Avatar,
		Bio:         user.Bio,
		Status:      string(user.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return models.User{}, translate(err, "create user")
	}
	return userModel(row, nil), nil
}

func (s *Store) findUser(ctx context.Context, query string, arg string) (models.User, error) {
	db := s.conn(ctx)
	var row userRow
	if err := db.Where(query, arg).First(&row).Error; err != nil {
		return models.User{}, translate(err, "find user")
	}
	friends, err := s.loadFriends(db, []string{row.ID})
	if err != nil {
		return models.User{}, translate(err, "load friends")
	}
	return userModel(row, friends[row.ID]), nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *Store) FindUserByUsername(ctx context.Context, usernameKey string) (models.User, error) {
	return s.findUser(ctx, "username_key = ?", usernameKey)
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	found := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	db := s.conn(ctx)

	var rows []userRow
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translate(err, "find users")
	}
	friends, err := s.loadFriends(db, ids)
	if err != nil {
		return nil, translate(err, "load friends")
	}
	for _, row := range rows {
		found[row.ID] = userModel(row, friends[row.ID])
	}
	return found, nil
}

func userUpdateColumns(update models.UserUpdate, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{"updated_at": now}
	if update.Username != nil {
		cols["username"] = *update.Username
	}
	if update.UsernameKey != nil {
		cols["username_key"] = *update.UsernameKey
	}
	if update.Email != nil {
		cols["email"] = *update.Email
	}
	if update.Password != nil {
		cols["password"] = *update.Password
	}
	if update.Avatar != nil {
		cols["avatar"] = *update.Avatar
	}
	if update.Bio != nil {
		cols["bio"] = *update.Bio
	}
	if update.Status != nil {
		cols["status"] = string(*update.Status)
	}
	return cols
}

func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	res := s.conn(ctx).Model(&userRow{}).Where("id = ?", id).Updates(userUpdateColumns(update, s.now()))
	if res.Error != nil {
		return models.User{}, translate(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return models.User{}, store.ErrNotFound
	}
	return s.FindUserByID(ctx, id)
}

/* --------------------------- friendships -------------------------- */

func (s *Store) FindRelationship(ctx context.Context, a, b string) (models.Friendship, error) {
	var row friendshipRow
	if err := s.conn(ctx).Where("pair_key = ?", models.PairKey(a, b)).First(&row).Error; err != nil {
		return models.Friendship{}, translate(err, "find friendship")
	}
	return row.model(), nil
}

func (s *Store) FindRelationshipByID(ctx context.Context, id string) (models.Friendship, error) {
	var row friendshipRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Friendship{}, translate(err, "find friendship")
	}
	return row.model(), nil
}

func (s *Store) CreateRelationship(ctx context.Context, sender, receiver string) (models.Friendship, error) {
	now := s.now()
	row := friendshipRow{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		PairKey:   models.PairKey(sender, receiver),
		Status:    string(models.FriendshipPending),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return models.Friendship{}, translate(err, "create friendship")
	}
	return row.model(), nil
}

func (s *Store) SetStatus(ctx context.Context, id string, change models.StatusChange) (models.Friendship, error) {
	db := s.conn(ctx)
	cols := map[string]interface{}{
		"status":     string(change.Status),
		"updated_at": s.now(),
	}
	if change.Sender != "" {
		cols["sender"] = change.Sender
	}
	if change.Receiver != "" {
		cols["receiver"] = change.Receiver
	}

	res := db.Model(&friendshipRow{}).
		Where("id = ? AND status = ?", id, string(change.Expect)).
		Updates(cols)
	if res.Error != nil {
		return models.Friendship{}, translate(res.Error, "set friendship status")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&friendshipRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return models.Friendship{}, translate(err, "count friendship")
		}
		if count == 0 {
			return models.Friendship{}, store.ErrNotFound
		}
		return models.Friendship{}, store.ErrConflict
	}
	return s.FindRelationshipByID(ctx, id)
}

func (s *Store) requireUsers(db *gorm.DB, a, b string) error {
	var count int64
	if err := db.Model(&userRow{}).Where("id IN ?", []string{a, b}).Count(&count).Error; err != nil {
		return translate(err, "count users")
	}
	if count != 2 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddMutualFriend(ctx context.Context, a, b string) error {
	db := s.conn(ctx)
	if err := s.requireUsers(db, a, b); err != nil {
		return err
	}
	rows := []friendRow{{UserID: a, FriendID: b}, {UserID: b, FriendID: a}}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return translate(err, "add friends")
	}
	return nil
}

func (s *Store) RemoveMutualFriend(ctx context.Context, a, b string) error {
	db := s.conn(ctx)
	if err := s.requireUsers(db, a, b); err != nil {
		return err
	}
	err := db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Delete(&friendRow{}).Error
	if err != nil {
		return translate(err, "remove friends")
	}
	return nil
}

func listScope(ref models.FriendListRef, viewer string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch ref {
		case models.RefAll:
			return db.Where("(sender = ? OR receiver = ?) AND status NOT IN ?", viewer, viewer,
				[]string{string(models.FriendshipLocked), string(models.FriendshipCancelled)})
		case models.RefReceived:
			return db.Where("status = ? AND receiver = ?", string(models.FriendshipPending), viewer)
		case models.RefSent:
			return db.Where("status = ? AND sender = ?", string(models.FriendshipPending), viewer)
		default:
			return db.Where("(sender = ? OR receiver = ?) AND status = ?", viewer, viewer, string(models.FriendshipConfirmed))
		}
	}
}

func (s *Store) ListRelationships(ctx context.Context, ref models.FriendListRef, viewer string, pageSize, page int) ([]models.Friendship, error) {
	var rows []friendshipRow
	err := s.conn(ctx).
		Scopes(listScope(ref, viewer)).
		Order("rowid").
		Offset(store.Skip(pageSize, page)).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list friendships")
	}
	out := make([]models.Friendship, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

/* -------------------------- notifications ------------------------- */

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	now := s.now()
	row := notificationRow{
		ID:           uuid.NewString(),
		Recipient:    n.Recipient,
		Type:         string(n.Type),
		RelatedUser:  n.RelatedUser,
		FriendshipID: n.FriendshipID,
		Read:         n.Read,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return models.Notification{}, translate(err, "create notification")
	}
	return row.model(), nil
}

func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]models.Notification, error) {
	var rows []notificationRow
	err := s.conn(ctx).
		Where("recipient = ?", recipient).
		Order("created_at DESC").Order("rowid DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list notifications")
	}
	out := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (s *Store) FindNotificationByID(ctx context.Context, id string) (models.Notification, error) {
	var row notificationRow
	if err := s.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Notification{}, translate(err, "find notification")
	}
	return row.model(), nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res := s.conn(ctx).Model(&notificationRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"read": true, "updated_at": s.now()})
	if res.Error != nil {
		return translate(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
