// Package memory provides an in-process Store used by tests and by the
// memory store driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/theleywin/talent-nest-friends/src/models"
	"github.com/theleywin/talent-nest-friends/src/store"
)

type txKey struct{}

// Store keeps every record in maps guarded by a single mutex. Atomic units
// hold the mutex for their whole duration and restore a snapshot on error,
// so no other caller observes a partially applied unit.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users     map[string]models.User
	userOrder []string

	friendships     map[string]models.Friendship
	friendshipOrder []string
	pairs           map[string]string

	notifications     map[string]models.Notification
	notificationOrder []string

	failures map[string]error
}

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[string]models.User),
		friendships:   make(map[string]models.Friendship),
		pairs:         make(map[string]string),
		notifications: make(map[string]models.Notification),
		failures:      make(map[string]error),
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next call of the named operation (for example
// "AddMutualFriend") return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

type snapshot struct {
	users             map[string]models.User
	userOrder         []string
	friendships       map[string]models.Friendship
	friendshipOrder   []string
	pairs             map[string]string
	notifications     map[string]models.Notification
	notificationOrder []string
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:             make(map[string]models.User, len(s.users)),
		userOrder:         append([]string(nil), s.userOrder...),
		friendships:       make(map[string]models.Friendship, len(s.friendships)),
		friendshipOrder:   append([]string(nil), s.friendshipOrder...),
		pairs:             make(map[string]string, len(s.pairs)),
		notifications:     make(map[string]models.Notification, len(s.notifications)),
		notificationOrder: append([]string(nil), s.notificationOrder...),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, f := range s.friendships {
		snap.friendships[id] = f
	}
	for k, v := range s.pairs {
		snap.pairs[k] = v
	}
	for id, n := range s.notifications {
		snap.notifications[id] = n
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.userOrder = snap.userOrder
	s.friendships = snap.friendships
	s.friendshipOrder = snap.friendshipOrder
	s.pairs = snap.pairs
	s.notifications = snap.notifications
	s.notificationOrder = snap.notificationOrder
}

// RunAtomic runs fn as one unit. Nested calls join the outer unit.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func cloneUser(u models.User) models.User {
	u.Friends = append([]string(nil), u.Friends...)
	return u
}

/* ------------------------------ users ----------------------------- */

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("CreateUser"); err != nil {
		return models.User{}, err
	}

	for _, existing := range s.users {
		if existing.UsernameKey == user.UsernameKey {
			return models.User{}, store.ErrConflict
		}
	}
	if user.Id == "" {
		user.Id = uuid.NewString()
	} else if _, ok := s.users[user.Id]; ok {
		return models.User{}, store.ErrConflict
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user = cloneUser(user)

	s.users[user.Id] = user
	s.userOrder = append(s.userOrder, user.Id)
	return cloneUser(user), nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("FindUserByID"); err != nil {
		return models.User{}, err
	}

	user, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, usernameKey string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("FindUserByUsername"); err != nil {
		return models.User{}, err
	}

	for _, id := range s.userOrder {
		if user := s.users[id]; user.UsernameKey == usernameKey {
			return cloneUser(user), nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock(ctx)()
	if err := s.fail("FindUsersByIDs"); err != nil {
		return nil, err
	}

	found := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			found[id] = cloneUser(user)
		}
	}
	return found, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("UpdateUser"); err != nil {
		return models.User{}, err
	}

	user, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	if update.UsernameKey != nil {
		for otherID, other := range s.users {
			if otherID != id && other.UsernameKey == *update.UsernameKey {
				return models.User{}, store.ErrConflict
			}
		}
	}
	update.Apply(&user)
	user.UpdatedAt = s.now()
	s.users[id] = user
	return cloneUser(user), nil
}

/* --------------------------- friendships -------------------------- */

func (s *Store) FindRelationship(ctx context.Context, a, b string) (models.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return models.Friendship{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("FindRelationship"); err != nil {
		return models.Friendship{}, err
	}

	id, ok := s.pairs[models.PairKey(a, b)]
	if !ok {
		return models.Friendship{}, store.ErrNotFound
	}
	return s.friendships[id], nil
}

func (s *Store) FindRelationshipByID(ctx context.Context, id string) (models.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return models.Friendship{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("FindRelationshipByID"); err != nil {
		return models.Friendship{}, err
	}

	f, ok := s.friendships[id]
	if !ok {
		return models.Friendship{}, store.ErrNotFound
	}
	return f, nil
}

func (s *Store) CreateRelationship(ctx context.Context, sender, receiver string) (models.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return models.Friendship{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("CreateRelationship"); err != nil {
		return models.Friendship{}, err
	}

	key := models.PairKey(sender, receiver)
	if _, ok := s.pairs[key]; ok {
		return models.Friendship{}, store.ErrConflict
	}
	now := s.now()
	f := models.Friendship{
		Id:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Status:    models.FriendshipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.friendships[f.Id] = f
	s.friendshipOrder = append(s.friendshipOrder, f.Id)
	s.pairs[key] = f.Id
	return f, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, change models.StatusChange) (models.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return models.Friendship{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("SetStatus"); err != nil {
		return models.Friendship{}, err
	}

	f, ok := s.friendships[id]
	if !ok {
		return models.Friendship{}, store.ErrNotFound
	}
	if f.Status != change.Expect {
		return models.Friendship{}, store.ErrConflict
	}
	f.Status = change.Status
	if change.Sender != "" {
		f.Sender = change.Sender
	}
	if change.Receiver != "" {
		f.Receiver = change.Receiver
	}
	f.UpdatedAt = s.now()
	s.friendships[id] = f
	return f, nil
}

func (s *Store) AddMutualFriend(ctx context.Context, a, b string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock(ctx)()
	if err := s.fail("AddMutualFriend"); err != nil {
		return err
	}

	ua, okA := s.users[a]
	ub, okB := s.users[b]
	if !okA || !okB {
		return store.ErrNotFound
	}
	if !ua.HasFriend(b) {
		ua.Friends = append(ua.Friends, b)
	}
	if !ub.HasFriend(a) {
		ub.Friends = append(ub.Friends, a)
	}
	s.users[a] = ua
	s.users[b] = ub
	return nil
}

func (s *Store) RemoveMutualFriend(ctx context.Context, a, b string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock(ctx)()
	if err := s.fail("RemoveMutualFriend"); err != nil {
		return err
	}

	ua, okA := s.users[a]
	ub, okB := s.users[b]
	if !okA || !okB {
		return store.ErrNotFound
	}
	ua.Friends = without(ua.Friends, b)
	ub.Friends = without(ub.Friends, a)
	s.users[a] = ua
	s.users[b] = ub
	return nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func (s *Store) ListRelationships(ctx context.Context, ref models.FriendListRef, viewer string, pageSize, page int) ([]models.Friendship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock(ctx)()
	if err := s.fail("ListRelationships"); err != nil {
		return nil, err
	}

	skip := store.Skip(pageSize, page)
	out := make([]models.Friendship, 0, pageSize)
	for _, id := range s.friendshipOrder {
		f := s.friendships[id]
		if !ref.Matches(f, viewer) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(out) == pageSize {
			break
		}
		out = append(out, f)
	}
	return out, nil
}

/* -------------------------- notifications ------------------------- */

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return models.Notification{}, err
	}
	defer s.lock(ctx)()
	if err := s.fail("CreateNotification"); err != nil {
		return models.Notification{}, err
	}

	now := s.now()
	n.Id = uuid.NewString()
	n.CreatedAt = now
	n.UpdatedAt = now
	s.notifications[n.Id] = n
	s.notificationOrder = append(s.notificationOrder, n.Id)
	return n, nil
}

// ListNotifications returns the recipient's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, recipient string) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer s.lock(ctx)()
	if err := s.fail("ListNotifications"); err != nil {
		return nil, err
	}

	out := make([]models.Notification, 0)
	for i := len(s.notificationOrder) - 1; i >= 0; i-- {
		n := s.notifications[s.notificationOrder[i]]
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) FindNotificationByID(ctx context.Context, id string) (models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return models.Notification{}, err
	}
	defer s.lock(ctx)()

	n, ok := s.notifications[id]
	if !ok {
		return models.Notification{}, store.ErrNotFound
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock(ctx)()
	if err := s.fail("MarkNotificationRead"); err != nil {
		return err
	}

	n, ok := s.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = s.now()
	s.notifications[id] = n
	return nil
}
