package models

import (
	"time"
)

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
	PresenceAway    PresenceStatus = "away"
)

type User struct {
	Id          string         `json:"id"`
	Username    string         `json:"username"`
	UsernameKey string         `json:"-"` // case-folded username, unique
	Email       string         `json:"email"`
	Password    string         `json:"-"`
	Avatar      string         `json:"avatar"`
	Bio         string         `json:"bio"`
	Status      PresenceStatus `json:"status"`
	Friends     []string       `json:"friends"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// HasFriend reports whether id is in the user's friend set.
func (u User) HasFriend(id string) bool {
	for _, friend := range u.Friends {
		if friend == id {
			return true
		}
	}
	return false
}

// UserUpdate lists the user fields to overwrite. Nil fields are left untouched.
// There is no Friends field: the friend set only changes through
// AddMutualFriend and RemoveMutualFriend.
type UserUpdate struct {
	Username    *string
	UsernameKey *string
	Email       *string
	Password    *string
	Avatar      *string
	Bio         *string
	Status      *PresenceStatus
}

func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.UsernameKey == nil && u.Email == nil &&
		u.Password == nil && u.Avatar == nil && u.Bio == nil && u.Status == nil
}

// Apply copies the non-nil fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.UsernameKey != nil {
		user.UsernameKey = *u.UsernameKey
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Password != nil {
		user.Password = *u.Password
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.Status != nil {
		user.Status = *u.Status
	}
}

// Profile is the projection returned by profile lookups. Email is only set
// when the viewer looks at their own profile.
type Profile struct {
	Username  string         `json:"username"`
	Email     string         `json:"email,omitempty"`
	Avatar    string         `json:"avatar"`
	Bio       string         `json:"bio"`
	Status    PresenceStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

func PublicProfile(u User) Profile {
	return Profile{
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

func OwnProfile(u User) Profile {
	p := PublicProfile(u)
	p.Email = u.Email
	return p
}

type ProfileField string

const (
	ProfileFieldBio      ProfileField = "bio"
	ProfileFieldUsername ProfileField = "username"
	ProfileFieldEmail    ProfileField = "email"
	ProfileFieldPassword ProfileField = "password"
)
