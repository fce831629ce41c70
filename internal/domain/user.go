package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email,omitempty"`
	PasswordHash string      `json:"-"`
	Age          *int        `json:"age,omitempty"`
	Bio          string      `json:"bio"`
	Avatar       *Image      `json:"avatar,omitempty"`
	Posts        []uuid.UUID `json:"posts"`
	Followers    []uuid.UUID `json:"followers"`
	Following    []uuid.UUID `json:"following"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// UserSummary is the denormalized view attached to posts and chats.
// It never carries email or password data.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

func (u *User) Summary() UserSummary {
	s := UserSummary{ID: u.ID, Username: u.Username}
	if u.Avatar != nil {
		s.AvatarURL = u.Avatar.URL
	}
	return s
}

func (u *User) IsFollowing(id uuid.UUID) bool {
	return lo.Contains(u.Following, id)
}

func (u *User) HasFollower(id uuid.UUID) bool {
	return lo.Contains(u.Followers, id)
}
