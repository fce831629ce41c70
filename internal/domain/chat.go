package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ChatTypes = []string{"movie", "anime", "episode", "scene"}

type Chat struct {
	ID            uuid.UUID   `json:"id"`
	Users         []uuid.UUID `json:"users"`
	IsGroup       bool        `json:"is_group"`
	Type          *string     `json:"type,omitempty"`
	Title         *string     `json:"title,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Image         *string     `json:"image,omitempty"`
	Admins        []uuid.UUID `json:"admins"`
	LastMessageID *uuid.UUID  `json:"last_message_id,omitempty"`
	LastMessageAt time.Time   `json:"last_message_at"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	// Joined fields
	Participants []UserSummary `json:"participants,omitempty"`
	LastMessage  *Message      `json:"last_message,omitempty"`
}

func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	return lo.Contains(c.Users, userID)
}

func (c *Chat) IsAdmin(userID uuid.UUID) bool {
	return lo.Contains(c.Admins, userID)
}
