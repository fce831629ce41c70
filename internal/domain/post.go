package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Post struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Image       Image       `json:"image"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Likes       []uuid.UUID `json:"likes"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	// Joined fields
	Owner      *UserSummary `json:"owner,omitempty"`
	LikesCount int          `json:"likes_count"`
}

func (p *Post) LikedBy(userID uuid.UUID) bool {
	return lo.Contains(p.Likes, userID)
}

// FeedPriority is 1 when the post owner is followed by the reader, else 0.
func (p *Post) FeedPriority(following []uuid.UUID) int {
	if lo.Contains(following, p.OwnerID) {
		return 1
	}
	return 0
}
