package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

// Lookups return (nil, nil) when the document does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// GetByID never loads the password hash.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmailWithPassword is the only lookup that loads the password hash.
	GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error)
	ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error)
	SearchByUsernamePrefix(ctx context.Context, prefix string, exclude uuid.UUID, limit int) ([]domain.UserSummary, error)
	// Update writes the profile fields set in the patch.
	Update(ctx context.Context, id uuid.UUID, patch UserPatch) error
	SetAvatar(ctx context.Context, id uuid.UUID, avatar *domain.Image) error

	AddPost(ctx context.Context, userID, postID uuid.UUID) error
	RemovePost(ctx context.Context, userID, postID uuid.UUID) error

	AddFollowing(ctx context.Context, userID, targetID uuid.UUID) error
	RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) error
	AddFollower(ctx context.Context, userID, followerID uuid.UUID) error
	RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error
	// ListFollowEdges returns every user's id with its follower and following sets.
	ListFollowEdges(ctx context.Context) ([]FollowEdges, error)
}

type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Age          *int
	Bio          *string
}

type FollowEdges struct {
	UserID    uuid.UUID
	Followers []uuid.UUID
	Following []uuid.UUID
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	// GetByIDAndOwner returns nil when the post does not exist or belongs to someone else.
	GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Post, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Post, error)
	// ListRanked orders posts by owner ∈ following first, then newest first.
	ListRanked(ctx context.Context, following []uuid.UUID, offset, limit int) ([]domain.Post, error)
	Update(ctx context.Context, id uuid.UUID, patch PostPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	// AddLike reports whether the post matched (exists and was not liked by the user).
	AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	// RemoveLike reports whether the post matched (exists and was liked by the user).
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
}

type PostPatch struct {
	Description *string
	Location    *string
	Image       *domain.Image
}

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	// GetByID loads the chat with its last message (and sender) populated.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error)
	AddUser(ctx context.Context, chatID, userID uuid.UUID) error
	SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// GetByID loads the message with its sender populated.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByChat returns all messages oldest first, senders populated.
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error)
}
