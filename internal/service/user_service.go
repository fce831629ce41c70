package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

const searchLimit = 20

var (
	ErrFollowSelf       = errors.New("cannot follow yourself")
	ErrUnfollowSelf     = errors.New("cannot unfollow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

type UserService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewUserService(userRepo repository.UserRepository, postRepo repository.PostRepository) *UserService {
	return &UserService{userRepo: userRepo, postRepo: postRepo}
}

type Profile struct {
	User           *domain.User  `json:"user"`
	Posts          []domain.Post `json:"posts"`
	FollowersCount int           `json:"followersCount"`
	FollowingCount int           `json:"followingCount"`
	IsFollowing    *bool         `json:"isFollowing,omitempty"`
}

// Follow adds target to actor.following and then actor to target.followers.
// The two writes are independent; a failure between them leaves a one-sided
// edge for the reconciliation job to repair.
func (s *UserService) Follow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrFollowSelf
	}

	actor, target, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if actor.IsFollowing(target.ID) {
		return ErrAlreadyFollowing
	}

	if err := s.userRepo.AddFollowing(ctx, actorID, targetID); err != nil {
		return fmt.Errorf("adding following: %w", err)
	}
	if err := s.userRepo.AddFollower(ctx, targetID, actorID); err != nil {
		return fmt.Errorf("adding follower: %w", err)
	}
	return nil
}

// Unfollow mirrors Follow with the same partial-failure window.
func (s *UserService) Unfollow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return ErrUnfollowSelf
	}

	actor, target, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return err
	}
	if !actor.IsFollowing(target.ID) {
		return ErrNotFollowing
	}

	if err := s.userRepo.RemoveFollowing(ctx, actorID, targetID); err != nil {
		return fmt.Errorf("removing following: %w", err)
	}
	if err := s.userRepo.RemoveFollower(ctx, targetID, actorID); err != nil {
		return fmt.Errorf("removing follower: %w", err)
	}
	return nil
}

func (s *UserService) loadPair(ctx context.Context, actorID, targetID uuid.UUID) (*domain.User, *domain.User, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, ErrUserNotFound
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor == nil {
		return nil, nil, ErrUserNotFound
	}
	return actor, target, nil
}

// OwnProfile includes the caller's email.
func (s *UserService) OwnProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.buildProfile(ctx, user)
}

// PublicProfile hides the email and reports whether the viewer follows the user.
func (s *UserService) PublicProfile(ctx context.Context, viewerID, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.Email = ""

	profile, err := s.buildProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	following := user.HasFollower(viewerID)
	profile.IsFollowing = &following
	return profile, nil
}

func (s *UserService) buildProfile(ctx context.Context, user *domain.User) (*Profile, error) {
	posts, err := s.postRepo.ListByIDs(ctx, user.Posts)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}

	// Keep the owner's list order.
	byID := make(map[uuid.UUID]domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]domain.Post, 0, len(posts))
	for _, id := range user.Posts {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	return &Profile{
		User:           user,
		Posts:          ordered,
		FollowersCount: len(user.Followers),
		FollowingCount: len(user.Following),
	}, nil
}

func (s *UserService) Search(ctx context.Context, callerID uuid.UUID, query string) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserSummary{}, nil
	}

	users, err := s.userRepo.SearchByUsernamePrefix(ctx, query, callerID, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	if users == nil {
		users = []domain.UserSummary{}
	}
	return users, nil
}
