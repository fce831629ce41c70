package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/config"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

const MaxFeedLimit = config.MaxFeedPageSize

var ErrInvalidPagination = errors.New("invalid pagination")

type FeedService struct {
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	summaries SummaryCache
	pageSize  int
}

func NewFeedService(userRepo repository.UserRepository, postRepo repository.PostRepository, summaries SummaryCache, pageSize int) *FeedService {
	return &FeedService{
		userRepo:  userRepo,
		postRepo:  postRepo,
		summaries: summaries,
		pageSize:  pageSize,
	}
}

// FeedQuery selects a page of the feed. Zero values mean "not given".
type FeedQuery struct {
	Page  int
	Limit int
}

type FeedPage struct {
	Posts []domain.Post `json:"posts"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Feed ranks posts from followed users first, then newest first.
func (s *FeedService) Feed(ctx context.Context, userID uuid.UUID, q FeedQuery) (*FeedPage, error) {
	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = s.pageSize
	}
	if page < 1 || limit < 1 || limit > MaxFeedLimit {
		return nil, ErrInvalidPagination
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	posts, err := s.postRepo.ListRanked(ctx, user.Following, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("listing feed: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	if err := attachOwners(ctx, s.summaries, posts); err != nil {
		return nil, err
	}

	return &FeedPage{Posts: posts, Page: page, Limit: limit}, nil
}

func attachOwners(ctx context.Context, summaries SummaryCache, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.OwnerID)
	}
	owners, err := summaries.Get(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving owners: %w", err)
	}
	for i := range posts {
		if owner, ok := owners[posts[i].OwnerID]; ok {
			posts[i].Owner = &owner
		}
	}
	return nil
}
