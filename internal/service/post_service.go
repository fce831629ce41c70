package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
	"github.com/vedran77/frameverse/internal/storage"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("only the owner can modify this post")
)

type PostService struct {
	postRepo  repository.PostRepository
	userRepo  repository.UserRepository
	images    storage.ImageStore
	summaries SummaryCache
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	images storage.ImageStore,
	summaries SummaryCache,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		userRepo:  userRepo,
		images:    images,
		summaries: summaries,
	}
}

type CreatePostInput struct {
	Description string `json:"description" validate:"max=2200"`
	Location    string `json:"location" validate:"max=100"`
}

// UpdatePostInput changes only the fields that are present.
type UpdatePostInput struct {
	Description *string `json:"description,omitempty" validate:"omitempty,max=2200"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// Create uploads the image, stores the post, then appends it to the owner's
// post list. A failure in the last step leaves the post without a list entry.
func (s *PostService) Create(ctx context.Context, ownerID uuid.UUID, input CreatePostInput, upload *Upload) (*domain.Post, error) {
	if upload == nil {
		return nil, ErrImageRequired
	}
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	if err := validate(input); err != nil {
		return nil, err
	}

	img, err := s.images.Upload(ctx, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("uploading image: %w", err)
	}

	now := time.Now()
	post := &domain.Post{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Image:       img,
		Description: input.Description,
		Location:    input.Location,
		Likes:       []uuid.UUID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	if err := s.userRepo.AddPost(ctx, ownerID, post.ID); err != nil {
		return nil, fmt.Errorf("adding post to owner: %w", err)
	}

	return s.Get(ctx, post.ID)
}

func (s *PostService) Get(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	posts := []domain.Post{*post}
	if err := attachOwners(ctx, s.summaries, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Update applies the present fields. A new image is uploaded before the post
// is written; the previous asset is retired afterwards and failures there are
// only logged.
func (s *PostService) Update(ctx context.Context, callerID, postID uuid.UUID, input UpdatePostInput, upload *Upload) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.OwnerID != callerID {
		return nil, ErrNotPostOwner
	}
	input.Description = trimmed(input.Description)
	input.Location = trimmed(input.Location)
	if err := validate(input); err != nil {
		return nil, err
	}

	patch := repository.PostPatch{Description: input.Description, Location: input.Location}
	if upload != nil {
		img, err := s.images.Upload(ctx, upload.Reader, upload.Size, upload.ContentType)
		if err != nil {
			return nil, fmt.Errorf("uploading image: %w", err)
		}
		patch.Image = &img
	}

	if err := s.postRepo.Update(ctx, postID, patch); err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	if patch.Image != nil && post.Image.AssetID != "" {
		if err := s.images.Delete(ctx, post.Image.AssetID); err != nil {
			log.Warn().Err(err).Str("asset_id", post.Image.AssetID).Msg("failed to retire previous post image")
		}
	}

	return s.Get(ctx, postID)
}

// Delete retires the image, removes the post from the owner's list and
// deletes the post, in that order. Nothing is rolled back on failure.
func (s *PostService) Delete(ctx context.Context, callerID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByIDAndOwner(ctx, postID, callerID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	if post.Image.AssetID != "" {
		if err := s.images.Delete(ctx, post.Image.AssetID); err != nil {
			return fmt.Errorf("retiring image: %w", err)
		}
	}
	if err := s.userRepo.RemovePost(ctx, callerID, postID); err != nil {
		return fmt.Errorf("removing post from owner: %w", err)
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// ToggleLike adds the caller's like when absent, otherwise removes it. The two
// conditional updates are not atomic together: concurrent toggles by the same
// user can both take the same branch.
func (s *PostService) ToggleLike(ctx context.Context, callerID, postID uuid.UUID) (*LikeResult, error) {
	liked, err := s.postRepo.AddLike(ctx, postID, callerID)
	if err != nil {
		return nil, fmt.Errorf("adding like: %w", err)
	}
	if !liked {
		removed, err := s.postRepo.RemoveLike(ctx, postID, callerID)
		if err != nil {
			return nil, fmt.Errorf("removing like: %w", err)
		}
		if !removed {
			return nil, ErrPostNotFound
		}
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return &LikeResult{Liked: liked, LikesCount: post.LikesCount}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
