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
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrInvalidCreds  = errors.New("invalid email or password")
	ErrUserNotFound  = errors.New("user not found")
	ErrImageRequired = errors.New("image is required")
)

type AuthService struct {
	userRepo   repository.UserRepository
	images     storage.ImageStore
	summaries  SummaryCache
	tokens     *TokenIssuer
	bcryptCost int
}

func NewAuthService(
	userRepo repository.UserRepository,
	images storage.ImageStore,
	summaries SummaryCache,
	tokens *TokenIssuer,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		images:     images,
		summaries:  summaries,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Age      *int   `json:"age,omitempty" validate:"omitempty,min=13,max=120"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput changes only the fields that are present.
type UpdateProfileInput struct {
	Username *string `json:"username,omitempty" validate:"omitempty,username"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,min=13,max=120"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=160"`
}

func (in *UpdateProfileInput) normalize() {
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &v
	}
	if in.Bio != nil {
		v := strings.TrimSpace(*in.Bio)
		in.Bio = &v
	}
}

type AuthResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.normalize()
	if err := validate(input); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Age:          input.Age,
		Posts:        []uuid.UUID{},
		Followers:    []uuid.UUID{},
		Following:    []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, dup
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validate(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmailWithPassword(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCreds
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	input.normalize()
	if err := validate(input); err != nil {
		return nil, err
	}

	patch := repository.UserPatch{
		Username: input.Username,
		Email:    input.Email,
		Age:      input.Age,
		Bio:      input.Bio,
	}
	if input.Password != nil {
		hash, err := s.hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	existing, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.Update(ctx, userID, patch); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			return nil, dup
		}
		return nil, fmt.Errorf("updating user: %w", err)
	}
	if input.Username != nil {
		s.summaries.Invalidate(ctx, userID)
	}

	return s.userRepo.GetByID(ctx, userID)
}

// SetAvatar stores a new avatar and retires the previous asset. Retirement
// failures are logged, never returned.
func (s *AuthService) SetAvatar(ctx context.Context, userID uuid.UUID, upload *Upload) (*domain.User, error) {
	if upload == nil {
		return nil, ErrImageRequired
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	img, err := s.images.Upload(ctx, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("uploading avatar: %w", err)
	}

	if err := s.userRepo.SetAvatar(ctx, userID, &img); err != nil {
		return nil, fmt.Errorf("setting avatar: %w", err)
	}
	s.summaries.Invalidate(ctx, userID)

	if user.Avatar != nil && user.Avatar.AssetID != "" {
		if err := s.images.Delete(ctx, user.Avatar.AssetID); err != nil {
			log.Warn().Err(err).Str("asset_id", user.Avatar.AssetID).Msg("failed to retire previous avatar")
		}
	}

	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
