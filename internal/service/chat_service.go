package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrChatAccessDenied  = errors.New("access denied")
	ErrInvalidChatState  = errors.New("invalid chat state")
	ErrTalkingToYourself = errors.New("cannot start a chat with yourself")
	ErrGroupTooSmall     = errors.New("group needs at least 3 users")
	ErrNotGroupChat      = errors.New("not a group chat")
	ErrAdminsOnly        = errors.New("admins only")
	ErrAlreadyInGroup    = errors.New("user already in group")
)

type ChatService struct {
	chatRepo  repository.ChatRepository
	userRepo  repository.UserRepository
	summaries SummaryCache
	notifier  Notifier
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, summaries SummaryCache) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		summaries: summaries,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateGroupInput struct {
	Title       string      `json:"title" validate:"required,max=100"`
	UsersID     []uuid.UUID `json:"usersId"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=500"`
	Image       *string     `json:"image,omitempty" validate:"omitempty,url"`
	Type        *string     `json:"type,omitempty" validate:"omitempty,oneof=movie anime episode scene"`
}

// canAccessChat loads the chat and checks that userID participates in it.
func canAccessChat(ctx context.Context, chats repository.ChatRepository, chatID, userID uuid.UUID) (*domain.Chat, error) {
	chat, err := chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading chat: %w", err)
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrChatAccessDenied
	}
	if !chat.IsGroup && len(chat.Users) != 2 {
		return nil, ErrInvalidChatState
	}
	return chat, nil
}

// Authorize reports whether userID may join the chat's realtime room.
func (s *ChatService) Authorize(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := canAccessChat(ctx, s.chatRepo, chatID, userID)
	return err
}

// CreateDirect returns the existing 1v1 chat between the pair, or creates one.
// The boolean reports whether a chat was created.
func (s *ChatService) CreateDirect(ctx context.Context, callerID, otherID uuid.UUID) (*domain.Chat, bool, error) {
	if callerID == otherID {
		return nil, false, ErrTalkingToYourself
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, false, err
	}
	if other == nil {
		return nil, false, ErrUserNotFound
	}

	existing, err := s.chatRepo.FindDirect(ctx, callerID, otherID)
	if err != nil {
		return nil, false, fmt.Errorf("finding chat: %w", err)
	}
	if existing != nil {
		if err := s.populate(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:            uuid.New(),
		Users:         []uuid.UUID{callerID, otherID},
		Admins:        []uuid.UUID{},
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := s.create(ctx, chat)
	return created, true, err
}

func (s *ChatService) CreateGroup(ctx context.Context, callerID uuid.UUID, input CreateGroupInput) (*domain.Chat, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validate(input); err != nil {
		return nil, err
	}

	others := lo.Without(lo.Uniq(input.UsersID), callerID, uuid.Nil)
	if len(others) < 2 {
		return nil, ErrGroupTooSmall
	}

	found, err := s.userRepo.ListSummaries(ctx, others)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if len(found) != len(others) {
		return nil, ErrUserNotFound
	}

	title := input.Title
	now := time.Now()
	chat := &domain.Chat{
		ID:            uuid.New(),
		Users:         append([]uuid.UUID{callerID}, others...),
		IsGroup:       true,
		Type:          input.Type,
		Title:         &title,
		Description:   input.Description,
		Image:         input.Image,
		Admins:        []uuid.UUID{callerID},
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.create(ctx, chat)
}

func (s *ChatService) create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	created, err := s.chatRepo.GetByID(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, ErrChatNotFound
	}
	if err := s.populate(ctx, created); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyChatCreated(created)
	}
	return created, nil
}

func (s *ChatService) Get(ctx context.Context, callerID, chatID uuid.UUID) (*domain.Chat, error) {
	chat, err := canAccessChat(ctx, s.chatRepo, chatID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.populate(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// List returns the caller's chats, most recently active first.
func (s *ChatService) List(ctx context.Context, callerID uuid.UUID) ([]domain.Chat, error) {
	chats, err := s.chatRepo.ListByUser(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	for i := range chats {
		if err := s.populate(ctx, &chats[i]); err != nil {
			return nil, err
		}
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

func (s *ChatService) AddUser(ctx context.Context, callerID, chatID, userID uuid.UUID) (*domain.Chat, error) {
	chat, err := canAccessChat(ctx, s.chatRepo, chatID, callerID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, ErrNotGroupChat
	}
	if !chat.IsAdmin(callerID) {
		return nil, ErrAdminsOnly
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if chat.HasParticipant(userID) {
		return nil, ErrAlreadyInGroup
	}

	if err := s.chatRepo.AddUser(ctx, chatID, userID); err != nil {
		return nil, fmt.Errorf("adding user to chat: %w", err)
	}
	return s.Get(ctx, callerID, chatID)
}

func (s *ChatService) populate(ctx context.Context, chat *domain.Chat) error {
	summaries, err := s.summaries.Get(ctx, chat.Users)
	if err != nil {
		return fmt.Errorf("resolving participants: %w", err)
	}
	chat.Participants = make([]domain.UserSummary, 0, len(chat.Users))
	for _, id := range chat.Users {
		if summary, ok := summaries[id]; ok {
			chat.Participants = append(chat.Participants, summary)
		}
	}
	return nil
}
