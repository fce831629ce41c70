package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

var ErrMessageFieldsRequired = errors.New("chatId and content are required")

type MessageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content" validate:"max=2000"`
}

// Send stores the message and then moves the chat's last-message pointer as a
// separate write. A failure in between leaves the message stored with a stale
// pointer.
func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	input.ChatID = strings.TrimSpace(input.ChatID)
	input.Content = strings.TrimSpace(input.Content)
	if input.ChatID == "" || input.Content == "" {
		return nil, ErrMessageFieldsRequired
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	chatID, err := uuid.Parse(input.ChatID)
	if err != nil {
		return nil, ErrChatNotFound
	}
	if _, err := canAccessChat(ctx, s.chatRepo, chatID, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   input.Content,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}
	if err := s.chatRepo.SetLastMessage(ctx, msg.ChatID, msg.ID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("updating last message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		full = msg
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	return full, nil
}

// List returns every message of the chat, oldest first.
func (s *MessageService) List(ctx context.Context, callerID, chatID uuid.UUID) ([]domain.Message, error) {
	if _, err := canAccessChat(ctx, s.chatRepo, chatID, callerID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
