package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/pkg/validator"
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func validate(input any) error {
	if errs := validator.Struct(input); errs.HasErrors() {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Upload is an image received from a client, not yet stored.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// SummaryCache resolves user summaries for posts and chats.
type SummaryCache interface {
	Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.UserSummary, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyChatCreated(chat *domain.Chat)
}
