package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

type ChatRepo struct {
	s *Store
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := cloneChat(chat)
	r.s.chats[chat.ID] = &c
	return nil
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[id]
	if !ok {
		return nil, nil
	}
	out := r.populate(c)
	return &out, nil
}

func (r *ChatRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.chats {
		if !c.IsGroup && len(c.Users) == 2 && c.HasParticipant(userA) && c.HasParticipant(userB) {
			out := r.populate(c)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Chat
	for _, c := range r.s.chats {
		if c.HasParticipant(userID) {
			out = append(out, r.populate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r *ChatRepo) AddUser(ctx context.Context, chatID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.chats[chatID]; ok {
		c.Users = addID(c.Users, userID)
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.chats[chatID]; ok {
		id := messageID
		c.LastMessageID = &id
		c.LastMessageAt = at
		c.UpdatedAt = time.Now()
	}
	return nil
}

// populate must be called with s.mu held.
func (r *ChatRepo) populate(c *domain.Chat) domain.Chat {
	out := cloneChat(c)
	if c.LastMessageID != nil {
		if m, ok := r.s.messages[*c.LastMessageID]; ok {
			msg := r.s.populateMessage(m)
			out.LastMessage = &msg
		}
	}
	return out
}
