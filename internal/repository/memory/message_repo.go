package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

type MessageRepo struct {
	s *Store
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *msg
	c.Sender = nil
	r.s.messages[msg.ID] = &c
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	out := r.s.populateMessage(m)
	return &out, nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Message
	for _, m := range r.s.messages {
		if m.ChatID == chatID {
			out = append(out, r.s.populateMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
