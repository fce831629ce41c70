package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

type fakeLoader struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.UserSummary
	calls int
}

func (f *fakeLoader) ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []domain.UserSummary
	for _, id := range ids {
		if s, ok := f.users[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLoader) rename(id uuid.UUID, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.users[id]
	s.Username = username
	f.users[id] = s
}

func TestSummaryCacheReadThroughAndInvalidate(t *testing.T) {
	id := uuid.New()
	missing := uuid.New()
	loader := &fakeLoader{users: map[uuid.UUID]domain.UserSummary{
		id: {ID: id, Username: "ann"},
	}}

	c, err := NewSummaryCache(loader)
	if err != nil {
		t.Fatalf("NewSummaryCache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	got, err := c.Get(ctx, []uuid.UUID{id, missing, id})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[id].Username != "ann" {
		t.Fatalf("unexpected summaries %+v", got)
	}

	loader.rename(id, "anna")
	c.Invalidate(ctx, id)

	got, err = c.Get(ctx, []uuid.UUID{id})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[id].Username != "anna" {
		t.Errorf("expected refreshed username, got %q", got[id].Username)
	}
}
