package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
)

// MemoryStore keeps uploads in process. Used by the memory driver and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), baseURL: baseURL}
}

func (s *MemoryStore) Upload(ctx context.Context, r io.Reader, size int64, contentType string) (domain.Image, error) {
	ext, err := Extension(contentType)
	if err != nil {
		return domain.Image{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Image{}, fmt.Errorf("reading upload: %w", err)
	}

	key := "images/" + uuid.NewString() + ext
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return domain.Image{URL: s.baseURL + "/" + key, AssetID: key}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, assetID)
	return nil
}

func (s *MemoryStore) Has(assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[assetID]
	return ok
}
