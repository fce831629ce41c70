// Package cache keeps user summaries close to the feed and chat handlers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristrettostore "github.com/eko/gocache/store/ristretto/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vedran77/frameverse/internal/domain"
)

const summaryTTL = 5 * time.Minute

// SummaryLoader is the slice of the user repository the cache reads through.
type SummaryLoader interface {
	ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error)
}

type cachedSummary struct {
	ID        string
	Username  string
	AvatarURL string
}

// SummaryCache is a read-through cache of UserSummary values keyed by user id.
type SummaryCache struct {
	client  *ristretto.Cache
	marshal *marshaler.Marshaler
	loader  SummaryLoader
}

func NewSummaryCache(loader SummaryLoader) (*SummaryCache, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ristretto cache: %w", err)
	}

	manager := cache.New[any](ristrettostore.NewRistretto(client))
	return &SummaryCache{
		client:  client,
		marshal: marshaler.New(manager),
		loader:  loader,
	}, nil
}

func summaryKey(id uuid.UUID) string {
	return "user-summary#" + id.String()
}

func userTag(id uuid.UUID) string {
	return "user#" + id.String()
}

// Get returns summaries for ids, in the loader's order for misses. Unknown ids
// are omitted.
func (c *SummaryCache) Get(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.UserSummary, error) {
	out := make(map[uuid.UUID]domain.UserSummary, len(ids))
	var misses []uuid.UUID

	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		v, err := c.marshal.Get(ctx, summaryKey(id), new(cachedSummary))
		if err != nil {
			misses = append(misses, id)
			continue
		}
		s := v.(*cachedSummary)
		out[id] = domain.UserSummary{ID: id, Username: s.Username, AvatarURL: s.AvatarURL}
	}

	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := c.loader.ListSummaries(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("loading summaries: %w", err)
	}
	for _, s := range loaded {
		out[s.ID] = s
		err := c.marshal.Set(ctx, summaryKey(s.ID),
			cachedSummary{ID: s.ID.String(), Username: s.Username, AvatarURL: s.AvatarURL},
			store.WithExpiration(summaryTTL),
			store.WithCost(1),
			store.WithTags([]string{"user-summary", userTag(s.ID)}),
		)
		if err != nil {
			log.Warn().Err(err).Str("user_id", s.ID.String()).Msg("failed to cache user summary")
		}
	}
	c.client.Wait()

	return out, nil
}

// Invalidate drops the cached summary of a user whose username or avatar changed.
func (c *SummaryCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.marshal.Delete(ctx, summaryKey(id)); err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("failed to invalidate user summary")
	}
	c.client.Wait()
}

func (c *SummaryCache) Close() {
	c.client.Close()
}
