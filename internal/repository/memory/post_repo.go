package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

type PostRepo struct {
	s *Store
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := clonePost(post)
	r.s.posts[post.ID] = &c
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	c := clonePost(p)
	return &c, nil
}

func (r *PostRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Post, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil || p.OwnerID != ownerID {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.posts[id]; ok {
			out = append(out, clonePost(p))
		}
	}
	return out, nil
}

func (r *PostRepo) ListRanked(ctx context.Context, following []uuid.UUID, offset, limit int) ([]domain.Post, error) {
	r.s.mu.RLock()
	all := make([]domain.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		all = append(all, clonePost(p))
	}
	r.s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		pi, pj := all[i].FeedPriority(following), all[j].FeedPriority(following)
		if pi != pj {
			return pi > pj
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []domain.Post{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, patch repository.PostPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.posts, id)
	return nil
}

func (r *PostRepo) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok || p.LikedBy(userID) {
		return false, nil
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

func (r *PostRepo) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok || !p.LikedBy(userID) {
		return false, nil
	}
	p.Likes = removeID(p.Likes, userID)
	return true, nil
}
