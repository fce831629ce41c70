package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(user.ID, &user.Username, &user.Email); err != nil {
		return err
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

// checkUnique must be called with the write lock held.
func (r *UserRepo) checkUnique(self uuid.UUID, username, email *string) error {
	for _, u := range r.s.users {
		if u.ID == self {
			continue
		}
		if username != nil && u.Username == *username {
			return &repository.DuplicateError{Field: "username"}
		}
		if email != nil && u.Email == *email {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := cloneUser(u)
	c.PasswordHash = ""
	return c, nil
}

func (r *UserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	summaries := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			summaries = append(summaries, u.Summary())
		}
	}
	return summaries, nil
}

func (r *UserRepo) SearchByUsernamePrefix(ctx context.Context, prefix string, exclude uuid.UUID, limit int) ([]domain.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	prefix = strings.ToLower(prefix)
	var out []domain.UserSummary
	for _, u := range r.s.users {
		if u.ID == exclude {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u.Username), prefix) {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, patch repository.UserPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil
	}
	if err := r.checkUnique(id, patch.Username, patch.Email); err != nil {
		return err
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.Age != nil {
		age := *patch.Age
		u.Age = &age
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *UserRepo) SetAvatar(ctx context.Context, id uuid.UUID, avatar *domain.Image) error {
	return r.mutate(id, func(u *domain.User) {
		if avatar == nil {
			u.Avatar = nil
			return
		}
		a := *avatar
		u.Avatar = &a
		u.UpdatedAt = time.Now()
	})
}

func (r *UserRepo) AddPost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Posts = addID(u.Posts, postID) })
}

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Posts = removeID(u.Posts, postID) })
}

func (r *UserRepo) AddFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Following = addID(u.Following, targetID) })
}

func (r *UserRepo) RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Following = removeID(u.Following, targetID) })
}

func (r *UserRepo) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Followers = addID(u.Followers, followerID) })
}

func (r *UserRepo) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.mutate(userID, func(u *domain.User) { u.Followers = removeID(u.Followers, followerID) })
}

func (r *UserRepo) ListFollowEdges(ctx context.Context) ([]repository.FollowEdges, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	edges := make([]repository.FollowEdges, 0, len(r.s.users))
	for _, u := range r.s.users {
		edges = append(edges, repository.FollowEdges{
			UserID:    u.ID,
			Followers: cloneIDs(u.Followers),
			Following: cloneIDs(u.Following),
		})
	}
	return edges, nil
}

// mutate applies fn to the stored user; a missing user is a no-op like an
// update that matched nothing.
func (r *UserRepo) mutate(id uuid.UUID, fn func(u *domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		fn(u)
	}
	return nil
}
