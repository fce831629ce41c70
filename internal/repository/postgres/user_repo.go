package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/frameverse/internal/domain"
	"github.com/vedran77/frameverse/internal/repository"
)

const userColumns = `id, username, email, age, bio, avatar_url, avatar_asset_id,
	posts, followers, following, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, age, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Age, user.Bio, user.CreatedAt, user.UpdatedAt,
	)
	return translateError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+", '' FROM users WHERE id = $1", id)
}

func (r *UserRepo) GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+", password_hash FROM users WHERE email = $1", email)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		u                domain.User
		avatarURL, asset *string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Age, &u.Bio, &avatarURL, &asset,
		&u.Posts, &u.Followers, &u.Following, &u.CreatedAt, &u.UpdatedAt,
		&u.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if avatarURL != nil {
		u.Avatar = &domain.Image{URL: *avatarURL}
		if asset != nil {
			u.Avatar.AssetID = *asset
		}
	}
	return &u, nil
}

func (r *UserRepo) ListSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, COALESCE(avatar_url, '') FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanSummary)
}

func (r *UserRepo) SearchByUsernamePrefix(ctx context.Context, prefix string, exclude uuid.UUID, limit int) ([]domain.UserSummary, error) {
	query := `
		SELECT id, username, COALESCE(avatar_url, '')
		FROM users
		WHERE lower(username) LIKE $1 AND id <> $2
		ORDER BY username
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, escapeLike(strings.ToLower(prefix))+"%", exclude, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanSummary)
}

func scanSummary(row pgx.CollectableRow) (domain.UserSummary, error) {
	var s domain.UserSummary
	err := row.Scan(&s.ID, &s.Username, &s.AvatarURL)
	return s, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, patch repository.UserPatch) error {
	sets := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $1", strings.Join(sets, ", "))
	_, err := r.pool.Exec(ctx, query, args...)
	return translateError(err)
}

func (r *UserRepo) SetAvatar(ctx context.Context, id uuid.UUID, avatar *domain.Image) error {
	var url, asset *string
	if avatar != nil {
		url, asset = &avatar.URL, &avatar.AssetID
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $2, avatar_asset_id = $3, updated_at = now() WHERE id = $1`,
		id, url, asset)
	return err
}

func (r *UserRepo) AddPost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.appendTo(ctx, "posts", userID, postID)
}

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID uuid.UUID) error {
	return r.removeFrom(ctx, "posts", userID, postID)
}

func (r *UserRepo) AddFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.appendTo(ctx, "following", userID, targetID)
}

func (r *UserRepo) RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) error {
	return r.removeFrom(ctx, "following", userID, targetID)
}

func (r *UserRepo) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.appendTo(ctx, "followers", userID, followerID)
}

func (r *UserRepo) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	return r.removeFrom(ctx, "followers", userID, followerID)
}

// appendTo adds value to an array column unless already present, in one statement.
func (r *UserRepo) appendTo(ctx context.Context, column string, id, value uuid.UUID) error {
	query := fmt.Sprintf(
		`UPDATE users SET %[1]s = array_append(%[1]s, $2) WHERE id = $1 AND NOT ($2 = ANY(%[1]s))`, column)
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}

func (r *UserRepo) removeFrom(ctx context.Context, column string, id, value uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE users SET %[1]s = array_remove(%[1]s, $2) WHERE id = $1`, column)
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}

func (r *UserRepo) ListFollowEdges(ctx context.Context) ([]repository.FollowEdges, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, followers, following FROM users`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.FollowEdges, error) {
		var e repository.FollowEdges
		err := row.Scan(&e.UserID, &e.Followers, &e.Following)
		return e, err
	})
}
