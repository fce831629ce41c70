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

const postColumns = `id, owner_id, image_url, image_asset_id, description, location,
	likes, created_at, updated_at`

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, owner_id, image_url, image_asset_id, description, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		post.ID, post.OwnerID, post.Image.URL, post.Image.AssetID,
		post.Description, post.Location, post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
}

func (r *PostRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Post, error) {
	return r.getOne(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1 AND owner_id = $2", id, ownerID)
}

func (r *PostRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPost)
}

// rankedPostsQuery puts posts of followed owners ($1) first, newest first
// within each group.
const rankedPostsQuery = `
	SELECT ` + postColumns + `
	FROM posts
	ORDER BY (owner_id = ANY($1::uuid[])) DESC, created_at DESC
	LIMIT $2 OFFSET $3`

func (r *PostRepo) ListRanked(ctx context.Context, following []uuid.UUID, offset, limit int) ([]domain.Post, error) {
	if following == nil {
		following = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx, rankedPostsQuery, following, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPost)
}

func scanPost(row pgx.CollectableRow) (domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Image.URL, &p.Image.AssetID, &p.Description, &p.Location,
		&p.Likes, &p.CreatedAt, &p.UpdatedAt,
	)
	p.LikesCount = len(p.Likes)
	return p, err
}

func (r *PostRepo) Update(ctx context.Context, id uuid.UUID, patch repository.PostPatch) error {
	sets := []string{}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Image != nil {
		add("image_url", patch.Image.URL)
		add("image_asset_id", patch.Image.AssetID)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE posts SET %s WHERE id = $1", strings.Join(sets, ", "))
	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func (r *PostRepo) AddLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET likes = array_append(likes, $2) WHERE id = $1 AND NOT ($2 = ANY(likes))`,
		postID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostRepo) RemoveLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE posts SET likes = array_remove(likes, $2) WHERE id = $1 AND $2 = ANY(likes)`,
		postID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
