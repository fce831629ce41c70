package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/frameverse/internal/domain"
)

// chatSelect joins the last message and its sender.
const chatSelect = `
	SELECT c.id, c.users, c.is_group, c.type, c.title, c.description, c.image, c.admins,
		c.last_message_id, c.last_message_at, c.created_at, c.updated_at,
		m.id, m.sender_id, m.content, m.created_at, u.username, u.email
	FROM chats c
	LEFT JOIN messages m ON m.id = c.last_message_id
	LEFT JOIN users u ON u.id = m.sender_id`

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, users, is_group, type, title, description, image, admins,
			last_message_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	admins := chat.Admins
	if admins == nil {
		admins = []uuid.UUID{}
	}
	_, err := r.pool.Exec(ctx, query,
		chat.ID, chat.Users, chat.IsGroup, chat.Type, chat.Title, chat.Description, chat.Image,
		admins, chat.LastMessageAt, chat.CreatedAt, chat.UpdatedAt,
	)
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	return r.getOne(ctx, chatSelect+" WHERE c.id = $1", id)
}

func (r *ChatRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	query := chatSelect + `
		WHERE NOT c.is_group AND cardinality(c.users) = 2 AND c.users @> ARRAY[$1, $2]::uuid[]
		LIMIT 1`
	return r.getOne(ctx, query, userA, userB)
}

func (r *ChatRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Chat, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanChat)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	rows, err := r.pool.Query(ctx, chatSelect+" WHERE $1 = ANY(c.users) ORDER BY c.last_message_at DESC", userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanChat)
}

func scanChat(row pgx.CollectableRow) (domain.Chat, error) {
	var (
		c         domain.Chat
		msgID     *uuid.UUID
		senderID  *uuid.UUID
		content   *string
		createdAt *time.Time
		username  *string
		email     *string
	)
	err := row.Scan(
		&c.ID, &c.Users, &c.IsGroup, &c.Type, &c.Title, &c.Description, &c.Image, &c.Admins,
		&c.LastMessageID, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt,
		&msgID, &senderID, &content, &createdAt, &username, &email,
	)
	if err != nil {
		return c, err
	}
	if msgID != nil {
		msg := &domain.Message{
			ID:        *msgID,
			ChatID:    c.ID,
			SenderID:  *senderID,
			Content:   *content,
			CreatedAt: *createdAt,
		}
		if username != nil {
			msg.Sender = &domain.MessageSender{ID: *senderID, Username: *username, Email: *email}
		}
		c.LastMessage = msg
	}
	return c, nil
}

func (r *ChatRepo) AddUser(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chats SET users = array_append(users, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(users))`,
		chatID, userID)
	return err
}

func (r *ChatRepo) SetLastMessage(ctx context.Context, chatID, messageID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chats SET last_message_id = $2, last_message_at = $3, updated_at = now() WHERE id = $1`,
		chatID, messageID, at)
	return err
}
