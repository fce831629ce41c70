package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/frameverse/internal/domain"
)

const messageSelect = `
	SELECT m.id, m.chat_id, m.sender_id, m.content, m.created_at, u.username, u.email
	FROM messages m
	JOIN users u ON m.sender_id = u.id`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.CreatedAt)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	rows, err := r.pool.Query(ctx, messageSelect+" WHERE m.id = $1", id)
	if err != nil {
		return nil, err
	}
	msg, err := pgx.CollectExactlyOneRow(rows, scanMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, messageSelect+" WHERE m.chat_id = $1 ORDER BY m.created_at ASC", chatID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMessage)
}

func scanMessage(row pgx.CollectableRow) (domain.Message, error) {
	var (
		msg    domain.Message
		sender domain.MessageSender
	)
	err := row.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.CreatedAt,
		&sender.Username, &sender.Email)
	sender.ID = msg.SenderID
	msg.Sender = &sender
	return msg, err
}
