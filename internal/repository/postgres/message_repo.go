package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.Attachments, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.content, m.attachments,
			m.deleted_at, m.created_at, u.display_name, u.unit_number
		FROM messages m
		JOIN residents u ON m.sender_id = u.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Attachments,
		&msg.DeletedAt, &msg.CreatedAt, &msg.SenderName, &msg.SenderUnit,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if before != nil {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.content, m.attachments,
				m.deleted_at, m.created_at, u.display_name, u.unit_number
			FROM messages m
			JOIN residents u ON m.sender_id = u.id
			WHERE m.conversation_id = $1 AND m.deleted_at IS NULL
				AND m.created_at < (SELECT created_at FROM messages WHERE id = $2)
			ORDER BY m.created_at DESC
			LIMIT %d`, limit)
		args = []any{conversationID, *before}
	} else {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.content, m.attachments,
				m.deleted_at, m.created_at, u.display_name, u.unit_number
			FROM messages m
			JOIN residents u ON m.sender_id = u.id
			WHERE m.conversation_id = $1 AND m.deleted_at IS NULL
			ORDER BY m.created_at DESC
			LIMIT %d`, limit)
		args = []any{conversationID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.Attachments,
			&msg.DeletedAt, &msg.CreatedAt, &msg.SenderName, &msg.SenderUnit,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	// Reverse to chronological order (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, rows.Err()
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE messages SET deleted_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}
