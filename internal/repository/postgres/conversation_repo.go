package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO conversations (id, title, is_group, created_by, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, query,
		conv.ID, conv.Title, conv.IsGroup, conv.CreatedBy, conv.Metadata, conv.CreatedAt,
	); err != nil {
		return err
	}

	for _, userID := range participantIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)`,
			conv.ID, userID, conv.CreatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, title, is_group, created_by, metadata, created_at
		FROM conversations
		WHERE id = $1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.Title, &conv.IsGroup, &conv.CreatedBy, &conv.Metadata, &conv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) GetDirectByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.id, c.title, c.is_group, c.created_by, c.metadata, c.created_at
		FROM conversations c
		JOIN conversation_participants p1 ON p1.conversation_id = c.id AND p1.user_id = $1
		JOIN conversation_participants p2 ON p2.conversation_id = c.id AND p2.user_id = $2
		WHERE c.is_group = FALSE
		LIMIT 1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, user1ID, user2ID).Scan(
		&conv.ID, &conv.Title, &conv.IsGroup, &conv.CreatedBy, &conv.Metadata, &conv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &conv, err
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT c.id, c.title, c.is_group, c.created_by, c.metadata, c.created_at,
			lm.content, lm.sender_id, lm.created_at,
			(SELECT COUNT(*) FROM messages m
				WHERE m.conversation_id = c.id AND m.deleted_at IS NULL
					AND m.sender_id <> $1
					AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at)) AS unread
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id AND p.user_id = $1
		LEFT JOIN LATERAL (
			SELECT m.content, m.sender_id, m.created_at
			FROM messages m
			WHERE m.conversation_id = c.id AND m.deleted_at IS NULL
			ORDER BY m.created_at DESC
			LIMIT 1
		) lm ON TRUE
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var lmContent *string
		var lmSender *uuid.UUID
		var lmAt *time.Time
		if err := rows.Scan(
			&conv.ID, &conv.Title, &conv.IsGroup, &conv.CreatedBy, &conv.Metadata, &conv.CreatedAt,
			&lmContent, &lmSender, &lmAt, &conv.UnreadCount,
		); err != nil {
			return nil, err
		}
		if lmContent != nil {
			conv.LastMessage = &domain.LastMessage{
				Content:   *lmContent,
				SenderID:  *lmSender,
				CreatedAt: *lmAt,
			}
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	query := `
		SELECT p.conversation_id, p.user_id, p.joined_at, p.last_read_at,
			u.display_name, u.unit_number
		FROM conversation_participants p
		JOIN residents u ON p.user_id = u.id
		WHERE p.conversation_id = $1
		ORDER BY p.joined_at`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(
			&p.ConversationID, &p.UserID, &p.JoinedAt, &p.LastReadAt,
			&p.DisplayName, &p.UnitNumber,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	query := `
		SELECT conversation_id, user_id, joined_at, last_read_at
		FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`
	var p domain.Participant
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(
		&p.ConversationID, &p.UserID, &p.JoinedAt, &p.LastReadAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}

func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversation_participants SET last_read_at = $1
		WHERE conversation_id = $2 AND user_id = $3`,
		at, conversationID, userID,
	)
	return err
}

func (r *ConversationRepo) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants p
			ON p.conversation_id = m.conversation_id AND p.user_id = $2
		WHERE m.conversation_id = $1 AND m.deleted_at IS NULL
			AND m.sender_id <> $2
			AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at)`
	var count int
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&count)
	return count, err
}
