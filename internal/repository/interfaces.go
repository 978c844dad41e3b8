package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type ResidentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resident, error)
	List(ctx context.Context) ([]domain.Resident, error)
	Search(ctx context.Context, query string) ([]domain.Resident, error)
}

type ConversationRepository interface {
	// Create inserts the conversation row and all participant rows in a
	// single transaction; a failure leaves nothing behind.
	Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetDirectByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error)
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}
