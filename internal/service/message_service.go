package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/repository"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageSender = errors.New("only the message sender can perform this action")
	ErrEmptyMessage     = errors.New("message needs content or an attachment")
)

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyDeletedMessage(conversationID, messageID uuid.UUID)
}

// FanoutEnqueuer queues background fan-out work for a stored message.
type FanoutEnqueuer interface {
	EnqueueFanout(ctx context.Context, conversationID, messageID, senderID uuid.UUID) error
}

type MessageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	notifier    Notifier
	enqueuer    FanoutEnqueuer
	logger      *zap.SugaredLogger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	logger *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		logger:      logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetEnqueuer sets the fan-out queue (optional dependency).
func (s *MessageService) SetEnqueuer(e FanoutEnqueuer) {
	s.enqueuer = e
}

type SendMessageInput struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// Send stores a message and fans it out. Content is trimmed; a message
// with neither content nor attachments is rejected before any insert.
func (s *MessageService) Send(ctx context.Context, userID, conversationID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && len(input.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	if err := s.checkParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
		Attachments:    input.Attachments,
		CreatedAt:      time.Now(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueFanout(ctx, conversationID, msg.ID, userID); err != nil {
			s.logger.Warnw("fanout enqueue failed", "message_id", msg.ID, "error", err)
		}
	}

	return full, nil
}

// List returns conversation history in ascending created_at order.
func (s *MessageService) List(ctx context.Context, userID, conversationID uuid.UUID, before *uuid.UUID, limit int) (*MessageListResponse, error) {
	if err := s.checkParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}

	if messages == nil {
		messages = []domain.Message{}
	}

	return &MessageListResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// Delete soft-deletes a message. Sender-only.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return ErrNotMessageSender
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(msg.ConversationID, messageID)
	}

	return nil
}

func (s *MessageService) checkParticipant(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}

	p, err := s.convRepo.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotParticipant
	}
	return nil
}
