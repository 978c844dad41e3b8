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
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrTitleRequired        = errors.New("group conversations require a title")
	ErrTooFewParticipants   = errors.New("a conversation needs at least two participants")
	ErrResidentNotFound     = errors.New("resident not found")
)

// UnreadCounter is the cached unread-count store. All methods are
// best-effort; the database count is the fallback.
type UnreadCounter interface {
	Incr(ctx context.Context, conversationID, userID uuid.UUID) error
	Reset(ctx context.Context, conversationID, userID uuid.UUID) error
	Get(ctx context.Context, conversationID, userID uuid.UUID) (int, bool, error)
}

type ConversationService struct {
	convRepo     repository.ConversationRepository
	residentRepo repository.ResidentRepository
	unread       UnreadCounter
	logger       *zap.SugaredLogger
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	residentRepo repository.ResidentRepository,
	logger *zap.SugaredLogger,
) *ConversationService {
	return &ConversationService{
		convRepo:     convRepo,
		residentRepo: residentRepo,
		logger:       logger,
	}
}

// SetUnreadCounter sets the cached counter store (optional dependency).
func (s *ConversationService) SetUnreadCounter(u UnreadCounter) {
	s.unread = u
}

type CreateConversationInput struct {
	Title          string      `json:"title"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	IsGroup        bool        `json:"is_group"`
	Important      bool        `json:"important"`
}

// Create starts a conversation. The participant set always includes the
// creator; a direct conversation between the same two residents is reused
// rather than duplicated. Conversation and participant rows are written
// in one transaction.
func (s *ConversationService) Create(ctx context.Context, creatorID uuid.UUID, input CreateConversationInput) (*domain.Conversation, error) {
	participantIDs := dedupe(append([]uuid.UUID{creatorID}, input.ParticipantIDs...))
	if len(participantIDs) < 2 {
		return nil, ErrTooFewParticipants
	}

	title := strings.TrimSpace(input.Title)
	if input.IsGroup && title == "" {
		return nil, ErrTitleRequired
	}

	for _, id := range participantIDs {
		resident, err := s.residentRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if resident == nil {
			return nil, ErrResidentNotFound
		}
	}

	// Direct conversations are unique per pair.
	if !input.IsGroup && len(participantIDs) == 2 {
		existing, err := s.convRepo.GetDirectByUsers(ctx, participantIDs[0], participantIDs[1])
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.withParticipants(ctx, existing)
		}
	}

	conv := &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   input.IsGroup,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
	}
	if title != "" {
		conv.Title = &title
	}
	if input.Important {
		conv.Metadata = map[string]any{"important": true}
	}

	if err := s.convRepo.Create(ctx, conv, participantIDs); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return s.withParticipants(ctx, conv)
}

// List returns every conversation the resident participates in, each
// annotated with the last message and the unread count.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}

	// Participants ride along so callers can resolve display names.
	for i := range convs {
		participants, err := s.convRepo.ListParticipants(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
		convs[i].Participants = participants
	}

	if s.unread != nil {
		for i := range convs {
			n, ok, err := s.unread.Get(ctx, convs[i].ID, userID)
			if err != nil {
				s.logger.Warnw("unread cache read failed", "conversation_id", convs[i].ID, "error", err)
				continue
			}
			if ok {
				convs[i].UnreadCount = n
			}
		}
	}

	return convs, nil
}

// Get returns one conversation with its participant list.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	full, err := s.withParticipants(ctx, conv)
	if err != nil {
		return nil, err
	}

	if !isParticipant(full.Participants, userID) {
		return nil, ErrNotParticipant
	}
	return full, nil
}

// MarkRead records that the resident has seen the conversation up to now
// and resets the cached unread counter.
func (s *ConversationService) MarkRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	p, err := s.convRepo.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotParticipant
	}

	if err := s.convRepo.MarkRead(ctx, conversationID, userID, time.Now()); err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}

	if s.unread != nil {
		if err := s.unread.Reset(ctx, conversationID, userID); err != nil {
			s.logger.Warnw("unread cache reset failed", "conversation_id", conversationID, "error", err)
		}
	}
	return nil
}

func (s *ConversationService) withParticipants(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	participants, err := s.convRepo.ListParticipants(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants
	return conv, nil
}

func isParticipant(participants []domain.Participant, userID uuid.UUID) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
