package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

type fakeResidentRepo struct {
	residents map[uuid.UUID]*domain.Resident
}

func newFakeResidentRepo(residents ...*domain.Resident) *fakeResidentRepo {
	m := make(map[uuid.UUID]*domain.Resident)
	for _, r := range residents {
		m[r.ID] = r
	}
	return &fakeResidentRepo{residents: m}
}

func (f *fakeResidentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resident, error) {
	return f.residents[id], nil
}

func (f *fakeResidentRepo) List(ctx context.Context) ([]domain.Resident, error) {
	var out []domain.Resident
	for _, r := range f.residents {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeResidentRepo) Search(ctx context.Context, query string) ([]domain.Resident, error) {
	return f.List(ctx)
}

type fakeConversationRepo struct {
	convs        map[uuid.UUID]*domain.Conversation
	participants map[uuid.UUID][]domain.Participant
	markReads    int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:        make(map[uuid.UUID]*domain.Conversation),
		participants: make(map[uuid.UUID][]domain.Participant),
	}
}

func (f *fakeConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	stored := *conv
	f.convs[conv.ID] = &stored
	for _, id := range participantIDs {
		f.participants[conv.ID] = append(f.participants[conv.ID], domain.Participant{
			ConversationID: conv.ID,
			UserID:         id,
			JoinedAt:       conv.CreatedAt,
		})
	}
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok {
		return nil, nil
	}
	out := *conv
	return &out, nil
}

func (f *fakeConversationRepo) GetDirectByUsers(ctx context.Context, user1ID, user2ID uuid.UUID) (*domain.Conversation, error) {
	for id, conv := range f.convs {
		if conv.IsGroup {
			continue
		}
		var hasU1, hasU2 bool
		for _, p := range f.participants[id] {
			hasU1 = hasU1 || p.UserID == user1ID
			hasU2 = hasU2 || p.UserID == user2ID
		}
		if hasU1 && hasU2 {
			out := *conv
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for id, conv := range f.convs {
		for _, p := range f.participants[id] {
			if p.UserID == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	return append([]domain.Participant(nil), f.participants[conversationID]...), nil
}

func (f *fakeConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	for _, p := range f.participants[conversationID] {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	f.markReads++
	return nil
}

func (f *fakeConversationRepo) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	return 0, nil
}

type fakeMessageRepo struct {
	messages map[uuid.UUID]*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*domain.Message)}
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	stored := *msg
	f.messages[msg.ID] = &stored
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	out := *msg
	return &out, nil
}

func (f *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	var cutoff *time.Time
	if before != nil {
		if b, ok := f.messages[*before]; ok {
			cutoff = &b.CreatedAt
		}
	}
	for _, msg := range f.messages {
		if msg.ConversationID != conversationID || msg.DeletedAt != nil {
			continue
		}
		if cutoff != nil && !msg.CreatedAt.Before(*cutoff) {
			continue
		}
		out = append(out, *msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeMessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if msg, ok := f.messages[id]; ok {
		now := time.Now()
		msg.DeletedAt = &now
	}
	return nil
}

type fakeNotifier struct {
	newMessages int
	deleted     int
}

func (f *fakeNotifier) NotifyNewMessage(msg *domain.Message) { f.newMessages++ }

func (f *fakeNotifier) NotifyDeletedMessage(conversationID, messageID uuid.UUID) { f.deleted++ }

type fakeUnread struct {
	counts map[uuid.UUID]int // keyed by conversation id
	resets int
}

func newFakeUnread() *fakeUnread {
	return &fakeUnread{counts: make(map[uuid.UUID]int)}
}

func (f *fakeUnread) Incr(ctx context.Context, conversationID, userID uuid.UUID) error {
	f.counts[conversationID]++
	return nil
}

func (f *fakeUnread) Reset(ctx context.Context, conversationID, userID uuid.UUID) error {
	f.resets++
	delete(f.counts, conversationID)
	return nil
}

func (f *fakeUnread) Get(ctx context.Context, conversationID, userID uuid.UUID) (int, bool, error) {
	n, ok := f.counts[conversationID]
	return n, ok, nil
}

type fakeEnqueuer struct {
	enqueued int
}

func (f *fakeEnqueuer) EnqueueFanout(ctx context.Context, conversationID, messageID, senderID uuid.UUID) error {
	f.enqueued++
	return nil
}
