package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
)

func newMessageService(t *testing.T) (*MessageService, *fakeMessageRepo, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	convRepo := newFakeConversationRepo()
	convID := uuid.New()
	sender, recipient := uuid.New(), uuid.New()
	if err := convRepo.Create(context.Background(), &domain.Conversation{
		ID:        convID,
		CreatedBy: sender,
		CreatedAt: time.Now(),
	}, []uuid.UUID{sender, recipient}); err != nil {
		t.Fatalf("seeding conversation: %v", err)
	}

	messageRepo := newFakeMessageRepo()
	svc := NewMessageService(messageRepo, convRepo, zap.NewNop().Sugar())
	return svc, messageRepo, convID, sender, recipient
}

func TestSendTrimsAndStores(t *testing.T) {
	svc, repo, convID, sender, _ := newMessageService(t)

	notifier := &fakeNotifier{}
	enqueuer := &fakeEnqueuer{}
	svc.SetNotifier(notifier)
	svc.SetEnqueuer(enqueuer)

	msg, err := svc.Send(context.Background(), sender, convID, SendMessageInput{Content: "  bonjour  "})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.Content != "bonjour" {
		t.Errorf("content = %q, want trimmed", msg.Content)
	}
	if len(repo.messages) != 1 {
		t.Errorf("stored %d messages, want 1", len(repo.messages))
	}
	if notifier.newMessages != 1 {
		t.Errorf("notifier calls = %d, want 1", notifier.newMessages)
	}
	if enqueuer.enqueued != 1 {
		t.Errorf("fanout enqueues = %d, want 1", enqueuer.enqueued)
	}
}

func TestSendEmptyRejectedBeforeInsert(t *testing.T) {
	svc, repo, convID, sender, _ := newMessageService(t)

	_, err := svc.Send(context.Background(), sender, convID, SendMessageInput{Content: "   "})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if len(repo.messages) != 0 {
		t.Error("empty message reached the repository")
	}
}

func TestSendAttachmentOnlyAllowed(t *testing.T) {
	svc, _, convID, sender, _ := newMessageService(t)

	msg, err := svc.Send(context.Background(), sender, convID, SendMessageInput{
		Attachments: []string{"documents/reglement.pdf"},
	})
	if err != nil {
		t.Fatalf("attachment-only send failed: %v", err)
	}
	if len(msg.Attachments) != 1 {
		t.Errorf("attachments = %d, want 1", len(msg.Attachments))
	}
}

func TestSendRequiresParticipant(t *testing.T) {
	svc, _, convID, _, _ := newMessageService(t)

	_, err := svc.Send(context.Background(), uuid.New(), convID, SendMessageInput{Content: "hi"})
	if !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider: err = %v, want ErrNotParticipant", err)
	}

	_, err = svc.Send(context.Background(), uuid.New(), uuid.New(), SendMessageInput{Content: "hi"})
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("unknown conversation: err = %v, want ErrConversationNotFound", err)
	}
}

func TestListPaginationHasMore(t *testing.T) {
	svc, repo, convID, sender, recipient := newMessageService(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		msg, err := svc.Send(context.Background(), sender, convID, SendMessageInput{
			Content: fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
		// Spread the timestamps so ordering is unambiguous.
		repo.messages[msg.ID].CreatedAt = base.Add(time.Duration(i) * time.Minute)
	}

	resp, err := svc.List(context.Background(), recipient, convID, nil, 3)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !resp.HasMore {
		t.Error("expected has_more with older messages remaining")
	}
	if len(resp.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(resp.Messages))
	}
	// Newest page, ascending within it.
	if resp.Messages[0].Content != "message 2" || resp.Messages[2].Content != "message 4" {
		t.Errorf("wrong page: %q .. %q", resp.Messages[0].Content, resp.Messages[2].Content)
	}

	resp, err = svc.List(context.Background(), recipient, convID, nil, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.HasMore {
		t.Error("has_more set with full history returned")
	}
	if len(resp.Messages) != 5 {
		t.Errorf("got %d messages, want 5", len(resp.Messages))
	}
}

func TestListEmptyIsNotNullJSON(t *testing.T) {
	svc, _, convID, sender, _ := newMessageService(t)

	resp, err := svc.List(context.Background(), sender, convID, nil, 50)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if resp.Messages == nil {
		t.Error("empty history serialized as null")
	}
}

func TestDeleteSenderOnly(t *testing.T) {
	svc, repo, convID, sender, recipient := newMessageService(t)

	notifier := &fakeNotifier{}
	svc.SetNotifier(notifier)

	msg, err := svc.Send(context.Background(), sender, convID, SendMessageInput{Content: "oops"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := svc.Delete(context.Background(), recipient, msg.ID); !errors.Is(err, ErrNotMessageSender) {
		t.Errorf("recipient delete: err = %v, want ErrNotMessageSender", err)
	}
	if err := svc.Delete(context.Background(), sender, uuid.New()); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("unknown id: err = %v, want ErrMessageNotFound", err)
	}

	if err := svc.Delete(context.Background(), sender, msg.ID); err != nil {
		t.Fatalf("sender delete failed: %v", err)
	}
	if repo.messages[msg.ID].DeletedAt == nil {
		t.Error("message not soft-deleted")
	}
	if notifier.deleted != 1 {
		t.Errorf("delete notifications = %d, want 1", notifier.deleted)
	}

	// Soft-deleted messages drop out of history.
	resp, err := svc.List(context.Background(), sender, convID, nil, 50)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(resp.Messages) != 0 {
		t.Errorf("deleted message still listed: %d", len(resp.Messages))
	}
}
