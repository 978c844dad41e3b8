package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/domain"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/repository"
)

// Presence answers whether a resident currently holds a live connection.
type Presence interface {
	IsOnline(userID uuid.UUID) bool
}

// UnreadCounter bumps per-viewer unread counters.
type UnreadCounter interface {
	Incr(ctx context.Context, conversationID, userID uuid.UUID) error
}

// Worker handles message fan-out: unread counters for every participant
// except the sender, and a notification row for anyone offline.
type Worker struct {
	convRepo  repository.ConversationRepository
	notifRepo repository.NotificationRepository
	unread    UnreadCounter
	presence  Presence
	logger    *zap.SugaredLogger
}

func NewWorker(
	convRepo repository.ConversationRepository,
	notifRepo repository.NotificationRepository,
	unread UnreadCounter,
	presence Presence,
	logger *zap.SugaredLogger,
) *Worker {
	return &Worker{
		convRepo:  convRepo,
		notifRepo: notifRepo,
		unread:    unread,
		presence:  presence,
		logger:    logger,
	}
}

func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskMessageFanout, w.HandleFanout)
}

func (w *Worker) HandleFanout(ctx context.Context, t *asynq.Task) error {
	var p FanoutPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("fanout: unmarshal payload: %w", err)
	}

	participants, err := w.convRepo.ListParticipants(ctx, p.ConversationID)
	if err != nil {
		return fmt.Errorf("fanout: list participants: %w", err)
	}

	for _, participant := range participants {
		if participant.UserID == p.SenderID {
			continue
		}

		if w.unread != nil {
			if err := w.unread.Incr(ctx, p.ConversationID, participant.UserID); err != nil {
				w.logger.Warnw("fanout: unread incr failed",
					"conversation_id", p.ConversationID, "user_id", participant.UserID, "error", err)
			}
		}

		if w.presence != nil && w.presence.IsOnline(participant.UserID) {
			continue
		}

		n := &domain.Notification{
			ID:             uuid.New(),
			UserID:         participant.UserID,
			ConversationID: p.ConversationID,
			MessageID:      p.MessageID,
			CreatedAt:      time.Now(),
		}
		if err := w.notifRepo.Create(ctx, n); err != nil {
			return fmt.Errorf("fanout: create notification: %w", err)
		}
	}

	return nil
}

// RunServer runs the asynq consumer until ctx is canceled.
func RunServer(ctx context.Context, redisURL string, w *Worker) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return fmt.Errorf("asynq: parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{"messaging": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			w.logger.Errorw("task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	w.Register(mux)

	if err := srv.Start(mux); err != nil {
		return err
	}
	<-ctx.Done()
	srv.Shutdown()
	return nil
}
