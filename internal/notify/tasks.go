package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskMessageFanout = "message:fanout"

type FanoutPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
}

// Enqueuer pushes fan-out tasks onto the queue after a message is stored.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(redisURL string) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(opt)}, nil
}

func (e *Enqueuer) EnqueueFanout(ctx context.Context, conversationID, messageID, senderID uuid.UUID) error {
	payload, err := json.Marshal(FanoutPayload{
		ConversationID: conversationID,
		MessageID:      messageID,
		SenderID:       senderID,
	})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskMessageFanout, payload)
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue("messaging"), asynq.MaxRetry(3))
	return err
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}
