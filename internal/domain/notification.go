package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is recorded for residents who had no live connection when
// a message arrived, so the next session can surface what they missed.
type Notification struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	MessageID      uuid.UUID  `json:"message_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}
