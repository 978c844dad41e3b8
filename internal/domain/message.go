package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Content        string     `json:"content"`
	Attachments    []string   `json:"attachments,omitempty"`
	DeletedAt      *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	// Joined fields
	SenderName string `json:"sender_name,omitempty"`
	SenderUnit string `json:"sender_unit,omitempty"`
}
