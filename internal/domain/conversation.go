package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID        uuid.UUID      `json:"id"`
	Title     *string        `json:"title,omitempty"`
	IsGroup   bool           `json:"is_group"`
	CreatedBy uuid.UUID      `json:"created_by"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	// Joined fields for list rendering
	LastMessage  *LastMessage  `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
	Participants []Participant `json:"participants,omitempty"`
}

// LastMessage is the denormalized preview carried on conversation lists.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Participant struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	UserID         uuid.UUID  `json:"user_id"`
	JoinedAt       time.Time  `json:"joined_at"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	// Joined fields
	DisplayName string `json:"display_name,omitempty"`
	UnitNumber  string `json:"unit_number,omitempty"`
}

// Important reports whether the conversation's metadata bag flags it
// as important (board announcements and the like).
func (c *Conversation) Important() bool {
	if c.Metadata == nil {
		return false
	}
	v, ok := c.Metadata["important"].(bool)
	return ok && v
}
