package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resident is a building occupant known to the directory. Identity is
// issued by the external provider; this record only carries profile data.
type Resident struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	UnitNumber  string    `json:"unit_number"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
