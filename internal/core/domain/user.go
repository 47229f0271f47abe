package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account provisioned from a third-party identity provider.
// Users are created on first successful identity exchange and refreshed on
// subsequent sign-ins; they are never deleted.
type User struct {
	ID        uuid.UUID `json:"id"`
	GoogleID  *string   `json:"-"` // external provider id, unique when set
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the verified profile returned by the identity provider.
type Identity struct {
	ExternalID string
	Email      string
	Name       string
	AvatarURL  string
}
