package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's balance in integer minor units. The balance never
// goes negative; debits are checked under a row lock.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
