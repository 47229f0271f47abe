package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind distinguishes what a transaction funds.
type TransactionKind string

const (
	TransactionKindPayment  TransactionKind = "PAYMENT"
	TransactionKindDeposit  TransactionKind = "DEPOSIT"
	TransactionKindTransfer TransactionKind = "TRANSFER"
)

// TransactionStatus is the lifecycle state of a transaction. SUCCESS and
// FAILED are terminal: no edge leaves them.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Transaction tracks a provider charge from initiation to settlement.
// Amounts are integer minor units (kobo), never floating point.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	Reference        string            `json:"reference"` // generated by us, unique
	UserID           *uuid.UUID        `json:"user_id,omitempty"`
	Amount           int64             `json:"amount"`
	Kind             TransactionKind   `json:"kind"`
	Status           TransactionStatus `json:"status"`
	AuthorizationURL string            `json:"authorization_url,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"` // set only on transition into SUCCESS
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsTerminal returns true once the transaction reached SUCCESS or FAILED.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}
