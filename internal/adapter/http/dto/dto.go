package dto

import "wallet-service/internal/core/domain"

// CreateKeyRequest is the request body for API key creation.
type CreateKeyRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Permissions []string `json:"permissions" binding:"required,min=1,max=10,dive,permission"`
	Expiry      string   `json:"expiry" binding:"required,expiry_spec"`
}

// RolloverKeyRequest is the request body for rolling over an expired key.
type RolloverKeyRequest struct {
	ExpiredKeyID string `json:"expired_key_id" binding:"required,uuid"`
	Expiry       string `json:"expiry" binding:"required,expiry_spec"`
}

// KeyResponse carries the plaintext key. It is shown exactly once; only the
// digest is stored server-side. The id is what rollover and revocation take.
type KeyResponse struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	ExpiresAt string `json:"expires_at"`
}

// InitiatePaymentRequest is the request body for payment initiation.
// Reference is optional; resubmitting one returns the existing transaction.
type InitiatePaymentRequest struct {
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Reference string `json:"reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// DepositRequest is the request body for a wallet deposit.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// TransferRequest is the request body for a wallet-to-wallet transfer.
type TransferRequest struct {
	ToUserID string `json:"to_user_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

// AuthURLResponse carries the provider consent-page URL.
type AuthURLResponse struct {
	URL string `json:"url"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// TokenResponse is the response body for a completed sign-in.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID               string  `json:"id"`
	Reference        string  `json:"reference"`
	Amount           int64   `json:"amount"`
	Kind             string  `json:"kind"`
	Status           string  `json:"status"`
	AuthorizationURL string  `json:"authorization_url,omitempty"`
	PaidAt           *string `json:"paid_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// BalanceResponse is the response for a balance query. Amounts are integer
// minor units.
type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ToTransactionResponse converts a domain transaction to its DTO.
func ToTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               tx.ID.String(),
		Reference:        tx.Reference,
		Amount:           tx.Amount,
		Kind:             string(tx.Kind),
		Status:           string(tx.Status),
		AuthorizationURL: tx.AuthorizationURL,
		CreatedAt:        tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tx.PaidAt != nil {
		s := tx.PaidAt.Format("2006-01-02T15:04:05Z07:00")
		resp.PaidAt = &s
	}
	return resp
}

// ToPermissions converts validated permission strings to domain permissions.
func ToPermissions(raw []string) []domain.Permission {
	perms := make([]domain.Permission, len(raw))
	for i, p := range raw {
		perms[i] = domain.Permission(p)
	}
	return perms
}
