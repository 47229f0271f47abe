package ports

import (
	"context"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// TokenService issues and verifies short-lived signed session tokens.
// Verification is stateless; expiry is the only invalidation mechanism.
type TokenService interface {
	Issue(userID uuid.UUID, email string) (string, time.Time, error)
	Verify(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the identity embedded in a session token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// IdentityProvider exchanges an authorization code for a verified identity.
type IdentityProvider interface {
	// AuthURL builds the provider consent-page URL.
	AuthURL() string
	Exchange(ctx context.Context, code string) (*domain.Identity, error)
}

// PaymentProvider is the outbound payment-processor API.
type PaymentProvider interface {
	Initialize(ctx context.Context, reference string, amount int64, email string) (*ProviderCheckout, error)
	Query(ctx context.Context, reference string) (*ProviderStatus, error)
}

// ProviderCheckout is the result of initializing a charge.
type ProviderCheckout struct {
	AuthorizationURL string
}

// ProviderStatus is the provider's view of a transaction.
type ProviderStatus struct {
	Status string // "success", "failed", or anything else = still pending
	Amount int64
	PaidAt *time.Time
}

// SignatureService verifies inbound webhook authenticity over the raw body.
type SignatureService interface {
	Sign(secret string, payload []byte) string
	// Verify uses a constant-time comparison.
	Verify(secret string, payload []byte, signature string) bool
}

// IdempotencyCache is a fast-path cache for initiation responses keyed by
// transaction reference.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// AuthService handles the identity-provider sign-in flow.
type AuthService interface {
	SignInURL() string
	// HandleCallback exchanges the code, upserts the user, and issues a token.
	HandleCallback(ctx context.Context, code string) (*AuthResult, error)
}

// AuthResult is the outcome of a completed sign-in.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// KeyService issues, rolls over, revokes, and authorizes API keys.
type KeyService interface {
	// Create returns the plaintext key exactly once; only its digest is stored.
	Create(ctx context.Context, userID uuid.UUID, name string, permissions []domain.Permission, expirySpec string) (*KeyMaterial, error)
	// Rollover mints a new key inheriting an expired key's permission set.
	// The expired row is never mutated.
	Rollover(ctx context.Context, userID, expiredKeyID uuid.UUID, expirySpec string) (*KeyMaterial, error)
	Revoke(ctx context.Context, userID, keyID uuid.UUID) error
	// Authorize resolves a presented key to its owner, checking the active
	// predicate and the required permission as distinct failure modes.
	Authorize(ctx context.Context, presentedKey string, required domain.Permission) (*domain.User, error)
}

// KeyMaterial is the creation result shown once. The id is needed later for
// revocation and rollover; the plaintext is never retrievable again.
type KeyMaterial struct {
	ID        uuid.UUID
	Key       string
	ExpiresAt time.Time
}

// PaymentService drives the transaction state machine.
type PaymentService interface {
	Initiate(ctx context.Context, req InitiateRequest) (*domain.Transaction, error)
	// HandleWebhook verifies the signature over the raw body before trusting
	// any field, then applies the terminal transition at most once.
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
	// GetStatus returns the stored view; with refresh it reconciles against
	// the provider first, under the same terminal-idempotence rule.
	GetStatus(ctx context.Context, reference string, refresh bool) (*domain.Transaction, error)
}

// InitiateRequest holds validated input for payment initiation.
type InitiateRequest struct {
	UserID uuid.UUID
	Email  string
	Amount int64
	Kind   domain.TransactionKind
	// Reference is optional: resubmitting an existing reference returns the
	// existing transaction instead of creating a second one.
	Reference string
}

// WalletService handles balance movements and views.
type WalletService interface {
	Transfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amount int64) (*domain.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
