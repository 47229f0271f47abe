package ports

import (
	"context"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// GetByIDForUpdate locks the user row; used to serialize the API-key
	// quota check. MUST be called within a transaction.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error)
}

// APIKeyRepository defines persistence operations for API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, key *domain.APIKey) error
	// GetByID fetches a key only if it belongs to the given user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
	// CountActive counts keys with the active flag set and expiration after
	// now. Called under the owning user's row lock.
	CountActive(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) (int, error)
	// Revoke clears the active flag and stamps revoked_at. Returns false if
	// no key with that id belongs to the user.
	Revoke(ctx context.Context, userID, id uuid.UUID, revokedAt time.Time) (bool, error)
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// GetByReferenceForUpdate locks the transaction row so webhook and poll
	// reconciliation for the same reference are serialized.
	GetByReferenceForUpdate(ctx context.Context, tx pgx.Tx, reference string) (*domain.Transaction, error)
	// MarkTerminal transitions a PENDING transaction into a terminal status.
	// The WHERE status = 'PENDING' guard makes the transition exactly-once;
	// returns false when the row was already terminal.
	MarkTerminal(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, paidAt *time.Time) (bool, error)
	ListByUser(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   uuid.UUID
	Status   *domain.TransactionStatus
	Page     int
	PageSize int
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx are used inside transaction blocks for row locking.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
