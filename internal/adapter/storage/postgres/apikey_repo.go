package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// APIKeyRepo implements ports.APIKeyRepository.
type APIKeyRepo struct {
	pool Pool
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(pool Pool) *APIKeyRepo {
	return &APIKeyRepo{pool: pool}
}

const apiKeyColumns = `id, user_id, name, key_hash, permissions, expires_at, active, revoked_at, created_at`

// Create inserts a new API key within a database transaction.
func (r *APIKeyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, user_id, name, key_hash, permissions, expires_at, active, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		k.ID, k.UserID, k.Name, k.KeyHash, permissionsToStrings(k.Permissions),
		k.ExpiresAt, k.Active, k.RevokedAt, k.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetByID fetches a key only if it belongs to the given user.
func (r *APIKeyRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE id = $1 AND user_id = $2`, apiKeyColumns)
	return scanAPIKey(r.pool.QueryRow(ctx, query, id, userID))
}

// GetByHash fetches a key by its stored digest.
func (r *APIKeyRepo) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	query := fmt.Sprintf(`SELECT %s FROM api_keys WHERE key_hash = $1`, apiKeyColumns)
	return scanAPIKey(r.pool.QueryRow(ctx, query, keyHash))
}

// CountActive counts keys with the active flag set and expiration after now.
// Called under the owning user's row lock so concurrent mints serialize.
func (r *APIKeyRepo) CountActive(ctx context.Context, tx pgx.Tx, userID uuid.UUID, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM api_keys WHERE user_id = $1 AND active = TRUE AND expires_at > $2`

	var count int
	if err := tx.QueryRow(ctx, query, userID, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active keys: %w", err)
	}
	return count, nil
}

// Revoke clears the active flag and stamps revoked_at. Returns false if no
// key with that id belongs to the user.
func (r *APIKeyRepo) Revoke(ctx context.Context, userID, id uuid.UUID, revokedAt time.Time) (bool, error) {
	query := `UPDATE api_keys SET active = FALSE, revoked_at = $1 WHERE id = $2 AND user_id = $3`

	tag, err := r.pool.Exec(ctx, query, revokedAt, id, userID)
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanAPIKey(row pgx.Row) (*domain.APIKey, error) {
	k := &domain.APIKey{}
	var perms []string
	err := row.Scan(
		&k.ID, &k.UserID, &k.Name, &k.KeyHash, &perms,
		&k.ExpiresAt, &k.Active, &k.RevokedAt, &k.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	k.Permissions = stringsToPermissions(perms)
	return k, nil
}

func permissionsToStrings(perms []domain.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func stringsToPermissions(raw []string) []domain.Permission {
	out := make([]domain.Permission, len(raw))
	for i, s := range raw {
		out[i] = domain.Permission(s)
	}
	return out
}
