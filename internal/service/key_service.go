package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
)

const keySecretBytes = 32

// KeyServiceImpl implements ports.KeyService.
type KeyServiceImpl struct {
	userRepo   ports.UserRepository
	keyRepo    ports.APIKeyRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewKeyService creates a new KeyServiceImpl.
func NewKeyService(
	userRepo ports.UserRepository,
	keyRepo ports.APIKeyRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *KeyServiceImpl {
	return &KeyServiceImpl{
		userRepo:   userRepo,
		keyRepo:    keyRepo,
		transactor: transactor,
		log:        log,
	}
}

// Create mints a new API key for the user. The quota check, count, and
// insert run inside one database transaction under the owning user's row
// lock, so concurrent creations cannot both slip past the cap.
func (s *KeyServiceImpl) Create(ctx context.Context, userID uuid.UUID, name string, permissions []domain.Permission, expirySpec string) (*ports.KeyMaterial, error) {
	if name == "" {
		return nil, apperror.Validation("key name is required")
	}
	if len(permissions) == 0 {
		return nil, apperror.Validation("at least one permission is required")
	}
	for _, p := range permissions {
		if !domain.ValidPermission(p) {
			return nil, apperror.Validation(fmt.Sprintf("unknown permission: %q", p))
		}
	}

	ttl, err := domain.ParseExpirySpec(expirySpec)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	return s.mint(ctx, userID, name, permissions, ttl)
}

// Rollover mints a replacement for an expired key, inheriting its permission
// set. The expired row is left untouched; the quota is re-checked exactly as
// in Create (the expired key is already excluded by the active predicate).
func (s *KeyServiceImpl) Rollover(ctx context.Context, userID, expiredKeyID uuid.UUID, expirySpec string) (*ports.KeyMaterial, error) {
	ttl, err := domain.ParseExpirySpec(expirySpec)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	old, err := s.keyRepo.GetByID(ctx, userID, expiredKeyID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find key: %w", err))
	}
	if old == nil {
		return nil, apperror.ErrNotFound("API key")
	}
	if !old.IsExpired(time.Now().UTC()) {
		return nil, apperror.ErrKeyNotExpired()
	}

	return s.mint(ctx, userID, old.Name, old.Permissions, ttl)
}

// Revoke deactivates a key explicitly. Idempotent on already-revoked keys.
func (s *KeyServiceImpl) Revoke(ctx context.Context, userID, keyID uuid.UUID) error {
	ok, err := s.keyRepo.Revoke(ctx, userID, keyID, time.Now().UTC())
	if err != nil {
		return apperror.InternalError(fmt.Errorf("revoke key: %w", err))
	}
	if !ok {
		return apperror.ErrNotFound("API key")
	}
	return nil
}

// Authorize resolves a presented key to its owner. Invalid, expired, and
// under-privileged keys are distinct failures; expiration is evaluated
// lazily here, never by a background sweep.
func (s *KeyServiceImpl) Authorize(ctx context.Context, presentedKey string, required domain.Permission) (*domain.User, error) {
	key, err := s.keyRepo.GetByHash(ctx, keyDigest(presentedKey))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup key: %w", err))
	}
	if key == nil || !key.Active {
		return nil, apperror.ErrInvalidAPIKey()
	}
	if key.IsExpired(time.Now().UTC()) {
		return nil, apperror.ErrAPIKeyExpired()
	}
	if !key.HasPermission(required) {
		return nil, apperror.ErrForbidden(string(required))
	}

	user, err := s.userRepo.GetByID(ctx, key.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup key owner: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidAPIKey()
	}
	return user, nil
}

// mint generates the secret, enforces the quota under the user row lock, and
// persists the digest. The plaintext is returned once and never stored.
func (s *KeyServiceImpl) mint(ctx context.Context, userID uuid.UUID, name string, permissions []domain.Permission, ttl time.Duration) (*ports.KeyMaterial, error) {
	plaintext, err := generateKeySecret()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate key secret: %w", err))
	}

	now := time.Now().UTC()
	key := &domain.APIKey{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		KeyHash:     keyDigest(plaintext),
		Permissions: permissions,
		ExpiresAt:   now.Add(ttl),
		Active:      true,
		CreatedAt:   now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	user, err := s.userRepo.GetByIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}

	count, err := s.keyRepo.CountActive(ctx, dbTx, userID, now)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count active keys: %w", err))
	}
	if count >= domain.MaxActiveKeysPerUser {
		return nil, apperror.ErrKeyQuotaExceeded()
	}

	if err := s.keyRepo.Create(ctx, dbTx, key); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create key: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("key_id", key.ID.String()).
		Str("user_id", userID.String()).
		Time("expires_at", key.ExpiresAt).
		Msg("api key issued")

	return &ports.KeyMaterial{
		ID:        key.ID,
		Key:       plaintext,
		ExpiresAt: key.ExpiresAt,
	}, nil
}

// generateKeySecret returns a prefixed, URL-safe random secret.
func generateKeySecret() (string, error) {
	buf := make([]byte, keySecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return domain.KeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// keyDigest computes the one-way digest stored for lookup. BLAKE2b-256 is
// deterministic, so the presented plaintext can be matched by digest.
func keyDigest(plaintext string) string {
	sum := blake2b.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
