package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Permission is a capability grantable to an API key.
type Permission string

const (
	PermissionDeposit  Permission = "deposit"
	PermissionTransfer Permission = "transfer"
	PermissionRead     Permission = "read"
)

// ValidPermission reports whether p is one of the known permissions.
func ValidPermission(p Permission) bool {
	switch p {
	case PermissionDeposit, PermissionTransfer, PermissionRead:
		return true
	}
	return false
}

// KeyPrefix is prepended to every generated API key secret.
const KeyPrefix = "sk_live_"

// MaxActiveKeysPerUser caps the number of simultaneously active, unexpired
// keys a user may hold. Enforced at creation time under a row lock, never by
// a background sweep.
const MaxActiveKeysPerUser = 5

// APIKey is a stored credential. The plaintext secret is never persisted;
// only its one-way digest is kept for lookup.
type APIKey struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"-"`
	Permissions []Permission `json:"permissions"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Active      bool         `json:"active"`
	RevokedAt   *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// IsExpired reports whether the key's expiration has passed at the given time.
func (k *APIKey) IsExpired(now time.Time) bool {
	return !now.Before(k.ExpiresAt)
}

// IsActive re-derives the "active" predicate at read time: the active flag is
// set and the expiration is still in the future.
func (k *APIKey) IsActive(now time.Time) bool {
	return k.Active && now.Before(k.ExpiresAt)
}

// HasPermission reports whether the key grants the required permission.
func (k *APIKey) HasPermission(required Permission) bool {
	for _, p := range k.Permissions {
		if p == required {
			return true
		}
	}
	return false
}

// ParseExpirySpec maps an expiry spec (1H, 1D, 1M, 1Y) to its duration.
func ParseExpirySpec(spec string) (time.Duration, error) {
	switch spec {
	case "1H":
		return time.Hour, nil
	case "1D":
		return 24 * time.Hour, nil
	case "1M":
		return 30 * 24 * time.Hour, nil
	case "1Y":
		return 365 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid expiry spec: %q", spec)
}
