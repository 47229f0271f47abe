package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"success", TransactionStatusSuccess, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestAPIKey_IsActive(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		active    bool
		expiresAt time.Time
		want      bool
	}{
		{"active and unexpired", true, now.Add(time.Hour), true},
		{"active but expired", true, now.Add(-time.Hour), false},
		{"revoked and unexpired", false, now.Add(time.Hour), false},
		{"revoked and expired", false, now.Add(-time.Hour), false},
		{"expires exactly now", true, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &APIKey{Active: tt.active, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, k.IsActive(now))
		})
	}
}

func TestAPIKey_IsExpired(t *testing.T) {
	now := time.Now()

	k := &APIKey{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, k.IsExpired(now))

	k.ExpiresAt = now.Add(-time.Minute)
	assert.True(t, k.IsExpired(now))
}

func TestAPIKey_HasPermission(t *testing.T) {
	k := &APIKey{Permissions: []Permission{PermissionRead, PermissionDeposit}}

	assert.True(t, k.HasPermission(PermissionRead))
	assert.True(t, k.HasPermission(PermissionDeposit))
	assert.False(t, k.HasPermission(PermissionTransfer))
}

func TestValidPermission(t *testing.T) {
	assert.True(t, ValidPermission(PermissionDeposit))
	assert.True(t, ValidPermission(PermissionTransfer))
	assert.True(t, ValidPermission(PermissionRead))
	assert.False(t, ValidPermission(Permission("admin")))
	assert.False(t, ValidPermission(Permission("")))
}

func TestParseExpirySpec(t *testing.T) {
	tests := []struct {
		spec string
		want time.Duration
	}{
		{"1H", time.Hour},
		{"1D", 24 * time.Hour},
		{"1M", 30 * 24 * time.Hour},
		{"1Y", 365 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseExpirySpec(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExpirySpec_Invalid(t *testing.T) {
	for _, spec := range []string{"", "2H", "1W", "1h", "forever"} {
		_, err := ParseExpirySpec(spec)
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}

func TestTransactionStatus_Constants(t *testing.T) {
	assert.Equal(t, TransactionStatus("PENDING"), TransactionStatusPending)
	assert.Equal(t, TransactionStatus("SUCCESS"), TransactionStatusSuccess)
	assert.Equal(t, TransactionStatus("FAILED"), TransactionStatusFailed)
}

func TestTransactionKind_Constants(t *testing.T) {
	assert.Equal(t, TransactionKind("PAYMENT"), TransactionKindPayment)
	assert.Equal(t, TransactionKind("DEPOSIT"), TransactionKindDeposit)
	assert.Equal(t, TransactionKind("TRANSFER"), TransactionKindTransfer)
}
