package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type keyTestDeps struct {
	svc        *KeyServiceImpl
	userRepo   *mocks.MockUserRepository
	keyRepo    *mocks.MockAPIKeyRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupKeyService(t *testing.T) *keyTestDeps {
	ctrl := gomock.NewController(t)
	d := &keyTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		keyRepo:    mocks.NewMockAPIKeyRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewKeyService(d.userRepo, d.keyRepo, d.transactor, zerolog.Nop())
	return d
}

// ==================== Create Tests ====================

func TestKeyService_Create_Success(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, userID).Return(&domain.User{ID: userID}, nil)
	d.keyRepo.EXPECT().CountActive(ctx, tx, userID, gomock.Any()).Return(2, nil)
	d.keyRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, key *domain.APIKey) error {
			assert.Equal(t, userID, key.UserID)
			assert.Equal(t, "ci-pipeline", key.Name)
			assert.True(t, key.Active)
			// Only the digest is persisted, never the plaintext.
			assert.False(t, strings.HasPrefix(key.KeyHash, domain.KeyPrefix))
			assert.Len(t, key.KeyHash, 64)
			return nil
		})

	material, err := d.svc.Create(ctx, userID, "ci-pipeline", []domain.Permission{domain.PermissionDeposit, domain.PermissionRead}, "1D")
	require.NoError(t, err)
	require.NotNil(t, material)
	assert.True(t, strings.HasPrefix(material.Key, domain.KeyPrefix))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), material.ExpiresAt, 5*time.Second)
}

func TestKeyService_Create_QuotaExceeded(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, userID).Return(&domain.User{ID: userID}, nil)
	d.keyRepo.EXPECT().CountActive(ctx, tx, userID, gomock.Any()).Return(domain.MaxActiveKeysPerUser, nil)

	material, err := d.svc.Create(ctx, userID, "one-too-many", []domain.Permission{domain.PermissionRead}, "1H")
	assert.Nil(t, material)
	assertAppError(t, err, "KEY_001")
}

func TestKeyService_Create_Validation(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name        string
		keyName     string
		permissions []domain.Permission
		expirySpec  string
	}{
		{"empty name", "", []domain.Permission{domain.PermissionRead}, "1H"},
		{"no permissions", "k", nil, "1H"},
		{"unknown permission", "k", []domain.Permission{"admin"}, "1H"},
		{"bad expiry spec", "k", []domain.Permission{domain.PermissionRead}, "2W"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			material, err := d.svc.Create(ctx, userID, tt.keyName, tt.permissions, tt.expirySpec)
			assert.Nil(t, material)
			assertAppError(t, err, "VAL_001")
		})
	}
}

func TestKeyService_Create_UserNotFound(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, userID).Return(nil, nil)

	material, err := d.svc.Create(ctx, userID, "orphan", []domain.Permission{domain.PermissionRead}, "1H")
	assert.Nil(t, material)
	assertAppError(t, err, "PAY_004")
}

// ==================== Rollover Tests ====================

func TestKeyService_Rollover_Success(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	oldKeyID := uuid.New()
	tx := &mockTx{}

	inherited := []domain.Permission{domain.PermissionDeposit, domain.PermissionTransfer}

	d.keyRepo.EXPECT().GetByID(ctx, userID, oldKeyID).Return(&domain.APIKey{
		ID:          oldKeyID,
		UserID:      userID,
		Name:        "nightly-job",
		Permissions: inherited,
		ExpiresAt:   time.Now().Add(-time.Hour),
		Active:      true,
	}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, userID).Return(&domain.User{ID: userID}, nil)
	d.keyRepo.EXPECT().CountActive(ctx, tx, userID, gomock.Any()).Return(0, nil)
	d.keyRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, key *domain.APIKey) error {
			assert.Equal(t, "nightly-job", key.Name)
			assert.Equal(t, inherited, key.Permissions)
			assert.NotEqual(t, oldKeyID, key.ID)
			return nil
		})

	material, err := d.svc.Rollover(ctx, userID, oldKeyID, "1M")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(material.Key, domain.KeyPrefix))
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), material.ExpiresAt, 5*time.Second)
}

func TestKeyService_Rollover_NotExpired(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	keyID := uuid.New()

	d.keyRepo.EXPECT().GetByID(ctx, userID, keyID).Return(&domain.APIKey{
		ID:        keyID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    true,
	}, nil)

	material, err := d.svc.Rollover(ctx, userID, keyID, "1H")
	assert.Nil(t, material)
	assertAppError(t, err, "KEY_002")
}

func TestKeyService_Rollover_NotFound(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	keyID := uuid.New()

	d.keyRepo.EXPECT().GetByID(ctx, userID, keyID).Return(nil, nil)

	material, err := d.svc.Rollover(ctx, userID, keyID, "1H")
	assert.Nil(t, material)
	assertAppError(t, err, "PAY_004")
}

func TestKeyService_Rollover_QuotaStillEnforced(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	oldKeyID := uuid.New()
	tx := &mockTx{}

	d.keyRepo.EXPECT().GetByID(ctx, userID, oldKeyID).Return(&domain.APIKey{
		ID:        oldKeyID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(-time.Hour),
		Active:    true,
	}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.userRepo.EXPECT().GetByIDForUpdate(ctx, tx, userID).Return(&domain.User{ID: userID}, nil)
	d.keyRepo.EXPECT().CountActive(ctx, tx, userID, gomock.Any()).Return(domain.MaxActiveKeysPerUser, nil)

	material, err := d.svc.Rollover(ctx, userID, oldKeyID, "1H")
	assert.Nil(t, material)
	assertAppError(t, err, "KEY_001")
}

// ==================== Revoke Tests ====================

func TestKeyService_Revoke_Success(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	keyID := uuid.New()

	d.keyRepo.EXPECT().Revoke(ctx, userID, keyID, gomock.Any()).Return(true, nil)

	require.NoError(t, d.svc.Revoke(ctx, userID, keyID))
}

func TestKeyService_Revoke_NotFound(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.keyRepo.EXPECT().Revoke(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

	err := d.svc.Revoke(ctx, uuid.New(), uuid.New())
	assertAppError(t, err, "PAY_004")
}

// ==================== Authorize Tests ====================

func TestKeyService_Authorize_Success(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	plaintext := domain.KeyPrefix + "authorize-me"

	d.keyRepo.EXPECT().GetByHash(ctx, keyDigest(plaintext)).Return(&domain.APIKey{
		ID:          uuid.New(),
		UserID:      userID,
		Permissions: []domain.Permission{domain.PermissionTransfer},
		ExpiresAt:   time.Now().Add(time.Hour),
		Active:      true,
	}, nil)
	d.userRepo.EXPECT().GetByID(ctx, userID).Return(&domain.User{ID: userID, Email: "owner@example.com"}, nil)

	user, err := d.svc.Authorize(ctx, plaintext, domain.PermissionTransfer)
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
}

func TestKeyService_Authorize_UnknownKey(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.keyRepo.EXPECT().GetByHash(ctx, gomock.Any()).Return(nil, nil)

	user, err := d.svc.Authorize(ctx, domain.KeyPrefix+"nope", domain.PermissionRead)
	assert.Nil(t, user)
	assertAppError(t, err, "AUTH_003")
}

func TestKeyService_Authorize_RevokedKey(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.keyRepo.EXPECT().GetByHash(ctx, gomock.Any()).Return(&domain.APIKey{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    false,
	}, nil)

	user, err := d.svc.Authorize(ctx, domain.KeyPrefix+"revoked", domain.PermissionRead)
	assert.Nil(t, user)
	assertAppError(t, err, "AUTH_003")
}

func TestKeyService_Authorize_ExpiredKey(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.keyRepo.EXPECT().GetByHash(ctx, gomock.Any()).Return(&domain.APIKey{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Permissions: []domain.Permission{domain.PermissionRead},
		ExpiresAt:   time.Now().Add(-time.Minute),
		Active:      true,
	}, nil)

	user, err := d.svc.Authorize(ctx, domain.KeyPrefix+"stale", domain.PermissionRead)
	assert.Nil(t, user)
	assertAppError(t, err, "AUTH_004")
}

func TestKeyService_Authorize_MissingPermission(t *testing.T) {
	d := setupKeyService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.keyRepo.EXPECT().GetByHash(ctx, gomock.Any()).Return(&domain.APIKey{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Permissions: []domain.Permission{domain.PermissionRead},
		ExpiresAt:   time.Now().Add(time.Hour),
		Active:      true,
	}, nil)

	user, err := d.svc.Authorize(ctx, domain.KeyPrefix+"readonly", domain.PermissionTransfer)
	assert.Nil(t, user)
	assertAppError(t, err, "AUTH_005")
}
