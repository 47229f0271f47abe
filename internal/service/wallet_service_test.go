package service

import (
	"context"
	"testing"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc        *WalletServiceImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	userRepo   *mocks.MockUserRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupWalletService(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		userRepo:   mocks.NewMockUserRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWalletService(d.walletRepo, d.txRepo, d.userRepo, d.transactor, zerolog.Nop())
	return d
}

// ==================== Transfer Tests ====================

func TestWalletService_Transfer_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	fromWalletID := uuid.New()
	toWalletID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByID(ctx, toID).Return(&domain.User{ID: toID}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, fromID).Return(&domain.Wallet{
		ID: fromWalletID, UserID: fromID, Balance: 100000,
	}, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, toID).Return(&domain.Wallet{
		ID: toWalletID, UserID: toID, Balance: 5000,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, fromWalletID, int64(60000)).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, toWalletID, int64(45000)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionKindTransfer, txn.Kind)
			assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
			assert.Equal(t, int64(40000), txn.Amount)
			require.NotNil(t, txn.UserID)
			assert.Equal(t, fromID, *txn.UserID)
			assert.NotNil(t, txn.PaidAt)
			return nil
		})

	txn, err := d.svc.Transfer(ctx, fromID, toID, 40000)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
}

func TestWalletService_Transfer_InvalidAmount(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	txn, err := d.svc.Transfer(context.Background(), uuid.New(), uuid.New(), 0)
	assert.Nil(t, txn)
	assertAppError(t, err, "PAY_001")
}

func TestWalletService_Transfer_SelfTransfer(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	userID := uuid.New()
	txn, err := d.svc.Transfer(context.Background(), userID, userID, 1000)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_001")
}

func TestWalletService_Transfer_RecipientNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	toID := uuid.New()
	d.userRepo.EXPECT().GetByID(ctx, toID).Return(nil, nil)

	txn, err := d.svc.Transfer(ctx, uuid.New(), toID, 1000)
	assert.Nil(t, txn)
	assertAppError(t, err, "PAY_004")
}

func TestWalletService_Transfer_InsufficientFunds(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByID(ctx, toID).Return(&domain.User{ID: toID}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, fromID).Return(&domain.Wallet{
		ID: uuid.New(), UserID: fromID, Balance: 500,
	}, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, toID).Return(&domain.Wallet{
		ID: uuid.New(), UserID: toID, Balance: 0,
	}, nil)

	txn, err := d.svc.Transfer(ctx, fromID, toID, 1000)
	assert.Nil(t, txn)
	assertAppError(t, err, "PAY_003")
}

func TestWalletService_Transfer_SenderHasNoWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByID(ctx, toID).Return(&domain.User{ID: toID}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, fromID).Return(nil, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, toID).Return(&domain.Wallet{
		ID: uuid.New(), UserID: toID,
	}, nil)

	txn, err := d.svc.Transfer(ctx, fromID, toID, 1000)
	assert.Nil(t, txn)
	assertAppError(t, err, "PAY_003")
}

func TestWalletService_Transfer_CreatesRecipientWallet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	fromID := uuid.New()
	toID := uuid.New()
	fromWalletID := uuid.New()
	tx := &mockTx{}

	d.userRepo.EXPECT().GetByID(ctx, toID).Return(&domain.User{ID: toID}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, fromID).Return(&domain.Wallet{
		ID: fromWalletID, UserID: fromID, Balance: 10000,
	}, nil)
	d.walletRepo.EXPECT().GetByUserIDForUpdate(ctx, tx, toID).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, w *domain.Wallet) error {
			assert.Equal(t, toID, w.UserID)
			assert.Zero(t, w.Balance)
			return nil
		})
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, fromWalletID, int64(7000)).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), int64(3000)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := d.svc.Transfer(ctx, fromID, toID, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), txn.Amount)
}

// ==================== Balance Tests ====================

func TestWalletService_Balance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(&domain.Wallet{
		ID: uuid.New(), UserID: userID, Balance: 123456,
	}, nil)

	balance, err := d.svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), balance)
}

func TestWalletService_Balance_NoWalletYet(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(nil, nil)

	balance, err := d.svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

// ==================== ListTransactions Tests ====================

func TestWalletService_ListTransactions_NormalizesPagination(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.txRepo.EXPECT().ListByUser(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 20, params.PageSize)
			return []domain.Transaction{{ID: uuid.New()}}, 1, nil
		})

	items, total, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{
		UserID:   userID,
		Page:     0,
		PageSize: 5000,
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)
}

func TestWalletService_ListTransactions_StatusFilterPassedThrough(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	status := domain.TransactionStatusSuccess

	d.txRepo.EXPECT().ListByUser(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			require.NotNil(t, params.Status)
			assert.Equal(t, status, *params.Status)
			return nil, 0, nil
		})

	_, _, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{
		UserID:   userID,
		Status:   &status,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
}
