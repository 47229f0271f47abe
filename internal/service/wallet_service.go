package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	userRepo   ports.UserRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		userRepo:   userRepo,
		transactor: transactor,
		log:        log,
	}
}

// Transfer moves funds between two wallets atomically. Both wallet rows are
// locked in ascending user-id order so two opposing transfers cannot
// deadlock, and the balance check runs only after the sender's row is held.
func (s *WalletServiceImpl) Transfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amount int64) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if fromUserID == toUserID {
		return nil, apperror.Validation("cannot transfer to your own wallet")
	}

	recipient, err := s.userRepo.GetByID(ctx, toUserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find recipient: %w", err))
	}
	if recipient == nil {
		return nil, apperror.ErrNotFound("Recipient")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	fromWallet, toWallet, err := s.lockPair(ctx, dbTx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if fromWallet == nil || fromWallet.Balance < amount {
		return nil, apperror.ErrInsufficientFunds()
	}

	if toWallet == nil {
		toWallet, err = s.createWallet(ctx, dbTx, toUserID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, fromWallet.ID, fromWallet.Balance-amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, toWallet.ID, toWallet.Balance+amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit recipient: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.New(),
		Reference: newReference(),
		UserID:    &fromUserID,
		Amount:    amount,
		Kind:      domain.TransactionKindTransfer,
		Status:    domain.TransactionStatusSuccess,
		PaidAt:    &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record transfer: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("reference", txn.Reference).
		Str("from", fromUserID.String()).
		Str("to", toUserID.String()).
		Int64("amount", amount).
		Msg("transfer completed")

	return txn, nil
}

// Balance returns the wallet balance, zero for users who have no wallet yet.
func (s *WalletServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Balance, nil
}

// ListTransactions returns the user's transaction history, newest first.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	items, total, err := s.txRepo.ListByUser(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return items, total, nil
}

// lockPair acquires both wallet rows in ascending user-id order.
func (s *WalletServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, fromUserID, toUserID uuid.UUID) (fromWallet, toWallet *domain.Wallet, err error) {
	first, second := fromUserID, toUserID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	firstWallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, first)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	secondWallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, second)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}

	if first == fromUserID {
		return firstWallet, secondWallet, nil
	}
	return secondWallet, firstWallet, nil
}

func (s *WalletServiceImpl) createWallet(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}
	return wallet, nil
}
