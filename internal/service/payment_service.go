package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	initiateCacheTTL = 24 * time.Hour

	eventChargeSuccess = "charge.success"
	eventChargeFailed  = "charge.failed"
)

// webhookEvent is the signed JSON body the provider delivers.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string     `json:"reference"`
		Status    string     `json:"status"`
		PaidAt    *time.Time `json:"paid_at"`
	} `json:"data"`
}

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	txRepo        ports.TransactionRepository
	walletRepo    ports.WalletRepository
	provider      ports.PaymentProvider
	sigSvc        ports.SignatureService
	initCache     ports.IdempotencyCache
	transactor    ports.DBTransactor
	webhookSecret string
	log           zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl. The webhook secret is
// injected here rather than read from ambient state so tests can use their own.
func NewPaymentService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	provider ports.PaymentProvider,
	sigSvc ports.SignatureService,
	initCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	webhookSecret string,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		txRepo:        txRepo,
		walletRepo:    walletRepo,
		provider:      provider,
		sigSvc:        sigSvc,
		initCache:     initCache,
		transactor:    transactor,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// Initiate initializes a charge with the provider and persists a PENDING
// transaction. No row is written until the provider confirms initialization,
// so a slow or failing provider cannot leave local state behind.
func (s *PaymentServiceImpl) Initiate(ctx context.Context, req ports.InitiateRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	reference := req.Reference
	if reference != "" {
		// Resubmission path: an already-known reference returns the existing
		// transaction instead of double-charging.
		if existing, err := s.lookupExisting(ctx, reference); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	} else {
		reference = newReference()
	}

	// Provider call happens outside any row lock.
	checkout, err := s.provider.Initialize(ctx, reference, req.Amount, req.Email)
	if err != nil {
		return nil, apperror.ErrProvider(err)
	}

	now := time.Now().UTC()
	userID := req.UserID
	txn := &domain.Transaction{
		ID:               uuid.New(),
		Reference:        reference,
		UserID:           &userID,
		Amount:           req.Amount,
		Kind:             req.Kind,
		Status:           domain.TransactionStatusPending,
		AuthorizationURL: checkout.AuthorizationURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		// A concurrent initiation with the same reference may have won the
		// unique-constraint race; surface the row it created.
		if existing, lookupErr := s.txRepo.GetByReference(ctx, reference); lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.cacheInitiation(ctx, txn)

	s.log.Info().
		Str("reference", reference).
		Str("kind", string(req.Kind)).
		Int64("amount", req.Amount).
		Msg("transaction initiated")

	return txn, nil
}

// HandleWebhook verifies the HMAC over the raw body before parsing or
// trusting any field, then applies the terminal transition at most once.
// Correctly signed redeliveries of already-applied events are acknowledged
// without mutation.
func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if signature == "" || !s.sigSvc.Verify(s.webhookSecret, rawBody, signature) {
		return apperror.ErrInvalidSignature()
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return apperror.Validation("malformed webhook payload")
	}

	var status domain.TransactionStatus
	switch event.Event {
	case eventChargeSuccess:
		status = domain.TransactionStatusSuccess
	case eventChargeFailed:
		status = domain.TransactionStatusFailed
	default:
		// Unrecognized event types are acknowledged so the provider stops
		// redelivering them.
		s.log.Debug().Str("event", event.Event).Msg("ignoring unhandled webhook event")
		return nil
	}

	if event.Data.Reference == "" {
		return apperror.Validation("webhook payload missing reference")
	}

	applied, err := s.applyTerminal(ctx, event.Data.Reference, status, event.Data.PaidAt)
	if err != nil {
		var appErr *apperror.AppError
		// An unknown reference is still acknowledged: rejecting it would make
		// the provider redeliver forever.
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound {
			s.log.Warn().Str("reference", event.Data.Reference).Msg("webhook for unknown reference")
			return nil
		}
		return err
	}

	if applied {
		s.log.Info().
			Str("reference", event.Data.Reference).
			Str("status", string(status)).
			Msg("webhook applied")
	}
	return nil
}

// GetStatus returns the stored transaction view. With refresh it reconciles
// against the provider first, under the same terminal-idempotence rule the
// webhook path uses: whichever of webhook and poll lands first wins.
func (s *PaymentServiceImpl) GetStatus(ctx context.Context, reference string, refresh bool) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}

	if !refresh || txn.IsTerminal() {
		return txn, nil
	}

	// Provider call happens outside any row lock.
	providerView, err := s.provider.Query(ctx, reference)
	if err != nil {
		return nil, apperror.ErrProvider(err)
	}

	var status domain.TransactionStatus
	switch providerView.Status {
	case "success":
		status = domain.TransactionStatusSuccess
	case "failed":
		status = domain.TransactionStatusFailed
	default:
		// Still pending upstream; nothing to reconcile.
		return txn, nil
	}

	if _, err := s.applyTerminal(ctx, reference, status, providerView.PaidAt); err != nil {
		return nil, err
	}

	txn, err = s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("reload transaction: %w", err))
	}
	return txn, nil
}

// applyTerminal serializes the terminal transition per reference: the row is
// locked, the terminal state re-checked, and the status update plus any
// wallet credit committed together. Returns false when the transaction was
// already terminal (the event is treated as already applied).
func (s *PaymentServiceImpl) applyTerminal(ctx context.Context, reference string, status domain.TransactionStatus, paidAt *time.Time) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByReferenceForUpdate(ctx, dbTx, reference)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return false, apperror.ErrNotFound("Transaction")
	}
	if txn.IsTerminal() {
		return false, nil
	}

	var stamp *time.Time
	if status == domain.TransactionStatusSuccess {
		now := time.Now().UTC()
		if paidAt != nil {
			stamp = paidAt
		} else {
			stamp = &now
		}
	}

	applied, err := s.txRepo.MarkTerminal(ctx, dbTx, txn.ID, status, stamp)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("mark terminal: %w", err))
	}
	if !applied {
		// Lost the compare-and-swap to a concurrent reconciler.
		return false, nil
	}

	if status == domain.TransactionStatusSuccess && txn.Kind == domain.TransactionKindDeposit && txn.UserID != nil {
		if err := s.creditWallet(ctx, dbTx, *txn.UserID, txn.Amount); err != nil {
			return false, err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return true, nil
}

// creditWallet credits a deposit inside the caller's transaction, creating
// the wallet lazily on first credit.
func (s *PaymentServiceImpl) creditWallet(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID, amount int64) error {
	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		now := time.Now().UTC()
		wallet = &domain.Wallet{
			ID:        uuid.New(),
			UserID:    userID,
			Balance:   amount,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
			return apperror.InternalError(fmt.Errorf("create wallet: %w", err))
		}
		return nil
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance+amount); err != nil {
		return apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	return nil
}

// lookupExisting checks the fast-path cache, then the store, for a
// transaction with the given reference.
func (s *PaymentServiceImpl) lookupExisting(ctx context.Context, reference string) (*domain.Transaction, error) {
	if cached, err := s.initCache.Get(ctx, reference); err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("initiation cache read failed, falling through to store")
	} else if cached != nil {
		txn := &domain.Transaction{}
		if err := json.Unmarshal(cached, txn); err == nil {
			return txn, nil
		}
	}

	existing, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	return existing, nil
}

// cacheInitiation stores the initiation result in Redis (best-effort).
func (s *PaymentServiceImpl) cacheInitiation(ctx context.Context, txn *domain.Transaction) {
	payload, err := json.Marshal(txn)
	if err != nil {
		return
	}
	if err := s.initCache.Set(ctx, txn.Reference, payload, initiateCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("reference", txn.Reference).Msg("failed to cache initiation")
	}
}

// newReference generates a collision-resistant reference with a readable prefix.
func newReference() string {
	return "txn_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
