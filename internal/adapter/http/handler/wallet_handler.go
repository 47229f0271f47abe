package handler

import (
	"strconv"

	"wallet-service/internal/adapter/http/dto"
	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	paymentSvc ports.PaymentService
	walletSvc  ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(paymentSvc ports.PaymentService, walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{paymentSvc: paymentSvc, walletSvc: walletSvc}
}

// Deposit handles POST /api/v1/wallet/deposit.
// A deposit is a provider charge whose settlement credits the wallet.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	tx, err := h.paymentSvc.Initiate(c.Request.Context(), ports.InitiateRequest{
		UserID: userID,
		Email:  currentUserEmail(c),
		Amount: req.Amount,
		Kind:   domain.TransactionKindDeposit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(tx))
}

// Transfer handles POST /api/v1/wallet/transfer.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		response.Error(c, apperror.Validation("to_user_id must be a UUID"))
		return
	}

	tx, err := h.walletSvc.Transfer(c.Request.Context(), userID, toUserID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponse(tx))
}

// Balance handles GET /api/v1/wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balance, err := h.walletSvc.Balance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Balance: balance})
}

// ListTransactions handles GET /api/v1/wallet/transactions.
// Query params: page, page_size, status.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var status *domain.TransactionStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.TransactionStatus(raw)
		switch s {
		case domain.TransactionStatusPending, domain.TransactionStatusSuccess, domain.TransactionStatusFailed:
			status = &s
		default:
			response.Error(c, apperror.Validation("status must be PENDING, SUCCESS, or FAILED"))
			return
		}
	}

	items, total, err := h.walletSvc.ListTransactions(c.Request.Context(), ports.TransactionListParams{
		UserID:   userID,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	resp := dto.TransactionListResponse{
		Items:      make([]dto.TransactionResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	for i := range items {
		resp.Items = append(resp.Items, dto.ToTransactionResponse(&items[i]))
	}

	response.OK(c, resp)
}
