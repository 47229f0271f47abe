package handler

import (
	"io"

	"wallet-service/internal/adapter/http/dto"
	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderWebhookSignature carries the provider's HMAC over the raw body.
const HeaderWebhookSignature = "x-paystack-signature"

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Initiate handles POST /api/v1/payments/initiate.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	tx, err := h.paymentSvc.Initiate(c.Request.Context(), ports.InitiateRequest{
		UserID:    userID,
		Email:     currentUserEmail(c),
		Amount:    req.Amount,
		Kind:      domain.TransactionKindPayment,
		Reference: req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(tx))
}

// Webhook handles POST /api/v1/payments/webhook.
// The signature is verified over the raw body before any field is trusted.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	signature := c.GetHeader(HeaderWebhookSignature)
	if err := h.paymentSvc.HandleWebhook(c.Request.Context(), rawBody, signature); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"received": true})
}

// GetStatus handles GET /api/v1/payments/:reference/status.
// With ?refresh=true the provider is queried before answering.
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	reference := c.Param("reference")
	refresh := c.Query("refresh") == "true"

	tx, err := h.paymentSvc.GetStatus(c.Request.Context(), reference, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponse(tx))
}
