package handler

import (
	"wallet-service/internal/adapter/http/dto"
	"wallet-service/internal/adapter/http/middleware"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KeyHandler handles API key management endpoints.
type KeyHandler struct {
	keySvc ports.KeyService
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(keySvc ports.KeyService) *KeyHandler {
	return &KeyHandler{keySvc: keySvc}
}

// Create handles POST /api/v1/keys.
func (h *KeyHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	material, err := h.keySvc.Create(c.Request.Context(), userID, req.Name, dto.ToPermissions(req.Permissions), req.Expiry)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.KeyResponse{
		ID:        material.ID.String(),
		Key:       material.Key,
		ExpiresAt: material.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Rollover handles POST /api/v1/keys/rollover.
func (h *KeyHandler) Rollover(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RolloverKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	expiredKeyID, err := uuid.Parse(req.ExpiredKeyID)
	if err != nil {
		response.Error(c, apperror.Validation("expired_key_id must be a UUID"))
		return
	}

	material, err := h.keySvc.Rollover(c.Request.Context(), userID, expiredKeyID, req.Expiry)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.KeyResponse{
		ID:        material.ID.String(),
		Key:       material.Key,
		ExpiresAt: material.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Revoke handles DELETE /api/v1/keys/:id.
func (h *KeyHandler) Revoke(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("key id must be a UUID"))
		return
	}

	if err := h.keySvc.Revoke(c.Request.Context(), userID, keyID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"revoked": true})
}

// currentUserID reads the authenticated user's id set by the auth middleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// currentUserEmail reads the authenticated user's email.
func currentUserEmail(c *gin.Context) string {
	v, exists := c.Get(middleware.CtxUserEmail)
	if !exists {
		return ""
	}
	email, _ := v.(string)
	return email
}
