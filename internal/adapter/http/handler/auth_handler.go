package handler

import (
	"net/http"

	"wallet-service/internal/adapter/http/dto"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles the identity-provider sign-in flow.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SignIn handles GET /api/v1/auth/google.
// Returns the provider consent-page URL the client should navigate to.
func (h *AuthHandler) SignIn(c *gin.Context) {
	response.OK(c, dto.AuthURLResponse{URL: h.authSvc.SignInURL()})
}

// Callback handles GET /api/v1/auth/google/callback.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.Error(c, apperror.Validation("missing authorization code"))
		return
	}

	result, err := h.authSvc.HandleCallback(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}

	user := dto.UserResponse{
		ID:    result.User.ID.String(),
		Email: result.User.Email,
		Name:  result.User.Name,
	}
	if result.User.AvatarURL != nil {
		user.AvatarURL = *result.User.AvatarURL
	}

	response.OK(c, dto.TokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:      user,
	})
}

// HealthCheck handles GET /health, verifying every registered dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
