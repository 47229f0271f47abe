package middleware

import (
	"net/http"
	"strings"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// HeaderAPIKey carries the plaintext API key on machine-to-machine calls.
	HeaderAPIKey = "X-API-Key"

	// Context keys
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxAuthKind  = "auth_kind"

	// Auth kinds stored under CtxAuthKind.
	AuthKindSession = "session"
	AuthKindAPIKey  = "api_key"
)

// JWTAuth creates a middleware that accepts only a Bearer session token.
// Used on key-management routes, which API keys must not reach.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}
		if !authenticateSession(c, tokenSvc, token) {
			return
		}
		c.Next()
	}
}

// Auth creates a middleware that accepts either a Bearer session token or an
// X-API-Key header. Session callers implicitly hold every permission; API
// keys must carry the required one.
func Auth(tokenSvc ports.TokenService, keySvc ports.KeyService, required domain.Permission, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if !authenticateSession(c, tokenSvc, token) {
				return
			}
			c.Next()
			return
		}

		presented := c.GetHeader(HeaderAPIKey)
		if presented == "" {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		user, err := keySvc.Authorize(c.Request.Context(), presented, required)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUserEmail, user.Email)
		c.Set(CtxAuthKind, AuthKindAPIKey)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return authHeader[7:], true
}

func authenticateSession(c *gin.Context, tokenSvc ports.TokenService, token string) bool {
	claims, err := tokenSvc.Verify(token)
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return false
	}
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUserEmail, claims.Email)
	c.Set(CtxAuthKind, AuthKindSession)
	return true
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and the
// request is rejected with 413 Payload Too Large.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
