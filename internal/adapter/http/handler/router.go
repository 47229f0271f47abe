package handler

import (
	"wallet-service/internal/adapter/http/middleware"
	redisStore "wallet-service/internal/adapter/storage/redis"
	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	KeySvc         ports.KeyService
	PaymentSvc     ports.PaymentService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.GET("/google", rl("auth"), authHandler.SignIn)
		auth.GET("/google/callback", rl("auth"), authHandler.Callback)
	}

	// --- Session-only routes (API keys cannot manage API keys) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	keyHandler := NewKeyHandler(deps.KeySvc)
	keys := v1.Group("/keys", jwtAuth)
	{
		keys.POST("", rl("keys"), keyHandler.Create)
		keys.POST("/rollover", rl("keys"), keyHandler.Rollover)
		keys.DELETE("/:id", rl("keys"), keyHandler.Revoke)
	}

	// --- Session or API key routes ---
	authWith := func(p domain.Permission) gin.HandlerFunc {
		return middleware.Auth(deps.TokenSvc, deps.KeySvc, p, deps.Logger)
	}

	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	payments := v1.Group("/payments")
	{
		payments.POST("/initiate", authWith(domain.PermissionDeposit), rl("payments"), paymentHandler.Initiate)
		payments.GET("/:reference/status", authWith(domain.PermissionRead), rl("payments"), paymentHandler.GetStatus)
		// Authenticated by HMAC signature over the raw body, not by caller identity.
		payments.POST("/webhook", paymentHandler.Webhook)
	}

	walletHandler := NewWalletHandler(deps.PaymentSvc, deps.WalletSvc)
	wallet := v1.Group("/wallet")
	{
		wallet.POST("/deposit", authWith(domain.PermissionDeposit), rl("wallet"), walletHandler.Deposit)
		wallet.POST("/transfer", authWith(domain.PermissionTransfer), rl("wallet_transfer"), walletHandler.Transfer)
		wallet.GET("/balance", authWith(domain.PermissionRead), rl("wallet"), walletHandler.Balance)
		wallet.GET("/transactions", authWith(domain.PermissionRead), rl("wallet"), walletHandler.ListTransactions)
	}

	return r
}
