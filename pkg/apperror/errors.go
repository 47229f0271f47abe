package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication (AUTH) ----

func ErrTokenExpired() *AppError {
	return New("AUTH_001", "Session token has expired", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid session token", http.StatusUnauthorized)
}

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_003", "Invalid API key", http.StatusUnauthorized)
}

func ErrAPIKeyExpired() *AppError {
	return New("AUTH_004", "API key has expired", http.StatusUnauthorized)
}

func ErrForbidden(permission string) *AppError {
	return New("AUTH_005", fmt.Sprintf("API key does not have %q permission", permission), http.StatusForbidden)
}

func ErrIdentityExchange(err error) *AppError {
	return Wrap("AUTH_006", "Identity provider rejected the authorization code", http.StatusUnauthorized, err)
}

// ---- API Keys (KEY) ----

func ErrKeyQuotaExceeded() *AppError {
	return New("KEY_001", "Maximum of 5 active API keys allowed per user", http.StatusBadRequest)
}

func ErrKeyNotExpired() *AppError {
	return New("KEY_002", "API key is not expired yet, cannot roll over", http.StatusConflict)
}

// ---- Payments & Wallet (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_001", "Amount must be a positive integer in minor units", http.StatusBadRequest)
}

func ErrProvider(err error) *AppError {
	return Wrap("PAY_002", "Payment provider refused the request", http.StatusPaymentRequired, err)
}

func ErrInsufficientFunds() *AppError {
	return New("PAY_003", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Webhook Security (SEC) ----

func ErrInvalidSignature() *AppError {
	return New("SEC_001", "Webhook signature verification failed", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a 400 validation error with the given message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
