package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewJWTTokenService(testSecret, 30*time.Minute, "wallet-service")
	userID := uuid.New()

	token, expiresAt, err := svc.Issue(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestTokenService_Verify_Expired(t *testing.T) {
	svc := NewJWTTokenService(testSecret, -1*time.Minute, "wallet-service")

	token, _, err := svc.Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	assert.Nil(t, claims)
	assertAppError(t, err, "AUTH_001")
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	issuer := NewJWTTokenService(testSecret, 30*time.Minute, "wallet-service")
	verifier := NewJWTTokenService("a-completely-different-secret-value", 30*time.Minute, "wallet-service")

	token, _, err := issuer.Issue(uuid.New(), "user@example.com")
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	assert.Nil(t, claims)
	assertAppError(t, err, "AUTH_002")
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	svc := NewJWTTokenService(testSecret, 30*time.Minute, "wallet-service")

	claims, err := svc.Verify("not.a.jwt")
	assert.Nil(t, claims)
	assertAppError(t, err, "AUTH_002")
}

func TestTokenService_Verify_RejectsUnexpectedAlgorithm(t *testing.T) {
	svc := NewJWTTokenService(testSecret, 30*time.Minute, "wallet-service")

	// alg=none with a valid-looking claim set must be rejected outright.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := svc.Verify(signed)
	assert.Nil(t, claims)
	assertAppError(t, err, "AUTH_002")
}

func TestTokenService_Verify_NonUUIDSubject(t *testing.T) {
	svc := NewJWTTokenService(testSecret, 30*time.Minute, "wallet-service")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.Verify(signed)
	assert.Nil(t, claims)
	assertAppError(t, err, "AUTH_002")
}
