package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureService_SignMatchesReference(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := []byte(`{"event":"charge.success","data":{"reference":"txn_abc"}}`)

	mac := hmac.New(sha512.New, []byte("whsec_test"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, svc.Sign("whsec_test", payload))
}

func TestSignatureService_VerifyRoundTrip(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := []byte("payload-bytes")

	sig := svc.Sign("secret", payload)
	assert.True(t, svc.Verify("secret", payload, sig))
}

func TestSignatureService_Verify_Rejections(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := []byte("payload-bytes")
	sig := svc.Sign("secret", payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
	}{
		{"wrong secret", "other-secret", payload, sig},
		{"tampered payload", "secret", []byte("payload-bytes!"), sig},
		{"empty signature", "secret", payload, ""},
		{"truncated signature", "secret", payload, sig[:len(sig)-2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, svc.Verify(tt.secret, tt.payload, tt.signature))
		})
	}
}
