package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"wallet-service/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(tokenURL, userinfoURL string) *Provider {
	p := NewProvider(config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/api/v1/auth/google/callback",
	}, zerolog.Nop())
	if tokenURL != "" {
		p.tokenURL = tokenURL
	}
	if userinfoURL != "" {
		p.userinfoURL = userinfoURL
	}
	return p
}

func TestProvider_AuthURL(t *testing.T) {
	p := newTestProvider("", "")

	u := p.AuthURL()
	assert.Contains(t, u, defaultAuthURL)
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "response_type=code")
	assert.Contains(t, u, "scope=openid+email+profile")
}

func TestProvider_Exchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.Form.Get("code"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token": "ya29.token", "token_type": "Bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ya29.token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": "google-123",
			"email": "user@example.com",
			"name": "Test User",
			"picture": "https://lh3.example.com/photo"
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newTestProvider(server.URL+"/token", server.URL+"/userinfo")

	identity, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "google-123", identity.ExternalID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "Test User", identity.Name)
	assert.Equal(t, "https://lh3.example.com/photo", identity.AvatarURL)
}

func TestProvider_Exchange_BadCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, "")

	identity, err := p.Exchange(context.Background(), "bad-code")
	assert.Nil(t, identity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestProvider_Exchange_IncompleteProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "tok"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": "No ID"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := newTestProvider(server.URL+"/token", server.URL+"/userinfo")

	identity, err := p.Exchange(context.Background(), "auth-code")
	assert.Nil(t, identity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete profile")
}
