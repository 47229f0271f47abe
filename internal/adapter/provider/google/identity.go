package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wallet-service/config"
	"wallet-service/internal/core/domain"

	"github.com/rs/zerolog"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	defaultTimeout = 10 * time.Second
)

// Provider implements ports.IdentityProvider against Google's OAuth2 endpoints.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURI  string

	authURL     string
	tokenURL    string
	userinfoURL string

	httpClient *http.Client
	log        zerolog.Logger
}

// NewProvider creates a Google identity provider.
func NewProvider(cfg config.GoogleConfig, log zerolog.Logger) *Provider {
	return &Provider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		userinfoURL:  defaultUserinfoURL,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		log:          log,
	}
}

// AuthURL builds the consent-page URL the client is redirected to.
func (p *Provider) AuthURL() string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("access_type", "offline")
	return p.authURL + "?" + q.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userinfoResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange swaps the authorization code for an access token and fetches the
// verified profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURI)
	form.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token tokenResponse
	if err := p.doJSON(req, &token); err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("exchange code: empty access token")
	}

	infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	infoReq.Header.Set("Authorization", "Bearer "+token.AccessToken)

	var info userinfoResponse
	if err := p.doJSON(infoReq, &info); err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("fetch userinfo: incomplete profile")
	}

	return &domain.Identity{
		ExternalID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}, nil
}

func (p *Provider) doJSON(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google returned %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}
