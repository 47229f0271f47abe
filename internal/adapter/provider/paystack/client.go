package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wallet-service/config"
	"wallet-service/internal/core/ports"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// Client implements ports.PaymentProvider against the Paystack REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Paystack API client.
func NewClient(cfg config.PaystackConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

type initializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string     `json:"status"`
		Amount int64      `json:"amount"`
		PaidAt *time.Time `json:"paid_at"`
	} `json:"data"`
}

// Initialize creates a checkout session for the given reference and amount.
func (c *Client) Initialize(ctx context.Context, reference string, amount int64, email string) (*ports.ProviderCheckout, error) {
	payload, err := json.Marshal(initializeRequest{
		Email:     email,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	var out initializeResponse
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", payload, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack initialize rejected: %s", out.Message)
	}

	c.log.Debug().Str("reference", reference).Msg("paystack charge initialized")

	return &ports.ProviderCheckout{
		AuthorizationURL: out.Data.AuthorizationURL,
	}, nil
}

// Query fetches the provider's current view of a transaction.
func (c *Client) Query(ctx context.Context, reference string) (*ports.ProviderStatus, error) {
	var out verifyResponse
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack verify rejected: %s", out.Message)
	}

	return &ports.ProviderStatus{
		Status: out.Data.Status,
		Amount: out.Data.Amount,
		PaidAt: out.Data.PaidAt,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read paystack response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paystack returned %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode paystack response: %w", err)
	}
	return nil
}
