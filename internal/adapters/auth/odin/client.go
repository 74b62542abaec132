package odin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-health/internal/platform/breaker"
	"pet-health/internal/platform/httpclient"
	"pet-health/internal/platform/logger"
	"pet-health/internal/ports/auth"
)

var (
	ErrOdinNotConfigured = errors.New("odin client not configured")
	ErrOdinUnauthorized  = errors.New("odin unauthorized")
	ErrOdinUpstream      = errors.New("odin upstream error")
)

const verifyPath = "/v1/tokens/verify"

type Config struct {
	BaseURL string
	APIKey  string

	// Header de la API key; vacío = "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration

	// Transport para tests.
	Transport http.RoundTripper
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

// NewClient devuelve un cliente sin configurar (IsConfigured=false) si falta
// BaseURL o APIKey, así main puede caer al modo dev sin ramas extra.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	key := strings.TrimSpace(cfg.APIKey)
	if base == "" || key == "" {
		return &Client{}, nil
	}

	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Timeout:   timeout,
		Transport: cfg.Transport,
		Breaker: breaker.New(breaker.DefaultConfig("odin"), log, func(err error) bool {
			return !httpclient.IsUpstreamFailure(err)
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("odin: %w", err)
	}

	return &Client{http: hc, apiKey: key, apiKeyHeader: header}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.apiKey != ""
}

type verifyResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

// VerifyToken valida el token contra Odin y devuelve sus claims.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrOdinUnauthorized
	}

	var out verifyResponse
	err := c.http.DoJSON(ctx, http.MethodPost, verifyPath, map[string]string{
		c.apiKeyHeader:  c.apiKey,
		"Authorization": "Bearer " + token,
	}, map[string]string{"token": token}, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return auth.Claims{}, ErrOdinUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrOdinUpstream, err)
	}

	uid := strings.TrimSpace(out.UserID)
	if uid == "" {
		return auth.Claims{}, fmt.Errorf("%w: response missing user_id", ErrOdinUpstream)
	}
	return auth.Claims{
		UserID:   uid,
		Email:    strings.TrimSpace(out.Email),
		TenantID: strings.TrimSpace(out.TenantID),
	}, nil
}
