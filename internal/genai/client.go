// Package genai wraps the primary generative-model collaborator behind a
// small request/response interface. The provider is treated as an opaque
// service: the package knows how to send a prompt and classify failures,
// nothing about what the prompt means.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "google.golang.org/genai"
)

// Client generates text content from a prompt.
type Client interface {
	// GenerateContent sends one prompt and returns the model's text reply.
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// ModelID identifies the configured model, for report provenance.
	ModelID() string
}

// APIError is a non-2xx response from the collaborator.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model API returned %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// IsRetryable reports whether an error is worth retrying: rate-limit and
// quota signals, server-side failures, and timeouts. Malformed output is
// never retryable at this layer.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Config holds connection settings for the model client.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string        // overrides the vendor's default API base
	Timeout  time.Duration // per-call timeout, defaults to 60s
}

// HTTPClient is the production Client speaking to the generative-language
// service through the vendor SDK.
type HTTPClient struct {
	cfg Config
	gc  *sdk.Client
}

// New creates an HTTPClient from cfg.
func New(cfg Config) (*HTTPClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := &sdk.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    sdk.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.Endpoint
	}

	gc, err := sdk.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("configuring model client: %w", err)
	}
	return &HTTPClient{cfg: cfg, gc: gc}, nil
}

// ModelID identifies the configured model.
func (c *HTTPClient) ModelID() string { return c.cfg.Model }

// GenerateContent sends one prompt and returns the model's text reply.
func (c *HTTPClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := c.gc.Models.GenerateContent(ctx, c.cfg.Model, sdk.Text(prompt), nil)
	if err != nil {
		return "", wrapSDKError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model response contained no candidates")
	}
	return text, nil
}

// wrapSDKError translates vendor SDK errors into the package's APIError so
// retry classification stays in one place.
func wrapSDKError(err error) error {
	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure HTTPClient satisfies Client.
var _ Client = (*HTTPClient)(nil)
