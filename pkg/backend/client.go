// Package backend is the HTTP client for the cost backend's conversation
// management and budget endpoints. Chat streaming lives in pkg/chatstream.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/costwise/costwise/pkg/auth"
	"github.com/costwise/costwise/pkg/logger"
)

// ErrAuthRequired is returned when a request requires a bearer token and the
// token provider has none.
var ErrAuthRequired = errors.New("authentication required but no token available")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: HTTP %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     auth.TokenProvider
	Logger     *slog.Logger

	// RequireAuth fails requests with ErrAuthRequired instead of sending them
	// without a bearer token.
	RequireAuth bool
}

// Client calls the backend's REST endpoints.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      auth.TokenProvider
	logger      *slog.Logger
	requireAuth bool
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  httpClient,
		tokens:      cfg.Tokens,
		logger:      logger.OrNop(cfg.Logger),
		requireAuth: cfg.RequireAuth,
	}
}

// do sends a JSON request and decodes a JSON response into out when out is
// non-nil. Empty response bodies are accepted.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if token := auth.Bearer(ctx, c.tokens, c.logger); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.requireAuth {
		return ErrAuthRequired
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("unauthorized request, token may be expired", "method", method, "path", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
