// Package httputil provides the JSON-over-HTTP client shared by the auth,
// catalog and operation packages. Every call is fire-once: one round trip,
// one result or one error, no retries and no backoff.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/metrics"
)

const maxResponseBytes = 8 << 20

// TokenSource yields the bearer token attached to authenticated requests.
// An empty token from the source fails the request with ErrNoLogin.
type TokenSource interface {
	BearerToken() (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// BearerToken returns the fixed token.
func (s StaticToken) BearerToken() (string, error) {
	if s == "" {
		return "", errs.ErrNoLogin
	}
	return string(s), nil
}

// Client is the authenticated JSON client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	service    string
	tokens     TokenSource
	metrics    *metrics.Metrics
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Service string // metrics label
	Tokens  TokenSource
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// NewClient creates a client for one upstream base URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errs.NewConfigError("base URL required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		service:    cfg.Service,
		tokens:     cfg.Tokens,
		metrics:    cfg.Metrics,
	}, nil
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs an authenticated GET and decodes the JSON response.
func (c *Client) Get(ctx context.Context, path string, query url.Values, target any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, target, true)
}

// GetPublic performs an unauthenticated GET.
func (c *Client) GetPublic(ctx context.Context, path string, query url.Values, target any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, target, false)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, target, true)
}

// PostPublic performs an unauthenticated POST with a JSON body.
func (c *Client) PostPublic(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, target, false)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, target any, authed bool) error {
	started := time.Now()
	err := c.roundTrip(ctx, method, path, query, body, target, authed)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.Observe(c.service, outcome, time.Since(started))
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, target any, authed bool) error {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w: %w", errs.ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if c.tokens == nil {
			return errs.ErrNoLogin
		}
		token, err := c.tokens.BearerToken()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errs.APIError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &errs.APIError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("read response: %w", err)}
	}

	if apiErr := extractError(resp.StatusCode, raw); apiErr != nil {
		return apiErr
	}
	if target == nil {
		return nil
	}
	if rawTarget, ok := target.(*json.RawMessage); ok {
		*rawTarget = append((*rawTarget)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errs.NewUnexpectedResponse("decode response body", err)
	}
	return nil
}

// extractError recognizes upstream failures: an error HTTP status, or any
// body carrying a non-empty top-level "errors" array regardless of status.
func extractError(status int, body []byte) *errs.APIError {
	reasons := errorReasons(body)
	if status >= 400 || len(reasons) > 0 {
		return &errs.APIError{
			StatusCode: status,
			Body:       string(body),
			Reasons:    reasons,
		}
	}
	return nil
}

func errorReasons(body []byte) []string {
	var envelope struct {
		Errors []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	reasons := make([]string, 0, len(envelope.Errors))
	for _, e := range envelope.Errors {
		switch {
		case e.Reason != "":
			reasons = append(reasons, e.Reason)
		case e.Message != "":
			reasons = append(reasons, e.Message)
		default:
			reasons = append(reasons, "unknown error")
		}
	}
	return reasons
}
