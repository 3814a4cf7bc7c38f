// Package backend provides the HTTP client for the onboarding REST API that
// owns members, proposals, deals and the advisor queue.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/comunidad-solar/comuneros-go/internal/observability"
	"github.com/comunidad-solar/comuneros-go/internal/ratelimit"
)

// APIError is returned for a non-2xx response or a response whose envelope
// reports failure.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("backend: %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client calls the onboarding backend.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *ratelimit.ServiceLimiter
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLimiter rate-limits calls per endpoint group.
func WithLimiter(l *ratelimit.ServiceLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics records per-call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client for the backend at endpoint with a traced transport.
func New(endpoint string, opts ...Option) *Client {
	return NewWithHTTPClient(endpoint, &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(endpoint string, httpClient *http.Client, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: httpClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs one JSON request. name labels errors and metrics.
func (c *Client) call(ctx context.Context, group, name, method, path string, query url.Values, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, group); err != nil {
			return fmt.Errorf("backend: %s: %w", name, err)
		}
	}

	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: %s: encode request: %w", name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("backend: %s: build request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordBackendCall(ctx, name, 0, time.Since(start))
		return fmt.Errorf("backend: %s: request failed: %w", name, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendCall(ctx, name, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("backend: %s: read response: %w", name, err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Endpoint: name, Status: resp.StatusCode, Message: env.Message}
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Endpoint: name, Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}

	payload := raw
	if env.Success != nil {
		payload = env.Data
	}
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("backend: %s: decode response: %w", name, err)
	}
	return nil
}
