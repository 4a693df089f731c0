package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"hrify/internal/domain/tenant"
)

const (
	maxResponseBytes = 32 << 20
	headerRequestID  = "X-Request-ID"
)

// Scope carries the caller identity for one upstream call.
type Scope struct {
	Token     string
	Tenant    tenant.Tenant
	RequestID string
}

// Apply sets bearer, tenant and request id headers.
func (s Scope) Apply(h http.Header) {
	if s.Token != "" {
		h.Set("Authorization", "Bearer "+s.Token)
	}
	s.Tenant.Apply(h)
	if s.RequestID != "" {
		h.Set(headerRequestID, s.RequestID)
	}
}

// APIError is a non-2xx answer from the backend, body kept verbatim.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, msg)
}

// Message extracts a human readable message from common error body shapes.
func (e *APIError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch v := body.Error.(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return http.StatusText(e.Status)
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

type Client struct {
	baseURL    *url.URL
	http       *http.Client
	getRetries uint64
	backoff    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithGetRetries sets how often idempotent reads are retried on gateway errors.
func WithGetRetries(n uint64, backoff time.Duration) Option {
	return func(c *Client) {
		c.getRetries = n
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", baseURL)
	}
	c := &Client{
		baseURL:    parsed,
		http:       &http.Client{Timeout: timeout},
		getRetries: 2,
		backoff:    100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URL joins path and query onto the backend base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends one JSON request. out may be nil, a *json.RawMessage or any
// decodable value. A top-level {"data": ...} wrapper is unwrapped.
func (c *Client) Do(ctx context.Context, scope Scope, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = encoded
	}

	if method != http.MethodGet || c.getRetries == 0 {
		return c.once(ctx, scope, method, path, query, payload, out)
	}
	backoff := retry.WithMaxRetries(c.getRetries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.once(ctx, scope, method, path, query, payload, out)
		if retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, scope Scope, method, path string, query url.Values, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	scope.Apply(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: raw}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(unwrapData(raw), out)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := AsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Only transport failures retry; a bad body on a 2xx is final.
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

// unwrapData strips the {"data": ..., "message": ...} wrapper the backend
// uses on most endpoints.
func unwrapData(raw []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	data, ok := envelope["data"]
	if !ok {
		return raw
	}
	for key := range envelope {
		switch key {
		case "data", "success", "message", "statusCode", "status", "meta":
		default:
			return raw
		}
	}
	return data
}
