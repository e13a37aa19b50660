// Package http provides the HTTP client infrastructure for talking to the
// yeoladin backend: bearer-token session handling with a transparent
// refresh-and-replay cycle, client-side throttling, and error
// classification.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client wraps an HTTP client with session credentials and 401
// refresh-and-replay handling.
type Client struct {
	base    *nethttp.Client
	config  *Config
	baseURL string
	limiter *RateLimiter
	session *SessionManager
}

// Config holds HTTP client configuration.
type Config struct {
	// BaseURL is the backend API base URL.
	BaseURL string

	// Timeout for individual HTTP requests
	Timeout time.Duration

	// User agent for HTTP requests
	UserAgent string

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections.
	// Default: 20
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	// Default: 90 seconds
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		UserAgent:   "yeoladin/1.0",
		RateLimiter: DefaultRateLimiterConfig(),
		Transport:   DefaultTransportConfig(),
	}
}

// DefaultTransportConfig returns sensible defaults for HTTP transport configuration.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// New creates a new HTTP client with the given configuration. A nil session
// produces an unauthenticated client: no bearer header and no refresh cycle.
func New(cfg *Config, session *SessionManager) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &nethttp.Transport{
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
	}

	base := &nethttp.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}

	return &Client{
		base:    base,
		config:  cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: NewRateLimiter(cfg.RateLimiter),
		session: session,
	}
}

// Response represents an HTTP response with status code and body.
type Response struct {
	StatusCode int
	Header     nethttp.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, path, "", nil)
}

// GetJSON performs a GET request and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PostJSON performs a POST request with a JSON body. A nil in sends an
// empty body; a nil out discards the response body.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, nethttp.MethodPost, path, in, out)
}

// PutJSON performs a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.doJSON(ctx, nethttp.MethodPut, path, in, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, nethttp.MethodDelete, path, "", nil)
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequestConfig, err)
		}
		body = data
		contentType = "application/json"
	}
	resp, err := c.Do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// Do performs an HTTP request against the backend. The current access token
// is attached as a bearer credential when one is held. A 401 response (for
// any target other than the refresh endpoint) triggers exactly one token
// refresh followed by one replay with the new token; the replay's outcome
// is returned as-is, so a second 401 surfaces instead of refreshing again.
// Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, method, path, contentType string, body []byte) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token := ""
	if c.session != nil {
		token = c.session.AccessToken()
	}

	resp, err := c.attempt(ctx, method, path, contentType, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == nethttp.StatusUnauthorized && c.session != nil && path != refreshPath {
		log.Printf("http: 401 on %s %s, attempting token refresh", method, path)
		if err := c.session.Refresh(ctx); err != nil {
			return nil, err
		}
		resp, err = c.attempt(ctx, method, path, contentType, body, c.session.AccessToken())
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

// attempt issues a single request and reads its body. Bodies are byte
// slices rather than readers so a replay can re-send the same payload.
func (c *Client) attempt(ctx context.Context, method, path, contentType string, body []byte, token string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequestConfig, err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// Session returns the session manager backing this client, nil for
// unauthenticated clients.
func (c *Client) Session() *SessionManager {
	return c.session
}

// Close closes the HTTP client connections and releases all resources.
func (c *Client) Close() error {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	return nil
}
