// Package apiclient talks to the EDIS REST backend. Every request carries the
// current session's bearer token; a 401 outside the auth endpoints ends the
// session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 15 * time.Second

	defaultHost    = "http://localhost:8080"
	defaultAPIPath = "/api"
)

// Session is the slice of the session manager the client needs.
type Session interface {
	Token() string
	Logout()
}

type Client struct {
	baseURL        string
	http           *http.Client
	session        Session
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUnauthorizedHandler sets fn to run after a 401 cleared the session,
// typically sending the user back to the login view.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: NormalizeBaseURL(baseURL),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL trims trailing slashes and resolves bare paths such as
// "/api" against the default backend host.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultHost + defaultAPIPath
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return strings.TrimRight(trimmed, "/")
	}

	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return defaultHost + strings.TrimRight(trimmed, "/")
}

func (c *Client) BaseURL() string { return c.baseURL }

func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/register")
}

// envelope only decodes data so timestamps in any format are tolerated.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and decodes the envelope's data into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Body: raw}
		if resp.StatusCode == http.StatusUnauthorized && !isAuthEndpoint(path) {
			log.Printf("[api] %s %s unauthorized, ending session", method, path)
			if c.session != nil {
				c.session.Logout()
			}
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Ping reports whether the backend answered at all. Any HTTP status counts as
// reachable; only transport failures are returned.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"page": {"0"}, "size": {"1"}}
	err := c.do(ctx, http.MethodGet, "/projects", q, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil
	}
	return err
}
