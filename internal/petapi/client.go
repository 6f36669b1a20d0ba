// Package petapi is the typed HTTP client for the remote wan-paradise API.
// It is a pure request/response gateway: no caching, no retries; every
// call is scoped by the caller's context.
package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wanparadise/internal/servicetoken"
	"wanparadise/internal/session"
)

const defaultTimeout = 10 * time.Second

// Client calls the wan-paradise API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *servicetoken.Signer
	audience   string
}

// APIError represents an upstream error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNotFound reports whether the error is an upstream 404.
func (e *APIError) IsNotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests use this to
// shorten timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithServiceToken signs outbound requests for the given audience.
func WithServiceToken(signer *servicetoken.Signer, audience string) Option {
	return func(c *Client) {
		c.signer = signer
		c.audience = strings.TrimSpace(audience)
	}
}

// NewClient constructs an API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requestOptions carry per-call headers.
type requestOptions struct {
	userID         int
	idempotencyKey string
}

func (c *Client) doJSON(ctx context.Context, method, path string, ro requestOptions, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ro.userID > 0 {
		// The browser front-end sends the identity cookie with
		// credentials: "include"; the gateway forwards it the same way.
		req.Header.Set("Cookie", session.CookieName+"="+strconv.Itoa(ro.userID))
	}
	if ro.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", ro.idempotencyKey)
	}
	if c.signer != nil {
		token, err := c.signer.Sign(c.audience)
		if err != nil {
			return fmt.Errorf("sign service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = errResp.Message
		}
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
