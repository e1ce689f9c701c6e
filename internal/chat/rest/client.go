// Package rest is the HTTP adapter to the chat platform. It implements the
// query and admin interfaces in package chat over the platform's REST API
// and the event source over its NDJSON stream endpoint.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainerrors "cord/pkg/domain-errors"
)

// Client is the low-level HTTP client: bot-token auth, base URL, and
// translation of HTTP statuses into domain error codes. It does not retry;
// callers treat transient failures as "no result" and the next event of the
// same kind is the retry.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client with bot-token auth and a base URL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "build request")
	}
	return c.do(req, dest)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransient, "platform request")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransient, "read platform response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if dest == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, dest); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "decode platform response")
		}
		return nil
	}

	return statusError(resp.StatusCode, payload)
}

// statusError maps a non-2xx response onto the error taxonomy the rest of
// the service dispatches on.
func statusError(status int, body []byte) error {
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	text := fmt.Sprintf("platform returned %d: %s", status, msg)

	switch {
	case status == http.StatusNotFound:
		return domainerrors.New(domainerrors.CodeNotFound, text)
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return domainerrors.New(domainerrors.CodePermissionDenied, text)
	case status == http.StatusTooManyRequests:
		return domainerrors.New(domainerrors.CodeRateLimited, text)
	case status >= 500:
		return domainerrors.New(domainerrors.CodeTransient, text)
	default:
		return domainerrors.New(domainerrors.CodeInternal, text)
	}
}
