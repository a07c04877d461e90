// Package storage fetches persisted boards from the storage API.
//
// The API has one read endpoint:
//
//	GET /api/canvas/load/{id}
//	Authorization: Bearer <token>
//
//	200 {"elements": [...]}
//	401/403 the token may not read the board
//	404 no such board
//
// Transient failures (network errors and 5xx answers) are retried with
// exponential backoff; everything else is returned as a structured error.
package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/whiteboard/pkg/buildinfo"
	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/httputil"
	"github.com/matzehuels/whiteboard/pkg/observability"
)

// LoadPath is the route prefix of the load endpoint.
const LoadPath = "/api/canvas/load/"

const httpTimeout = 10 * time.Second

// LoadResponse is the body of a successful load.
type LoadResponse struct {
	Elements []element.Element `json:"elements"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.delay = attempts, delay }
}

// Client loads boards from the storage API.
type Client struct {
	http     *http.Client
	base     string
	token    string
	attempts int
	delay    time.Duration
}

// NewClient creates a Client for the API at baseURL. token is sent as a
// bearer credential; an empty token sends no Authorization header.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		base:     strings.TrimRight(baseURL, "/"),
		token:    token,
		attempts: httputil.DefaultAttempts,
		delay:    httputil.DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the stored elements of canvasID. A board without elements
// yields an empty, non-nil slice.
func (c *Client) Load(ctx context.Context, canvasID string) ([]element.Element, error) {
	if err := errors.ValidateCanvasID(canvasID); err != nil {
		return nil, err
	}
	target := c.base + LoadPath + url.PathEscape(canvasID)

	var resp LoadResponse
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		resp = LoadResponse{}
		return c.get(ctx, target, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Elements == nil {
		resp.Elements = []element.Element{}
	}
	return resp.Elements, nil
}

func (c *Client) get(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", path)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, path); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", path)
	}
	return nil
}

func checkStatus(code int, path string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeBoardNotFound, "GET %s: not found", path)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "GET %s: status %d", path, code)
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "GET %s: status %d", path, code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", path, code)
	}
}
