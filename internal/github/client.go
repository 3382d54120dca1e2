// Package github is the client for the hosted repository contents API.
// It owns request construction, status-code interpretation and payload
// encoding, so callers only ever see documents, entries and error kinds.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
	"github.com/gitjrnl/gitjrnl/internal/config"
)

const (
	// BaseURL is the GitHub API base URL.
	BaseURL = "https://api.github.com"
	// acceptHeader is the API media type sent on every request.
	acceptHeader = "application/vnd.github.v3+json"

	// HTTP client configuration.
	httpTimeout = 30 * time.Second

	// Rate limiting configuration (~10 requests/second). Requests already
	// in flight are not affected, only the issue rate is bounded.
	rateLimitInterval = 100 * time.Millisecond
)

// Client is a contents API client scoped to one repository.
type Client struct {
	httpClient  *http.Client
	token       string
	owner       string
	repo        string
	rateLimiter *rate.Limiter
	baseURL     string
	logger      *slog.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = l
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(client *Client) {
		client.baseURL = url
	}
}

// NewClient creates a client for the configured repository. The repository
// identifier is validated here, before any network call.
func NewClient(settings *config.Settings, opts ...ClientOption) (*Client, error) {
	if !settings.IsConfigured() {
		return nil, apperrors.ErrNotConfigured
	}

	owner, repo, err := settings.SplitRepository()
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: httpTimeout},
		token:       settings.Token,
		owner:       owner,
		repo:        repo,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitInterval), 1),
		baseURL:     BaseURL,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Owner returns the repository owner segment.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name segment.
func (c *Client) Repo() string { return c.repo }

// contentsPath returns the API path for a document path. An empty document
// path addresses the repository root.
func (c *Client) contentsPath(docPath string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, escapePath(docPath))
}

// escapePath percent-escapes each segment of a repository path while
// keeping the separators intact.
func escapePath(p string) string {
	if p == "" {
		return ""
	}
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// do performs one rate-limited authenticated request and returns the status
// code and raw body. Transport failures come back as a NetworkError; status
// interpretation is left to the caller since it differs per operation.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", acceptHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "API request", "method", method, "path", path)
	startTime := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &apperrors.NetworkError{Err: err}
	}

	respBody, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.WarnContext(ctx, "failed to close response body", "error", closeErr)
	}
	if err != nil {
		return 0, nil, &apperrors.NetworkError{Err: err}
	}

	c.logger.DebugContext(ctx, "API response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(startTime))

	return resp.StatusCode, respBody, nil
}

// apiError maps a non-success status code to an error kind.
func (c *Client) apiError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrAuth
	case http.StatusForbidden:
		return apperrors.ErrRateLimited
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusUnprocessableEntity:
		return apperrors.ErrValidation
	default:
		return apperrors.NewStatusError(statusCode, strings.TrimSpace(string(body)))
	}
}
