// Package instagram fetches the studio's recent posts from the Instagram
// Graph API so the site can render a feed without exposing the access
// token to browsers.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Static errors for Instagram client operations.
var (
	// ErrAccessTokenRequired is returned when no access token is configured.
	ErrAccessTokenRequired = errors.New("instagram: access token is required")
	// ErrServerError is returned when the Graph API returns a 5xx status code.
	ErrServerError = errors.New("instagram: server error")
	// ErrRateLimited is returned when the Graph API returns a 429 status code.
	ErrRateLimited = errors.New("instagram: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("instagram: request failed")
)

// Post is one media item from the account's feed.
type Post struct {
	ID        string `json:"id"`
	Caption   string `json:"caption,omitempty"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
	ThumbURL  string `json:"thumbnail_url,omitempty"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
}

// Feed is a page of posts plus the cursor for the next page.
type Feed struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Client defines the interface for fetching the account feed.
type Client interface {
	// RecentMedia returns up to limit posts, resuming from cursor when set.
	RecentMedia(ctx context.Context, limit int, cursor string) (*Feed, error)
}

// HTTPClient is the HTTP implementation of the Instagram Client interface.
type HTTPClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the Graph API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = u
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new Instagram HTTP client.
func NewClient(accessToken string, opts ...ClientOption) (*HTTPClient, error) {
	if accessToken == "" {
		return nil, ErrAccessTokenRequired
	}

	c := &HTTPClient{
		accessToken: accessToken,
		baseURL:     "https://graph.instagram.com",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		maxRetries:  2,
		baseBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

const mediaFields = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp"

// mediaResponse mirrors the Graph API /me/media envelope.
type mediaResponse struct {
	Data   []Post `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// RecentMedia returns up to limit posts, resuming from cursor when set.
func (c *HTTPClient) RecentMedia(ctx context.Context, limit int, cursor string) (*Feed, error) {
	if limit <= 0 || limit > 50 {
		limit = 12
	}

	q := url.Values{}
	q.Set("fields", mediaFields)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("access_token", c.accessToken)
	if cursor != "" {
		q.Set("after", cursor)
	}
	reqURL := c.baseURL + "/me/media?" + q.Encode()

	var resp mediaResponse
	if err := c.doRequestWithRetry(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	feed := &Feed{Posts: resp.Data}
	// Graph paging only advances when a next link exists; a bare cursor on
	// the last page would loop forever.
	if resp.Paging.Next != "" {
		feed.NextCursor = resp.Paging.Cursors.After
	}
	return feed, nil
}

// doRequestWithRetry performs a GET with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, reqURL string, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("instagram: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, reqURL, result)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("instagram: max retries exceeded: %w", lastErr)
}

func (c *HTTPClient) doRequest(ctx context.Context, reqURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("instagram: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("instagram: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("instagram: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("instagram: unmarshal response: %w", err)
		}
	}
	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Verify interface implementation at compile time.
var _ Client = (*HTTPClient)(nil)
