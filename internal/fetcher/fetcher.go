package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrEmptyContent reports a fetch that succeeded but returned a blank
// body. Silently injecting nothing is worse than failing loudly.
var ErrEmptyContent = errors.New("fetched content is empty")

// NetworkError reports a failed request or an unreadable local source.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports a request aborted by the per-request deadline.
// It is distinct from NetworkError so callers can tell a slow source
// from an unreachable one.
type TimeoutError struct {
	URL   string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetching %s timed out after %s", e.URL, e.After)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// Client fetches script/HTML/CSS text content. Sources without a URL
// scheme (or with file://) are read from the local filesystem so that
// debug mode works through the same code path as remote fetches.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// New creates a Client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// FetchText retrieves the text content of the given source.
func (c *Client) FetchText(ctx context.Context, source string) (string, error) {
	if isLocal(source) {
		return c.readLocal(source)
	}
	return c.fetchRemote(ctx, source)
}

func isLocal(source string) bool {
	return strings.HasPrefix(source, "file://") || !strings.Contains(source, "://")
}

func (c *Client) readLocal(source string) (string, error) {
	path := strings.TrimPrefix(source, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &NetworkError{URL: source, Err: err}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("%s: %w", source, ErrEmptyContent)
	}
	return string(data), nil
}

func (c *Client) fetchRemote(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{URL: url, After: c.timeout}
		}
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &TimeoutError{URL: url, After: c.timeout}
		}
		return "", &NetworkError{URL: url, Err: err}
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%s: %w", url, ErrEmptyContent)
	}

	return string(body), nil
}
