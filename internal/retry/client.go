package retry

import (
	"fmt"
	"net/http"
	"time"
)

// Default retry configuration. Provider calls are retried once on
// transient transport failure; responses are never retried on 4xx.
const (
	defaultMaxRetries        = 1
	defaultInitialRetryDelay = 500 * time.Millisecond
	defaultMaxRetryDelay     = 5 * time.Second
	defaultDelayMultiple     = 2.0
)

// Client is an HTTP client with automatic retry using exponential backoff.
type Client struct {
	maxRetries        int
	initialRetryDelay time.Duration
	maxRetryDelay     time.Duration
	delayMultiple     float64
	httpClient        *http.Client
	retryableChecker  RetryableChecker
}

// RetryableChecker determines if an error or response should trigger a retry
type RetryableChecker func(err error, resp *http.Response) bool

// Option configures a Client
type Option func(*Client)

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialRetryDelay sets the delay before the first retry
func WithInitialRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialRetryDelay = d
		}
	}
}

// WithMaxRetryDelay sets the maximum delay between retries
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxRetryDelay = d
		}
	}
}

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetryableChecker sets a custom function to determine retryable errors
func WithRetryableChecker(checker RetryableChecker) Option {
	return func(c *Client) {
		if checker != nil {
			c.retryableChecker = checker
		}
	}
}

// NewClient creates a retrying HTTP client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		maxRetries:        defaultMaxRetries,
		initialRetryDelay: defaultInitialRetryDelay,
		maxRetryDelay:     defaultMaxRetryDelay,
		delayMultiple:     defaultDelayMultiple,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
		retryableChecker:  DefaultRetryableChecker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultRetryableChecker retries transport errors and 5xx/429 responses.
// Deterministic failures (other 4xx) are never retried.
func DefaultRetryableChecker(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= http.StatusInternalServerError ||
		resp.StatusCode == http.StatusTooManyRequests
}

// HTTPClient returns an *http.Client whose transport applies the retry
// policy, for use with libraries that accept a plain http.Client.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: roundTripper{client: c},
		Timeout:   c.httpClient.Timeout,
	}
}

type roundTripper struct {
	client *Client
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.client.Do(req)
}

// Do executes the request, retrying per the configured policy. The
// request context is honored between attempts; cancellation aborts the
// remaining retries immediately.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	ctx := req.Context()
	delay := c.initialRetryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * c.delayMultiple)
			if delay > c.maxRetryDelay {
				delay = c.maxRetryDelay
			}
		}

		// Clone the request for retry (important: body might be consumed)
		reqClone := req.Clone(ctx)

		resp, lastErr = c.httpClient.Do(reqClone)

		if !c.retryableChecker(lastErr, resp) {
			// Success or non-retryable error
			return resp, lastErr
		}

		// Close response body before retry to prevent resource leak
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
	}

	// All retries exhausted
	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
	}

	return resp, lastErr
}
