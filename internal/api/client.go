package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL of the storefront API
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// MaxRetries for rate limit errors
	MaxRetries = 3
	// InitialBackoff for rate limit retries
	InitialBackoff = 2 * time.Second
)

// Error types for specific API errors
type (
	// AuthenticationError indicates an authentication failure
	AuthenticationError struct{ Message string }
	// RateLimitError indicates rate limit exceeded
	RateLimitError struct{ Message string }
	// NotFoundError indicates a resource was not found
	NotFoundError struct{ Message string }
	// ValidationError indicates invalid input
	ValidationError struct{ Message string }
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e NotFoundError) Error() string       { return e.Message }
func (e ValidationError) Error() string     { return e.Message }

// Client talks to the storefront REST API
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration
	logger     *zap.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the client
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithBackoff sets the initial wait before retrying a rate-limited request
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient creates a new storefront API client
func NewClient(apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		backoff:    InitialBackoff,
		logger:     zap.NewNop(),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs a single GET request and returns the response body
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Token "+c.apiToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api request",
		zap.String("method", req.Method),
		zap.String("url", endpoint),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, AuthenticationError{Message: "invalid or missing API token"}
		case http.StatusNotFound:
			return nil, NotFoundError{Message: fmt.Sprintf("not found: %s", path)}
		case http.StatusTooManyRequests:
			return nil, &retryAfterError{
				RateLimitError: RateLimitError{Message: fmt.Sprintf("rate limit exceeded: %s", string(respBody))},
				wait:           parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		case http.StatusBadRequest:
			return nil, ValidationError{Message: fmt.Sprintf("invalid request: %s", string(respBody))}
		case http.StatusInternalServerError:
			return nil, fmt.Errorf("server error: %s", string(respBody))
		default:
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
		}
	}

	return respBody, nil
}

// retryAfterError carries the server's Retry-After hint alongside a RateLimitError.
type retryAfterError struct {
	RateLimitError
	wait time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.RateLimitError }

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// getWithRetry calls the API with retry logic for rate limits
func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values) ([]byte, error) {
	backoff := c.backoff

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		resp, err := c.get(ctx, path, query)
		if err == nil {
			return resp, nil
		}

		// Only retry on rate limit errors
		var rateErr *retryAfterError
		if !errors.As(err, &rateErr) {
			return nil, err
		}

		if attempt < MaxRetries {
			wait := backoff
			if rateErr.wait > 0 {
				wait = rateErr.wait
			}
			c.logger.Debug("rate limited, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}
	}

	return nil, RateLimitError{Message: "rate limit exceeded after retries"}
}

// Ensure Client implements StorefrontAPI at compile time
var _ StorefrontAPI = (*Client)(nil)

// CurrentUser returns the account the API token belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	resp, err := c.getWithRetry(ctx, "/api/auth/user/", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(resp, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &user, nil
}
