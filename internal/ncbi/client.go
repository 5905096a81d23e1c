// Package ncbi provides the shared HTTP transport for NCBI E-utilities.
// It owns rate limiting, common parameters, timeouts and response size
// guards so that the query flows only deal with request parameters and XML.
package ncbi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	// DefaultTool identifies this application to NCBI.
	DefaultTool = "pubmed-go"
	// DefaultEmail is the contact email sent to NCBI.
	DefaultEmail = "pubmed-go@users.noreply.github.com"

	// Rate limits per NCBI policy.
	RateWithoutKey = 3  // requests per second without API key
	RateWithKey    = 10 // requests per second with API key

	// DefaultTimeout bounds a whole request, body included.
	DefaultTimeout = 10 * time.Second
	// DefaultConnectTimeout bounds establishing the TCP connection.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultMaxResponseBytes is the maximum response body size (50 MB).
	DefaultMaxResponseBytes int64 = 50 * 1024 * 1024

	// Retry policy for transient rate-limit responses.
	ncbiMaxRetries    = 2
	ncbiBaseRetryWait = 700 * time.Millisecond
	ncbiMaxRetryWait  = 4 * time.Second
)

// BaseClient is a shared HTTP client for NCBI E-utilities with rate
// limiting, common parameter injection, and response size guards.
type BaseClient struct {
	BaseURL        string
	APIKey         string
	Tool           string
	Email          string
	HTTPClient     *http.Client
	Limiter        *rate.Limiter
	MaxBytes       int64
	Timeout        time.Duration
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// Option configures a BaseClient.
type Option func(*BaseClient)

// WithBaseURL sets the base URL for requests.
func WithBaseURL(u string) Option {
	return func(c *BaseClient) { c.BaseURL = u }
}

// WithAPIKey sets the NCBI API key and adjusts the rate limit accordingly.
func WithAPIKey(key string) Option {
	return func(c *BaseClient) {
		c.APIKey = key
		if key != "" {
			c.Limiter = rate.NewLimiter(rate.Limit(RateWithKey), 1)
		}
	}
}

// WithTool sets the tool parameter for NCBI requests.
func WithTool(tool string) Option {
	return func(c *BaseClient) { c.Tool = tool }
}

// WithEmail sets the email parameter for NCBI requests.
func WithEmail(email string) Option {
	return func(c *BaseClient) { c.Email = email }
}

// WithHTTPClient sets a custom HTTP client. Timeouts configured through
// WithTimeout and WithConnectTimeout are then ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.HTTPClient = hc }
}

// WithMaxResponseBytes sets the maximum allowed response body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *BaseClient) { c.MaxBytes = n }
}

// WithTimeout sets the total time allowed for a single request.
func WithTimeout(d time.Duration) Option {
	return func(c *BaseClient) { c.Timeout = d }
}

// WithConnectTimeout sets the time allowed to establish a connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *BaseClient) { c.ConnectTimeout = d }
}

// WithRateLimit replaces the request limiter. Use rate.Inf to disable
// client-side limiting.
func WithRateLimit(perSecond rate.Limit, burst int) Option {
	return func(c *BaseClient) { c.Limiter = rate.NewLimiter(perSecond, burst) }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *BaseClient) { c.Logger = l }
}

// NewBaseClient creates a new NCBI base client with the given options.
func NewBaseClient(opts ...Option) *BaseClient {
	c := &BaseClient{
		BaseURL:        DefaultBaseURL,
		Tool:           DefaultTool,
		Email:          DefaultEmail,
		MaxBytes:       DefaultMaxResponseBytes,
		Limiter:        rate.NewLimiter(rate.Limit(RateWithoutKey), 1),
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		Logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = newHTTPClient(c.Timeout, c.ConnectTimeout)
	}
	return c
}

func newHTTPClient(timeout, connectTimeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	return &http.Client{
		Timeout:   timeout,
		Transport: tr,
	}
}

// Endpoint returns the absolute URL for an E-utilities endpoint.
func (c *BaseClient) Endpoint(endpoint string) (string, error) {
	u, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	return u, nil
}

// DoGet performs a rate-limited GET request with common NCBI parameters
// and response size limits. Returns the response body. Every failure to
// obtain a 2xx body is reported as a *TransportError.
func (c *BaseClient) DoGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}

	u, err := c.Endpoint(endpoint)
	if err != nil {
		return nil, &TransportError{Op: endpoint, Err: err}
	}
	fullURL := u + "?" + params.Encode()
	fail := func(status int, err error) error {
		return &TransportError{Op: endpoint, URL: redactURL(fullURL), StatusCode: status, Err: err}
	}

	for attempt := 0; attempt <= ncbiMaxRetries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fail(0, fmt.Errorf("rate limit wait: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fail(0, fmt.Errorf("creating request: %w", err))
		}

		c.Logger.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Msg("ncbi request")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			var ue *url.Error
			if errors.As(err, &ue) {
				ue.URL = redactURL(ue.URL)
			}
			return nil, fail(0, fmt.Errorf("executing request: %w", err))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= ncbiMaxRetries {
				resp.Body.Close()
				return nil, fail(resp.StatusCode, fmt.Errorf("NCBI rate limit exceeded (HTTP 429 after %d retries). Consider using an API key with --api-key or NCBI_API_KEY env var", ncbiMaxRetries))
			}

			retryAfter := retryAfterDuration(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			if retryAfter <= 0 {
				retryAfter = ncbiBaseRetryWait * time.Duration(1<<attempt)
				if retryAfter > ncbiMaxRetryWait {
					retryAfter = ncbiMaxRetryWait
				}
			}
			c.Logger.Warn().Str("endpoint", endpoint).Dur("wait", retryAfter).Msg("ncbi rate limited, retrying")
			if err := sleepWithContext(ctx, retryAfter); err != nil {
				return nil, fail(0, fmt.Errorf("rate limit retry canceled: %w", err))
			}

			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fail(resp.StatusCode, fmt.Errorf("NCBI returned HTTP %d for %s", resp.StatusCode, endpoint))
		}

		// Read up to MaxBytes+1 to detect oversized responses.
		r := io.LimitReader(resp.Body, c.MaxBytes+1)
		body, err := io.ReadAll(r)
		resp.Body.Close()
		if err != nil {
			return nil, fail(resp.StatusCode, fmt.Errorf("reading response: %w", err))
		}
		if int64(len(body)) > c.MaxBytes {
			return nil, fail(resp.StatusCode, fmt.Errorf("response exceeds maximum size of %d bytes", c.MaxBytes))
		}

		c.Logger.Debug().Str("endpoint", endpoint).Int("bytes", len(body)).Msg("ncbi response")
		return body, nil
	}

	return nil, fail(0, fmt.Errorf("unreachable request loop"))
}

// redactURL drops the api_key value so it never ends up in error messages.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func retryAfterDuration(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}

	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}

	return 0
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
