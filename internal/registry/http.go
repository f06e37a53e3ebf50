package registry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/logging"
)

// DefaultIndexURL is the crates.io sparse index.
const DefaultIndexURL = "https://index.crates.io/"

// HTTPClient reads a sparse index over HTTP, retrying transient failures
// with exponential backoff.
type HTTPClient struct {
	baseURL         string
	client          *http.Client
	userAgent       string
	maxTries        uint
	initialInterval time.Duration
	logger          *logging.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// WithMaxTries bounds the number of attempts per lookup, including the first.
func WithMaxTries(n uint) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithInitialInterval sets the wait before the first retry.
func WithInitialInterval(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.initialInterval = d
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewHTTPClient returns a client for the sparse index at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultIndexURL
	}
	c := &HTTPClient{
		baseURL:         strings.TrimSuffix(baseURL, "/") + "/",
		client:          &http.Client{Timeout: 30 * time.Second},
		userAgent:       "cargo-upgrade",
		maxTries:        3,
		initialInterval: 250 * time.Millisecond,
		logger:          logging.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the index file of name.
func (c *HTTPClient) Lookup(ctx context.Context, name string) (VersionSet, error) {
	url := c.baseURL + IndexPath(name)
	log := c.logger.WithContext(logging.WithCrate(ctx, name))
	log.Debug("fetching index file", "url", url)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	set, err := backoff.Retry(ctx,
		func() (VersionSet, error) { return c.fetch(ctx, url, name) },
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Debug("registry lookup failed, retrying", "error", err, "wait", wait)
		}),
	)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return VersionSet{}, err
		}
		return VersionSet{}, uperrors.RegistryLookup(name, err).WithDetails("url", url)
	}
	return set, nil
}

// fetch performs one attempt. Errors the registry may recover from are
// retried, everything else stops the loop.
func (c *HTTPClient) fetch(ctx context.Context, url, name string) (VersionSet, error) {
	set, err := c.get(ctx, url, name)
	if err != nil && !uperrors.IsRetryable(err) {
		return set, backoff.Permanent(err)
	}
	return set, err
}

func (c *HTTPClient) get(ctx context.Context, url, name string) (VersionSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return VersionSet{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return VersionSet{}, ctx.Err()
		}
		return VersionSet{}, uperrors.NetworkUnavailable(req.URL.Host, err)
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return VersionSet{}, uperrors.NetworkUnavailable(req.URL.Host, err)
		}
		releases, err := ParseIndex(data)
		if err != nil {
			return VersionSet{}, err
		}
		return NewVersionSet(name, releases), nil
	case code == http.StatusNotFound || code == http.StatusGone || code == http.StatusUnavailableForLegalReasons:
		return VersionSet{}, uperrors.CrateNotFound(name)
	case code == http.StatusTooManyRequests:
		wait := retryAfter(resp.Header.Get("Retry-After"))
		err := uperrors.RateLimited(wait)
		if wait > 0 {
			err = err.WithCause(backoff.RetryAfter(int(wait / time.Second)))
		}
		return VersionSet{}, err
	default:
		return VersionSet{}, uperrors.UnexpectedStatus(url, code)
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
