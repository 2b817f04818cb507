// Package fetch implements the retrying HTTP client shared by every
// source adapter. Retry behavior is a per-call Policy value, so the
// chamber XML paths and the JSON gateway path use one client with
// different disciplines instead of duplicated fetch logic.
package fetch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/devoid00/creto-votes/internal/telemetry"
)

// ErrNotFound marks an HTTP 404. For the lower-chamber probe this is an
// expected outcome, not a failure, so it gets a sentinel instead of a
// generic status error.
var ErrNotFound = errors.New("document not found")

// StatusError reports a non-2xx response that is not a 404.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// IsAuthError reports whether err is an authentication failure (401/403).
// These are never retried: a bad gateway key does not self-heal.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden
}

// Config controls client behavior.
type Config struct {
	Timeout     time.Duration
	UserAgent   string
	APIKey      string
	RatePerHost float64
	RateBurst   int
}

// Client issues HTTP GETs with a fixed timeout, a descriptive user agent,
// per-host rate limiting, and policy-driven retries. It holds no state
// between calls beyond connection pooling.
type Client struct {
	httpClient *http.Client
	userAgent  string
	apiKey     string
	limiter    *hostLimiter
	logger     *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		userAgent: cfg.UserAgent,
		apiKey:    cfg.APIKey,
		limiter:   newHostLimiter(cfg.RatePerHost, cfg.RateBurst),
		logger:    logger,
	}
}

// Get fetches rawURL, retrying per policy, and returns the response body.
// A 404 returns ErrNotFound without retrying; 401/403 fail immediately.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, policy Policy) ([]byte, error) {
	target, err := mergeQuery(rawURL, params)
	if err != nil {
		return nil, err
	}
	host := hostOf(target)

	var lastErr error
	for attempt := 1; attempt <= policy.attempts(); attempt++ {
		if attempt > 1 {
			telemetry.ObserveRetry(host)
			c.logger.Debug("retrying fetch",
				zap.String("url", target),
				zap.Int("attempt", attempt),
			)
			Pause(ctx, policy.Delay(attempt-1))
		}
		if err := c.limiter.wait(ctx, host); err != nil {
			return nil, err
		}

		body, err := c.doOnce(ctx, target, host)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err, policy) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// retryable classifies a failed attempt. Not-found and auth failures are
// terminal; other status codes defer to the policy's retryable set;
// transport-level failures are transient by classification.
func retryable(err error, policy Policy) bool {
	if errors.Is(err, ErrNotFound) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return policy.Retryable(se.Code)
	}
	return true
}

// GetXML fetches rawURL and decodes the XML body into v.
func (c *Client) GetXML(ctx context.Context, rawURL string, policy Policy, v any) error {
	body, err := c.Get(ctx, rawURL, nil, policy)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse xml from %s: %w", rawURL, err)
	}
	return nil
}

// GetJSON fetches a JSON document through the api.data.gov gateway
// discipline: format=json is always requested and the key, when present,
// travels as the api_key query parameter, not a header.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, policy Policy, v any) error {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	if merged.Get("format") == "" {
		merged.Set("format", "json")
	}
	if c.apiKey != "" {
		merged.Set("api_key", c.apiKey)
	}

	body, err := c.Get(ctx, rawURL, merged, policy)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse json from %s: %w", rawURL, err)
	}
	return nil
}

// doOnce performs a single attempt.
func (c *Client) doOnce(ctx context.Context, target, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", target, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.ObserveFetch(host, 0, time.Since(start))
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	telemetry.ObserveFetch(host, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body from %s: %w", target, err)
		}
		return body, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}
}

func mergeQuery(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", rawURL, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}
