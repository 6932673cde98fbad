package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/optiondesk/pkg/config"
	"github.com/wonny/optiondesk/pkg/logger"
	"github.com/wonny/optiondesk/pkg/redis"
)

// DefaultUserAgent is sent unless the request sets its own
const DefaultUserAgent = "optiondesk/1.0 (+https://github.com/wonny/optiondesk)"

// StatusError bodies are truncated to this many bytes
const maxErrorBody = 512

// Client is the outbound HTTP client for the CBOE CDN: throttled by a local
// token bucket and an optional Redis window, retried with backoff.
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient   *http.Client
	logger       *logger.Logger
	retryConfig  RetryConfig
	localLimiter *rate.Limiter
	rateLimiter  *redis.RateLimiter
	rateLimitCfg *redis.RateLimitConfig
	userAgent    string
}

// RetryConfig controls retries of transport errors, 5xx and 429
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// StatusError is a non-2xx response seen by GetJSON
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// New builds a client from the CBOE settings (30s timeout when unset)
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.CBOE.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		logger:      log,
		retryConfig: RetryConfig{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, Enabled: true},
		userAgent:   DefaultUserAgent,
	}
	if cfg.CBOE.RatePerSec > 0 {
		c.WithLocalLimit(cfg.CBOE.RatePerSec)
	}
	return c
}

// NewWithTimeout is New with a different per-request timeout
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	c := New(cfg, log)
	c.httpClient.Timeout = timeout
	return c
}

// WithRetry enables retries with the given count and first delay
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries, c.retryConfig.InitialDelay, c.retryConfig.Enabled = maxRetries, initialDelay, true
	return c
}

// DisableRetry makes every request a single attempt
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithLocalLimit throttles this process to perSec requests (burst perSec)
func (c *Client) WithLocalLimit(perSec int) *Client {
	c.localLimiter = rate.NewLimiter(rate.Limit(perSec), perSec)
	return c
}

// WithRateLimiter adds a limit shared with other processes through Redis
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.rateLimiter, c.rateLimitCfg = limiter, &cfg
	return c
}

// WithUserAgent replaces DefaultUserAgent
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Get issues a GET; the caller closes the body
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request %s: %w", url, err)
	}
	return c.do(req)
}

// GetJSON decodes a 2xx JSON response into dest; other statuses give *StatusError
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if err := c.throttle(req.Context()); err != nil {
		return nil, err
	}

	log := c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	log.Debug("HTTP request started")

	start := time.Now()
	attempts := 1
	if c.retryConfig.Enabled {
		attempts += max(c.retryConfig.MaxRetries, 0)
	}
	resp, err := c.send(req, attempts, log)

	log = log.WithField("duration", time.Since(start))
	if err != nil {
		log.WithError(err).Error("HTTP request failed")
		return nil, err
	}
	log.WithField("status_code", resp.StatusCode).Debug("HTTP request completed")
	return resp, nil
}

// throttle waits on the local bucket, then the shared window
func (c *Client) throttle(ctx context.Context) error {
	if c.localLimiter != nil {
		if err := c.localLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("local rate limit: %w", err)
		}
	}
	if c.rateLimiter != nil && c.rateLimitCfg != nil {
		if err := c.rateLimiter.Wait(ctx, *c.rateLimitCfg); err != nil {
			return fmt.Errorf("shared rate limit: %w", err)
		}
	}
	return nil
}

// send makes up to attempts tries. The last response is returned as-is even
// if retryable, so callers see the final status.
func (c *Client) send(req *http.Request, attempts int, log *logger.Logger) (*http.Response, error) {
	ctx := req.Context()
	delay := c.retryConfig.InitialDelay

	for n := 1; ; n++ {
		resp, err := c.httpClient.Do(req)
		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}
		if n >= attempts {
			return resp, err
		}

		wait := delay
		entry := log.WithFields(map[string]interface{}{"attempt": n})
		if err != nil {
			entry = entry.WithError(err)
		} else {
			// 429/503의 Retry-After 우선
			if after, ok := retryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				wait = min(after, c.retryConfig.MaxDelay)
			}
			entry = entry.WithField("status_code", resp.StatusCode)
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		entry.WithField("delay", wait).Warn("Retrying HTTP request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, c.retryConfig.MaxDelay)
	}
}

// retryAfter parses a Retry-After header (delta-seconds or HTTP date)
func retryAfter(header string, now time.Time) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(max(secs, 0)) * time.Second, true
	}
	if at, err := http.ParseTime(header); err == nil {
		return max(at.Sub(now), 0), true
	}
	return 0, false
}

// IsRetryableError reports whether a status is worth retrying (5xx, 429)
func IsRetryableError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
