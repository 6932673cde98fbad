package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/optiondesk/pkg/config"
	"github.com/wonny/optiondesk/pkg/logger"
	"github.com/wonny/optiondesk/pkg/redis"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "test",
		LogLevel: "error",
		CBOE: config.CBOEConfig{
			Timeout:    5 * time.Second,
			RatePerSec: 100,
		},
	}
}

func TestNew(t *testing.T) {
	client := New(testConfig(), logger.Nop())

	require.NotNil(t, client.httpClient)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.NotNil(t, client.localLimiter)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
}

func TestNew_DefaultTimeout(t *testing.T) {
	client := New(&config.Config{}, logger.Nop())

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.localLimiter)
}

func TestNewWithTimeout(t *testing.T) {
	client := NewWithTimeout(testConfig(), logger.Nop(), 2*time.Second)
	assert.Equal(t, 2*time.Second, client.httpClient.Timeout)
}

func TestWithRetry(t *testing.T) {
	client := New(testConfig(), logger.Nop()).WithRetry(5, 2*time.Second)

	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)
	assert.True(t, client.retryConfig.Enabled)

	client.DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestGet_SetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithUserAgent("probe/1")
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "probe/1", gotUA)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"SPX","price":4750.5}`))
	}))
	defer server.Close()

	var out struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	err := New(testConfig(), logger.Nop()).GetJSON(context.Background(), server.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "SPX", out.Symbol)
	assert.Equal(t, 4750.5, out.Price)
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("AccessDenied"))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := New(testConfig(), logger.Nop()).GetJSON(context.Background(), server.URL, &out)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "AccessDenied", statusErr.Body)
}

func TestGetJSON_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var out map[string]interface{}
	err := New(testConfig(), logger.Nop()).GetJSON(context.Background(), server.URL, &out)
	assert.Error(t, err)
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			// Return 503 for first 2 attempts
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(3, 10*time.Millisecond)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryOn429ExhaustsAttempts(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).WithRetry(2, 5*time.Millisecond)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New(testConfig(), logger.Nop()).WithRetry(5, time.Second)
	_, err := client.Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisableRetry_SingleAttempt(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(testConfig(), logger.Nop()).DisableRetry()
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestSharedRateLimiter_Disabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	limiter := redis.NewRateLimiter(redis.Disabled(), "test")
	client := New(testConfig(), logger.Nop()).WithRateLimiter(limiter, redis.CBOERateLimit(1))

	for i := 0; i < 3; i++ {
		resp, err := client.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true}, // Internal Server Error
		{502, true}, // Bad Gateway
		{503, true}, // Service Unavailable
		{504, true}, // Gateway Timeout
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.statusCode))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 19, 15, 0, 0, 0, time.UTC)

	d, ok := retryAfter("2", now)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)

	d, ok = retryAfter(now.Add(5*time.Second).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	d, ok = retryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Zero(t, d)

	_, ok = retryAfter("", now)
	assert.False(t, ok)
	_, ok = retryAfter("soon", now)
	assert.False(t, ok)
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// InitialDelay가 길어도 Retry-After: 0 이면 바로 재시도
	client := New(testConfig(), logger.Nop()).WithRetry(1, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}
