package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/widgetloader/internal/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRetryingClient(t *testing.T, maxRetries int, codes ...int) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithRetry(RetryHandlerConfig{
			MaxRetries:       maxRetries,
			BaseDelay:        1 * time.Millisecond,
			MaxDelay:         10 * time.Millisecond,
			RetryStatusCodes: codes,
		}).
		Build()
	require.NoError(t, err)
	return client
}

func TestRetryHandler_RecoversAfterOneFailure(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<head></head>"))
	}))
	defer server.Close()

	client := newRetryingClient(t, 1, http.StatusServiceUnavailable)

	result, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<head></head>", string(result.Content))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_MaxRetriesExceeded(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newRetryingClient(t, 2, http.StatusServiceUnavailable)

	resp, err := client.Do(&HTTPRequest{URL: server.URL, Method: http.MethodGet})
	require.Error(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount))

	var httpErr *common.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestRetryHandler_OversizedBodyIsNotRetried(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		_, _ = w.Write([]byte("<html><head><link href=\"a.css\"></head></html>"))
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithMaxContentSize(16).
		WithRetry(RetryHandlerConfig{MaxRetries: 1, BaseDelay: time.Millisecond}).
		Build()
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, common.ErrContentTooLarge)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_NonRetryableStatus(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newRetryingClient(t, 1, http.StatusServiceUnavailable)

	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
}

func TestRetryHandler_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewHTTPClientBuilder(zerolog.Nop()).
		WithRetry(RetryHandlerConfig{
			MaxRetries:       1,
			BaseDelay:        time.Second,
			MaxDelay:         time.Second,
			RetryStatusCodes: []int{http.StatusServiceUnavailable},
		}).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   300 * time.Millisecond,
	}, zerolog.Nop())

	assert.Equal(t, 100*time.Millisecond, rh.CalculateDelay(0))
	assert.Equal(t, 200*time.Millisecond, rh.CalculateDelay(1))
	assert.Equal(t, 300*time.Millisecond, rh.CalculateDelay(2))
}

func TestRetryHandler_JitterWithTinyDelay(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		BaseDelay:    time.Millisecond,
		EnableJitter: true,
	}, zerolog.Nop())

	assert.NotPanics(t, func() { rh.CalculateDelay(0) })
}

func TestRetryHandler_ShouldRetry(t *testing.T) {
	rh := NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       1,
		RetryStatusCodes: []int{http.StatusTooManyRequests},
	}, zerolog.Nop())

	assert.True(t, rh.ShouldRetry(http.StatusTooManyRequests, 0))
	assert.False(t, rh.ShouldRetry(http.StatusTooManyRequests, 1))
	assert.False(t, rh.ShouldRetry(http.StatusNotFound, 0))
}
