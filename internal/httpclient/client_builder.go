package httpclient

import (
	"time"

	"github.com/aleister1102/widgetloader/internal/config"
	"github.com/rs/zerolog"
)

// HTTPClientBuilder builds HTTP clients with fluent interface
type HTTPClientBuilder struct {
	config HTTPClientConfig
	retry  *RetryHandlerConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder creates a new HTTPClientBuilder with default configuration
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger,
	}
}

// WithConfig applies the application-level client settings, including retries
func (b *HTTPClientBuilder) WithConfig(cfg config.HTTPClientConfig) *HTTPClientBuilder {
	b.WithTimeout(cfg.Timeout()).
		WithMaxContentSize(cfg.MaxContentSizeKB * 1024).
		WithProxy(cfg.Proxy).
		WithHTTP2(cfg.EnableHTTP2).
		WithFollowRedirects(cfg.FollowRedirects).
		WithMaxRedirects(cfg.MaxRedirects)
	if cfg.UserAgent != "" {
		b.WithUserAgent(cfg.UserAgent)
	}
	return b.WithRetry(RetryHandlerConfig{
		MaxRetries:       cfg.Retries,
		BaseDelay:        cfg.RetryBaseDelay(),
		MaxDelay:         cfg.RetryMaxDelay(),
		EnableJitter:     true,
		RetryStatusCodes: cfg.RetryStatusCodes,
	})
}

// WithTimeout sets the per-attempt timeout
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	return b
}

// WithFollowRedirects sets whether to follow redirects
func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	return b
}

// WithMaxRedirects sets the maximum number of redirects to follow
func (b *HTTPClientBuilder) WithMaxRedirects(max int) *HTTPClientBuilder {
	b.config.MaxRedirects = max
	return b
}

// WithUserAgent sets the User-Agent header
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithMaxContentSize sets the maximum content size to keep in bytes (0 for no limit)
func (b *HTTPClientBuilder) WithMaxContentSize(size int) *HTTPClientBuilder {
	b.config.MaxContentSize = size
	return b
}

// WithProxy routes requests through an HTTP proxy; empty uses the environment
func (b *HTTPClientBuilder) WithProxy(proxyURL string) *HTTPClientBuilder {
	b.config.Proxy = proxyURL
	return b
}

// WithHTTP2 enables or disables HTTP/2 support
func (b *HTTPClientBuilder) WithHTTP2(enabled bool) *HTTPClientBuilder {
	b.config.EnableHTTP2 = enabled
	return b
}

// WithRetry enables retries; MaxRetries of zero disables them
func (b *HTTPClientBuilder) WithRetry(cfg RetryHandlerConfig) *HTTPClientBuilder {
	if cfg.MaxRetries <= 0 {
		b.retry = nil
		return b
	}
	b.retry = &cfg
	return b
}

// Build creates and returns a new HTTPClient
func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	client, err := NewHTTPClient(b.config, b.logger)
	if err != nil {
		return nil, err
	}
	if b.retry != nil {
		client.retryHandler = NewRetryHandler(*b.retry, b.logger)
	}
	return client, nil
}
