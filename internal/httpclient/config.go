package httpclient

import (
	"time"

	"github.com/aleister1102/widgetloader/internal/config"
)

// HTTPClientConfig holds configuration for the entry document client
type HTTPClientConfig struct {
	Timeout               time.Duration     // Per-attempt timeout
	FollowRedirects       bool              // Whether to follow redirects
	MaxRedirects          int               // Maximum number of redirects to follow
	Proxy                 string            // Proxy URL
	UserAgent             string            // User-Agent header
	CustomHeaders         map[string]string // Headers added to every request
	MaxContentSize        int               // Bytes kept from a response body, 0 for no limit
	MaxIdleConns          int               // Maximum idle connections
	MaxIdleConnsPerHost   int               // Maximum idle connections per host
	IdleConnTimeout       time.Duration     // Idle connection timeout
	TLSHandshakeTimeout   time.Duration     // TLS handshake timeout
	ExpectContinueTimeout time.Duration     // Expect 100-continue timeout
	DialTimeout           time.Duration     // Connection dial timeout
	KeepAlive             time.Duration     // Keep-alive duration
	EnableHTTP2           bool              // Enable HTTP/2 support
}

// DefaultHTTPClientConfig returns the default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:               config.DefaultFetchTimeoutSecs * time.Second,
		FollowRedirects:       true,
		MaxRedirects:          config.DefaultMaxRedirects,
		UserAgent:             config.DefaultUserAgent,
		MaxContentSize:        config.DefaultMaxContentSizeKB * 1024,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialTimeout:           10 * time.Second,
		KeepAlive:             30 * time.Second,
		EnableHTTP2:           true,
		CustomHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}
}
