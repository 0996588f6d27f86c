package config

import "time"

// HTTPClientConfig defines how the entry document is fetched
type HTTPClientConfig struct {
	TimeoutSecs int `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1,max=300"`
	// Retries beyond the first attempt. One retry by default.
	Retries          int    `json:"retries" yaml:"retries" validate:"min=0,max=5"`
	RetryBaseDelayMs int    `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=1"`
	RetryMaxDelayMs  int    `json:"retry_max_delay_ms,omitempty" yaml:"retry_max_delay_ms,omitempty" validate:"omitempty,min=1,gtefield=RetryBaseDelayMs"`
	RetryStatusCodes []int  `json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty" validate:"omitempty,dive,min=400,max=599"`
	MaxContentSizeKB int    `json:"max_content_size_kb,omitempty" yaml:"max_content_size_kb,omitempty" validate:"omitempty,min=1"`
	UserAgent        string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Proxy            string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	EnableHTTP2      bool   `json:"enable_http2" yaml:"enable_http2"`
	FollowRedirects  bool   `json:"follow_redirects" yaml:"follow_redirects"`
	// Redirect hops allowed when following; 0 keeps the net/http limit of 10.
	MaxRedirects int `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=1,max=20"`
}

// NewDefaultHTTPClientConfig creates default HTTP client configuration
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	codes := make([]int, len(DefaultRetryStatusCodes))
	copy(codes, DefaultRetryStatusCodes)
	return HTTPClientConfig{
		TimeoutSecs:      DefaultFetchTimeoutSecs,
		Retries:          DefaultFetchRetries,
		RetryBaseDelayMs: DefaultRetryBaseDelayMs,
		RetryMaxDelayMs:  DefaultRetryMaxDelayMs,
		RetryStatusCodes: codes,
		MaxContentSizeKB: DefaultMaxContentSizeKB,
		UserAgent:        DefaultUserAgent,
		EnableHTTP2:      true,
		FollowRedirects:  true,
		MaxRedirects:     DefaultMaxRedirects,
	}
}

// Timeout returns the per-attempt timeout as a duration
func (c HTTPClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryBaseDelay returns the first backoff delay as a duration
func (c HTTPClientConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the backoff cap as a duration
func (c HTTPClientConfig) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}
