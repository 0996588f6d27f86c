package config

import "time"

// ProxyConfig defines the injecting reverse proxy
type ProxyConfig struct {
	ListenAddr          string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"required,hostname_port"`
	Upstream            string `json:"upstream,omitempty" yaml:"upstream,omitempty" validate:"required,url"`
	ShutdownTimeoutSecs int    `json:"shutdown_timeout_secs,omitempty" yaml:"shutdown_timeout_secs,omitempty" validate:"omitempty,min=1"`
	// Trust X-Forwarded-Proto when deriving the page protocol.
	TrustForwardedProto bool `json:"trust_forwarded_proto" yaml:"trust_forwarded_proto"`
	EnableMetrics       bool `json:"enable_metrics" yaml:"enable_metrics"`
	// Page hostnames the widget is injected for. Empty allows any Host header.
	AllowedHosts []string `json:"allowed_hosts,omitempty" yaml:"allowed_hosts,omitempty" validate:"omitempty,dive,hostname_rfc1123"`
}

// NewDefaultProxyConfig creates default proxy configuration
func NewDefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		ListenAddr:          DefaultProxyListenAddr,
		Upstream:            DefaultProxyUpstream,
		ShutdownTimeoutSecs: DefaultProxyShutdownTimeout,
		TrustForwardedProto: true,
		EnableMetrics:       true,
	}
}

// ShutdownTimeout returns the graceful shutdown window as a duration
func (c ProxyConfig) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSecs <= 0 {
		return DefaultProxyShutdownTimeout * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}
