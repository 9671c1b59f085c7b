// Package httpclient provides the HTTP client shared by every provider.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// DefaultTimeout bounds a whole streaming call, from dial to the last byte.
const DefaultTimeout = 300 * time.Second

// TimeoutEnv overrides DefaultTimeout. Values are seconds or Go durations.
const TimeoutEnv = "PIPELLM_HTTP_TIMEOUT"

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// Timeout is the single end-to-end limit for a request, including
	// reading the streamed body. There is no per-fragment idle timeout.
	Timeout time.Duration

	// DialTimeout is the maximum amount of time a dial will wait for a connect to complete
	DialTimeout time.Duration

	// KeepAlive specifies the interval between keep-alive probes for an active network connection
	KeepAlive time.Duration

	// TLSHandshakeTimeout specifies the maximum amount of time to wait for a TLS handshake
	TLSHandshakeTimeout time.Duration
}

// ParseDuration accepts either plain integers (interpreted as seconds) or Go
// duration strings (e.g., "10m", "1h30m").
func ParseDuration(val string) (time.Duration, bool) {
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d, true
	}
	return 0, false
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, ok := ParseDuration(val); ok && d > 0 {
		return d
	}
	return defaultVal
}

// DefaultConfig returns a ClientConfig with the 300 second end-to-end
// timeout, overridable through PIPELLM_HTTP_TIMEOUT.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:             getEnvDuration(TimeoutEnv, DefaultTimeout),
		DialTimeout:         30 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// If config is nil, DefaultConfig() is used.
func NewHTTPClient(config *ClientConfig) *http.Client {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:          1,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}

// NewWithTimeout creates a client whose end-to-end timeout is timeout, or
// the default when timeout is not positive.
func NewWithTimeout(timeout time.Duration) *http.Client {
	cfg := DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return NewHTTPClient(&cfg)
}
