package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvToolsRequestTimeout = "ASSAY_TOOLS_REQUEST_TIMEOUT"
	EnvToolsMaxRetries     = "ASSAY_TOOLS_MAX_RETRIES"
	EnvToolsRetryBackoff   = "ASSAY_TOOLS_RETRY_BACKOFF"
)

// ToolsConfig holds HTTP client parameters for external analysis tools
// (counting services and custom webhooks) invoked by pipeline tasks.
type ToolsConfig struct {
	RequestTimeout string `toml:"request_timeout"`
	MaxRetries     int    `toml:"max_retries"`
	RetryBackoff   string `toml:"retry_backoff"`
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *ToolsConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// RetryBackoffDuration returns RetryBackoff as a time.Duration.
func (c *ToolsConfig) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBackoff)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ToolsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ToolsConfig) Merge(overlay *ToolsConfig) {
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
}

func (c *ToolsConfig) loadDefaults() {
	if c.RequestTimeout == "" {
		c.RequestTimeout = "30s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "500ms"
	}
}

func (c *ToolsConfig) loadEnv() {
	if v := os.Getenv(EnvToolsRequestTimeout); v != "" {
		c.RequestTimeout = v
	}
	if v := os.Getenv(EnvToolsMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvToolsRetryBackoff); v != "" {
		c.RetryBackoff = v
	}
}

func (c *ToolsConfig) validate() error {
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryBackoff); err != nil {
		return fmt.Errorf("invalid retry_backoff: %w", err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	return nil
}
