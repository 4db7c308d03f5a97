package httpclient

import (
	"time"
)

// DefaultConfig 返回默认配置
func DefaultConfig(name string) *Config {
	return &Config{
		Name:      name,
		UserAgent: "exchange-normalizer/1.0.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
		RateLimit: DefaultRateLimitConfig(),
		Transport: DefaultTransportConfig(),
		Debug:     false,
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Enabled:       true,
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		BackoffFactor: 2.0,
	}
}

// DefaultRateLimitConfig 返回默认速率限制配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1200, // 默认限制
		Burst:             10,
	}
}

// RateLimitFromInterval 根据请求间隔（毫秒）生成限频配置
func RateLimitFromInterval(intervalMs int) *RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	if intervalMs > 0 {
		cfg.RequestsPerMinute = 60000 / intervalMs
		if cfg.RequestsPerMinute < 1 {
			cfg.RequestsPerMinute = 1
		}
	}
	return cfg
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       15,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}
}

// Validate 验证配置，缺失的部分填充默认值
func (c *Config) Validate() error {
	if c.Name == "" {
		c.Name = "httpclient"
	}

	if c.UserAgent == "" {
		c.UserAgent = "exchange-normalizer/1.0.0"
	}

	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	if c.Retry == nil {
		c.Retry = DefaultRetryConfig()
	}

	if c.RateLimit == nil {
		c.RateLimit = DefaultRateLimitConfig()
	}

	if c.Transport == nil {
		c.Transport = DefaultTransportConfig()
	}

	// 验证重试配置
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = 500 * time.Millisecond
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 8 * time.Second
	}
	if c.Retry.BackoffFactor <= 0 {
		c.Retry.BackoffFactor = 2.0
	}

	// 验证速率限制配置
	if c.RateLimit.RequestsPerMinute < 1 {
		c.RateLimit.RequestsPerMinute = 60
	}
	if c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = 1
	}

	// 验证传输配置
	if c.Transport.MaxIdleConns < 1 {
		c.Transport.MaxIdleConns = 50
	}
	if c.Transport.MaxIdleConnsPerHost < 1 {
		c.Transport.MaxIdleConnsPerHost = 10
	}
	if c.Transport.MaxConnsPerHost < 1 {
		c.Transport.MaxConnsPerHost = 15
	}
	if c.Transport.IdleConnTimeout <= 0 {
		c.Transport.IdleConnTimeout = 60 * time.Second
	}
	if c.Transport.TLSHandshakeTimeout <= 0 {
		c.Transport.TLSHandshakeTimeout = 15 * time.Second
	}
	if c.Transport.ResponseHeaderTimeout <= 0 {
		c.Transport.ResponseHeaderTimeout = 15 * time.Second
	}
	return nil
}

// Merge 合并配置，other 中的非零值覆盖当前配置
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}
	merged := *c
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.UserAgent != "" {
		merged.UserAgent = other.UserAgent
	}
	if other.Timeout > 0 {
		merged.Timeout = other.Timeout
	}
	if other.Retry != nil {
		merged.Retry = other.Retry
	}
	if other.RateLimit != nil {
		merged.RateLimit = other.RateLimit
	}
	if other.Transport != nil {
		merged.Transport = other.Transport
	}
	merged.Debug = c.Debug || other.Debug
	return &merged
}
