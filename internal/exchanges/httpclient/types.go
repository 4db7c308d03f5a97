// Package httpclient 提供交易所REST请求的HTTP传输层，支持重试和令牌桶限频
package httpclient

import (
	"context"
	"time"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
)

// Client HTTP客户端接口
type Client interface {
	adapter.Transport

	// Get 发送GET请求
	Get(ctx context.Context, url string, result interface{}) error

	// DoRequest 发送自定义请求
	DoRequest(ctx context.Context, req *Request) (*Response, error)

	// GetStatus 获取客户端状态
	GetStatus() *Status

	// Close 关闭客户端
	Close() error
}

// Request HTTP请求结构
type Request struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    interface{}       `json:"body"` // string/[]byte 原样发送，其余类型编码为JSON
	Result  interface{}       `json:"-"`    // 不序列化
	Timeout time.Duration     `json:"timeout"`
	Options *RequestOptions   `json:"options"`
}

// RequestOptions 请求选项
type RequestOptions struct {
	Cost          int  `json:"cost"`            // 限频权重，默认1
	SkipRateLimit bool `json:"skip_rate_limit"` // 跳过限频
	NoRetry       bool `json:"no_retry"`        // 禁止重试
	Verbose       bool `json:"verbose"`
}

// Response HTTP响应结构
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
	Duration   time.Duration     `json:"duration"`
}

// Status 客户端状态
type Status struct {
	// 基本信息
	Name        string    `json:"name"`
	Running     bool      `json:"running"`
	LastRequest time.Time `json:"last_request"`

	// 统计信息
	TotalRequests   int64 `json:"total_requests"`
	SuccessRequests int64 `json:"success_requests"`
	FailedRequests  int64 `json:"failed_requests"`
	RetryCount      int64 `json:"retry_count"`

	// 速率限制
	RateLimit *RateLimitStatus `json:"rate_limit"`

	// 错误信息
	LastError string `json:"last_error,omitempty"`
}

// RateLimitStatus 速率限制状态
type RateLimitStatus struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerMinute int     `json:"requests_per_minute"`
	Burst             int     `json:"burst"`
	Tokens            float64 `json:"tokens"` // 当前可用令牌
}

// Config HTTP客户端配置
type Config struct {
	// 基本配置
	Name      string        `yaml:"name" json:"name"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`

	// 重试配置
	Retry *RetryConfig `yaml:"retry" json:"retry"`

	// 速率限制配置
	RateLimit *RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// HTTP传输配置
	Transport *TransportConfig `yaml:"transport" json:"transport"`

	// 调试配置
	Debug bool `yaml:"debug" json:"debug"`
}

// RetryConfig 重试配置
type RetryConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts   int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay  time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	// RetryUnsafe 是否重试非GET请求，下单类请求重试可能导致重复成交
	RetryUnsafe bool `yaml:"retry_unsafe" json:"retry_unsafe"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int  `yaml:"burst" json:"burst"`
}

// TransportConfig HTTP传输配置
type TransportConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host" json:"max_idle_conns_per_host"`
	MaxConnsPerHost       int           `yaml:"max_conns_per_host" json:"max_conns_per_host"`
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout" json:"idle_conn_timeout"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout" json:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" json:"response_header_timeout"`
	DisableKeepAlives     bool          `yaml:"disable_keep_alives" json:"disable_keep_alives"`
	DisableCompression    bool          `yaml:"disable_compression" json:"disable_compression"`
}

// ErrorType 错误类型
type ErrorType int

const (
	// ErrorTypeUnknown 未知错误
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork 网络错误
	ErrorTypeNetwork
	// ErrorTypeTimeout 超时错误
	ErrorTypeTimeout
	// ErrorTypeTLS TLS错误
	ErrorTypeTLS
	// ErrorTypeHTTP HTTP错误
	ErrorTypeHTTP
	// ErrorTypeRateLimit 速率限制错误
	ErrorTypeRateLimit
)

// String 错误类型名称
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeTLS:
		return "tls"
	case ErrorTypeHTTP:
		return "http"
	case ErrorTypeRateLimit:
		return "rate_limit"
	default:
		return "unknown"
	}
}

// HTTPError HTTP错误
type HTTPError struct {
	Type       ErrorType         `json:"type"`
	StatusCode int               `json:"status_code"`
	Message    string            `json:"message"`
	URL        string            `json:"url"`
	Retryable  bool              `json:"retryable"`
	Body       []byte            `json:"-"` // 非2xx响应体，交给适配器分类
	Headers    map[string]string `json:"-"`
	Cause      error             `json:"-"`
}

// Error 实现error接口
func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap 实现errors.Unwrap接口
func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// IsRetryable 判断错误是否可重试
func (e *HTTPError) IsRetryable() bool {
	return e.Retryable
}

// HasResponse 是否收到了HTTP响应
func (e *HTTPError) HasResponse() bool {
	return e.Type == ErrorTypeHTTP && e.StatusCode > 0
}
