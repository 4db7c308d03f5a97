package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// RetryHandler 重试处理器
type RetryHandler struct {
	config *RetryConfig
	name   string
	logger *zap.Logger
}

// NewRetryHandler 创建重试处理器
func NewRetryHandler(config *RetryConfig, name string, logger *zap.Logger) *RetryHandler {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryHandler{
		config: config,
		name:   name,
		logger: logger,
	}
}

// Execute 执行带重试的操作，safe 为 false 时只执行一次
func (r *RetryHandler) Execute(ctx context.Context, safe bool, operation func() error, onRetry func(attempt int, err error)) error {
	if !r.config.Enabled || (!safe && !r.config.RetryUnsafe) {
		return operation()
	}

	return retry.Do(
		operation,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if !IsRetryable(err) {
				r.logger.Debug("不可重试的错误", zap.String("client", r.name), zap.Error(err))
				return false
			}
			return true
		}),
		retry.Attempts(uint(r.config.MaxAttempts)),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(r.config.InitialDelay),
		retry.MaxDelay(r.config.MaxDelay),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("请求失败，准备重试",
				zap.String("client", r.name),
				zap.Uint("attempt", n+1),
				zap.Error(err))

			if onRetry != nil {
				onRetry(int(n+1), err)
			}
		}),
	)
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	return ClassifyError(err).Retryable
}

// ClassifyError 分类传输层错误
func ClassifyError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	classified := &HTTPError{
		Type:    ErrorTypeUnknown,
		Message: "transport error",
		Cause:   err,
	}

	// 调用方取消不重试
	if errors.Is(err, context.Canceled) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		classified.Type = ErrorTypeTimeout
		classified.Retryable = true
		return classified
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		classified.Type = ErrorTypeTimeout
		classified.Retryable = true
		return classified
	}

	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) {
		classified.Type = ErrorTypeTLS
		return classified
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		classified.Type = ErrorTypeNetwork
		classified.Retryable = true
		return classified
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") {
		classified.Type = ErrorTypeNetwork
		classified.Retryable = true
	}
	return classified
}

// NewStatusError 非2xx响应生成的错误，保留响应体
func NewStatusError(resp *Response, url string) *HTTPError {
	e := &HTTPError{
		Type:       ErrorTypeHTTP,
		StatusCode: resp.StatusCode,
		Message:    "unexpected status " + http.StatusText(resp.StatusCode),
		URL:        url,
		Body:       resp.Body,
		Headers:    resp.Headers,
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Retryable = true
	case resp.StatusCode >= 500:
		e.Retryable = true
	}
	return e
}

// IsNetworkError 判断是否为网络错误
func IsNetworkError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Type == ErrorTypeNetwork
}

// IsTimeoutError 判断是否为超时错误
func IsTimeoutError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Type == ErrorTypeTimeout
}

// IsRateLimitError 判断是否为速率限制错误
func IsRateLimitError(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.Type == ErrorTypeRateLimit || httpErr.StatusCode == http.StatusTooManyRequests
}
