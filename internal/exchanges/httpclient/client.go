package httpclient

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPClient HTTP客户端实现
type HTTPClient struct {
	config       *Config
	httpClient   *http.Client
	retryHandler *RetryHandler
	limiter      *rate.Limiter
	logger       *zap.Logger

	// 状态管理
	mu      sync.RWMutex
	running bool

	// 统计信息
	stats struct {
		totalRequests   int64
		successRequests int64
		failedRequests  int64
		retryCount      int64
		lastRequest     time.Time
		lastError       string
	}
}

var _ Client = (*HTTPClient)(nil)

// New 创建新的HTTP客户端
func New(config *Config, logger *zap.Logger) (*HTTPClient, error) {
	if config == nil {
		config = DefaultConfig("httpclient")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("httpclient").With(zap.String("client", config.Name))

	client := &HTTPClient{
		config:         config,
		running:        true,
		logger:         logger,
	}

	client.initHTTPClient()
	client.retryHandler = NewRetryHandler(config.Retry, config.Name, logger)
	client.initRateLimit()

	logger.Info("HTTP客户端初始化完成",
		zap.Duration("timeout", config.Timeout),
		zap.Int("requests_per_minute", config.RateLimit.RequestsPerMinute))
	return client, nil
}

// initHTTPClient 初始化HTTP客户端
func (c *HTTPClient) initHTTPClient() {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          c.config.Transport.MaxIdleConns,
		MaxIdleConnsPerHost:   c.config.Transport.MaxIdleConnsPerHost,
		MaxConnsPerHost:       c.config.Transport.MaxConnsPerHost,
		IdleConnTimeout:       c.config.Transport.IdleConnTimeout,
		TLSHandshakeTimeout:   c.config.Transport.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.config.Transport.ResponseHeaderTimeout,
		DisableKeepAlives:     c.config.Transport.DisableKeepAlives,
		DisableCompression:    c.config.Transport.DisableCompression,
		ForceAttemptHTTP2:     false, // 使用HTTP/1.1更稳定
	}

	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.config.Timeout,
	}
}

// initRateLimit 初始化令牌桶
func (c *HTTPClient) initRateLimit() {
	if !c.config.RateLimit.Enabled {
		return
	}
	perSecond := rate.Limit(float64(c.config.RateLimit.RequestsPerMinute) / 60)
	c.limiter = rate.NewLimiter(perSecond, c.config.RateLimit.Burst)
}

// Get 发送GET请求，结果按JSON解码到 result
func (c *HTTPClient) Get(ctx context.Context, url string, result interface{}) error {
	req := &Request{
		Method: http.MethodGet,
		URL:    url,
		Result: result,
	}
	_, err := c.DoRequest(ctx, req)
	return err
}

// GetStatus 获取客户端状态
func (c *HTTPClient) GetStatus() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &Status{
		Name:            c.config.Name,
		Running:         c.running,
		LastRequest:     c.stats.lastRequest,
		TotalRequests:   atomic.LoadInt64(&c.stats.totalRequests),
		SuccessRequests: atomic.LoadInt64(&c.stats.successRequests),
		FailedRequests:  atomic.LoadInt64(&c.stats.failedRequests),
		RetryCount:      atomic.LoadInt64(&c.stats.retryCount),
		LastError:       c.stats.lastError,
		RateLimit: &RateLimitStatus{
			Enabled:           c.limiter != nil,
			RequestsPerMinute: c.config.RateLimit.RequestsPerMinute,
			Burst:             c.config.RateLimit.Burst,
		},
	}
	if c.limiter != nil {
		status.RateLimit.Tokens = c.limiter.Tokens()
	}
	return status
}

// Close 关闭客户端
func (c *HTTPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	c.httpClient.CloseIdleConnections()
	c.logger.Info("HTTP客户端已关闭")
	return nil
}

func (c *HTTPClient) isRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *HTTPClient) recordResult(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.lastRequest = time.Now()
	if err != nil {
		atomic.AddInt64(&c.stats.failedRequests, 1)
		c.stats.lastError = err.Error()
		return
	}
	atomic.AddInt64(&c.stats.successRequests, 1)
}
