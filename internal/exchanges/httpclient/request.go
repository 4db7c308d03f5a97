package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
)

// Execute 实现 adapter.Transport：非2xx响应同样以 Reply 返回，只有传输失败才返回错误
func (c *HTTPClient) Execute(ctx context.Context, req *adapter.SignedRequest) (*adapter.Reply, error) {
	r := &Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Options: &RequestOptions{Cost: req.Cost},
	}
	if req.Body != "" {
		r.Body = req.Body
	}

	resp, err := c.DoRequest(ctx, r)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.HasResponse() {
			return &adapter.Reply{StatusCode: httpErr.StatusCode, Body: httpErr.Body, Headers: httpErr.Headers}, nil
		}
		return nil, err
	}
	return &adapter.Reply{StatusCode: resp.StatusCode, Body: resp.Body, Headers: resp.Headers}, nil
}

// DoRequest 发送自定义请求
func (c *HTTPClient) DoRequest(ctx context.Context, req *Request) (*Response, error) {
	if !c.isRunning() {
		return nil, errors.Errorf("client '%s' is not running", c.config.Name)
	}

	opts := req.Options
	if opts == nil {
		opts = &RequestOptions{}
	}
	if !opts.SkipRateLimit {
		if err := c.waitRateLimit(ctx, opts.Cost); err != nil {
			return nil, err
		}
	}

	atomic.AddInt64(&c.stats.totalRequests, 1)

	var response *Response
	safe := !opts.NoRetry && (req.Method == "" || req.Method == http.MethodGet)
	err := c.retryHandler.Execute(ctx, safe, func() error {
		resp, err := c.doHTTPRequest(ctx, req)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}, func(attempt int, err error) {
		atomic.AddInt64(&c.stats.retryCount, 1)
	})

	c.recordResult(err)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// doHTTPRequest 执行实际的HTTP请求
func (c *HTTPClient) doHTTPRequest(ctx context.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	bodyBytes, err := encodeBody(req.Body)
	if err != nil {
		return nil, &HTTPError{Type: ErrorTypeUnknown, Message: "failed to encode request body", URL: req.URL, Cause: err}
	}
	var bodyReader io.Reader
	if bodyBytes != nil {
		bodyReader = bytes.NewReader(bodyBytes)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, &HTTPError{Type: ErrorTypeUnknown, Message: "failed to create request", URL: req.URL, Cause: err}
	}
	c.setRequestHeaders(httpReq, req, bodyBytes != nil)

	if c.config.Debug || (req.Options != nil && req.Options.Verbose) {
		c.logger.Debug("发送HTTP请求", zap.String("method", method), zap.String("url", req.URL))
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := ClassifyError(err)
		classified.URL = req.URL
		return nil, classified
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &HTTPError{Type: ErrorTypeNetwork, Message: "failed to read response body", URL: req.URL, Retryable: true, Cause: err}
	}

	response := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    make(map[string]string, len(httpResp.Header)),
		Body:       respBody,
		Duration:   time.Since(startTime),
	}
	for key, values := range httpResp.Header {
		if len(values) > 0 {
			response.Headers[key] = values[0]
		}
	}

	if c.config.Debug {
		c.logger.Debug("收到HTTP响应",
			zap.Int("status", response.StatusCode),
			zap.Duration("duration", response.Duration))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, NewStatusError(response, req.URL)
	}

	if req.Result != nil && len(respBody) > 0 {
		if err := sonic.Unmarshal(respBody, req.Result); err != nil {
			return nil, &HTTPError{Type: ErrorTypeUnknown, StatusCode: httpResp.StatusCode, Message: "failed to unmarshal response", URL: req.URL, Cause: err}
		}
	}
	return response, nil
}

// encodeBody string 和 []byte 原样发送，其余类型编码为JSON
func encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return sonic.Marshal(v)
	}
}

// setRequestHeaders 设置请求头
func (c *HTTPClient) setRequestHeaders(httpReq *http.Request, req *Request, hasBody bool) {
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if hasBody && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
}

// waitRateLimit 按权重等待令牌
func (c *HTTPClient) waitRateLimit(ctx context.Context, cost int) error {
	if c.limiter == nil {
		return nil
	}
	if cost < 1 {
		cost = 1
	}
	if burst := c.limiter.Burst(); cost > burst {
		cost = burst
	}
	if err := c.limiter.WaitN(ctx, cost); err != nil {
		return &HTTPError{Type: ErrorTypeRateLimit, Message: "rate limit wait aborted", Cause: err}
	}
	return nil
}
