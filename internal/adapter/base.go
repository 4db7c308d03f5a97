// Package adapter 定义交易所适配器的通用契约：描述元数据、构建签名请求、解析响应、映射错误。
// 具体交易所只需实现 Dialect，并嵌入 Base 获得请求执行、标识缓存和默认的不支持实现。
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/metrics"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/registry"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// Dialect 交易所方言：每个交易所各自实现
type Dialect interface {
	// Describe 返回独立的描述副本
	Describe() *Descriptor
	// BuildRequest 解析符号、校验参数并签名，给定时钟与nonce时结果确定
	BuildRequest(op Operation, args Args) (*SignedRequest, error)
	// ClassifyError 根据响应判断错误，成功时返回nil
	ClassifyError(status int, body []byte) error

	registry.Source
}

// Config 适配器运行配置
type Config struct {
	Credentials Credentials
	Transport   Transport
	Logger      *zap.Logger
	Sandbox     bool
	Clock       func() time.Time
	Registry    registry.Config
}

// Base 适配器公共运行时
type Base struct {
	self      Dialect
	desc      *Descriptor
	creds     Credentials
	transport Transport
	logger    *zap.Logger
	registry  *registry.Cache
	nonce     *Nonce
	clock     func() time.Time
	session   *Session
	sandbox   bool
}

// NewBase 创建公共运行时，self 为嵌入它的具体适配器
func NewBase(self Dialect, cfg Config) *Base {
	desc := self.Describe()
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(desc.ID)
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Base{
		self:      self,
		desc:      desc,
		creds:     cfg.Credentials,
		transport: cfg.Transport,
		logger:    logger,
		registry: registry.New(desc.ID,
			registry.WithLogger(logger),
			registry.WithAliases(desc.CommonCurrencies),
			registry.WithNetworks(desc.Networks),
			registry.WithConfig(cfg.Registry)),
		nonce:   NewNonce(clock),
		clock:   clock,
		session: &Session{},
		sandbox: cfg.Sandbox,
	}
}

// ID 交易所ID
func (b *Base) ID() string { return b.desc.ID }

// Descriptor 运行时使用的描述（只读）
func (b *Base) Descriptor() *Descriptor { return b.desc }

// Registry 标识缓存
func (b *Base) Registry() *registry.Cache { return b.registry }

// Logger 日志记录器
func (b *Base) Logger() *zap.Logger { return b.logger }

// SetLogger 设置日志记录器
func (b *Base) SetLogger(logger *zap.Logger) {
	if logger != nil {
		b.logger = logger.Named(b.desc.ID)
	}
}

// Session 会话状态
func (b *Base) Session() *Session { return b.session }

// Credentials 凭证
func (b *Base) Credentials() Credentials { return b.creds }

// CheckCredentials 私有接口调用前检查凭证
func (b *Base) CheckCredentials() error {
	return b.creds.Check(b.desc.ID, b.desc.RequiredCredentials)
}

// Nonce 严格递增的毫秒nonce
func (b *Base) Nonce() int64 { return b.nonce.Next() }

// Milliseconds 当前毫秒时间
func (b *Base) Milliseconds() int64 { return b.clock().UnixMilli() }

// URL 接口分组的基础地址，沙盒模式优先使用测试网
func (b *Base) URL(group string) string {
	if b.sandbox {
		if u, ok := b.desc.URLs.Test[group]; ok {
			return u
		}
	}
	return b.desc.URLs.API[group]
}

// Market 统一符号 -> 市场，缓存未加载时返回 BadSymbol
func (b *Base) Market(symbol string) (model.Market, error) {
	return b.registry.Market(symbol)
}

// LoadMarkets 加载标识缓存，reload 为 false 且已加载时直接返回
func (b *Base) LoadMarkets(ctx context.Context, reload bool) error {
	if !reload && b.registry.Populated() {
		return nil
	}
	err := b.registry.Reload(ctx, b.self)
	metrics.ObserveCacheRefresh(b.desc.ID, len(b.registry.Symbols()), err)
	return err
}

// Start 首次加载市场，按配置启动自动刷新
func (b *Base) Start(ctx context.Context) error {
	err := b.registry.Start(ctx, b.self)
	metrics.ObserveCacheRefresh(b.desc.ID, len(b.registry.Symbols()), err)
	return err
}

// Request 执行一次完整的请求：构建签名请求 -> 传输 -> 错误分类 -> 解码
func (b *Base) Request(ctx context.Context, op Operation, args Args) (interface{}, error) {
	req, err := b.self.BuildRequest(op, args)
	if err != nil {
		return nil, err
	}
	if b.transport == nil {
		return nil, taxonomy.New(taxonomy.NetworkError, b.desc.ID, "no transport configured")
	}

	start := time.Now()
	b.logger.Debug("发送请求",
		zap.String("operation", string(op)),
		zap.String("method", req.Method),
		zap.String("url", req.URL))

	result, err := b.execute(ctx, req)
	metrics.ObserveRequest(b.desc.ID, string(op), time.Since(start), string(taxonomy.KindOf(err)))
	if err != nil {
		b.logger.Warn("请求失败",
			zap.String("operation", string(op)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (b *Base) execute(ctx context.Context, req *SignedRequest) (interface{}, error) {
	reply, err := b.transport.Execute(ctx, req)
	if err != nil {
		if taxonomy.KindOf(err) != "" {
			return nil, err
		}
		return nil, taxonomy.Wrap(taxonomy.NetworkError, b.desc.ID, err, req.Method+" "+req.URL)
	}
	if err := b.self.ClassifyError(reply.StatusCode, reply.Body); err != nil {
		return nil, err
	}
	if err := b.classifyStatus(reply); err != nil {
		return nil, err
	}
	result, err := Decode(reply.Body)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.ExchangeError, b.desc.ID, err, "malformed response")
	}
	return result, nil
}

// classifyStatus 方言无法识别的非2xx响应
func (b *Base) classifyStatus(reply *Reply) error {
	if reply.StatusCode >= 200 && reply.StatusCode < 300 {
		return nil
	}
	body := string(reply.Body)
	if len(body) > 256 {
		body = body[:256]
	}
	code := fmt.Sprint(reply.StatusCode)
	switch reply.StatusCode {
	case http.StatusTooManyRequests:
		return taxonomy.WithCode(taxonomy.RateLimitExceeded, b.desc.ID, code, body)
	case http.StatusUnauthorized:
		return taxonomy.WithCode(taxonomy.AuthenticationError, b.desc.ID, code, body)
	case http.StatusForbidden:
		return taxonomy.WithCode(taxonomy.PermissionDenied, b.desc.ID, code, body)
	default:
		return taxonomy.WithCode(taxonomy.NetworkError, b.desc.ID, code, body)
	}
}

// ClassifyBody 通用的错误判定：读取候选错误码和消息，两个指标都表示成功时才算成功
func (b *Base) ClassifyBody(body []byte, codeKeys, messageKeys []string) error {
	code, message := taxonomy.Peek(body, codeKeys, messageKeys)
	if taxonomy.IsSuccess(code, message) {
		return nil
	}
	return b.desc.Exceptions.Classify(b.desc.ID, code, message)
}

// Close 停止缓存刷新
func (b *Base) Close() error {
	b.registry.Stop()
	return nil
}

// Session 显式生命周期的会话状态，例如账户组。Ensure 加载，Reset 失效
type Session struct {
	mu     sync.Mutex
	values map[string]string
	loaded bool
}

// Ensure 未加载时调用 load 加载，并发调用只加载一次
func (s *Session) Ensure(ctx context.Context, load func(ctx context.Context) (map[string]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	values, err := load(ctx)
	if err != nil {
		return err
	}
	s.values = values
	s.loaded = true
	return nil
}

// Get 读取会话值
func (s *Session) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Loaded 是否已加载
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Reset 使会话失效，下次 Ensure 时重新加载
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = nil
	s.loaded = false
}
