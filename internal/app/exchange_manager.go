package app

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/exchanges/ascendex"
	"github.com/mooyang-code/exchange-normalizer/internal/exchanges/btcalpha"
	"github.com/mooyang-code/exchange-normalizer/internal/exchanges/coinspot"
	"github.com/mooyang-code/exchange-normalizer/internal/exchanges/httpclient"
	"github.com/mooyang-code/exchange-normalizer/internal/registry"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// Constructor 适配器构造函数
type Constructor func(cfg adapter.Config) adapter.Exchange

// constructors 支持的交易所
var constructors = map[string]Constructor{
	ascendex.ExchangeID: func(cfg adapter.Config) adapter.Exchange { return ascendex.New(cfg) },
	btcalpha.ExchangeID: func(cfg adapter.Config) adapter.Exchange { return btcalpha.New(cfg) },
	coinspot.ExchangeID: func(cfg adapter.Config) adapter.Exchange { return coinspot.New(cfg) },
}

// Supported 支持的交易所ID，已排序
func Supported() []string {
	ids := make([]string, 0, len(constructors))
	for id := range constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ExchangeManager 按ID管理已配置的适配器
type ExchangeManager struct {
	logger    *zap.Logger
	mu        sync.RWMutex
	exchanges map[string]adapter.Exchange
	clients   map[string]*httpclient.HTTPClient
}

// NewExchangeManager 创建新的交易所管理器
func NewExchangeManager(logger *zap.Logger) *ExchangeManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeManager{
		logger:    logger,
		exchanges: make(map[string]adapter.Exchange),
		clients:   make(map[string]*httpclient.HTTPClient),
	}
}

// Initialize 创建配置中启用的所有交易所
func (em *ExchangeManager) Initialize(config *types.Config) (map[string]adapter.Exchange, error) {
	for _, id := range config.EnabledExchanges() {
		if _, err := em.Add(id, config.Exchanges[id]); err != nil {
			return nil, err
		}
	}
	return em.All(), nil
}

// Add 创建单个交易所适配器
func (em *ExchangeManager) Add(id string, cfg types.ExchangeConfig) (adapter.Exchange, error) {
	newExchange, ok := constructors[id]
	if !ok {
		return nil, fmt.Errorf("unsupported exchange: %s", id)
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	if _, exists := em.exchanges[id]; exists {
		return nil, fmt.Errorf("exchange %s already initialized", id)
	}

	// 默认按交易所声明的请求间隔限频，配置中的非零值覆盖默认值
	defaults := httpclient.DefaultConfig(id)
	defaults.RateLimit = httpclient.RateLimitFromInterval(newExchange(adapter.Config{}).Describe().RateLimit)
	httpConfig := defaults.Merge(cfg.HTTP)
	client, err := httpclient.New(httpConfig, em.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client for %s: %w", id, err)
	}

	ex := newExchange(adapter.Config{
		Credentials: adapter.Credentials{
			APIKey:   cfg.APIKey,
			Secret:   cfg.APISecret,
			Password: cfg.Password,
			UID:      cfg.UID,
		},
		Transport: client,
		Logger:    em.logger,
		Sandbox:   cfg.Sandbox,
		Registry:  registryConfig(cfg.Markets),
	})
	em.exchanges[id] = ex
	em.clients[id] = client

	em.logger.Info("交易所初始化成功",
		zap.String("exchange", id),
		zap.Bool("sandbox", cfg.Sandbox),
		zap.Int("requests_per_minute", httpConfig.RateLimit.RequestsPerMinute))
	return ex, nil
}

// registryConfig 市场配置 -> 标识缓存配置
func registryConfig(markets types.MarketsConfig) registry.Config {
	cfg := registry.DefaultConfig()
	cfg.AutoUpdate = markets.AutoUpdate
	if markets.UpdateInterval > 0 {
		cfg.UpdateInterval = markets.UpdateInterval
	}
	if markets.RetryAttempts > 0 {
		cfg.RetryAttempts = markets.RetryAttempts
	}
	return cfg
}

// Get 获取指定ID的交易所
func (em *ExchangeManager) Get(id string) (adapter.Exchange, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	ex, ok := em.exchanges[id]
	return ex, ok
}

// All 返回所有交易所的副本
func (em *ExchangeManager) All() map[string]adapter.Exchange {
	em.mu.RLock()
	defer em.mu.RUnlock()
	out := make(map[string]adapter.Exchange, len(em.exchanges))
	for id, ex := range em.exchanges {
		out[id] = ex
	}
	return out
}

// ClientStatus HTTP客户端状态
func (em *ExchangeManager) ClientStatus(id string) (*httpclient.Status, bool) {
	em.mu.RLock()
	defer em.mu.RUnlock()
	client, ok := em.clients[id]
	if !ok {
		return nil, false
	}
	return client.GetStatus(), true
}

// Close 关闭所有交易所与HTTP客户端
func (em *ExchangeManager) Close() error {
	em.mu.Lock()
	defer em.mu.Unlock()

	var firstErr error
	for id, ex := range em.exchanges {
		if err := ex.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", id, err)
		}
		if client, ok := em.clients[id]; ok {
			if err := client.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close %s http client: %w", id, err)
			}
		}
	}
	em.exchanges = make(map[string]adapter.Exchange)
	em.clients = make(map[string]*httpclient.HTTPClient)
	return firstErr
}
