// Package app 组装交易所、调度器与监控服务
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/registry"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// loadMarketsTimeout 单个交易所首次加载市场的超时
const loadMarketsTimeout = 30 * time.Second

// SystemInitializer 系统初始化器
type SystemInitializer struct {
	logger   *zap.Logger
	config   *types.Config
	manager  *ExchangeManager
	attempts uint
	delay    time.Duration
}

// NewSystemInitializer 创建新的系统初始化器
func NewSystemInitializer(logger *zap.Logger, config *types.Config) *SystemInitializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemInitializer{
		logger:   logger,
		config:   config,
		manager:  NewExchangeManager(logger),
		attempts: 3,
		delay:    time.Second,
	}
}

// InitializeSystem 创建交易所并加载市场
func (si *SystemInitializer) InitializeSystem(ctx context.Context) (*SystemComponents, error) {
	si.logger.Info("开始系统初始化...")

	exchanges, err := si.manager.Initialize(si.config)
	if err != nil {
		_ = si.manager.Close()
		return nil, fmt.Errorf("交易所初始化失败: %w", err)
	}

	for _, id := range si.config.EnabledExchanges() {
		cfg := si.config.Exchanges[id]
		if !cfg.Markets.LoadOnStart {
			continue
		}
		if err := si.startMarkets(ctx, exchanges[id], cfg.Markets); err != nil {
			_ = si.manager.Close()
			return nil, err
		}
	}

	components := &SystemComponents{
		Exchanges: exchanges,
		Manager:   si.manager,
		Logger:    si.logger,
		Config:    si.config,
		started:   time.Now(),
	}
	si.logger.Info("系统初始化完成", zap.Int("exchanges_count", len(exchanges)))
	return components, nil
}

// startMarkets 首次加载市场，网络错误时重试，按配置可跳过
func (si *SystemInitializer) startMarkets(ctx context.Context, ex adapter.Exchange, cfg types.MarketsConfig) error {
	logger := si.logger.With(zap.String("exchange", ex.ID()))
	logger.Info("加载市场...")

	err := retry.Do(
		func() error {
			loadCtx, cancel := context.WithTimeout(ctx, loadMarketsTimeout)
			defer cancel()
			return ex.Start(loadCtx)
		},
		retry.Attempts(si.attempts),
		retry.Delay(si.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(taxonomy.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("加载市场重试", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err == nil {
		logger.Info("市场加载完成")
		return nil
	}
	if cfg.SkipOnNetworkError && taxonomy.IsRetryable(err) {
		logger.Warn("加载市场失败，配置允许跳过网络错误，继续启动...", zap.Error(err))
		return nil
	}
	return fmt.Errorf("加载 %s 市场失败: %w", ex.ID(), err)
}

// SystemComponents 系统组件
type SystemComponents struct {
	Exchanges map[string]adapter.Exchange
	Manager   *ExchangeManager
	Logger    *zap.Logger
	Config    *types.Config
	started   time.Time
}

// Sources 调度器使用的数据源
func (sc *SystemComponents) Sources() map[string]types.MarketSource {
	out := make(map[string]types.MarketSource, len(sc.Exchanges))
	for id, ex := range sc.Exchanges {
		out[id] = ex
	}
	return out
}

// Shutdown 关闭系统组件
func (sc *SystemComponents) Shutdown() error {
	sc.Logger.Info("正在关闭系统组件...")
	if err := sc.Manager.Close(); err != nil {
		sc.Logger.Error("关闭交易所失败", zap.Error(err))
		return err
	}
	sc.Logger.Info("系统关闭完成")
	return nil
}

// GetExchange 获取指定ID的交易所
func (sc *SystemComponents) GetExchange(id string) (adapter.Exchange, bool) {
	ex, ok := sc.Exchanges[id]
	return ex, ok
}

// Ready 所有交易所的市场均已加载
func (sc *SystemComponents) Ready() bool {
	for _, ex := range sc.Exchanges {
		if !marketsLoaded(ex) {
			return false
		}
	}
	return true
}

// registryHolder 可取得标识缓存的适配器
type registryHolder interface {
	Registry() *registry.Cache
}

func marketsLoaded(ex adapter.Exchange) bool {
	holder, ok := ex.(registryHolder)
	return ok && holder.Registry().Populated()
}

// GetSystemStatus 获取系统状态
func (sc *SystemComponents) GetSystemStatus() map[string]interface{} {
	exchangeStatus := make(map[string]interface{}, len(sc.Exchanges))
	for id, ex := range sc.Exchanges {
		desc := ex.Describe()
		info := map[string]interface{}{
			"name":           desc.Name,
			"version":        desc.Version,
			"markets_loaded": marketsLoaded(ex),
		}
		if holder, ok := ex.(registryHolder); ok {
			info["registry"] = holder.Registry().Stats()
		}
		if status, ok := sc.Manager.ClientStatus(id); ok {
			info["http"] = status
		}
		exchangeStatus[id] = info
	}

	return map[string]interface{}{
		"exchanges": exchangeStatus,
		"system": map[string]interface{}{
			"initialized": true,
			"ready":       sc.Ready(),
			"uptime":      time.Since(sc.started).String(),
			"timestamp":   time.Now(),
		},
	}
}
