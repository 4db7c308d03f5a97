// Package registry 提供市场与币种标识的缓存：原生ID与统一符号的双向映射。
// 缓存以不可变快照的形式整体替换，读操作无锁，刷新失败时保留旧快照。
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// Source 市场与币种数据来源，通常是适配器本身
type Source interface {
	FetchMarkets(ctx context.Context) ([]model.Market, error)
	FetchCurrencies(ctx context.Context) ([]model.Currency, error)
}

// Config 缓存配置
type Config struct {
	RetryAttempts  uint          // 拉取失败的重试次数
	RetryDelay     time.Duration // 首次重试间隔
	MaxRetryDelay  time.Duration // 最大重试间隔
	UpdateInterval time.Duration // 自动刷新间隔
	AutoUpdate     bool          // 是否自动刷新
}

// DefaultConfig 默认缓存配置
func DefaultConfig() Config {
	return Config{
		RetryAttempts:  3,
		RetryDelay:     2 * time.Second,
		MaxRetryDelay:  10 * time.Second,
		UpdateInterval: time.Hour,
	}
}

// snapshot 一次刷新得到的不可变数据
type snapshot struct {
	markets      map[string]model.Market   // 统一符号 -> 市场
	marketsByID  map[string][]model.Market // 原生ID -> 市场（同一ID可能对应多个市场类型）
	currencies   map[string]model.Currency // 统一代码 -> 币种
	currencyByID map[string]model.Currency // 原生ID -> 币种
	symbols      []string
	loadedAt     time.Time
}

// Cache 标识缓存
type Cache struct {
	exchange string
	logger   *zap.Logger
	config   Config
	aliases  map[string]string // 币种别名，原生代码(大写) -> 统一代码
	aliasIDs map[string]string // 统一代码 -> 原生代码，多个原生代码时取字典序最小者
	networks networkTable

	current  atomic.Pointer[snapshot]
	writeMu  sync.Mutex // 串行化写入
	refreshN atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// Option 缓存选项
type Option func(*Cache)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAliases 设置币种别名表
func WithAliases(aliases map[string]string) Option {
	return func(c *Cache) {
		for k, v := range aliases {
			c.aliases[upper(k)] = v
		}
	}
}

// WithNetworks 设置链代码覆盖表（统一代码 -> 交易所链ID）
func WithNetworks(networks map[string]string) Option {
	return func(c *Cache) {
		c.networks = newNetworkTable(networks)
	}
}

// WithConfig 设置缓存配置
func WithConfig(config Config) Option {
	return func(c *Cache) {
		c.config = config
	}
}

// New 创建标识缓存
func New(exchange string, opts ...Option) *Cache {
	c := &Cache{
		exchange: exchange,
		logger:   zap.NewNop(),
		config:   DefaultConfig(),
		aliases:  make(map[string]string),
		networks: newNetworkTable(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.aliasIDs = invertAliases(c.aliases)
	return c
}

// invertAliases 构建反向别名表，遍历顺序固定
func invertAliases(aliases map[string]string) map[string]string {
	ids := make([]string, 0, len(aliases))
	for id := range aliases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if _, ok := out[aliases[id]]; !ok {
			out[aliases[id]] = id
		}
	}
	return out
}

// Refresh 校验并原子替换快照。校验失败时保留旧快照
func (c *Cache) Refresh(markets []model.Market, currencies []model.Currency) error {
	snap, err := c.build(markets, currencies)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	c.current.Store(snap)
	c.writeMu.Unlock()
	c.refreshN.Add(1)

	c.logger.Info("标识缓存刷新成功",
		zap.String("exchange", c.exchange),
		zap.Int("markets", len(snap.markets)),
		zap.Int("currencies", len(snap.currencies)))
	return nil
}

// build 构建新快照
func (c *Cache) build(markets []model.Market, currencies []model.Currency) (*snapshot, error) {
	snap := &snapshot{
		markets:      make(map[string]model.Market, len(markets)),
		marketsByID:  make(map[string][]model.Market, len(markets)),
		currencies:   make(map[string]model.Currency, len(currencies)),
		currencyByID: make(map[string]model.Currency, len(currencies)),
		loadedAt:     time.Now(),
	}
	for _, m := range markets {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", c.exchange, err)
		}
		if _, dup := snap.markets[m.Symbol]; dup {
			return nil, fmt.Errorf("%s: 重复的市场符号 %s", c.exchange, m.Symbol)
		}
		snap.markets[m.Symbol] = m
		snap.marketsByID[m.ID] = append(snap.marketsByID[m.ID], m)
		snap.symbols = append(snap.symbols, m.Symbol)
	}
	for _, cur := range currencies {
		if cur.Code == "" {
			return nil, fmt.Errorf("%s: 币种 %q 缺少统一代码", c.exchange, cur.ID)
		}
		if _, dup := snap.currencies[cur.Code]; dup {
			return nil, fmt.Errorf("%s: 重复的币种代码 %s", c.exchange, cur.Code)
		}
		snap.currencies[cur.Code] = cur
		if cur.ID != "" {
			snap.currencyByID[cur.ID] = cur
		}
	}
	if len(currencies) == 0 {
		deriveCurrencies(snap, markets)
	}
	sort.Strings(snap.symbols)
	return snap, nil
}

// Reload 并发拉取市场和币种，任一失败则整体失败并保留旧快照
func (c *Cache) Reload(ctx context.Context, src Source) error {
	var (
		markets    []model.Market
		currencies []model.Currency
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.withRetry(gctx, "markets", func() (err error) {
			markets, err = src.FetchMarkets(gctx)
			return err
		})
	})
	g.Go(func() error {
		return c.withRetry(gctx, "currencies", func() (err error) {
			currencies, err = src.FetchCurrencies(gctx)
			if taxonomy.KindOf(err) == taxonomy.NotSupported {
				// 不提供币种接口的交易所只用别名表
				currencies, err = nil, nil
			}
			return err
		})
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("标识缓存刷新失败，保留旧数据",
			zap.String("exchange", c.exchange),
			zap.Error(err))
		return err
	}
	return c.Refresh(markets, currencies)
}

// withRetry 对可重试错误按退避重试
func (c *Cache) withRetry(ctx context.Context, what string, fn func() error) error {
	attempts := c.config.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	return retry.Do(
		fn,
		retry.Attempts(attempts),
		retry.Delay(c.config.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(c.config.MaxRetryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(taxonomy.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("重试拉取标识数据",
				zap.String("exchange", c.exchange),
				zap.String("what", what),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
	)
}

// Start 首次加载并按配置启动自动刷新。
// ctx 只约束首次加载；自动刷新循环独立于 ctx，由 Stop 结束
func (c *Cache) Start(ctx context.Context, src Source) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("%s: 标识缓存已在运行", c.exchange)
	}
	c.mu.Unlock()

	if err := c.Reload(ctx, src); err != nil {
		return fmt.Errorf("初始化标识缓存失败: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.running = true
	c.mu.Unlock()

	if c.config.AutoUpdate && c.config.UpdateInterval > 0 {
		go c.autoUpdateLoop(loopCtx, src)
	}
	return nil
}

// Stop 停止自动刷新
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.cancel()
	c.running = false
}

// autoUpdateLoop 自动刷新循环
func (c *Cache) autoUpdateLoop(ctx context.Context, src Source) {
	ticker := time.NewTicker(c.config.UpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Reload(ctx, src); err != nil {
				c.logger.Error("自动刷新标识缓存失败", zap.String("exchange", c.exchange), zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Populated 是否已加载
func (c *Cache) Populated() bool {
	return c.current.Load() != nil
}

// ResolveSymbol 原生ID -> 市场。多个市场共用同一ID时可传入类型提示
func (c *Cache) ResolveSymbol(id string, hint ...model.MarketType) (model.Market, error) {
	snap := c.current.Load()
	if snap == nil {
		return model.Market{}, &UnknownMarketError{Exchange: c.exchange, ID: id}
	}
	candidates := snap.marketsByID[id]
	if len(candidates) == 0 {
		return model.Market{}, &UnknownMarketError{Exchange: c.exchange, ID: id}
	}
	if len(hint) > 0 && hint[0] != "" {
		for _, m := range candidates {
			if m.Type == hint[0] {
				return m, nil
			}
		}
	}
	return candidates[0], nil
}

// StrictSymbol 解析交易所返回的市场标识，只接受能落到已加载市场的结果：
// 原生ID、统一符号，或按分隔符拆分后转换币种得到的统一符号
func (c *Cache) StrictSymbol(id, delimiter string, hint ...model.MarketType) (string, error) {
	if m, err := c.ResolveSymbol(id, hint...); err == nil {
		return m.Symbol, nil
	}
	if id != "" {
		if m, err := c.Market(id); err == nil {
			return m.Symbol, nil
		}
	}
	if delimiter != "" {
		if parts := strings.Split(id, delimiter); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			symbol := model.BuildSymbol(c.ResolveCurrencyCode(parts[0]), c.ResolveCurrencyCode(parts[1]), "")
			if m, err := c.Market(symbol); err == nil {
				return m.Symbol, nil
			}
		}
	}
	return "", &UnknownMarketError{Exchange: c.exchange, ID: id}
}

// Market 统一符号 -> 市场
func (c *Cache) Market(symbol string) (model.Market, error) {
	if snap := c.current.Load(); snap != nil {
		if m, ok := snap.markets[symbol]; ok {
			return m, nil
		}
	}
	return model.Market{}, taxonomy.Newf(taxonomy.BadSymbol, c.exchange, "does not have market symbol %s", symbol)
}

// ResolveCurrencyCode 原生币种ID -> 统一代码：先查快照，再查别名表，最后转为大写
func (c *Cache) ResolveCurrencyCode(id string) string {
	if id == "" {
		return ""
	}
	if snap := c.current.Load(); snap != nil {
		if cur, ok := snap.currencyByID[id]; ok {
			return cur.Code
		}
	}
	code := upper(id)
	if alias, ok := c.aliases[code]; ok {
		return alias
	}
	return code
}

// Currency 统一代码 -> 币种
func (c *Cache) Currency(code string) (model.Currency, bool) {
	if snap := c.current.Load(); snap != nil {
		cur, ok := snap.currencies[code]
		return cur, ok
	}
	return model.Currency{}, false
}

// CurrencyID 统一代码 -> 原生ID，未知时原样返回
func (c *Cache) CurrencyID(code string) string {
	if cur, ok := c.Currency(code); ok && cur.ID != "" {
		return cur.ID
	}
	if id, ok := c.aliasIDs[code]; ok {
		return id
	}
	return code
}

// NetworkCodeToID 统一链代码 -> 交易所链ID
func (c *Cache) NetworkCodeToID(code, currencyCode string) string {
	return c.networks.codeToID(code, currencyCode)
}

// NetworkIDToCode 交易所链ID -> 统一链代码
func (c *Cache) NetworkIDToCode(id, currencyCode string) string {
	return c.networks.idToCode(id, currencyCode)
}

// Markets 按符号排序的全部市场
func (c *Cache) Markets() []model.Market {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]model.Market, 0, len(snap.symbols))
	for _, s := range snap.symbols {
		out = append(out, snap.markets[s])
	}
	return out
}

// Symbols 按序排列的全部统一符号
func (c *Cache) Symbols() []string {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	return append([]string(nil), snap.symbols...)
}

// Currencies 全部币种
func (c *Cache) Currencies() []model.Currency {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	codes := make([]string, 0, len(snap.currencies))
	for code := range snap.currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]model.Currency, 0, len(codes))
	for _, code := range codes {
		out = append(out, snap.currencies[code])
	}
	return out
}

// Stats 缓存统计信息
func (c *Cache) Stats() map[string]interface{} {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	stats := map[string]interface{}{
		"exchange":    c.exchange,
		"running":     running,
		"auto_update": c.config.AutoUpdate,
		"refreshes":   c.refreshN.Load(),
		"populated":   false,
	}
	if snap := c.current.Load(); snap != nil {
		stats["populated"] = true
		stats["markets"] = len(snap.markets)
		stats["currencies"] = len(snap.currencies)
		stats["loaded_at"] = snap.loadedAt
		stats["age"] = time.Since(snap.loadedAt).String()
	}
	return stats
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// deriveCurrencies 交易所不提供币种接口时，从市场的基础币、计价币和结算币推导币种
func deriveCurrencies(snap *snapshot, markets []model.Market) {
	add := func(id, code string) {
		if code == "" {
			return
		}
		if id == "" {
			id = code
		}
		if _, ok := snap.currencies[code]; ok {
			return
		}
		cur := model.Currency{ID: id, Code: code, Active: true}
		snap.currencies[code] = cur
		snap.currencyByID[id] = cur
	}
	for _, m := range markets {
		add(m.BaseID, m.Base)
		add(m.QuoteID, m.Quote)
		add(m.SettleID, m.Settle)
	}
}
