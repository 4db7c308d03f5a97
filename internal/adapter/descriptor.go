package adapter

import (
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// Capabilities 适配器能力，字段固定
type Capabilities struct {
	// 市场类型
	Spot   bool
	Margin bool
	Swap   bool
	Future bool
	Option bool

	// 公共接口
	FetchMarkets    bool
	FetchCurrencies bool
	FetchTicker     bool
	FetchTickers    bool
	FetchOrderBook  bool
	FetchTrades     bool
	FetchOHLCV      bool
	FetchTime       bool

	// 交易接口
	FetchBalance      bool
	FetchTradingFees  bool
	CreateOrder       bool
	CreateOrders      bool
	CancelOrder       bool
	CancelAllOrders   bool
	FetchOrder        bool
	FetchOrders       bool
	FetchOpenOrders   bool
	FetchClosedOrders bool
	FetchMyTrades     bool

	// 资金接口
	FetchDeposits            bool
	FetchWithdrawals         bool
	FetchDepositsWithdrawals bool
	FetchDepositAddress      bool
	FetchDepositWithdrawFees bool
	Transfer                 bool

	// 合约接口
	FetchPositions      bool
	FetchFundingRate    bool
	FetchFundingRates   bool
	FetchFundingHistory bool
	FetchLeverage       bool
	FetchLeverages      bool
	SetLeverage         bool
	FetchMarginMode     bool
	FetchMarginModes    bool
	SetMarginMode       bool
	FetchLeverageTiers  bool
	AddMargin           bool
	ReduceMargin        bool
}

// URLs 接口地址
type URLs struct {
	API  map[string]string // 接口分组 -> 基础地址
	Test map[string]string // 测试网
	WWW  string
	Doc  string
}

// TradingFees 默认交易费率
type TradingFees struct {
	Maker      string
	Taker      string
	Percentage bool
	TierBased  bool
}

// RequiredCredentials 私有接口需要的凭证
type RequiredCredentials struct {
	APIKey   bool
	Secret   bool
	UID      bool
	Password bool
}

// PrecisionMode 市场精度的表达方式
type PrecisionMode = precise.CountingMode

// Descriptor 适配器元数据。每次构建得到独立的副本，适配器之间不共享可变状态
type Descriptor struct {
	ID                  string
	Name                string
	Version             string
	RateLimit           int // 请求间隔，毫秒
	Certified           bool
	Pro                 bool
	Capabilities        Capabilities
	Timeframes          map[string]string // 统一周期 -> 交易所周期
	URLs                URLs
	Fees                TradingFees
	PrecisionMode       PrecisionMode
	RequiredCredentials RequiredCredentials
	Exceptions          taxonomy.Table
	CommonCurrencies    map[string]string // 原生代码 -> 统一代码
	Networks            map[string]string // 统一链代码 -> 交易所链ID
	AccountsByType      map[string]string // 统一账户类型 -> 交易所账户类型
	DefaultType         model.MarketType
}

// Clone 深拷贝
func (d *Descriptor) Clone() *Descriptor {
	out := *d
	out.Timeframes = cloneMap(d.Timeframes)
	out.URLs.API = cloneMap(d.URLs.API)
	out.URLs.Test = cloneMap(d.URLs.Test)
	out.Exceptions = d.Exceptions.Clone()
	out.CommonCurrencies = cloneMap(d.CommonCurrencies)
	out.Networks = cloneMap(d.Networks)
	out.AccountsByType = cloneMap(d.AccountsByType)
	return &out
}

// Timeframe 统一周期转为交易所周期
func (d *Descriptor) Timeframe(tf string) (string, bool) {
	v, ok := d.Timeframes[tf]
	return v, ok
}

// AccountType 统一账户类型转为交易所账户类型，未知时原样返回
func (d *Descriptor) AccountType(name string) string {
	if v, ok := d.AccountsByType[name]; ok {
		return v
	}
	return name
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// baseDescriptor 所有适配器共享的默认值
func baseDescriptor() Descriptor {
	return Descriptor{
		Version:   "v1",
		RateLimit: 2000,
		Fees: TradingFees{
			Maker:      "0.001",
			Taker:      "0.001",
			Percentage: true,
		},
		PrecisionMode:       precise.DecimalPlaces,
		RequiredCredentials: RequiredCredentials{APIKey: true, Secret: true},
		Timeframes:          map[string]string{},
		URLs:                URLs{API: map[string]string{}, Test: map[string]string{}},
		Exceptions:          taxonomy.Table{Exact: map[string]taxonomy.Kind{}, Broad: map[string]taxonomy.Kind{}},
		CommonCurrencies: map[string]string{
			"XBT":   "BTC",
			"BCC":   "BCH",
			"BCHSV": "BSV",
		},
		Networks:       map[string]string{},
		AccountsByType: map[string]string{},
		DefaultType:    model.MarketTypeSpot,
	}
}

// DescriptorBuilder 描述构建器
type DescriptorBuilder struct {
	d Descriptor
}

// NewDescriptor 以默认值为基础开始构建
func NewDescriptor(id string) *DescriptorBuilder {
	d := baseDescriptor()
	d.ID = id
	d.Name = id
	return &DescriptorBuilder{d: *d.Clone()}
}

// Name 设置名称
func (b *DescriptorBuilder) Name(name string) *DescriptorBuilder {
	b.d.Name = name
	return b
}

// Version 设置接口版本
func (b *DescriptorBuilder) Version(v string) *DescriptorBuilder {
	b.d.Version = v
	return b
}

// RateLimit 设置请求间隔（毫秒）
func (b *DescriptorBuilder) RateLimit(ms int) *DescriptorBuilder {
	b.d.RateLimit = ms
	return b
}

// Flags 设置认证标记
func (b *DescriptorBuilder) Flags(certified, pro bool) *DescriptorBuilder {
	b.d.Certified = certified
	b.d.Pro = pro
	return b
}

// Has 修改能力
func (b *DescriptorBuilder) Has(fn func(c *Capabilities)) *DescriptorBuilder {
	fn(&b.d.Capabilities)
	return b
}

// Timeframes 设置周期映射
func (b *DescriptorBuilder) Timeframes(m map[string]string) *DescriptorBuilder {
	b.d.Timeframes = cloneMap(m)
	return b
}

// API 设置接口地址
func (b *DescriptorBuilder) API(group, url string) *DescriptorBuilder {
	b.d.URLs.API[group] = url
	return b
}

// TestAPI 设置测试网地址
func (b *DescriptorBuilder) TestAPI(group, url string) *DescriptorBuilder {
	b.d.URLs.Test[group] = url
	return b
}

// Site 设置官网与文档
func (b *DescriptorBuilder) Site(www, doc string) *DescriptorBuilder {
	b.d.URLs.WWW = www
	b.d.URLs.Doc = doc
	return b
}

// Fees 设置默认费率
func (b *DescriptorBuilder) Fees(maker, taker string) *DescriptorBuilder {
	b.d.Fees.Maker = maker
	b.d.Fees.Taker = taker
	return b
}

// Precision 设置精度模式
func (b *DescriptorBuilder) Precision(mode PrecisionMode) *DescriptorBuilder {
	b.d.PrecisionMode = mode
	return b
}

// Credentials 设置需要的凭证
func (b *DescriptorBuilder) Credentials(rc RequiredCredentials) *DescriptorBuilder {
	b.d.RequiredCredentials = rc
	return b
}

// Exact 追加精确错误映射
func (b *DescriptorBuilder) Exact(m map[string]taxonomy.Kind) *DescriptorBuilder {
	for k, v := range m {
		b.d.Exceptions.Exact[k] = v
	}
	return b
}

// ExactKind 将一组错误码映射到同一类别
func (b *DescriptorBuilder) ExactKind(kind taxonomy.Kind, codes ...string) *DescriptorBuilder {
	for _, code := range codes {
		b.d.Exceptions.Exact[code] = kind
	}
	return b
}

// Broad 追加模糊错误映射
func (b *DescriptorBuilder) Broad(m map[string]taxonomy.Kind) *DescriptorBuilder {
	for k, v := range m {
		b.d.Exceptions.Broad[k] = v
	}
	return b
}

// Aliases 追加币种别名
func (b *DescriptorBuilder) Aliases(m map[string]string) *DescriptorBuilder {
	for k, v := range m {
		b.d.CommonCurrencies[k] = v
	}
	return b
}

// Networks 追加链代码映射
func (b *DescriptorBuilder) Networks(m map[string]string) *DescriptorBuilder {
	for k, v := range m {
		b.d.Networks[k] = v
	}
	return b
}

// Accounts 追加账户类型映射
func (b *DescriptorBuilder) Accounts(m map[string]string) *DescriptorBuilder {
	for k, v := range m {
		b.d.AccountsByType[k] = v
	}
	return b
}

// DefaultType 默认市场类型
func (b *DescriptorBuilder) DefaultType(t model.MarketType) *DescriptorBuilder {
	b.d.DefaultType = t
	return b
}

// Build 生成独立的描述副本，构建器可继续使用
func (b *DescriptorBuilder) Build() *Descriptor {
	return b.d.Clone()
}
