// Package model 定义统一的交易数据模型。
// 金额、价格、数量一律使用十进制字符串，空字符串表示未设置（不等于零）。
// 时间戳为毫秒，0 表示未设置。
package model

import (
	"fmt"
	"strings"
)

// MarketType 市场类型
type MarketType string

const (
	// MarketTypeSpot 现货
	MarketTypeSpot MarketType = "spot"
	// MarketTypeMargin 杠杆现货
	MarketTypeMargin MarketType = "margin"
	// MarketTypeSwap 永续合约
	MarketTypeSwap MarketType = "swap"
	// MarketTypeFuture 交割合约
	MarketTypeFuture MarketType = "future"
	// MarketTypeOption 期权
	MarketTypeOption MarketType = "option"
)

// Contract 是否为合约类市场
func (t MarketType) Contract() bool {
	return t == MarketTypeSwap || t == MarketTypeFuture || t == MarketTypeOption
}

// MinMax 上下限，空字符串表示不限
type MinMax struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

// MarketPrecision 市场精度（步长形式，如 "0.01"）
type MarketPrecision struct {
	Amount string `json:"amount,omitempty"`
	Price  string `json:"price,omitempty"`
	Base   string `json:"base,omitempty"`
	Quote  string `json:"quote,omitempty"`
}

// MarketLimits 市场下单限制
type MarketLimits struct {
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
	Leverage MinMax `json:"leverage"`
}

// Market 市场信息
type Market struct {
	// ID 交易所原生ID，如 "BTC/USDT"、"btc_usdt"、"BTC-PERP"
	ID string `json:"id"`

	// Symbol 统一符号 BASE/QUOTE，合约市场为 BASE/QUOTE:SETTLE
	Symbol string `json:"symbol"`

	Base     string `json:"base"`
	Quote    string `json:"quote"`
	Settle   string `json:"settle,omitempty"`
	BaseID   string `json:"base_id"`
	QuoteID  string `json:"quote_id"`
	SettleID string `json:"settle_id,omitempty"`

	// Type 市场类型
	Type MarketType `json:"type"`

	Spot     bool `json:"spot"`
	Margin   bool `json:"margin"`
	Swap     bool `json:"swap"`
	Future   bool `json:"future"`
	Option   bool `json:"option"`
	Contract bool `json:"contract"`
	Active   bool `json:"active"`

	// Linear U本位合约，现货为nil
	Linear *bool `json:"linear,omitempty"`
	// Inverse 币本位合约，现货为nil
	Inverse *bool `json:"inverse,omitempty"`

	Taker        string `json:"taker,omitempty"`         // 吃单费率
	Maker        string `json:"maker,omitempty"`         // 挂单费率
	ContractSize string `json:"contract_size,omitempty"` // 每张合约对应的数量
	Expiry       int64  `json:"expiry,omitempty"`
	Created      int64  `json:"created,omitempty"`

	Precision MarketPrecision `json:"precision"`
	Limits    MarketLimits    `json:"limits"`

	// Info 交易所原始数据
	Info map[string]interface{} `json:"info,omitempty"`
}

// TradingFee 账户在某个市场的实际费率
type TradingFee struct {
	Symbol string                 `json:"symbol"`
	Maker  string                 `json:"maker"`
	Taker  string                 `json:"taker"`
	Info   map[string]interface{} `json:"info,omitempty"`
}

// BuildSymbol 拼接统一符号
func BuildSymbol(base, quote, settle string) string {
	if settle == "" {
		return base + "/" + quote
	}
	return base + "/" + quote + ":" + settle
}

// SplitSymbol 拆分统一符号
func SplitSymbol(symbol string) (base, quote, settle string, err error) {
	pair := symbol
	if i := strings.IndexByte(symbol, ':'); i >= 0 {
		pair, settle = symbol[:i], symbol[i+1:]
	}
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("无效的交易对符号: %q", symbol)
	}
	return parts[0], parts[1], settle, nil
}

// SetContractKind 根据结算币设置线性/反向标志
func (m *Market) SetContractKind() {
	if !m.Contract || m.Settle == "" {
		return
	}
	linear := m.Settle == m.Quote
	inverse := m.Settle == m.Base && !linear
	m.Linear = &linear
	m.Inverse = &inverse
}

// Validate 校验市场不变量：合约市场有结算币时线性与反向恰好其一为真
func (m *Market) Validate() error {
	if m.ID == "" || m.Symbol == "" {
		return fmt.Errorf("市场缺少ID或符号: id=%q symbol=%q", m.ID, m.Symbol)
	}
	if !m.Contract || m.Settle == "" {
		return nil
	}
	if m.Linear == nil || m.Inverse == nil {
		return fmt.Errorf("合约市场 %s 未设置线性/反向标志", m.Symbol)
	}
	if *m.Linear == *m.Inverse {
		return fmt.Errorf("合约市场 %s 线性与反向标志必须恰好一个为真", m.Symbol)
	}
	return nil
}

// Bool 返回布尔指针
func Bool(v bool) *bool {
	return &v
}
