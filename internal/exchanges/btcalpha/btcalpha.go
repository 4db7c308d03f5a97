// Package btcalpha 实现BTC-Alpha交易所适配器，只支持现货限价交易
package btcalpha

import (
	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// ExchangeID 交易所ID
const ExchangeID = "btcalpha"

// BTCAlpha BTC-Alpha 适配器
type BTCAlpha struct {
	*adapter.Base
}

var _ adapter.Exchange = (*BTCAlpha)(nil)
var _ adapter.Dialect = (*BTCAlpha)(nil)

// New 创建适配器实例
func New(cfg adapter.Config) *BTCAlpha {
	b := &BTCAlpha{}
	b.Base = adapter.NewBase(b, cfg)
	return b
}

// Describe 返回描述
func (b *BTCAlpha) Describe() *adapter.Descriptor {
	return adapter.NewDescriptor(ExchangeID).
		Name("BTC-Alpha").
		Version("v1").
		Has(func(c *adapter.Capabilities) {
			c.Spot = true
			c.FetchMarkets = true
			c.FetchTicker, c.FetchTickers = true, true
			c.FetchOrderBook, c.FetchTrades, c.FetchOHLCV = true, true, true
			c.FetchBalance = true
			c.CreateOrder, c.CancelOrder = true, true
			c.FetchOrder, c.FetchOrders, c.FetchOpenOrders, c.FetchClosedOrders = true, true, true, true
			c.FetchMyTrades = true
			c.FetchDeposits, c.FetchWithdrawals = true, true
		}).
		Timeframes(map[string]string{
			"5m": "5", "15m": "15", "30m": "30",
			"1h": "60", "4h": "240", "1d": "D",
		}).
		API("rest", "https://btc-alpha.com/api").
		Site("https://btc-alpha.com", "https://btc-alpha.github.io/api-docs").
		Fees("0.002", "0.002").
		Precision(precise.TickSize).
		Credentials(adapter.RequiredCredentials{APIKey: true, Secret: true}).
		Broad(map[string]taxonomy.Kind{
			"Out of balance": taxonomy.InsufficientFunds,
		}).
		Aliases(map[string]string{
			"CBC": "Cashbery",
		}).
		DefaultType(model.MarketTypeSpot).
		Build()
}

// ClassifyError 响应中出现 error 字段即为失败，如 {"date":1570599531.48,"error":"Out of balance -9.99 BTC"}
func (b *BTCAlpha) ClassifyError(status int, body []byte) error {
	return b.ClassifyBody(body, nil, []string{"error"})
}
