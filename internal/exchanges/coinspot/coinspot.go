// Package coinspot 实现CoinSpot交易所适配器。市场列表固定为澳元交易对，只支持限价单
package coinspot

import (
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// ExchangeID 交易所ID
const ExchangeID = "coinspot"

// quoteID 所有市场的计价币
const quoteID = "aud"

// baseIDs 支持的基础币
var baseIDs = []string{
	"ada", "btc", "eth", "xrp", "ltc", "doge", "rfox",
	"powr", "neo", "trx", "eos", "xlm", "rhoc", "gas",
}

// CoinSpot CoinSpot 适配器
type CoinSpot struct {
	*adapter.Base
}

var _ adapter.Exchange = (*CoinSpot)(nil)
var _ adapter.Dialect = (*CoinSpot)(nil)

// New 创建适配器实例
func New(cfg adapter.Config) *CoinSpot {
	c := &CoinSpot{}
	c.Base = adapter.NewBase(c, cfg)
	return c
}

// Describe 返回描述
func (c *CoinSpot) Describe() *adapter.Descriptor {
	return adapter.NewDescriptor(ExchangeID).
		Name("CoinSpot").
		RateLimit(1000).
		Has(func(h *adapter.Capabilities) {
			h.Spot = true
			h.FetchMarkets = true
			h.FetchTicker, h.FetchTickers = true, true
			h.FetchOrderBook, h.FetchTrades = true, true
			h.FetchBalance, h.FetchMyTrades = true, true
			h.CreateOrder, h.CancelOrder = true, true
		}).
		API("public", "https://www.coinspot.com.au/pubapi").
		API("private", "https://www.coinspot.com.au/api").
		Site("https://www.coinspot.com.au", "https://www.coinspot.com.au/api").
		Precision(precise.TickSize).
		Credentials(adapter.RequiredCredentials{APIKey: true, Secret: true}).
		Aliases(map[string]string{
			"DRK": "DASH",
		}).
		DefaultType(model.MarketTypeSpot).
		Build()
}

// ClassifyError status 不为 "ok" 时失败，错误描述在 message 中
func (c *CoinSpot) ClassifyError(status int, body []byte) error {
	code, message := taxonomy.Peek(body, []string{"status"}, []string{"message"})
	if code == "" || strings.EqualFold(code, "ok") {
		return nil
	}
	return c.Descriptor().Exceptions.Classify(ExchangeID, code, message)
}
