package coinspot

import (
	"sort"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// staticMarkets 固定的澳元市场
func (c *CoinSpot) staticMarkets() []model.Market {
	quote := c.Registry().ResolveCurrencyCode(quoteID)
	out := make([]model.Market, 0, len(baseIDs))
	for _, id := range baseIDs {
		base := c.Registry().ResolveCurrencyCode(id)
		out = append(out, model.Market{
			ID:      id,
			Symbol:  model.BuildSymbol(base, quote, ""),
			Base:    base,
			Quote:   quote,
			BaseID:  id,
			QuoteID: quoteID,
			Type:    model.MarketTypeSpot,
			Spot:    true,
			Active:  true,
		})
	}
	return out
}

// parseTicker latest 接口只有 bid/ask/last，没有时间戳
func parseTicker(r adapter.Raw, m model.Market) (model.Ticker, error) {
	num := r.Numbers("ticker")
	last := num.Get("last")
	t := model.Ticker{
		Symbol: m.Symbol,
		Bid:    num.Get("bid"),
		Ask:    num.Get("ask"),
		Close:  last,
		Last:   last,
		Info:   r.Map(),
	}
	if err := num.Err(); err != nil {
		return model.Ticker{}, err
	}
	return t, t.Complete()
}

// parseTrade 公共成交带 solddate 和 rate；
// 自己的成交只有 created 和总额，价格由总额/数量推导，手续费为不含税手续费加GST
func (c *CoinSpot) parseTrade(r adapter.Raw, m *model.Market) (model.Trade, error) {
	symbol, err := c.ParseSymbol("trade", r.String("market"), m, "/")
	if err != nil {
		return model.Trade{}, err
	}
	num := r.Numbers("trade")
	amount := num.Get("amount")
	cost := num.Get("total", "audtotal")
	rate := num.Get("rate")
	feeExGst, gst := num.Get("audfeeExGst"), num.Get("audGst")
	if err := num.Err(); err != nil {
		return model.Trade{}, err
	}
	t := model.Trade{
		Symbol: symbol,
		Side:   model.Side(r.StringLower("side")),
		Amount: amount,
		Cost:   cost,
		Info:   r.Map(),
	}
	if solddate := r.Int64("solddate"); solddate > 0 {
		t.Timestamp = solddate
		t.Price = rate
		return t, t.Complete()
	}

	t.Timestamp = adapter.ParseISO8601(r.String("created"))
	if cost != "" && amount != "" && !precise.IsZero(amount) {
		price, err := precise.Div(cost, amount)
		if err != nil {
			return model.Trade{}, err
		}
		t.Price = price
	}
	if feeExGst != "" || gst != "" {
		fee, err := precise.Add(orZero(feeExGst), orZero(gst))
		if err != nil {
			return model.Trade{}, err
		}
		t.Fee = &model.Fee{Cost: fee, Currency: c.Registry().ResolveCurrencyCode("AUD")}
	}
	return t, nil
}

// parseBalance 兼容两种结构：
// 读写密钥返回 {"balance":{"BTC":"0.1"}}，只读密钥返回 {"balances":[{"LTC":{"balance":0.1}}]}
func (c *CoinSpot) parseBalance(r adapter.Raw) (*model.Balances, error) {
	out := model.NewBalances()
	out.Info = r.Map()
	v, _ := r.Value("balance", "balances")

	if list := adapter.AsList(v); list != nil {
		for _, item := range list {
			entry := adapter.AsRaw(item)
			for _, id := range sortedKeys(entry) {
				if err := c.setBalance(out, id, entry.Dict(id).Number("balance")); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	}

	entry := adapter.AsRaw(v)
	for _, id := range sortedKeys(entry) {
		if err := c.setBalance(out, id, entry.Number(id)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *CoinSpot) setBalance(out *model.Balances, id, total string) error {
	code := c.Registry().ResolveCurrencyCode(id)
	if code == "" {
		return nil
	}
	return out.Set(code, model.Balance{Total: total})
}

// parseOrder 下单返回 {"status":"ok","coin":"BTC","market":"BTC/AUD","amount":0.1,"rate":50000,"id":"..."}
func (c *CoinSpot) parseOrder(r adapter.Raw, m *model.Market, side model.Side) (model.Order, error) {
	symbol, err := c.ParseSymbol("order", r.String("market"), m, "/")
	if err != nil {
		return model.Order{}, err
	}
	num := r.Numbers("order")
	o := model.Order{
		ID:     r.String("id"),
		Symbol: symbol,
		Type:   model.OrderTypeLimit,
		Side:   side,
		Price:  num.Get("rate"),
		Amount: num.Get("amount"),
		Status: model.OrderStatusOpen,
		Info:   r.Map(),
	}
	if err := num.Err(); err != nil {
		return model.Order{}, err
	}
	return o, o.Complete()
}

func sortedKeys(r adapter.Raw) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
