package coinspot

import (
	"context"
	"sort"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// FetchMarkets 返回固定的市场列表，不发起请求
func (c *CoinSpot) FetchMarkets(ctx context.Context) ([]model.Market, error) {
	return c.staticMarkets(), nil
}

// FetchTicker 从全部最新价格中取出单个交易对
func (c *CoinSpot) FetchTicker(ctx context.Context, symbol string) (*model.Ticker, error) {
	if err := c.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpFetchTicker, adapter.Args{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	prices := adapter.AsRaw(resp).Dict("prices")
	raw := prices.Dict(strings.ToLower(m.ID))
	if raw == nil {
		return nil, taxonomy.Newf(taxonomy.BadSymbol, ExchangeID, "no price for %s", symbol)
	}
	t, err := parseTicker(raw, m)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FetchTickers 全部行情，跳过不在市场列表中的币种
func (c *CoinSpot) FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error) {
	if err := c.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpFetchTickers, adapter.Args{Symbols: symbols})
	if err != nil {
		return nil, err
	}
	prices := adapter.AsRaw(resp).Dict("prices")
	out := make([]model.Ticker, 0, len(prices))
	for _, id := range sortedKeys(prices) {
		m, err := c.Registry().ResolveSymbol(id, model.MarketTypeSpot)
		if err != nil || !m.Spot {
			continue
		}
		t, err := parseTicker(prices.Dict(id), m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return adapter.FilterBySymbols(out, func(t model.Ticker) string { return t.Symbol }, symbols), nil
}

// FetchOrderBook 订单簿，买盘 buyorders，卖盘 sellorders
func (c *CoinSpot) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	if err := c.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpFetchOrderBook, adapter.Args{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	book := &model.OrderBook{
		Symbol: m.Symbol,
		Bids:   adapter.ParseKeyedLevels(raw.List("buyorders"), "rate", "amount"),
		Asks:   adapter.ParseKeyedLevels(raw.List("sellorders"), "rate", "amount"),
	}
	book.Sort()
	if limit > 0 {
		if len(book.Bids) > limit {
			book.Bids = book.Bids[:limit]
		}
		if len(book.Asks) > limit {
			book.Asks = book.Asks[:limit]
		}
	}
	return book, nil
}

// FetchTrades 最近成交
func (c *CoinSpot) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error) {
	if err := c.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpFetchTrades, adapter.Args{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	trades, err := c.parseTrades(adapter.AsRaw(resp).List("orders"), &m, "")
	if err != nil {
		return nil, err
	}
	return adapter.FilterBySinceLimit(trades, tradeTime, since, limit), nil
}

// FetchMyTrades 自己的成交，买单和卖单分开返回
func (c *CoinSpot) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Trade, error) {
	if err := c.preparePrivate(ctx); err != nil {
		return nil, err
	}
	var market *model.Market
	if symbol != "" {
		m, err := c.Market(symbol)
		if err != nil {
			return nil, err
		}
		market = &m
	}
	resp, err := c.Request(ctx, adapter.OpFetchMyTrades, adapter.Args{Symbol: symbol, Since: since, Options: opts})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	buys, err := c.parseTrades(raw.List("buyorders"), market, model.SideBuy)
	if err != nil {
		return nil, err
	}
	sells, err := c.parseTrades(raw.List("sellorders"), market, model.SideSell)
	if err != nil {
		return nil, err
	}
	trades := append(buys, sells...)
	if market != nil {
		trades = adapter.FilterBySymbols(trades, func(t model.Trade) string { return t.Symbol }, []string{market.Symbol})
	}
	return adapter.FilterBySinceLimit(trades, tradeTime, since, limit), nil
}

func (c *CoinSpot) parseTrades(list []interface{}, m *model.Market, side model.Side) ([]model.Trade, error) {
	out := make([]model.Trade, 0, len(list))
	for _, item := range list {
		t, err := c.parseTrade(adapter.AsRaw(item), m)
		if err != nil {
			return nil, err
		}
		if side != "" {
			t.Side = side
		}
		out = append(out, t)
	}
	return out, nil
}

func tradeTime(t model.Trade) int64 { return t.Timestamp }

// FetchBalance 账户余额，只有总额
func (c *CoinSpot) FetchBalance(ctx context.Context, opts adapter.Options) (*model.Balances, error) {
	if err := c.preparePrivate(ctx); err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpFetchBalance, adapter.Args{Options: opts})
	if err != nil {
		return nil, err
	}
	return c.parseBalance(adapter.AsRaw(resp))
}

// CreateOrder 只支持限价单
func (c *CoinSpot) CreateOrder(ctx context.Context, symbol string, typ model.OrderType, side model.Side, amount, price string, opts adapter.Options) (*model.Order, error) {
	if typ != model.OrderTypeLimit {
		return nil, taxonomy.New(taxonomy.InvalidOrder, ExchangeID, "createOrder() allows limit orders only")
	}
	if err := c.preparePrivate(ctx); err != nil {
		return nil, err
	}
	m, err := c.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpCreateOrder, adapter.Args{
		Symbol: symbol, Type: typ, Side: side, Amount: amount, Price: price, Options: opts,
	})
	if err != nil {
		return nil, err
	}
	o, err := c.parseOrder(adapter.AsRaw(resp), &m, side)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOrder 撤单需要通过 Options.Side 指明买卖方向，交易所只返回状态
func (c *CoinSpot) CancelOrder(ctx context.Context, id, symbol string, opts adapter.Options) (*model.Order, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, adapter.OpCancelOrder, adapter.Args{ID: id, Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	return &model.Order{
		ID:     id,
		Symbol: symbol,
		Side:   cancelSide(opts),
		Status: model.OrderStatusCanceled,
		Info:   adapter.AsRaw(resp).Map(),
	}, nil
}

// preparePrivate 私有接口先检查凭证，再加载市场
func (c *CoinSpot) preparePrivate(ctx context.Context) error {
	if err := c.CheckCredentials(); err != nil {
		return err
	}
	return c.LoadMarkets(ctx, false)
}
