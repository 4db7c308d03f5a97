package ascendex

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

// FetchCurrencies 获取币种及各链信息
func (a *Ascendex) FetchCurrencies(ctx context.Context) ([]model.Currency, error) {
	resp, err := a.Request(ctx, adapter.OpFetchCurrencies, adapter.Args{})
	if err != nil {
		return nil, err
	}
	return adapter.ParseList(a.Base, "currency", adapter.AsRaw(resp).List("data"), a.parseCurrency)
}

// FetchMarkets 并发获取现货产品、cash产品和永续合约
func (a *Ascendex) FetchMarkets(ctx context.Context) ([]model.Market, error) {
	var products, cash, contracts []interface{}
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(op adapter.Operation, dst *[]interface{}) {
		g.Go(func() error {
			resp, err := a.Request(gctx, op, adapter.Args{})
			if err != nil {
				return err
			}
			*dst = adapter.AsRaw(resp).List("data")
			return nil
		})
	}
	fetch(opProducts, &products)
	fetch(opCashProducts, &cash)
	fetch(opContracts, &contracts)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeProducts(products, cash)
	spot := make([]interface{}, 0, len(merged))
	for _, r := range merged {
		spot = append(spot, r)
	}
	spotMarkets, err := adapter.ParseList(a.Base, "spot market", spot, a.parseSpotMarket)
	if err != nil {
		return nil, err
	}
	swapMarkets, err := adapter.ParseList(a.Base, "swap market", contracts, a.parseContractMarket)
	if err != nil {
		return nil, err
	}
	return append(spotMarkets, swapMarkets...), nil
}

// FetchTime 服务器收到请求的时间
func (a *Ascendex) FetchTime(ctx context.Context) (int64, error) {
	resp, err := a.Request(ctx, adapter.OpFetchTime, adapter.Args{})
	if err != nil {
		return 0, err
	}
	ts := adapter.AsRaw(resp).Dict("data").Int64("requestReceiveAt")
	if ts == 0 {
		return 0, &adapter.ParseError{Entity: "time", Field: "requestReceiveAt"}
	}
	return ts, nil
}

// FetchTicker 获取单个交易对行情
func (a *Ascendex) FetchTicker(ctx context.Context, symbol string) (*model.Ticker, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchTicker, adapter.Args{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	t, err := a.parseTicker(adapter.AsRaw(resp).Dict("data"), &m)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FetchTickers 批量获取行情，symbols 为空时返回全部
func (a *Ascendex) FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchTickers, adapter.Args{Symbols: symbols})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	data := raw.List("data")
	if data == nil {
		if d := raw.Dict("data"); d != nil {
			data = []interface{}{map[string]interface{}(d)}
		}
	}
	out := make([]model.Ticker, 0, len(data))
	for _, item := range data {
		t, err := a.parseTicker(adapter.AsRaw(item), nil)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return adapter.FilterBySymbols(out, func(t model.Ticker) string { return t.Symbol }, symbols), nil
}

// FetchOrderBook 获取订单簿，交易所不支持深度参数
func (a *Ascendex) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchOrderBook, adapter.Args{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	book := a.parseOrderBook(adapter.AsRaw(resp).Dict("data").Dict("data"), symbol)
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

// FetchTrades 获取最近成交
func (a *Ascendex) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchTrades, adapter.Args{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).Dict("data").List("data")
	out := make([]model.Trade, 0, len(list))
	for _, item := range list {
		t, err := a.parseTrade(adapter.AsRaw(item), &m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return adapter.FilterBySinceLimit(out, func(t model.Trade) int64 { return t.Timestamp }, since, limit), nil
}

// FetchOHLCV 获取K线
func (a *Ascendex) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]model.OHLCV, error) {
	return a.FetchOHLCVUntil(ctx, symbol, timeframe, since, limit, 0)
}

// FetchOHLCVUntil 获取截止到 until（毫秒）的K线
func (a *Ascendex) FetchOHLCVUntil(ctx context.Context, symbol, timeframe string, since int64, limit int, until int64) ([]model.OHLCV, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchOHLCV, adapter.Args{
		Symbol:    symbol,
		Timeframe: timeframe,
		Since:     since,
		Limit:     limit,
		Options:   adapter.Options{Until: until},
	})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).List("data")
	out := make([]model.OHLCV, 0, len(list))
	for _, item := range list {
		out = append(out, parseOHLCV(adapter.AsRaw(item)))
	}
	return adapter.FilterBySinceLimit(out, func(c model.OHLCV) int64 { return c.Timestamp }, since, limit), nil
}
