package btcalpha

import (
	"context"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// FetchMarkets 获取全部现货交易对
func (b *BTCAlpha) FetchMarkets(ctx context.Context) ([]model.Market, error) {
	resp, err := b.Request(ctx, adapter.OpFetchMarkets, adapter.Args{})
	if err != nil {
		return nil, err
	}
	return adapter.ParseList(b.Base, "market", adapter.AsList(resp), b.parseMarket)
}

// FetchTicker 单个交易对行情
func (b *BTCAlpha) FetchTicker(ctx context.Context, symbol string) (*model.Ticker, error) {
	if err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchTicker, adapter.Args{Symbol: symbol})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	if raw == nil {
		// 部分情况下单个行情也以列表返回
		if list := adapter.AsList(resp); len(list) > 0 {
			raw = adapter.AsRaw(list[0])
		}
	}
	t, err := b.parseTicker(raw, &m)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FetchTickers 全部行情，symbols 非空时过滤
func (b *BTCAlpha) FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error) {
	if err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchTickers, adapter.Args{Symbols: symbols})
	if err != nil {
		return nil, err
	}
	list := adapter.AsList(resp)
	out := make([]model.Ticker, 0, len(list))
	for _, item := range list {
		t, err := b.parseTicker(adapter.AsRaw(item), nil)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return adapter.FilterBySymbols(out, func(t model.Ticker) string { return t.Symbol }, symbols), nil
}

// FetchOrderBook 订单簿，买盘为 buy，卖盘为 sell
func (b *BTCAlpha) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	if err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchOrderBook, adapter.Args{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	book := &model.OrderBook{
		Symbol: m.Symbol,
		Bids:   adapter.ParseKeyedLevels(raw.List("buy"), "price", "amount"),
		Asks:   adapter.ParseKeyedLevels(raw.List("sell"), "price", "amount"),
	}
	book.Sort()
	return book, nil
}

// FetchTrades 公共成交，symbol 可为空
func (b *BTCAlpha) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error) {
	return b.fetchTrades(ctx, adapter.OpFetchTrades, symbol, since, limit, adapter.Options{})
}

// FetchMyTrades 自己的成交
func (b *BTCAlpha) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Trade, error) {
	return b.fetchTrades(ctx, adapter.OpFetchMyTrades, symbol, since, limit, opts)
}

func (b *BTCAlpha) fetchTrades(ctx context.Context, op adapter.Operation, symbol string, since int64, limit int, opts adapter.Options) ([]model.Trade, error) {
	if op == adapter.OpFetchMyTrades {
		if err := b.CheckCredentials(); err != nil {
			return nil, err
		}
	}
	if err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	m, err := b.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, op, adapter.Args{Symbol: symbol, Limit: limit, Options: opts})
	if err != nil {
		return nil, err
	}
	list := adapter.AsList(resp)
	out := make([]model.Trade, 0, len(list))
	for _, item := range list {
		t, err := b.parseTrade(adapter.AsRaw(item), m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return adapter.FilterBySinceLimit(out, func(t model.Trade) int64 { return t.Timestamp }, since, limit), nil
}

// FetchOHLCV K线，默认周期5分钟
func (b *BTCAlpha) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]model.OHLCV, error) {
	if err := b.LoadMarkets(ctx, false); err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchOHLCV, adapter.Args{
		Symbol: symbol, Timeframe: timeframe, Since: since, Limit: limit,
	})
	if err != nil {
		return nil, err
	}
	list := adapter.AsList(resp)
	out := make([]model.OHLCV, 0, len(list))
	for _, item := range list {
		out = append(out, parseOHLCV(adapter.AsRaw(item)))
	}
	return adapter.FilterBySinceLimit(out, func(c model.OHLCV) int64 { return c.Timestamp }, since, limit), nil
}

// FetchBalance 钱包余额
func (b *BTCAlpha) FetchBalance(ctx context.Context, opts adapter.Options) (*model.Balances, error) {
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchBalance, adapter.Args{Options: opts})
	if err != nil {
		return nil, err
	}
	balances, err := b.parseBalance(adapter.AsList(resp))
	if err != nil {
		return nil, err
	}
	balances.Info = map[string]interface{}{"wallets": resp}
	return balances, nil
}

// CreateOrder 只支持限价单。返回的数量为0时使用请求的数量
func (b *BTCAlpha) CreateOrder(ctx context.Context, symbol string, typ model.OrderType, side model.Side, amount, price string, opts adapter.Options) (*model.Order, error) {
	if typ != model.OrderTypeLimit {
		return nil, taxonomy.New(taxonomy.InvalidOrder, ExchangeID, "only limit orders are supported")
	}
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpCreateOrder, adapter.Args{
		Symbol: symbol, Type: typ, Side: side, Amount: amount, Price: price, Options: opts,
	})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	if ok, _ := raw.Bool("success"); !ok {
		return nil, taxonomy.Newf(taxonomy.InvalidOrder, ExchangeID, "order rejected: %v", raw.Map())
	}
	o, err := b.parseOrder(raw, &m)
	if err != nil {
		return nil, err
	}
	if o.Amount == "" || precise.Sign(o.Amount) <= 0 {
		o.Amount = amount
		if err := o.Complete(); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

// CancelOrder 撤单，交易所只返回订单号
func (b *BTCAlpha) CancelOrder(ctx context.Context, id, symbol string, opts adapter.Options) (*model.Order, error) {
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	m, err := b.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpCancelOrder, adapter.Args{ID: id, Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	if m == nil && !raw.Has("pair") {
		// 未给出符号，回执里也没有交易对
		return &model.Order{ID: raw.String("order", "oid", "id"), Info: raw.Map()}, nil
	}
	o, err := b.parseOrder(raw, m)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FetchOrder 查询订单
func (b *BTCAlpha) FetchOrder(ctx context.Context, id, symbol string, opts adapter.Options) (*model.Order, error) {
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, adapter.OpFetchOrder, adapter.Args{ID: id, Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	o, err := b.parseOrder(adapter.AsRaw(resp), nil)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FetchOrders 自己的订单
func (b *BTCAlpha) FetchOrders(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	return b.fetchOrders(ctx, adapter.OpFetchOrders, symbol, since, limit, opts)
}

// FetchOpenOrders 当前挂单
func (b *BTCAlpha) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	return b.fetchOrders(ctx, adapter.OpFetchOpenOrders, symbol, since, limit, opts)
}

// FetchClosedOrders 已成交订单
func (b *BTCAlpha) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	return b.fetchOrders(ctx, adapter.OpFetchClosedOrders, symbol, since, limit, opts)
}

func (b *BTCAlpha) fetchOrders(ctx context.Context, op adapter.Operation, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	m, err := b.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, op, adapter.Args{Symbol: symbol, Limit: limit, Options: opts})
	if err != nil {
		return nil, err
	}
	list := adapter.AsList(resp)
	out := make([]model.Order, 0, len(list))
	for _, item := range list {
		o, err := b.parseOrder(adapter.AsRaw(item), m)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return adapter.FilterBySinceLimit(out, func(o model.Order) int64 { return o.Timestamp }, since, limit), nil
}

// FetchDeposits 充值记录
func (b *BTCAlpha) FetchDeposits(ctx context.Context, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	return b.fetchTransactions(ctx, adapter.OpFetchDeposits, model.TransactionDeposit, code, since, limit, opts)
}

// FetchWithdrawals 提现记录
func (b *BTCAlpha) FetchWithdrawals(ctx context.Context, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	return b.fetchTransactions(ctx, adapter.OpFetchWithdrawals, model.TransactionWithdrawal, code, since, limit, opts)
}

func (b *BTCAlpha) fetchTransactions(ctx context.Context, op adapter.Operation, typ model.TransactionType, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	if err := b.preparePrivate(ctx); err != nil {
		return nil, err
	}
	resp, err := b.Request(ctx, op, adapter.Args{Code: code, Options: opts})
	if err != nil {
		return nil, err
	}
	list := adapter.AsList(resp)
	out := make([]model.Transaction, 0, len(list))
	for _, item := range list {
		tx := b.parseTransaction(adapter.AsRaw(item), typ)
		if code != "" && tx.Currency != code {
			continue
		}
		out = append(out, tx)
	}
	return adapter.FilterBySinceLimit(out, func(t model.Transaction) int64 { return t.Timestamp }, since, limit), nil
}

// preparePrivate 私有接口先检查凭证，再加载市场
func (b *BTCAlpha) preparePrivate(ctx context.Context) error {
	if err := b.CheckCredentials(); err != nil {
		return err
	}
	return b.LoadMarkets(ctx, false)
}

func (b *BTCAlpha) optionalMarket(symbol string) (*model.Market, error) {
	if symbol == "" {
		return nil, nil
	}
	m, err := b.Market(symbol)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
