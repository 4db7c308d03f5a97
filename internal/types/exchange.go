package types

import (
	"context"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

// MarketSource 调度任务用到的交易所能力，adapter.Exchange 均满足
type MarketSource interface {
	// ID 交易所ID
	ID() string
	// LoadMarkets 加载或刷新市场缓存
	LoadMarkets(ctx context.Context, reload bool) error
	// FetchTickers 批量获取行情
	FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error)
	// FetchOrderBook 获取订单簿
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error)
	// FetchTrades 获取公共成交
	FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error)
	// FetchOHLCV 获取K线
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]model.OHLCV, error)
	// FetchBalance 获取账户余额
	FetchBalance(ctx context.Context, opts adapter.Options) (*model.Balances, error)
}

var _ MarketSource = adapter.Exchange(nil)
