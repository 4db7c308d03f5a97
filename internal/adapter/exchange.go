package adapter

import (
	"context"

	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// Exchange 面向调用方的统一接口
type Exchange interface {
	ID() string
	Describe() *Descriptor
	LoadMarkets(ctx context.Context, reload bool) error
	Start(ctx context.Context) error
	Close() error

	FetchMarkets(ctx context.Context) ([]model.Market, error)
	FetchCurrencies(ctx context.Context) ([]model.Currency, error)
	FetchTicker(ctx context.Context, symbol string) (*model.Ticker, error)
	FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]model.OHLCV, error)
	FetchTime(ctx context.Context) (int64, error)

	FetchBalance(ctx context.Context, opts Options) (*model.Balances, error)
	FetchTradingFees(ctx context.Context) (map[string]model.TradingFee, error)
	CreateOrder(ctx context.Context, symbol string, typ model.OrderType, side model.Side, amount, price string, opts Options) (*model.Order, error)
	CreateOrders(ctx context.Context, orders []OrderRequest, opts Options) ([]model.Order, error)
	CancelOrder(ctx context.Context, id, symbol string, opts Options) (*model.Order, error)
	CancelAllOrders(ctx context.Context, symbol string, opts Options) ([]model.Order, error)
	FetchOrder(ctx context.Context, id, symbol string, opts Options) (*model.Order, error)
	FetchOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error)
	FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error)
	FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error)
	FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Trade, error)

	FetchDeposits(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error)
	FetchWithdrawals(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error)
	FetchDepositsWithdrawals(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error)
	FetchDepositAddress(ctx context.Context, code string, opts Options) (*model.DepositAddress, error)
	FetchDepositWithdrawFees(ctx context.Context, codes []string) (map[string]model.DepositWithdrawFee, error)
	Transfer(ctx context.Context, code, amount, from, to string) (*model.Transfer, error)

	FetchPositions(ctx context.Context, symbols []string, opts Options) ([]model.Position, error)
	FetchFundingRate(ctx context.Context, symbol string) (*model.FundingRate, error)
	FetchFundingRates(ctx context.Context, symbols []string) ([]model.FundingRate, error)
	FetchFundingHistory(ctx context.Context, symbol string, since int64, limit int) ([]model.FundingHistory, error)
	FetchLeverage(ctx context.Context, symbol string) (*model.Leverage, error)
	FetchLeverages(ctx context.Context, symbols []string) ([]model.Leverage, error)
	SetLeverage(ctx context.Context, leverage int, symbol string) error
	FetchMarginMode(ctx context.Context, symbol string) (*model.MarginMode, error)
	FetchMarginModes(ctx context.Context, symbols []string) ([]model.MarginMode, error)
	SetMarginMode(ctx context.Context, mode model.MarginModeType, symbol string) error
	FetchLeverageTiers(ctx context.Context, symbols []string) (map[string][]model.LeverageTier, error)
	AddMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error)
	ReduceMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error)
}

// NotSupported 生成不支持错误
func (b *Base) NotSupported(op Operation) error {
	return taxonomy.Newf(taxonomy.NotSupported, b.desc.ID, "%s() is not supported yet", op)
}

// 以下为默认实现，具体适配器按能力覆盖

func (b *Base) FetchCurrencies(ctx context.Context) ([]model.Currency, error) {
	return nil, b.NotSupported(OpFetchCurrencies)
}

func (b *Base) FetchTicker(ctx context.Context, symbol string) (*model.Ticker, error) {
	return nil, b.NotSupported(OpFetchTicker)
}

func (b *Base) FetchTickers(ctx context.Context, symbols []string) ([]model.Ticker, error) {
	return nil, b.NotSupported(OpFetchTickers)
}

func (b *Base) FetchOrderBook(ctx context.Context, symbol string, limit int) (*model.OrderBook, error) {
	return nil, b.NotSupported(OpFetchOrderBook)
}

func (b *Base) FetchTrades(ctx context.Context, symbol string, since int64, limit int) ([]model.Trade, error) {
	return nil, b.NotSupported(OpFetchTrades)
}

func (b *Base) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]model.OHLCV, error) {
	return nil, b.NotSupported(OpFetchOHLCV)
}

func (b *Base) FetchBalance(ctx context.Context, opts Options) (*model.Balances, error) {
	return nil, b.NotSupported(OpFetchBalance)
}

func (b *Base) CreateOrder(ctx context.Context, symbol string, typ model.OrderType, side model.Side, amount, price string, opts Options) (*model.Order, error) {
	return nil, b.NotSupported(OpCreateOrder)
}

func (b *Base) CreateOrders(ctx context.Context, orders []OrderRequest, opts Options) ([]model.Order, error) {
	return nil, b.NotSupported(OpCreateOrders)
}

func (b *Base) CancelOrder(ctx context.Context, id, symbol string, opts Options) (*model.Order, error) {
	return nil, b.NotSupported(OpCancelOrder)
}

func (b *Base) CancelAllOrders(ctx context.Context, symbol string, opts Options) ([]model.Order, error) {
	return nil, b.NotSupported(OpCancelAllOrders)
}

func (b *Base) FetchOrder(ctx context.Context, id, symbol string, opts Options) (*model.Order, error) {
	return nil, b.NotSupported(OpFetchOrder)
}

func (b *Base) FetchOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error) {
	return nil, b.NotSupported(OpFetchOrders)
}

func (b *Base) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error) {
	return nil, b.NotSupported(OpFetchOpenOrders)
}

func (b *Base) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Order, error) {
	return nil, b.NotSupported(OpFetchClosedOrders)
}

func (b *Base) FetchMyTrades(ctx context.Context, symbol string, since int64, limit int, opts Options) ([]model.Trade, error) {
	return nil, b.NotSupported(OpFetchMyTrades)
}

func (b *Base) FetchDeposits(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error) {
	return nil, b.NotSupported(OpFetchDeposits)
}

func (b *Base) FetchWithdrawals(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error) {
	return nil, b.NotSupported(OpFetchWithdrawals)
}

func (b *Base) FetchDepositsWithdrawals(ctx context.Context, code string, since int64, limit int, opts Options) ([]model.Transaction, error) {
	return nil, b.NotSupported(OpFetchDepositsWithdrawals)
}

// FetchTime 交易所服务器时间，毫秒
func (b *Base) FetchTime(ctx context.Context) (int64, error) {
	return 0, b.NotSupported(OpFetchTime)
}

func (b *Base) FetchTradingFees(ctx context.Context) (map[string]model.TradingFee, error) {
	return nil, b.NotSupported(OpFetchTradingFees)
}

func (b *Base) FetchDepositAddress(ctx context.Context, code string, opts Options) (*model.DepositAddress, error) {
	return nil, b.NotSupported(OpFetchDepositAddress)
}

func (b *Base) FetchDepositWithdrawFees(ctx context.Context, codes []string) (map[string]model.DepositWithdrawFee, error) {
	return nil, b.NotSupported(OpFetchDepositWithdrawFees)
}

func (b *Base) Transfer(ctx context.Context, code, amount, from, to string) (*model.Transfer, error) {
	return nil, b.NotSupported(OpTransfer)
}

func (b *Base) FetchPositions(ctx context.Context, symbols []string, opts Options) ([]model.Position, error) {
	return nil, b.NotSupported(OpFetchPositions)
}

func (b *Base) FetchFundingRate(ctx context.Context, symbol string) (*model.FundingRate, error) {
	return nil, b.NotSupported("fetchFundingRate")
}

func (b *Base) FetchFundingRates(ctx context.Context, symbols []string) ([]model.FundingRate, error) {
	return nil, b.NotSupported(OpFetchFundingRates)
}

func (b *Base) FetchFundingHistory(ctx context.Context, symbol string, since int64, limit int) ([]model.FundingHistory, error) {
	return nil, b.NotSupported(OpFetchFundingHistory)
}

func (b *Base) FetchLeverage(ctx context.Context, symbol string) (*model.Leverage, error) {
	return nil, b.NotSupported("fetchLeverage")
}

func (b *Base) FetchLeverages(ctx context.Context, symbols []string) ([]model.Leverage, error) {
	return nil, b.NotSupported("fetchLeverages")
}

func (b *Base) SetLeverage(ctx context.Context, leverage int, symbol string) error {
	return b.NotSupported(OpSetLeverage)
}

func (b *Base) FetchMarginMode(ctx context.Context, symbol string) (*model.MarginMode, error) {
	return nil, b.NotSupported("fetchMarginMode")
}

func (b *Base) FetchMarginModes(ctx context.Context, symbols []string) ([]model.MarginMode, error) {
	return nil, b.NotSupported("fetchMarginModes")
}

func (b *Base) SetMarginMode(ctx context.Context, mode model.MarginModeType, symbol string) error {
	return b.NotSupported(OpSetMarginMode)
}

func (b *Base) FetchLeverageTiers(ctx context.Context, symbols []string) (map[string][]model.LeverageTier, error) {
	return nil, b.NotSupported(OpFetchLeverageTiers)
}

func (b *Base) AddMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error) {
	return nil, b.NotSupported("addMargin")
}

func (b *Base) ReduceMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error) {
	return nil, b.NotSupported("reduceMargin")
}
