package btcalpha

import (
	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// orderStatuses 订单状态
var orderStatuses = map[string]model.OrderStatus{
	"1": model.OrderStatusOpen,
	"2": model.OrderStatusCanceled,
	"3": model.OrderStatusClosed,
}

// transactionStatuses 提现状态，充值记录没有状态
var transactionStatuses = map[string]model.TransactionStatus{
	"10": model.TransactionPending,
	"20": model.TransactionPending,
	"30": model.TransactionOK,
	"40": model.TransactionFailed,
	"50": model.TransactionCanceled,
}

// parseMarket pairs 接口的一项，价格与数量精度为小数位数
func (b *BTCAlpha) parseMarket(r adapter.Raw) (model.Market, error) {
	id, err := r.Require("market", "name")
	if err != nil {
		return model.Market{}, err
	}
	baseID, err := r.Require("market", "currency1")
	if err != nil {
		return model.Market{}, err
	}
	quoteID, err := r.Require("market", "currency2")
	if err != nil {
		return model.Market{}, err
	}
	pricePrecision, err := precise.ParsePrecision(r.String("price_precision"))
	if err != nil {
		return model.Market{}, &adapter.ParseError{Entity: "market", Field: "price_precision", Value: r.String("price_precision")}
	}
	amountPrecision, err := precise.ParsePrecision(r.String("amount_precision"))
	if err != nil {
		return model.Market{}, &adapter.ParseError{Entity: "market", Field: "amount_precision", Value: r.String("amount_precision")}
	}
	minAmount := r.Number("minimum_order_size")
	minCost := ""
	if minAmount != "" && pricePrecision != "" {
		if minCost, err = precise.Mul(pricePrecision, minAmount); err != nil {
			return model.Market{}, err
		}
	}

	base := b.Registry().ResolveCurrencyCode(baseID)
	quote := b.Registry().ResolveCurrencyCode(quoteID)
	return model.Market{
		ID:      id,
		Symbol:  model.BuildSymbol(base, quote, ""),
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Type:    model.MarketTypeSpot,
		Spot:    true,
		Active:  true,
		Precision: model.MarketPrecision{
			Amount: amountPrecision,
			Price:  pricePrecision,
		},
		Limits: model.MarketLimits{
			Amount: model.MinMax{Min: minAmount, Max: r.Number("maximum_order_size")},
			Price:  model.MinMax{Min: pricePrecision},
			Cost:   model.MinMax{Min: minCost},
		},
		Info: r.Map(),
	}, nil
}

// parseTicker 行情时间戳单位为千秒，如 "1674658.445272"
func (b *BTCAlpha) parseTicker(r adapter.Raw, m *model.Market) (model.Ticker, error) {
	symbol, err := b.ParseSymbol("ticker", r.String("pair"), m, "_")
	if err != nil {
		return model.Ticker{}, err
	}
	num := r.Numbers("ticker")
	last := num.Get("last")
	t := model.Ticker{
		Symbol:      symbol,
		Timestamp:   adapter.ScaledTimestamp(r.String("timestamp"), "1000000"),
		High:        num.Get("high"),
		Low:         num.Get("low"),
		Bid:         num.Get("buy"),
		Ask:         num.Get("sell"),
		Close:       last,
		Last:        last,
		Change:      num.Get("diff"),
		QuoteVolume: num.Get("vol"),
		Info:        r.Map(),
	}
	if err := num.Err(); err != nil {
		return model.Ticker{}, err
	}
	return t, t.Complete()
}

// parseTrade 公共成交与自己的成交共用，my_side 优先于 type
func (b *BTCAlpha) parseTrade(r adapter.Raw, m *model.Market) (model.Trade, error) {
	price, err := r.RequireNumber("trade", "price")
	if err != nil {
		return model.Trade{}, err
	}
	amount, err := r.RequireNumber("trade", "amount")
	if err != nil {
		return model.Trade{}, err
	}
	symbol, err := b.ParseSymbol("trade", r.String("pair"), m, "_")
	if err != nil {
		return model.Trade{}, err
	}
	id := r.String("id")
	t := model.Trade{
		ID:        id,
		Order:     id,
		Timestamp: adapter.ScaledTimestamp(r.String("timestamp"), "1000"),
		Symbol:    symbol,
		Type:      string(model.OrderTypeLimit),
		Side:      model.Side(r.StringLower("my_side", "type")),
		Price:     price,
		Amount:    amount,
		Info:      r.Map(),
	}
	return t, t.Complete()
}

// parseOHLCV time 为秒
func parseOHLCV(r adapter.Raw) model.OHLCV {
	return model.OHLCV{
		Timestamp: r.Int64("time") * 1000,
		Open:      r.Number("open"),
		High:      r.Number("high"),
		Low:       r.Number("low"),
		Close:     r.Number("close"),
		Volume:    r.Number("volume"),
	}
}

// parseBalance reserve 为冻结，balance 为总额
func (b *BTCAlpha) parseBalance(list []interface{}) (*model.Balances, error) {
	out := model.NewBalances()
	for _, item := range list {
		r := adapter.AsRaw(item)
		code := b.Registry().ResolveCurrencyCode(r.String("currency"))
		if code == "" {
			continue
		}
		if err := out.Set(code, model.Balance{
			Used:  r.Number("reserve"),
			Total: r.Number("balance"),
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseOrder 下单返回 success=true，时间为秒；查询返回的时间为毫秒。amount 字段是剩余数量
func (b *BTCAlpha) parseOrder(r adapter.Raw, m *model.Market) (model.Order, error) {
	timestamp := r.Int64("date")
	if success, _ := r.Bool("success"); success {
		timestamp = adapter.ScaledTimestamp(r.String("date"), "1000")
	}
	status, ok := orderStatuses[r.String("status")]
	if !ok {
		status = model.OrderStatus(r.String("status"))
	}
	symbol, err := b.ParseSymbol("order", r.String("pair"), m, "_")
	if err != nil {
		return model.Order{}, err
	}
	num := r.Numbers("order")
	o := model.Order{
		ID:        r.String("oid", "id", "order"),
		Timestamp: timestamp,
		Symbol:    symbol,
		Type:      model.OrderTypeLimit,
		Side:      model.Side(r.StringLower("my_side", "type")),
		Price:     num.Get("price"),
		Amount:    num.Get("amount_original"),
		Filled:    num.Get("amount_filled"),
		Remaining: num.Get("amount"),
		Status:    status,
		Info:      r.Map(),
	}
	if err := num.Err(); err != nil {
		return model.Order{}, err
	}
	return o, o.Complete()
}

// parseTransaction 充值与提现记录，时间为秒。未知状态不填
func (b *BTCAlpha) parseTransaction(r adapter.Raw, typ model.TransactionType) model.Transaction {
	status := transactionStatuses[r.String("status")]
	return model.Transaction{
		ID:        r.String("id"),
		Type:      typ,
		Currency:  b.Registry().ResolveCurrencyCode(r.String("currency")),
		Amount:    r.Number("amount"),
		Status:    status,
		Timestamp: adapter.ScaledTimestamp(r.String("timestamp"), "1000"),
		Info:      r.Map(),
	}
}
