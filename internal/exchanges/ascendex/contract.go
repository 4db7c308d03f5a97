package ascendex

import (
	"context"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// positionContracts futures/position 的 data.contracts
func (a *Ascendex) positionContracts(ctx context.Context, op adapter.Operation) ([]adapter.Raw, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, op, adapter.Args{})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).Dict("data").List("contracts")
	out := make([]adapter.Raw, 0, len(list))
	for _, item := range list {
		if r := adapter.AsRaw(item); r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// FetchPositions 合约持仓
func (a *Ascendex) FetchPositions(ctx context.Context, symbols []string, opts adapter.Options) ([]model.Position, error) {
	contracts, err := a.positionContracts(ctx, adapter.OpFetchPositions)
	if err != nil {
		return nil, err
	}
	out := make([]model.Position, 0, len(contracts))
	for _, r := range contracts {
		p, err := a.parsePosition(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return adapter.FilterBySymbols(out, func(p model.Position) string { return p.Symbol }, symbols), nil
}

// FetchLeverages 各合约当前杠杆，多空相同
func (a *Ascendex) FetchLeverages(ctx context.Context, symbols []string) ([]model.Leverage, error) {
	contracts, err := a.positionContracts(ctx, opFetchLeverages)
	if err != nil {
		return nil, err
	}
	out := make([]model.Leverage, 0, len(contracts))
	for _, r := range contracts {
		symbol, err := a.ParseSymbol("leverage", r.String("symbol"), nil, "", model.MarketTypeSwap)
		if err != nil {
			return nil, err
		}
		leverage := r.Number("leverage")
		out = append(out, model.Leverage{
			Symbol:        symbol,
			MarginMode:    marginModeOf(r),
			LongLeverage:  leverage,
			ShortLeverage: leverage,
			Info:          r.Map(),
		})
	}
	return adapter.FilterBySymbols(out, func(l model.Leverage) string { return l.Symbol }, symbols), nil
}

// FetchLeverage 单个合约的杠杆
func (a *Ascendex) FetchLeverage(ctx context.Context, symbol string) (*model.Leverage, error) {
	list, err := a.FetchLeverages(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, taxonomy.Newf(taxonomy.BadSymbol, ExchangeID, "no leverage information for %s", symbol)
	}
	return &list[0], nil
}

// FetchMarginModes 各合约的保证金模式
func (a *Ascendex) FetchMarginModes(ctx context.Context, symbols []string) ([]model.MarginMode, error) {
	contracts, err := a.positionContracts(ctx, opFetchMarginModes)
	if err != nil {
		return nil, err
	}
	out := make([]model.MarginMode, 0, len(contracts))
	for _, r := range contracts {
		symbol, err := a.ParseSymbol("marginMode", r.String("symbol"), nil, "", model.MarketTypeSwap)
		if err != nil {
			return nil, err
		}
		out = append(out, model.MarginMode{
			Symbol:     symbol,
			MarginMode: marginModeOf(r),
			Info:       r.Map(),
		})
	}
	return adapter.FilterBySymbols(out, func(m model.MarginMode) string { return m.Symbol }, symbols), nil
}

// FetchMarginMode 单个合约的保证金模式
func (a *Ascendex) FetchMarginMode(ctx context.Context, symbol string) (*model.MarginMode, error) {
	list, err := a.FetchMarginModes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, taxonomy.Newf(taxonomy.BadSymbol, ExchangeID, "no margin mode information for %s", symbol)
	}
	return &list[0], nil
}

// FetchFundingRates 资金费率
func (a *Ascendex) FetchFundingRates(ctx context.Context, symbols []string) ([]model.FundingRate, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchFundingRates, adapter.Args{Symbols: symbols})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).Dict("data").List("contracts")
	out := make([]model.FundingRate, 0, len(list))
	for _, item := range list {
		f, err := a.parseFundingRate(adapter.AsRaw(item))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return adapter.FilterBySymbols(out, func(f model.FundingRate) string { return f.Symbol }, symbols), nil
}

// FetchFundingRate 单个合约的资金费率
func (a *Ascendex) FetchFundingRate(ctx context.Context, symbol string) (*model.FundingRate, error) {
	list, err := a.FetchFundingRates(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, taxonomy.Newf(taxonomy.BadSymbol, ExchangeID, "no funding rate for %s", symbol)
	}
	return &list[0], nil
}

// FetchFundingHistory 资金费支付记录，以USDT结算
func (a *Ascendex) FetchFundingHistory(ctx context.Context, symbol string, since int64, limit int) ([]model.FundingHistory, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchFundingHistory, adapter.Args{Symbol: symbol, Limit: limit})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).Dict("data").List("data")
	out := make([]model.FundingHistory, 0, len(list))
	for _, item := range list {
		r := adapter.AsRaw(item)
		sym, err := a.ParseSymbol("fundingHistory", r.String("symbol"), nil, "", model.MarketTypeSwap)
		if err != nil {
			return nil, err
		}
		out = append(out, model.FundingHistory{
			Symbol:    sym,
			Code:      "USDT",
			Timestamp: r.Int64("timestamp"),
			Amount:    r.Number("paymentInUSDT"),
			Info:      r.Map(),
		})
	}
	if symbol != "" {
		out = adapter.FilterBySymbols(out, func(h model.FundingHistory) string { return h.Symbol }, []string{symbol})
	}
	return adapter.FilterBySinceLimit(out, func(h model.FundingHistory) int64 { return h.Timestamp }, since, limit), nil
}

// FetchLeverageTiers 各合约的阶梯保证金
func (a *Ascendex) FetchLeverageTiers(ctx context.Context, symbols []string) (map[string][]model.LeverageTier, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchLeverageTiers, adapter.Args{Symbols: symbols})
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	out := make(map[string][]model.LeverageTier)
	for _, item := range adapter.AsRaw(resp).List("data") {
		r := adapter.AsRaw(item)
		symbol, err := a.ParseSymbol("leverageTiers", r.String("symbol"), nil, "", model.MarketTypeSwap)
		if err != nil {
			return nil, err
		}
		m, err := a.Market(symbol)
		if err != nil {
			return nil, err
		}
		if len(want) > 0 && !want[m.Symbol] {
			continue
		}
		tiers, err := a.parseLeverageTiers(r, m)
		if err != nil {
			return nil, err
		}
		out[m.Symbol] = tiers
	}
	return out, nil
}

// SetLeverage 设置杠杆，范围1到100
func (a *Ascendex) SetLeverage(ctx context.Context, leverage int, symbol string) error {
	if err := a.prepare(ctx, true); err != nil {
		return err
	}
	_, err := a.Request(ctx, adapter.OpSetLeverage, adapter.Args{Symbol: symbol, Leverage: leverage})
	return err
}

// SetMarginMode 设置保证金模式
func (a *Ascendex) SetMarginMode(ctx context.Context, mode model.MarginModeType, symbol string) error {
	if err := a.prepare(ctx, true); err != nil {
		return err
	}
	_, err := a.Request(ctx, adapter.OpSetMarginMode, adapter.Args{Symbol: symbol, MarginMode: mode})
	return err
}

// AddMargin 增加逐仓保证金
func (a *Ascendex) AddMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error) {
	return a.modifyMargin(ctx, symbol, amount, "add")
}

// ReduceMargin 减少逐仓保证金
func (a *Ascendex) ReduceMargin(ctx context.Context, symbol, amount string) (*model.MarginModification, error) {
	return a.modifyMargin(ctx, symbol, amount, "reduce")
}

func (a *Ascendex) modifyMargin(ctx context.Context, symbol, amount, typ string) (*model.MarginModification, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	abs, err := precise.Abs(amount)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.BadRequest, ExchangeID, err, "margin amount")
	}
	signed := abs
	if typ == "reduce" {
		if signed, err = precise.Neg(abs); err != nil {
			return nil, err
		}
	}
	resp, err := a.Request(ctx, adapter.OpModifyMargin, adapter.Args{Symbol: symbol, Amount: signed})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	status := "failed"
	if raw.String("code") == "0" {
		status = "ok"
	}
	return &model.MarginModification{
		Symbol:     m.Symbol,
		Type:       typ,
		MarginMode: model.MarginIsolated,
		Amount:     abs,
		Code:       m.Quote,
		Status:     status,
		Info:       raw.Map(),
	}, nil
}
