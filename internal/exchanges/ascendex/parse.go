package ascendex

import (
	"sort"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// parseCurrency 解析 v2 assets 中的一项
func (a *Ascendex) parseCurrency(r adapter.Raw) (model.Currency, error) {
	id, err := r.Require("currency", "assetCode")
	if err != nil {
		return model.Currency{}, err
	}
	code := a.Registry().ResolveCurrencyCode(id)
	precision := ""
	if scale := r.String("nativeScale"); scale != "" {
		if precision, err = precise.ParsePrecision(scale); err != nil {
			return model.Currency{}, &adapter.ParseError{Entity: "currency", Field: "nativeScale", Value: scale}
		}
	}
	cur := model.Currency{
		ID:        id,
		Code:      code,
		Name:      r.String("assetName"),
		Precision: precision,
		Networks:  make(map[string]model.Network),
		Info:      r.Map(),
	}
	for _, item := range r.List("blockChain") {
		chain := adapter.AsRaw(item)
		chainID := chain.String("chainName")
		if chainID == "" {
			continue
		}
		deposit, _ := chain.Bool("allowDeposit")
		withdraw, _ := chain.Bool("allowWithdraw")
		netCode := a.Registry().NetworkIDToCode(chainID, code)
		cur.Networks[netCode] = model.Network{
			ID:        chainID,
			Network:   netCode,
			Active:    deposit && withdraw,
			Deposit:   deposit,
			Withdraw:  withdraw,
			Fee:       chain.Number("withdrawFee"),
			Precision: precision,
			Limits: model.CurrencyLimits{
				Deposit:  model.MinMax{Min: chain.Number("minDepositAmt")},
				Withdraw: model.MinMax{Min: chain.Number("minWithdrawal")},
			},
		}
		cur.Deposit = cur.Deposit || deposit
		cur.Withdraw = cur.Withdraw || withdraw
	}
	cur.Active = cur.Deposit || cur.Withdraw
	return cur, nil
}

// mergeProducts 现货产品与 cash 产品按 symbol 合并，后者覆盖前者；永续合约不在这里
func mergeProducts(products, cash []interface{}) []adapter.Raw {
	merged := make(map[string]adapter.Raw)
	for _, list := range [][]interface{}{products, cash} {
		for _, item := range list {
			r := adapter.AsRaw(item)
			id := r.String("symbol")
			if id == "" {
				continue
			}
			dst, ok := merged[id]
			if !ok {
				dst = adapter.Raw{}
				merged[id] = dst
			}
			for k, v := range r {
				dst[k] = v
			}
		}
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		if !strings.Contains(id, "-PERP") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]adapter.Raw, 0, len(ids))
	for _, id := range ids {
		out = append(out, merged[id])
	}
	return out
}

// parseSpotMarket 解析合并后的现货产品
func (a *Ascendex) parseSpotMarket(r adapter.Raw) (model.Market, error) {
	id, err := r.Require("market", "symbol")
	if err != nil {
		return model.Market{}, err
	}
	pair := r.String("underlying")
	if pair == "" {
		pair = id
	}
	baseID, quoteID, ok := adapter.SplitPair(pair, "/")
	if !ok {
		return model.Market{}, &adapter.ParseError{Entity: "market", Field: "symbol", Value: pair}
	}
	base := a.Registry().ResolveCurrencyCode(baseID)
	quote := a.Registry().ResolveCurrencyCode(quoteID)
	status := r.String("status", "statusCode")
	margin, _ := r.Bool("marginTradable")
	fee := r.Number("commissionReserveRate")
	tick := r.Number("tickSize")

	m := model.Market{
		ID:      id,
		Symbol:  model.BuildSymbol(base, quote, ""),
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Type:    model.MarketTypeSpot,
		Spot:    true,
		Margin:  margin,
		Active:  (status == "Normal" || status == "InternalTrading") && r.String("domain") != "LeveragedETF",
		Taker:   fee,
		Maker:   fee,
		Created: r.Int64("tradingStartTime"),
		Precision: model.MarketPrecision{
			Amount: r.Number("lotSize"),
			Price:  tick,
		},
		Limits: model.MarketLimits{
			Amount: model.MinMax{Min: r.Number("minQty"), Max: r.Number("maxQty")},
			Price:  model.MinMax{Min: tick},
			Cost:   model.MinMax{Min: r.Number("minNotional"), Max: r.Number("maxNotional")},
		},
		Info: r.Map(),
	}
	return m, nil
}

// parseContractMarket 解析 v2 futures/contract 中的永续合约
func (a *Ascendex) parseContractMarket(r adapter.Raw) (model.Market, error) {
	id, err := r.Require("market", "symbol")
	if err != nil {
		return model.Market{}, err
	}
	underlying, err := r.Require("market", "underlying")
	if err != nil {
		return model.Market{}, err
	}
	baseID, quoteID, ok := adapter.SplitPair(underlying, "/")
	if !ok {
		return model.Market{}, &adapter.ParseError{Entity: "market", Field: "underlying", Value: underlying}
	}
	settleID := r.String("settlementAsset")
	reg := a.Registry()
	base, quote, settle := reg.ResolveCurrencyCode(baseID), reg.ResolveCurrencyCode(quoteID), reg.ResolveCurrencyCode(settleID)
	priceFilter, lotFilter := r.Dict("priceFilter"), r.Dict("lotSizeFilter")
	fee := r.Number("commissionReserveRate")

	m := model.Market{
		ID:           id,
		Symbol:       model.BuildSymbol(base, quote, settle),
		Base:         base,
		Quote:        quote,
		Settle:       settle,
		BaseID:       baseID,
		QuoteID:      quoteID,
		SettleID:     settleID,
		Type:         model.MarketTypeSwap,
		Swap:         true,
		Contract:     true,
		Active:       r.String("status") == "Normal",
		Taker:        fee,
		Maker:        fee,
		ContractSize: "1",
		Created:      r.Int64("tradingStartTime"),
		Precision: model.MarketPrecision{
			Amount: lotFilter.Number("lotSize"),
			Price:  priceFilter.Number("tickSize"),
		},
		Limits: model.MarketLimits{
			Amount: model.MinMax{Min: lotFilter.Number("minQty"), Max: lotFilter.Number("maxQty")},
			Price:  model.MinMax{Min: priceFilter.Number("minPrice"), Max: priceFilter.Number("maxPrice")},
		},
		Info: r.Map(),
	}
	m.SetContractKind()
	return m, nil
}

// parseTicker 现货的 symbol 形如 BTC/USDT，合约为 BTC-PERP
func (a *Ascendex) parseTicker(r adapter.Raw, m *model.Market) (model.Ticker, error) {
	delimiter := ""
	if r.String("type") == "spot" {
		delimiter = "/"
	}
	symbol, err := a.ParseSymbol("ticker", r.String("symbol"), m, delimiter)
	if err != nil {
		return model.Ticker{}, err
	}
	ask, bid := r["ask"], r["bid"]
	num := r.Numbers("ticker")
	last := num.Get("close")
	t := model.Ticker{
		Symbol:     symbol,
		High:       num.Get("high"),
		Low:        num.Get("low"),
		Bid:        adapter.ListNumber(bid, 0),
		BidVolume:  adapter.ListNumber(bid, 1),
		Ask:        adapter.ListNumber(ask, 0),
		AskVolume:  adapter.ListNumber(ask, 1),
		Open:       num.Get("open"),
		Close:      last,
		Last:       last,
		BaseVolume: num.Get("volume"),
		Info:       r.Map(),
	}
	if err := num.Err(); err != nil {
		return model.Ticker{}, err
	}
	if err := t.Complete(); err != nil {
		return t, err
	}
	return t, nil
}

// parseOrderBook data.data 中的 asks/bids，nonce 为 seqnum
func (a *Ascendex) parseOrderBook(r adapter.Raw, symbol string) *model.OrderBook {
	book := &model.OrderBook{
		Symbol:    symbol,
		Bids:      adapter.ParseLevels(r.List("bids"), 0, 1),
		Asks:      adapter.ParseLevels(r.List("asks"), 0, 1),
		Timestamp: r.Int64("ts"),
		Nonce:     r.Int64("seqnum"),
	}
	book.Sort()
	return book
}

// parseOHLCV barhist 的每一项在 data 字段中
func parseOHLCV(r adapter.Raw) model.OHLCV {
	d := r.Dict("data")
	return model.OHLCV{
		Timestamp: d.Int64("ts"),
		Open:      d.Number("o"),
		High:      d.Number("h"),
		Low:       d.Number("l"),
		Close:     d.Number("c"),
		Volume:    d.Number("v"),
	}
}

// parseTrade bm 为 true 表示买方是挂单方，即主动卖出
func (a *Ascendex) parseTrade(r adapter.Raw, m *model.Market) (model.Trade, error) {
	price, err := r.RequireNumber("trade", "p", "price")
	if err != nil {
		return model.Trade{}, err
	}
	amount, err := r.RequireNumber("trade", "q", "size")
	if err != nil {
		return model.Trade{}, err
	}
	symbol, err := a.ParseSymbol("trade", r.String("symbol"), m, "/")
	if err != nil {
		return model.Trade{}, err
	}
	side := model.SideBuy
	if buyerMaker, ok := r.Bool("bm"); ok && buyerMaker {
		side = model.SideSell
	}
	t := model.Trade{
		ID:        r.String("seqnum"),
		Timestamp: r.Int64("ts"),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Info:      r.Map(),
	}
	return t, t.Complete()
}

// parseOrder 现货与合约订单共用
func (a *Ascendex) parseOrder(r adapter.Raw, m *model.Market) (model.Order, error) {
	status, ok := orderStatuses[r.String("status")]
	if !ok {
		status = model.OrderStatus(r.String("status"))
	}
	timestamp := r.Int64("timestamp", "sendingTime", "time")
	lastTrade := r.Int64("lastExecTime")
	if timestamp == 0 {
		timestamp = lastTrade
	}

	typ := r.StringLower("orderType")
	switch typ {
	case "stoplimit", "stop_limit":
		typ = string(model.OrderTypeLimit)
	case "stopmarket", "stop_market":
		typ = string(model.OrderTypeMarket)
	}

	symbol, err := a.ParseSymbol("order", r.String("symbol"), m, "/")
	if err != nil {
		return model.Order{}, err
	}
	num := r.Numbers("order")
	o := model.Order{
		ID:                 r.String("orderId"),
		ClientOrderID:      r.String("id"),
		Timestamp:          timestamp,
		LastTradeTimestamp: lastTrade,
		Symbol:             symbol,
		Type:               model.OrderType(typ),
		TimeInForce:        r.String("timeInForce"),
		Side:               model.Side(r.StringLower("side")),
		Price:              num.Get("price"),
		TriggerPrice:       omitZero(num.Get("stopPrice")),
		Amount:             num.Get("orderQty"),
		Filled:             num.Get("cumFilledQty", "cumQty", "fillQty"),
		Average:            omitZero(num.Get("avgPx", "avgFilledPx", "avgFillPrice")),
		Status:             status,
		Info:               r.Map(),
	}
	feeCost := num.Get("cumFee", "fee")
	if err := num.Err(); err != nil {
		return model.Order{}, err
	}
	execInst := r.StringLower("execInst")
	if execInst == "reduceonly" {
		o.ReduceOnly = model.Bool(true)
	}
	if execInst == "post" {
		o.PostOnly = model.Bool(true)
	}
	if feeCost != "" {
		o.Fee = &model.Fee{Cost: feeCost, Currency: a.Registry().ResolveCurrencyCode(r.String("feeAsset"))}
	}
	if err := o.Complete(); err != nil {
		return o, err
	}
	return o, nil
}

// parseCashBalance 现货与杠杆余额，杠杆账户的负债 = 借款 + 利息
func (a *Ascendex) parseCashBalance(list []interface{}, margin bool) (*model.Balances, error) {
	out := model.NewBalances()
	for _, item := range list {
		r := adapter.AsRaw(item)
		code := a.Registry().ResolveCurrencyCode(r.String("asset"))
		if code == "" {
			continue
		}
		bal := model.Balance{
			Free:  r.Number("availableBalance"),
			Total: r.Number("totalBalance"),
		}
		if margin {
			borrowed, interest := r.Number("borrowed"), r.Number("interest")
			if borrowed != "" || interest != "" {
				debt, err := precise.Add(orZero(borrowed), orZero(interest))
				if err != nil {
					return nil, err
				}
				bal.Debt = debt
			}
		}
		if err := out.Set(code, bal); err != nil {
			return nil, err
		}
	}
	return out, out.Validate()
}

// parseSwapBalance 合约账户只返回各币种的抵押总额
func (a *Ascendex) parseSwapBalance(data adapter.Raw) (*model.Balances, error) {
	out := model.NewBalances()
	for _, item := range data.List("collaterals") {
		r := adapter.AsRaw(item)
		code := a.Registry().ResolveCurrencyCode(r.String("asset"))
		if code == "" {
			continue
		}
		if err := out.Set(code, model.Balance{Total: r.Number("balance")}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseTradingFee 费率所在交易对必须已加载
func (a *Ascendex) parseTradingFee(r adapter.Raw) (model.TradingFee, error) {
	symbol, err := a.ParseSymbol("trading fee", r.String("symbol"), nil, "/", model.MarketTypeSpot)
	if err != nil {
		return model.TradingFee{}, err
	}
	num := r.Dict("fee").Numbers("trading fee")
	fee := model.TradingFee{
		Symbol: symbol,
		Maker:  num.Get("maker"),
		Taker:  num.Get("taker"),
		Info:   r.Map(),
	}
	return fee, num.Err()
}

// parseTransaction 到账数量 = amount - commission。未知状态不填
func (a *Ascendex) parseTransaction(r adapter.Raw) (model.Transaction, error) {
	id, err := r.Require("transaction", "requestId")
	if err != nil {
		return model.Transaction{}, err
	}
	amount := r.Number("amount")
	fee := r.Number("commission")
	if amount != "" && fee != "" {
		if amount, err = precise.Sub(amount, fee); err != nil {
			return model.Transaction{}, err
		}
	}
	code := a.Registry().ResolveCurrencyCode(r.String("asset"))
	status := transactionStatuses[r.String("status")]
	dest := r.Dict("destAddress")
	tx := model.Transaction{
		ID:        id,
		TxID:      r.String("networkTransactionId"),
		Type:      model.TransactionType(r.String("transactionType")),
		Currency:  code,
		Network:   a.Registry().NetworkIDToCode(r.String("blockchain", "chainName"), code),
		Amount:    amount,
		Status:    status,
		Address:   dest.String("address"),
		AddressTo: dest.String("address"),
		Tag:       dest.String("destTag"),
		TagTo:     dest.String("destTag"),
		Timestamp: r.Int64("time"),
		Info:      r.Map(),
	}
	if fee != "" {
		tx.Fee = &model.Fee{Cost: fee, Currency: code}
	}
	return tx, nil
}

// parseDepositAddress tagId 给出标签所在的字段名
func (a *Ascendex) parseDepositAddress(r adapter.Raw, code string) model.DepositAddress {
	tag := ""
	if key := r.String("tagId"); key != "" {
		tag = r.String(key)
	}
	return model.DepositAddress{
		Currency: code,
		Network:  a.Registry().NetworkIDToCode(r.String("blockchain", "chainName"), code),
		Address:  r.String("address"),
		Tag:      tag,
		Info:     r.Map(),
	}
}

func marginModeOf(r adapter.Raw) model.MarginModeType {
	if r.StringLower("marginType") == "crossed" {
		return model.MarginCross
	}
	return model.MarginIsolated
}

// parsePosition 持仓的名义价值取买单挂单名义价值，为0时取卖单
func (a *Ascendex) parsePosition(r adapter.Raw) (model.Position, error) {
	symbol, err := a.ParseSymbol("position", r.String("symbol"), nil, "", model.MarketTypeSwap)
	if err != nil {
		return model.Position{}, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return model.Position{}, err
	}
	notional := r.Number("buyOpenOrderNotional")
	if notional == "" || precise.IsZero(notional) {
		notional = r.Number("sellOpenOrderNotional")
	}
	mode := marginModeOf(r)
	p := model.Position{
		Symbol:          symbol,
		Contracts:       r.Number("position"),
		ContractSize:    m.ContractSize,
		Notional:        notional,
		EntryPrice:      r.Number("avgOpenPrice"),
		MarkPrice:       r.Number("markPrice"),
		UnrealizedPnl:   r.Number("unrealizedPnl"),
		MarginMode:      mode,
		Leverage:        r.Number("leverage"),
		StopLossPrice:   omitZero(r.Number("stopLossPrice")),
		TakeProfitPrice: omitZero(r.Number("takeProfitPrice")),
		Info:            r.Map(),
	}
	switch r.StringLower("side") {
	case "long":
		p.Side = model.PositionLong
	case "short":
		p.Side = model.PositionShort
	}
	if mode == model.MarginIsolated {
		p.Collateral = r.Number("isolatedMargin")
	}
	return p, nil
}

// parseFundingRate 资金费率，利率固定为0
func (a *Ascendex) parseFundingRate(r adapter.Raw) (model.FundingRate, error) {
	symbol, err := a.ParseSymbol("fundingRate", r.String("symbol"), nil, "", model.MarketTypeSwap)
	if err != nil {
		return model.FundingRate{}, err
	}
	return model.FundingRate{
		Symbol:           symbol,
		MarkPrice:        r.Number("markPrice"),
		IndexPrice:       r.Number("indexPrice"),
		InterestRate:     "0",
		Timestamp:        r.Int64("time"),
		FundingRate:      r.Number("fundingRate"),
		FundingTimestamp: r.Int64("nextFundingTime"),
		Info:             r.Map(),
	}, nil
}

// parseLeverageTiers 每档最大杠杆 = 1 / 初始保证金率
func (a *Ascendex) parseLeverageTiers(r adapter.Raw, m model.Market) ([]model.LeverageTier, error) {
	reqs := r.List("marginRequirements")
	tiers := make([]model.LeverageTier, 0, len(reqs))
	for i, item := range reqs {
		t := adapter.AsRaw(item)
		maxLeverage := ""
		if imr := t.Number("initialMarginRate"); imr != "" && !precise.IsZero(imr) {
			var err error
			if maxLeverage, err = precise.Div("1", imr); err != nil {
				return nil, err
			}
		}
		tiers = append(tiers, model.LeverageTier{
			Tier:                  i + 1,
			Symbol:                m.Symbol,
			Currency:              m.Quote,
			MinNotional:           t.Number("positionNotionalLowerBound"),
			MaxNotional:           t.Number("positionNotionalUpperBound"),
			MaintenanceMarginRate: t.Number("maintenanceMarginRate"),
			MaxLeverage:           maxLeverage,
			Info:                  t.Map(),
		})
	}
	return tiers, nil
}

// parseDepositWithdrawFee 只有一条链时才设置币种级别的提现费
func (a *Ascendex) parseDepositWithdrawFee(r adapter.Raw) model.DepositWithdrawFee {
	code := a.Registry().ResolveCurrencyCode(r.String("assetCode"))
	fee := model.DepositWithdrawFee{
		Currency: code,
		Networks: make(map[string]model.NetworkDepositWithdraw),
		Info:     r.Map(),
	}
	chains := r.List("blockChain")
	for _, item := range chains {
		chain := adapter.AsRaw(item)
		netCode := a.Registry().NetworkIDToCode(chain.String("chainName"), code)
		fee.Networks[netCode] = model.NetworkDepositWithdraw{WithdrawFee: chain.Number("withdrawFee")}
	}
	if len(chains) == 1 {
		fee.WithdrawFee = adapter.AsRaw(chains[0]).Number("withdrawFee")
	}
	return fee
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
