package ascendex

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// BuildRequest 路由到具体接口并签名
func (a *Ascendex) BuildRequest(op adapter.Operation, args adapter.Args) (*adapter.SignedRequest, error) {
	c, err := a.route(op, args)
	if err != nil {
		return nil, err
	}
	if len(args.Options.Extra) > 0 {
		c.params = c.params.Extend(args.Options.Extra)
	}
	return a.sign(c)
}

func (a *Ascendex) route(op adapter.Operation, args adapter.Args) (call, error) {
	opts := args.Options
	switch op {
	case adapter.OpFetchCurrencies, adapter.OpFetchDepositWithdrawFees:
		return call{ep: epAssets}, nil
	case opProducts:
		return call{ep: epProducts}, nil
	case opCashProducts:
		return call{ep: epCashProducts}, nil
	case opContracts, adapter.OpFetchLeverageTiers:
		return call{ep: epContracts}, nil
	case opAccountInfo:
		return call{ep: epInfo}, nil
	case adapter.OpFetchFundingRates:
		return call{ep: epPricingData}, nil
	case adapter.OpFetchTime:
		return call{ep: epExchangeInfo, params: adapter.Params{"requestTime": a.Milliseconds()}}, nil
	case adapter.OpFetchTradingFees:
		return call{ep: epSpotFee}, nil

	case adapter.OpFetchTicker, adapter.OpFetchOrderBook, adapter.OpFetchTrades:
		m, err := a.Market(args.Symbol)
		if err != nil {
			return call{}, err
		}
		params := adapter.Params{"symbol": m.ID}
		switch op {
		case adapter.OpFetchTicker:
			return call{ep: epTicker, params: params}, nil
		case adapter.OpFetchOrderBook:
			return call{ep: epDepth, params: params}, nil
		}
		if args.Limit > 0 {
			params["n"] = args.Limit
		}
		return call{ep: epTrades, params: params}, nil

	case adapter.OpFetchTickers:
		return a.tickersRequest(args)
	case adapter.OpFetchOHLCV:
		return a.ohlcvRequest(args)
	case adapter.OpFetchBalance:
		typ, err := a.balanceType(opts)
		if err != nil {
			return call{}, err
		}
		if typ == model.MarketTypeSwap {
			return call{ep: epPosition}, nil
		}
		return call{ep: epBalance, category: a.accountCategory(typ, "")}, nil

	case adapter.OpCreateOrder:
		return a.createOrderRequest(adapter.OrderRequest{
			Symbol: args.Symbol, Type: args.Type, Side: args.Side,
			Amount: args.Amount, Price: args.Price, Options: opts,
		})
	case adapter.OpCreateOrders:
		return a.createOrdersRequest(args.Orders)

	case adapter.OpFetchOrder, adapter.OpFetchOpenOrders:
		var m *model.Market
		if args.Symbol != "" {
			mk, err := a.Market(args.Symbol)
			if err != nil {
				return call{}, err
			}
			m = &mk
		}
		typ := a.marketType(m, opts)
		params := adapter.Params{}
		if op == adapter.OpFetchOrder {
			params["orderId"] = args.ID
		}
		if typ == model.MarketTypeSwap {
			if op == adapter.OpFetchOrder {
				return call{ep: epFuturesOrderStatus, params: params}, nil
			}
			return call{ep: epFuturesOpenOrders, params: params}, nil
		}
		ep := epOpenOrders
		if op == adapter.OpFetchOrder {
			ep = epOrderStatus
		}
		return call{ep: ep, params: params, category: a.accountCategory(typ, opts.MarginMode)}, nil

	case adapter.OpFetchClosedOrders:
		return a.closedOrdersRequest(args)
	case adapter.OpCancelOrder, adapter.OpCancelAllOrders:
		return a.cancelRequest(op, args)

	case adapter.OpFetchDepositAddress:
		params := adapter.Params{"asset": a.Registry().CurrencyID(args.Code)}
		if opts.Network != "" {
			params["blockchain"] = a.Registry().NetworkCodeToID(opts.Network, args.Code)
		}
		return call{ep: epDepositAddress, params: params}, nil

	case adapter.OpFetchDeposits, adapter.OpFetchWithdrawals, adapter.OpFetchDepositsWithdrawals:
		params := adapter.Params{}
		if args.Code != "" {
			params["asset"] = a.Registry().CurrencyID(args.Code)
		}
		if args.Since > 0 {
			params["startTs"] = args.Since
		}
		if args.Limit > 0 {
			params["pageSize"] = args.Limit
		}
		switch op {
		case adapter.OpFetchDeposits:
			params["txType"] = "deposit"
		case adapter.OpFetchWithdrawals:
			params["txType"] = "withdrawal"
		}
		return call{ep: epTransactions, params: params}, nil

	case adapter.OpFetchPositions, opFetchLeverages, opFetchMarginModes:
		return call{ep: epPosition}, nil

	case adapter.OpFetchFundingHistory:
		params := adapter.Params{}
		if args.Symbol != "" {
			m, err := a.Market(args.Symbol)
			if err != nil {
				return call{}, err
			}
			params["symbol"] = m.ID
		}
		if args.Limit > 0 {
			params["pageSize"] = args.Limit
		}
		return call{ep: epFundingPayments, params: params}, nil

	case adapter.OpModifyMargin:
		m, err := a.Market(args.Symbol)
		if err != nil {
			return call{}, err
		}
		amount, err := a.AmountToPrecision(m, args.Amount)
		if err != nil {
			return call{}, err
		}
		return call{ep: epIsolatedMargin, params: adapter.Params{"symbol": m.ID, "amount": amount}}, nil

	case adapter.OpSetLeverage:
		return a.setLeverageRequest(args)
	case adapter.OpSetMarginMode:
		return a.setMarginModeRequest(args)
	case adapter.OpTransfer:
		return a.transferRequest(args)
	}
	return call{}, a.NotSupported(op)
}

func (a *Ascendex) tickersRequest(args adapter.Args) (call, error) {
	ids := make([]string, 0, len(args.Symbols))
	var first *model.Market
	for _, s := range args.Symbols {
		m, err := a.Market(s)
		if err != nil {
			return call{}, err
		}
		if first == nil {
			mk := m
			first = &mk
		}
		ids = append(ids, m.ID)
	}
	params := adapter.Params{}
	if len(ids) > 0 {
		params["symbol"] = strings.Join(ids, ",")
	}
	if a.marketType(first, args.Options) == model.MarketTypeSpot {
		return call{ep: epTicker, params: params}, nil
	}
	return call{ep: epFuturesTicker, params: params}, nil
}

// ohlcvRequest 时间窗口：给定 since 时向后推 limit 根，只给定 until 时向前推，都没有时用 n
func (a *Ascendex) ohlcvRequest(args adapter.Args) (call, error) {
	m, err := a.Market(args.Symbol)
	if err != nil {
		return call{}, err
	}
	interval, ok := a.Descriptor().Timeframe(args.Timeframe)
	if !ok {
		return call{}, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "unsupported timeframe %s", args.Timeframe)
	}
	seconds, err := adapter.ParseTimeframe(args.Timeframe)
	if err != nil {
		return call{}, taxonomy.Wrap(taxonomy.BadRequest, ExchangeID, err, "timeframe")
	}
	duration := seconds * 1000
	params := adapter.Params{"symbol": m.ID, "interval": interval}

	limit := args.Limit
	if limit <= 0 || limit > maxOHLCVLimit {
		limit = maxOHLCVLimit
	}
	until := args.Options.Until
	switch {
	case args.Since > 0:
		to := args.Since + int64(limit)*duration + 1
		if until > 0 && until+1 < to {
			to = until + 1
		}
		params["from"] = args.Since
		params["to"] = to
	case until > 0:
		params["to"] = until + 1
		params["from"] = until - int64(limit)*duration
	case args.Limit > 0:
		params["n"] = limit
	}
	return call{ep: epBarHist, params: params}, nil
}

// balanceType 余额查询的账户类型：全仓或显式 margin 查杠杆账户，逐仓只支持合约
func (a *Ascendex) balanceType(opts adapter.Options) (model.MarketType, error) {
	typ := a.marketType(nil, opts)
	if opts.MarginMode == model.MarginCross {
		typ = model.MarketTypeMargin
	}
	if opts.MarginMode == model.MarginIsolated && typ != model.MarketTypeSwap {
		return "", taxonomy.New(taxonomy.BadRequest, ExchangeID, "fetchBalance() does not support isolated margin for "+string(typ))
	}
	switch typ {
	case model.MarketTypeSpot, model.MarketTypeMargin, model.MarketTypeSwap:
		return typ, nil
	}
	return "", taxonomy.Newf(taxonomy.NotSupported, ExchangeID, "fetchBalance() is not supported for %s", typ)
}

// orderParams 单笔订单参数，不含账户组
func (a *Ascendex) orderParams(o adapter.OrderRequest) (adapter.Params, model.Market, string, error) {
	m, err := a.Market(o.Symbol)
	if err != nil {
		return nil, m, "", err
	}
	opts := o.Options
	typ := a.marketType(&m, opts)
	category := a.accountCategory(typ, opts.MarginMode)

	amount, err := a.AmountToPrecision(m, o.Amount)
	if err != nil {
		return nil, m, "", err
	}
	params := adapter.Params{
		"symbol":    m.ID,
		"time":      a.Milliseconds(),
		"orderQty":  amount,
		"orderType": string(o.Type),
		"side":      string(o.Side),
	}

	isMarket := o.Type == model.OrderTypeMarket
	postOnly := opts.PostOnly || opts.TimeInForce == "PO"
	if postOnly && isMarket {
		return nil, m, "", taxonomy.New(taxonomy.InvalidOrder, ExchangeID, "postOnly orders are not supported for market orders")
	}
	switch opts.TimeInForce {
	case "IOC", "FOK":
		params["timeInForce"] = opts.TimeInForce
	}
	if postOnly {
		params["postOnly"] = true
	}

	if o.Type == model.OrderTypeLimit {
		if o.Price == "" {
			return nil, m, "", taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "limit orders require a price")
		}
		price, err := a.PriceToPrecision(m, o.Price)
		if err != nil {
			return nil, m, "", err
		}
		params["orderPrice"] = price
	}
	if opts.TriggerPrice != "" {
		trigger, err := a.PriceToPrecision(m, opts.TriggerPrice)
		if err != nil {
			return nil, m, "", err
		}
		params["stopPrice"] = trigger
		if isMarket {
			params["orderType"] = "stop_market"
		} else {
			params["orderType"] = "stop_limit"
		}
	}
	if opts.ClientOrderID != "" {
		params["id"] = opts.ClientOrderID
	}

	if m.Spot {
		params["category"] = category
	} else {
		switch {
		case opts.ReduceOnly:
			params["execInst"] = "ReduceOnly"
		case postOnly:
			params["execInst"] = "Post"
		}
	}
	return params, m, category, nil
}

func (a *Ascendex) createOrderRequest(o adapter.OrderRequest) (call, error) {
	params, m, category, err := a.orderParams(o)
	if err != nil {
		return call{}, err
	}
	if a.marketType(&m, o.Options) == model.MarketTypeSwap {
		return call{ep: epFuturesOrder, params: params}, nil
	}
	return call{ep: epPlaceOrder, params: params, category: category}, nil
}

// createOrdersRequest 批量下单：只支持现货和杠杆，所有订单的符号和保证金模式必须相同
func (a *Ascendex) createOrdersRequest(orders []adapter.OrderRequest) (call, error) {
	if len(orders) == 0 {
		return call{}, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "createOrders() requires at least one order")
	}
	if len(orders) > maxBatchOrders {
		return call{}, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "createOrders() accepts at most %d orders", maxBatchOrders)
	}
	symbol, marginMode := orders[0].Symbol, orders[0].Options.MarginMode
	list := make([]interface{}, 0, len(orders))
	var category string
	for _, o := range orders {
		if o.Symbol != symbol {
			return call{}, taxonomy.New(taxonomy.BadRequest, ExchangeID, "createOrders() requires all orders to have the same symbol")
		}
		if o.Options.MarginMode != marginMode {
			return call{}, taxonomy.New(taxonomy.BadRequest, ExchangeID, "createOrders() requires all orders to have the same margin mode")
		}
		params, m, cat, err := a.orderParams(o)
		if err != nil {
			return call{}, err
		}
		if m.Swap || a.marketType(&m, o.Options) == model.MarketTypeSwap {
			return call{}, taxonomy.New(taxonomy.NotSupported, ExchangeID, "createOrders() is not supported for swap markets")
		}
		category = cat
		list = append(list, map[string]interface{}(params))
	}
	return call{ep: epBatchOrder, params: adapter.Params{"orders": list}, category: category}, nil
}

func (a *Ascendex) closedOrdersRequest(args adapter.Args) (call, error) {
	var m *model.Market
	params := adapter.Params{}
	if args.Symbol != "" {
		mk, err := a.Market(args.Symbol)
		if err != nil {
			return call{}, err
		}
		m = &mk
		params["symbol"] = mk.ID
	}
	opts := args.Options
	typ := a.marketType(m, opts)
	if typ == model.MarketTypeSwap {
		if args.Limit > 0 {
			params["pageSize"] = args.Limit
		}
		return call{ep: epFuturesOrderHist, params: params}, nil
	}
	params["account"] = a.accountCategory(typ, opts.MarginMode)
	if args.Since > 0 {
		params["startTime"] = args.Since
	}
	if opts.Until > 0 {
		params["endTime"] = opts.Until
	}
	if args.Limit > 0 {
		params["limit"] = args.Limit
	}
	return call{ep: epOrderHist, params: params}, nil
}

func (a *Ascendex) cancelRequest(op adapter.Operation, args adapter.Args) (call, error) {
	opts := args.Options
	params := adapter.Params{"time": a.Milliseconds()}
	var m *model.Market
	if args.Symbol != "" {
		mk, err := a.Market(args.Symbol)
		if err != nil {
			return call{}, err
		}
		m = &mk
		params["symbol"] = mk.ID
	} else if op == adapter.OpCancelOrder {
		return call{}, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "cancelOrder() requires a symbol argument")
	}
	typ := a.marketType(m, opts)
	swap := typ == model.MarketTypeSwap

	if op == adapter.OpCancelAllOrders {
		if swap {
			return call{ep: epFuturesCancelAll, params: params}, nil
		}
		return call{ep: epCancelAll, params: params, category: a.accountCategory(typ, opts.MarginMode)}, nil
	}

	params["orderId"] = args.ID
	params["id"] = placeholderOrder
	if opts.ClientOrderID != "" {
		params["id"] = opts.ClientOrderID
	}
	if swap {
		return call{ep: epFuturesCancel, params: params}, nil
	}
	return call{ep: epCancelOrder, params: params, category: a.accountCategory(typ, opts.MarginMode)}, nil
}

// swapMarket 合约设置只支持永续
func (a *Ascendex) swapMarket(symbol, method string) (model.Market, error) {
	if symbol == "" {
		return model.Market{}, taxonomy.Newf(taxonomy.ArgumentsRequired, ExchangeID, "%s() requires a symbol argument", method)
	}
	m, err := a.Market(symbol)
	if err != nil {
		return m, err
	}
	if m.Type != model.MarketTypeSwap {
		return m, taxonomy.Newf(taxonomy.BadSymbol, ExchangeID, "%s() supports swap contracts only", method)
	}
	return m, nil
}

func (a *Ascendex) setLeverageRequest(args adapter.Args) (call, error) {
	if args.Symbol == "" {
		return call{}, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "setLeverage() requires a symbol argument")
	}
	if args.Leverage < minLeverage || args.Leverage > maxLeverage {
		return call{}, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "leverage should be between %d and %d", minLeverage, maxLeverage)
	}
	m, err := a.swapMarket(args.Symbol, "setLeverage")
	if err != nil {
		return call{}, err
	}
	return call{ep: epLeverage, params: adapter.Params{"symbol": m.ID, "leverage": args.Leverage}}, nil
}

func (a *Ascendex) setMarginModeRequest(args adapter.Args) (call, error) {
	mode := strings.ToLower(string(args.MarginMode))
	if mode == string(model.MarginCross) {
		mode = "crossed"
	}
	if mode != "isolated" && mode != "crossed" {
		return call{}, taxonomy.New(taxonomy.BadRequest, ExchangeID, "setMarginMode() marginMode argument should be isolated or cross")
	}
	m, err := a.swapMarket(args.Symbol, "setMarginMode")
	if err != nil {
		return call{}, err
	}
	return call{ep: epMarginType, params: adapter.Params{"symbol": m.ID, "marginType": mode}}, nil
}

// transferRequest 只支持现货账户与其他账户之间的划转
func (a *Ascendex) transferRequest(args adapter.Args) (call, error) {
	from, to := a.Descriptor().AccountType(args.From), a.Descriptor().AccountType(args.To)
	if from != defaultCategory && to != defaultCategory {
		return call{}, taxonomy.New(taxonomy.ExchangeError, ExchangeID, "transfer() only supports direct balance transfer between spot and swap, spot and margin")
	}
	amount, err := a.CurrencyToPrecision(args.Code, args.Amount)
	if err != nil {
		return call{}, err
	}
	return call{ep: epTransfer, params: adapter.Params{
		"amount":      amount,
		"asset":       a.Registry().CurrencyID(args.Code),
		"fromAccount": from,
		"toAccount":   to,
	}}, nil
}

// sign 拼接路径并签名。签名串为 时间戳+"+"+规范化的接口路径
func (a *Ascendex) sign(c call) (*adapter.SignedRequest, error) {
	ep := c.ep
	path := ""
	if ep.scope == scopeAccountCategory || ep.scope == scopeAccountGroup {
		group := a.Session().Get(sessionAccountGroup)
		if group == "" {
			return nil, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "account group is not loaded, call LoadAccounts() first")
		}
		path = "/" + group
	}
	request := ep.path
	path += "/api/pro/"
	if ep.version == "v2" {
		if ep.scope == scopeData {
			request = "data/v2/" + request
		} else {
			request = "v2/" + request
		}
	} else {
		path += ep.version + "/"
	}
	if ep.scope == scopeAccountCategory {
		category := c.category
		if category == "" {
			category = defaultCategory
		}
		path += category + "/"
	}
	path += request

	req := &adapter.SignedRequest{Method: ep.method, Headers: map[string]string{}, Cost: 1}
	query := ""
	if !ep.private {
		query = c.params.Encode()
	} else {
		if err := a.CheckCredentials(); err != nil {
			return nil, err
		}
		creds := a.Credentials()
		ts := strconv.FormatInt(a.Nonce(), 10)
		req.Headers["x-auth-key"] = creds.APIKey
		req.Headers["x-auth-timestamp"] = ts
		req.Headers["x-auth-signature"] = adapter.HMAC(ts+"+"+signaturePath(ep.version, request), creds.Secret, adapter.SHA256, adapter.Base64)
		if ep.method == http.MethodGet {
			query = c.params.Encode()
		} else {
			body, err := c.params.JSON()
			if err != nil {
				return nil, taxonomy.Wrap(taxonomy.BadRequest, ExchangeID, err, "encode request body")
			}
			req.Body = body
			req.Headers["Content-Type"] = "application/json"
		}
	}

	req.URL = a.URL("rest") + path
	if query != "" {
		req.URL += "?" + query
	}
	return req, nil
}

// signaturePath 部分接口的签名路径与请求路径不同
func signaturePath(version, request string) string {
	if version == "v1" {
		switch request {
		case "cash/balance", "margin/balance":
			return "balance"
		case "spot/fee":
			return "fee"
		}
	}
	if strings.Contains(request, "subuser") {
		if parts := strings.Split(request, "/"); len(parts) > 2 {
			return parts[2]
		}
	}
	return request
}

// omitZero 零值视为未设置
func omitZero(v string) string {
	if v == "" || precise.IsZero(v) {
		return ""
	}
	return v
}
