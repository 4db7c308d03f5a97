package ascendex

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

const testNow = int64(1700000000000)

var baseRoutes = map[string]string{
	"GET /api/pro/v1/products": `{"code":0,"data":[
		{"symbol":"BTC/USDT","domain":"USDS","tradingStartTime":1546300800000,"minQty":"0.000000001","maxQty":"1000000000",
		 "minNotional":"5","maxNotional":"400000","statusCode":"Normal","tickSize":"0.01","lotSize":"0.00001",
		 "commissionType":"Quote","commissionReserveRate":"0.001"},
		{"symbol":"BTC-PERP","statusCode":"Normal","tickSize":"0.1","lotSize":"0.0001"}]}`,
	"GET /api/pro/v1/cash/products": `{"code":0,"data":[
		{"symbol":"BTC/USDT","status":"Normal","marginTradable":true,"tickSize":"0.01","lotSize":"0.00001"}]}`,
	"GET /api/pro/v2/futures/contract": `{"code":0,"data":[
		{"symbol":"BTC-PERP","status":"Normal","settlementAsset":"USDT","underlying":"BTC/USDT","tradingStartTime":1579701600000,
		 "priceFilter":{"minPrice":"0.1","maxPrice":"1000000","tickSize":"0.1"},
		 "lotSizeFilter":{"minQty":"0.0001","maxQty":"1000000000","lotSize":"0.0001"},
		 "commissionReserveRate":"0.001",
		 "marginRequirements":[
			{"positionNotionalLowerBound":"0","positionNotionalUpperBound":"50000","initialMarginRate":"0.01","maintenanceMarginRate":"0.006"},
			{"positionNotionalLowerBound":"50000","positionNotionalUpperBound":"200000","initialMarginRate":"0.0125","maintenanceMarginRate":"0.0075"}]},
		{"symbol":"BTCUSD-PERP","status":"Normal","settlementAsset":"BTC","underlying":"BTC/USD",
		 "priceFilter":{"tickSize":"0.5"},"lotSizeFilter":{"lotSize":"1"}}]}`,
	"GET /api/pro/v2/assets": `{"code":0,"data":[
		{"assetCode":"USDT","assetName":"Tether","nativeScale":4,"blockChain":[
			{"chainName":"Omni","withdrawFee":"30.0","allowDeposit":true,"allowWithdraw":true,"minDepositAmt":"0.0","minWithdrawal":"50.0"},
			{"chainName":"ERC20","withdrawFee":"10.0","allowDeposit":true,"allowWithdraw":false,"minDepositAmt":"0.0","minWithdrawal":"20.0"}]},
		{"assetCode":"BTC","assetName":"Bitcoin","nativeScale":8,"blockChain":[
			{"chainName":"Bitcoin","withdrawFee":"0.0005","allowDeposit":true,"allowWithdraw":true,"minWithdrawal":"0.001"}]}]}`,
	"GET /api/pro/v1/info": `{"code":0,"data":{"accountGroup":8,"email":"test@example.com","userUID":"U0866943712"}}`,
}

// fakeTransport 按 "方法 路径" 返回预置响应，并记录请求
type fakeTransport struct {
	mu       sync.Mutex
	routes   map[string]string
	requests []*adapter.SignedRequest
}

func (f *fakeTransport) Execute(ctx context.Context, req *adapter.SignedRequest) (*adapter.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	body, ok := f.routes[req.Method+" "+u.Path]
	if !ok {
		return &adapter.Reply{StatusCode: 404, Body: []byte(`not found`)}, nil
	}
	return &adapter.Reply{StatusCode: 200, Body: []byte(body)}, nil
}

func (f *fakeTransport) last() *adapter.SignedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestAscendex(t *testing.T, routes map[string]string) (*Ascendex, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{routes: make(map[string]string)}
	for k, v := range baseRoutes {
		ft.routes[k] = v
	}
	for k, v := range routes {
		ft.routes[k] = v
	}
	a := New(adapter.Config{
		Credentials: adapter.Credentials{APIKey: "key", Secret: "secret"},
		Transport:   ft,
		Clock:       func() time.Time { return time.UnixMilli(testNow) },
	})
	return a, ft
}

// loadedAscendex 已加载市场与账户组
func loadedAscendex(t *testing.T, routes map[string]string) (*Ascendex, *fakeTransport) {
	t.Helper()
	a, ft := newTestAscendex(t, routes)
	require.NoError(t, a.LoadMarkets(context.Background(), false))
	require.NoError(t, a.LoadAccounts(context.Background()))
	return a, ft
}

func TestFetchMarkets(t *testing.T) {
	a, _ := newTestAscendex(t, nil)
	require.NoError(t, a.LoadMarkets(context.Background(), false))

	t.Run("现货合并cash产品", func(t *testing.T) {
		m, err := a.Market("BTC/USDT")
		require.NoError(t, err)
		assert.Equal(t, "BTC/USDT", m.ID)
		assert.True(t, m.Spot)
		assert.True(t, m.Margin, "marginTradable 来自 cash 产品")
		assert.True(t, m.Active)
		assert.Equal(t, "0.00001", m.Precision.Amount)
		assert.Equal(t, "0.01", m.Precision.Price)
		assert.Equal(t, "0.01", m.Limits.Price.Min)
		assert.Equal(t, "5", m.Limits.Cost.Min)
		assert.Equal(t, "0.001", m.Taker)
		assert.Nil(t, m.Linear, "现货没有线性标志")
	})

	t.Run("永续合约不作为现货", func(t *testing.T) {
		_, err := a.Market("BTC-PERP")
		assert.Error(t, err)
	})

	t.Run("线性合约", func(t *testing.T) {
		m, err := a.Market("BTC/USDT:USDT")
		require.NoError(t, err)
		assert.Equal(t, "BTC-PERP", m.ID)
		assert.Equal(t, model.MarketTypeSwap, m.Type)
		require.NotNil(t, m.Linear)
		assert.True(t, *m.Linear)
		assert.False(t, *m.Inverse)
		assert.Equal(t, "1", m.ContractSize)
		assert.Equal(t, "0.1", m.Precision.Price)
		assert.Equal(t, "1000000", m.Limits.Price.Max)
	})

	t.Run("反向合约", func(t *testing.T) {
		m, err := a.Market("BTC/USD:BTC")
		require.NoError(t, err)
		assert.True(t, *m.Inverse)
		assert.False(t, *m.Linear)
	})

	t.Run("币种与链", func(t *testing.T) {
		cur, ok := a.Registry().Currency("USDT")
		require.True(t, ok)
		assert.Equal(t, "0.0001", cur.Precision)
		require.Contains(t, cur.Networks, "OMNI")
		assert.Equal(t, "Omni", cur.Networks["OMNI"].ID)
		assert.Equal(t, "30", cur.Networks["OMNI"].Fee)
		assert.False(t, cur.Networks["ERC20"].Withdraw)
		assert.True(t, cur.Withdraw)
	})
}

func TestParseOrder(t *testing.T) {
	a, _ := newTestAscendex(t, nil)
	require.NoError(t, a.LoadMarkets(context.Background(), false))

	t.Run("部分成交", func(t *testing.T) {
		raw, err := adapter.Decode([]byte(`{"symbol":"BTC/USDT","status":"PartiallyFilled","price":"100.5","orderQty":"2",
			"cumFilledQty":"0.5","orderType":"Limit","side":"Buy","orderId":"r1","id":"cid1","lastExecTime":1700000000000,
			"avgPx":"0","cumFee":"0.01","feeAsset":"USDT","stopPrice":"0","execInst":"NULL_VAL"}`))
		require.NoError(t, err)
		o, err := a.parseOrder(adapter.AsRaw(raw), nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusOpen, o.Status)
		assert.Equal(t, "BTC/USDT", o.Symbol)
		assert.Equal(t, "100.5", o.Price)
		assert.Equal(t, "2", o.Amount)
		assert.Equal(t, "0.5", o.Filled)
		assert.Equal(t, "1.5", o.Remaining)
		assert.Equal(t, "50.25", o.Cost)
		assert.Equal(t, "100.5", o.Average)
		assert.Equal(t, model.OrderTypeLimit, o.Type)
		assert.Equal(t, model.SideBuy, o.Side)
		assert.Equal(t, "cid1", o.ClientOrderID)
		assert.Equal(t, testNow, o.Timestamp, "缺少下单时间时使用最后成交时间")
		assert.Empty(t, o.TriggerPrice, "触发价为0时不设置")
		require.NotNil(t, o.Fee)
		assert.Equal(t, "USDT", o.Fee.Currency)
	})

	t.Run("止损单与只减仓", func(t *testing.T) {
		raw, err := adapter.Decode([]byte(`{"symbol":"BTC-PERP","status":"Filled","price":"30000","orderQty":"1",
			"cumFilledQty":"1","orderType":"StopLimit","side":"Sell","orderId":"r2","time":1700000000001,
			"stopPrice":"29000","execInst":"ReduceOnly"}`))
		require.NoError(t, err)
		m, err := a.Market("BTC/USDT:USDT")
		require.NoError(t, err)
		o, err := a.parseOrder(adapter.AsRaw(raw), &m)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusClosed, o.Status)
		assert.Equal(t, "BTC/USDT:USDT", o.Symbol)
		assert.Equal(t, model.OrderTypeLimit, o.Type)
		assert.Equal(t, "29000", o.TriggerPrice)
		require.NotNil(t, o.ReduceOnly)
		assert.True(t, *o.ReduceOnly)
		assert.Equal(t, "0", o.Remaining)
	})
}

func TestClassifyError(t *testing.T) {
	a := New(adapter.Config{})
	tests := []struct {
		name string
		body string
		want taxonomy.Kind
	}{
		{"余额不足", `{"code":300011,"message":"insufficient balance"}`, taxonomy.InsufficientFunds},
		{"字符串错误码", `{"code":"100008","message":"bad symbol"}`, taxonomy.BadSymbol},
		{"账户冻结", `{"code":300021,"message":"frozen"}`, taxonomy.AccountSuspended},
		{"未知错误码", `{"code":999999,"message":"boom"}`, taxonomy.ExchangeError},
		{"成功码但有消息", `{"code":0,"message":"something"}`, taxonomy.ExchangeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.ClassifyError(200, []byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.want, taxonomy.KindOf(err))
		})
	}
	assert.NoError(t, a.ClassifyError(200, []byte(`{"code":0,"data":{}}`)))
}

func TestSignRequest(t *testing.T) {
	// 加载账户组的请求已用掉 1700000000000，时钟固定时后续时间戳逐个递增
	a, _ := loadedAscendex(t, nil)

	t.Run("账户类别接口", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		require.NoError(t, err)
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v1/cash/balance", req.URL)
		assert.Equal(t, "key", req.Headers["x-auth-key"])
		assert.Equal(t, "1700000000001", req.Headers["x-auth-timestamp"])
		assert.Equal(t, adapter.HMAC("1700000000001+balance", "secret", adapter.SHA256, adapter.Base64), req.Headers["x-auth-signature"])
		assert.Empty(t, req.Body)
	})

	t.Run("现货下单", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpCreateOrder, adapter.Args{
			Symbol: "BTC/USDT", Type: model.OrderTypeLimit, Side: model.SideBuy,
			Amount: "0.123456789", Price: "30000.129",
			Options: adapter.Options{ClientOrderID: "cid", TimeInForce: "IOC"},
		})
		require.NoError(t, err)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v1/cash/order", req.URL)
		assert.Equal(t, "application/json", req.Headers["Content-Type"])
		assert.Equal(t, adapter.HMAC("1700000000002+order", "secret", adapter.SHA256, adapter.Base64), req.Headers["x-auth-signature"])
		assert.Contains(t, req.Body, `"orderQty":"0.12345"`, "数量按步长截断")
		assert.Contains(t, req.Body, `"orderPrice":"30000.13"`, "价格按步长四舍五入")
		assert.Contains(t, req.Body, `"category":"cash"`)
		assert.Contains(t, req.Body, `"id":"cid"`)
		assert.Contains(t, req.Body, `"timeInForce":"IOC"`)
		assert.NotContains(t, req.Body, "account-group")
	})

	t.Run("永续合约止损下单", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpCreateOrder, adapter.Args{
			Symbol: "BTC/USDT:USDT", Type: model.OrderTypeMarket, Side: model.SideSell, Amount: "1",
			Options: adapter.Options{TriggerPrice: "29000", ReduceOnly: true},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v2/futures/order", req.URL)
		assert.Equal(t, adapter.HMAC("1700000000003+v2/futures/order", "secret", adapter.SHA256, adapter.Base64), req.Headers["x-auth-signature"])
		assert.Contains(t, req.Body, `"orderType":"stop_market"`)
		assert.Contains(t, req.Body, `"execInst":"ReduceOnly"`)
		assert.Contains(t, req.Body, `"stopPrice":"29000"`)
	})

	t.Run("历史订单走data接口", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpFetchClosedOrders, adapter.Args{Symbol: "BTC/USDT", Since: testNow, Limit: 5})
		require.NoError(t, err)
		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		assert.Equal(t, "/api/pro/data/v2/order/hist", u.Path)
		assert.Equal(t, "cash", u.Query().Get("account"))
		assert.Equal(t, "5", u.Query().Get("limit"))
		assert.Equal(t, adapter.HMAC("1700000000004+data/v2/order/hist", "secret", adapter.SHA256, adapter.Base64), req.Headers["x-auth-signature"])
	})

	t.Run("同一毫秒内签名时间戳递增", func(t *testing.T) {
		first, err := a.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		require.NoError(t, err)
		second, err := a.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		require.NoError(t, err)
		assert.Equal(t, "1700000000005", first.Headers["x-auth-timestamp"])
		assert.Equal(t, "1700000000006", second.Headers["x-auth-timestamp"])
		assert.NotEqual(t, first.Headers["x-auth-signature"], second.Headers["x-auth-signature"])
		assert.Equal(t, adapter.HMAC("1700000000006+balance", "secret", adapter.SHA256, adapter.Base64), second.Headers["x-auth-signature"])
	})

	t.Run("公共接口不签名", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpFetchTicker, adapter.Args{Symbol: "BTC/USDT"})
		require.NoError(t, err)
		assert.Equal(t, "https://ascendex.com/api/pro/v1/ticker?symbol=BTC%2FUSDT", req.URL)
		assert.Empty(t, req.Headers["x-auth-signature"])
	})

	t.Run("撤单需要交易对", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpCancelOrder, adapter.Args{ID: "r1"})
		assert.Equal(t, taxonomy.ArgumentsRequired, taxonomy.KindOf(err))
	})
}

func TestSignRequestPreconditions(t *testing.T) {
	t.Run("缺少凭证", func(t *testing.T) {
		a := New(adapter.Config{})
		_, err := a.BuildRequest(opAccountInfo, adapter.Args{})
		assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
	})

	t.Run("未加载账户组", func(t *testing.T) {
		a, _ := newTestAscendex(t, nil)
		_, err := a.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		assert.Equal(t, taxonomy.ArgumentsRequired, taxonomy.KindOf(err))
	})
}

func TestOHLCVWindow(t *testing.T) {
	a, _ := newTestAscendex(t, nil)
	require.NoError(t, a.LoadMarkets(context.Background(), false))

	query := func(t *testing.T, args adapter.Args) url.Values {
		args.Symbol = "BTC/USDT"
		req, err := a.BuildRequest(adapter.OpFetchOHLCV, args)
		require.NoError(t, err)
		u, err := url.Parse(req.URL)
		require.NoError(t, err)
		return u.Query()
	}

	t.Run("指定起始时间", func(t *testing.T) {
		q := query(t, adapter.Args{Timeframe: "1m", Since: testNow, Limit: 10})
		assert.Equal(t, "1", q.Get("interval"))
		assert.Equal(t, "1700000000000", q.Get("from"))
		assert.Equal(t, "1700000600001", q.Get("to"))
		assert.Empty(t, q.Get("n"))
	})

	t.Run("只指定结束时间", func(t *testing.T) {
		q := query(t, adapter.Args{Timeframe: "1m", Limit: 10, Options: adapter.Options{Until: 1700000600000}})
		assert.Equal(t, "1700000600001", q.Get("to"))
		assert.Equal(t, "1700000000000", q.Get("from"))
	})

	t.Run("结束时间截断窗口", func(t *testing.T) {
		q := query(t, adapter.Args{Timeframe: "1h", Since: testNow, Limit: 100, Options: adapter.Options{Until: testNow + 1000}})
		assert.Equal(t, "1700000001001", q.Get("to"))
	})

	t.Run("只指定数量", func(t *testing.T) {
		q := query(t, adapter.Args{Timeframe: "1d", Limit: 10})
		assert.Equal(t, "10", q.Get("n"))
		assert.Equal(t, "1d", q.Get("interval"))
	})

	t.Run("不支持的周期", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpFetchOHLCV, adapter.Args{Symbol: "BTC/USDT", Timeframe: "3m"})
		assert.Equal(t, taxonomy.BadRequest, taxonomy.KindOf(err))
	})
}

func TestOrderValidation(t *testing.T) {
	a, _ := loadedAscendex(t, nil)
	order := func(symbol string, mode model.MarginModeType) adapter.OrderRequest {
		return adapter.OrderRequest{
			Symbol: symbol, Type: model.OrderTypeLimit, Side: model.SideBuy, Amount: "1", Price: "100",
			Options: adapter.Options{MarginMode: mode},
		}
	}

	tests := []struct {
		name   string
		orders []adapter.OrderRequest
		want   taxonomy.Kind
	}{
		{"交易对不同", []adapter.OrderRequest{order("BTC/USDT", ""), order("BTC/USDT:USDT", "")}, taxonomy.BadRequest},
		{"保证金模式不同", []adapter.OrderRequest{order("BTC/USDT", ""), order("BTC/USDT", model.MarginCross)}, taxonomy.BadRequest},
		{"合约不支持批量", []adapter.OrderRequest{order("BTC/USDT:USDT", "")}, taxonomy.NotSupported},
		{"超过10笔", make([]adapter.OrderRequest, 11), taxonomy.BadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.BuildRequest(adapter.OpCreateOrders, adapter.Args{Orders: tt.orders})
			assert.Equal(t, tt.want, taxonomy.KindOf(err))
		})
	}

	t.Run("批量下单", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpCreateOrders, adapter.Args{Orders: []adapter.OrderRequest{
			order("BTC/USDT", model.MarginCross), order("BTC/USDT", model.MarginCross),
		}})
		require.NoError(t, err)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v1/margin/order/batch", req.URL)
		assert.Contains(t, req.Body, `"orders":[`)
	})

	t.Run("市价单不能只做挂单", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpCreateOrder, adapter.Args{
			Symbol: "BTC/USDT", Type: model.OrderTypeMarket, Side: model.SideBuy, Amount: "1",
			Options: adapter.Options{PostOnly: true},
		})
		assert.Equal(t, taxonomy.InvalidOrder, taxonomy.KindOf(err))
	})
}

func TestContractSettings(t *testing.T) {
	a, _ := loadedAscendex(t, nil)

	t.Run("杠杆范围", func(t *testing.T) {
		_, err := a.BuildRequest(adapter.OpSetLeverage, adapter.Args{Symbol: "BTC/USDT:USDT", Leverage: 101})
		assert.Equal(t, taxonomy.BadRequest, taxonomy.KindOf(err))
		_, err = a.BuildRequest(adapter.OpSetLeverage, adapter.Args{Leverage: 10})
		assert.Equal(t, taxonomy.ArgumentsRequired, taxonomy.KindOf(err))
		_, err = a.BuildRequest(adapter.OpSetLeverage, adapter.Args{Symbol: "BTC/USDT", Leverage: 10})
		assert.Equal(t, taxonomy.BadSymbol, taxonomy.KindOf(err), "只支持永续合约")

		req, err := a.BuildRequest(adapter.OpSetLeverage, adapter.Args{Symbol: "BTC/USDT:USDT", Leverage: 20})
		require.NoError(t, err)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v2/futures/leverage", req.URL)
		assert.Equal(t, `{"leverage":20,"symbol":"BTC-PERP"}`, req.Body)
	})

	t.Run("保证金模式", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpSetMarginMode, adapter.Args{Symbol: "BTC/USDT:USDT", MarginMode: model.MarginCross})
		require.NoError(t, err)
		assert.Contains(t, req.Body, `"marginType":"crossed"`)
		_, err = a.BuildRequest(adapter.OpSetMarginMode, adapter.Args{Symbol: "BTC/USDT:USDT", MarginMode: "portfolio"})
		assert.Equal(t, taxonomy.BadRequest, taxonomy.KindOf(err))
	})

	t.Run("划转必须涉及现货账户", func(t *testing.T) {
		req, err := a.BuildRequest(adapter.OpTransfer, adapter.Args{Code: "USDT", Amount: "10.123456", From: "spot", To: "swap"})
		require.NoError(t, err)
		assert.Equal(t, "https://ascendex.com/8/api/pro/v1/transfer", req.URL)
		assert.Contains(t, req.Body, `"fromAccount":"cash"`)
		assert.Contains(t, req.Body, `"toAccount":"futures"`)
		assert.Contains(t, req.Body, `"amount":"10.1235"`, "按币种精度四舍五入")

		_, err = a.BuildRequest(adapter.OpTransfer, adapter.Args{Code: "USDT", Amount: "1", From: "margin", To: "swap"})
		assert.Equal(t, taxonomy.ExchangeError, taxonomy.KindOf(err))
	})
}

func TestPublicEndpoints(t *testing.T) {
	a, _ := newTestAscendex(t, map[string]string{
		"GET /api/pro/v1/ticker": `{"code":0,"data":{"symbol":"BTC/USDT","open":"0.06777","close":"0.06809","high":"0.06899",
			"low":"0.06708","volume":"19823722","ask":["0.0681","43641"],"bid":["0.0676","443"],"type":"spot"}}`,
		"GET /api/pro/v1/depth": `{"code":0,"data":{"m":"depth-snapshot","symbol":"BTC/USDT","data":{"ts":1700000000000,"seqnum":42,
			"asks":[["30001","1"],["30000.5","2"]],"bids":[["29999","1"],["29999.5","3"]]}}}`,
		"GET /api/pro/v1/trades": `{"code":0,"data":{"m":"trades","symbol":"BTC/USDT","data":[
			{"p":"30000","q":"0.5","ts":1700000000002,"bm":true,"seqnum":2},
			{"p":"29990","q":"1","ts":1700000000001,"bm":false,"seqnum":1}]}}`,
		"GET /api/pro/v1/barhist": `{"code":0,"data":[{"m":"bar","s":"BTC/USDT","data":{"i":"1","ts":1700000000000,"o":"1","c":"2","h":"3","l":"0.5","v":"10"}}]}`,
		"GET /api/pro/v2/futures/pricing-data": `{"code":0,"data":{"contracts":[{"time":1640061364830,"symbol":"BTC-PERP","markPrice":"49290",
			"indexPrice":"49300","openInterest":"100","fundingRate":"0.000093","nextFundingTime":1640073600000}],"collaterals":[]}}`,
	})
	ctx := context.Background()

	t.Run("行情", func(t *testing.T) {
		ticker, err := a.FetchTicker(ctx, "BTC/USDT")
		require.NoError(t, err)
		assert.Equal(t, "BTC/USDT", ticker.Symbol)
		assert.Equal(t, "0.06809", ticker.Last)
		assert.Equal(t, "0.0676", ticker.Bid)
		assert.Equal(t, "43641", ticker.AskVolume)
		assert.Equal(t, "19823722", ticker.BaseVolume)
	})

	t.Run("订单簿", func(t *testing.T) {
		book, err := a.FetchOrderBook(ctx, "BTC/USDT", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), book.Nonce)
		assert.Equal(t, "30000.5", book.Asks[0].Price())
		assert.Equal(t, "29999.5", book.Bids[0].Price())
	})

	t.Run("成交", func(t *testing.T) {
		trades, err := a.FetchTrades(ctx, "BTC/USDT", 0, 0)
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, model.SideBuy, trades[0].Side, "按时间升序")
		assert.Equal(t, model.SideSell, trades[1].Side, "买方挂单即主动卖出")
		assert.Equal(t, "15000", trades[1].Cost)
	})

	t.Run("K线", func(t *testing.T) {
		bars, err := a.FetchOHLCV(ctx, "BTC/USDT", "1m", 0, 0)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Equal(t, model.OHLCV{Timestamp: testNow, Open: "1", High: "3", Low: "0.5", Close: "2", Volume: "10"}, bars[0])
	})

	t.Run("资金费率", func(t *testing.T) {
		rate, err := a.FetchFundingRate(ctx, "BTC/USDT:USDT")
		require.NoError(t, err)
		assert.Equal(t, "0.000093", rate.FundingRate)
		assert.Equal(t, "0", rate.InterestRate)
		assert.Equal(t, int64(1640073600000), rate.FundingTimestamp)
	})

	t.Run("阶梯保证金", func(t *testing.T) {
		tiers, err := a.FetchLeverageTiers(ctx, []string{"BTC/USDT:USDT"})
		require.NoError(t, err)
		require.Len(t, tiers["BTC/USDT:USDT"], 2)
		first := tiers["BTC/USDT:USDT"][0]
		assert.Equal(t, 1, first.Tier)
		assert.Equal(t, "USDT", first.Currency)
		assert.Equal(t, "100", first.MaxLeverage)
		assert.Equal(t, "80", tiers["BTC/USDT:USDT"][1].MaxLeverage)
	})
}

func TestPrivateEndpoints(t *testing.T) {
	a, ft := newTestAscendex(t, map[string]string{
		"GET /8/api/pro/v1/margin/balance": `{"code":0,"data":[{"asset":"USDT","totalBalance":"100","availableBalance":"80","borrowed":"10","interest":"0.5"}]}`,
		"GET /8/api/pro/v2/futures/position": `{"code":0,"data":{"accountId":"x","ac":"FUTURES",
			"collaterals":[{"asset":"USDT","balance":"44.570287262","referencePrice":"1"}],
			"contracts":[{"symbol":"BTC-PERP","side":"LONG","position":"0.0001","unrealizedPnl":"-0.001700233","avgOpenPrice":"31209",
			"marginType":"isolated","isolatedMargin":"1.654972977","leverage":"2","takeProfitPrice":"0","stopLossPrice":"0",
			"buyOpenOrderNotional":"0","sellOpenOrderNotional":"12.5","markPrice":"31210.723063672"}]}}`,
		"GET /api/pro/v1/wallet/deposit/address": `{"code":0,"data":{"asset":"USDT","address":[
			{"address":"1N22odLHXnLPCjC8kwBJPTayarr9RtPod6","tagId":"","chainName":"Omni"},
			{"address":"0xe7c70b4e73b6b450ee46c3b5c0f5fb127ca55722","tagId":"","chainName":"ERC20"}]}}`,
		"GET /api/pro/v1/wallet/transactions": `{"code":0,"data":{"data":[{"requestId":"wuzd1Ojsqtz4bCA3UXwtUnnJDmU8PiyB","time":1591606166000,
			"asset":"USDT","transactionType":"deposit","amount":"25","commission":"0.5","networkTransactionId":"0xbc4e","status":"pending",
			"destAddress":{"address":"0xe7c70b4e73b6b450ee46c3b5c0f5fb127ca55722"}}],"page":1,"pageSize":20,"hasNext":false}}`,
		"POST /8/api/pro/v1/cash/order": `{"code":0,"data":{"ac":"CASH","accountId":"x","action":"place-order","info":{"id":"cid",
			"orderId":"16e607e2b83a8bXHbAwwoqDo55c166fa","orderType":"Limit","symbol":"BTC/USDT","timestamp":1573576916201},"status":"Ack"}}`,
		"POST /8/api/pro/v2/futures/isolated-position-margin": `{"code":0}`,
	})
	ctx := context.Background()

	t.Run("杠杆余额含负债", func(t *testing.T) {
		balances, err := a.FetchBalance(ctx, adapter.Options{MarketType: model.MarketTypeMargin})
		require.NoError(t, err)
		usdt := balances.Currencies["USDT"]
		assert.Equal(t, "80", usdt.Free)
		assert.Equal(t, "20", usdt.Used)
		assert.Equal(t, "100", usdt.Total)
		assert.Equal(t, "10.5", usdt.Debt)
	})

	t.Run("逐仓余额只支持合约", func(t *testing.T) {
		_, err := a.FetchBalance(ctx, adapter.Options{MarginMode: model.MarginIsolated})
		assert.Equal(t, taxonomy.BadRequest, taxonomy.KindOf(err))
	})

	t.Run("合约余额", func(t *testing.T) {
		balances, err := a.FetchBalance(ctx, adapter.Options{MarketType: model.MarketTypeSwap})
		require.NoError(t, err)
		assert.Equal(t, "44.570287262", balances.Currencies["USDT"].Total)
	})

	t.Run("持仓", func(t *testing.T) {
		positions, err := a.FetchPositions(ctx, nil, adapter.Options{})
		require.NoError(t, err)
		require.Len(t, positions, 1)
		p := positions[0]
		assert.Equal(t, "BTC/USDT:USDT", p.Symbol)
		assert.Equal(t, model.PositionLong, p.Side)
		assert.Equal(t, model.MarginIsolated, p.MarginMode)
		assert.Equal(t, "1.654972977", p.Collateral)
		assert.Equal(t, "12.5", p.Notional, "买单名义价值为0时取卖单")
		assert.Empty(t, p.TakeProfitPrice)

		modes, err := a.FetchMarginModes(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, model.MarginIsolated, modes[0].MarginMode)
		lev, err := a.FetchLeverage(ctx, "BTC/USDT:USDT")
		require.NoError(t, err)
		assert.Equal(t, "2", lev.LongLeverage)
	})

	t.Run("多条链需要指定网络", func(t *testing.T) {
		_, err := a.FetchDepositAddress(ctx, "USDT", adapter.Options{})
		assert.Equal(t, taxonomy.ArgumentsRequired, taxonomy.KindOf(err))

		addr, err := a.FetchDepositAddress(ctx, "USDT", adapter.Options{Network: "ERC20"})
		require.NoError(t, err)
		assert.Equal(t, "0xe7c70b4e73b6b450ee46c3b5c0f5fb127ca55722", addr.Address)
		assert.Equal(t, "ERC20", addr.Network)
		assert.Contains(t, ft.last().URL, "blockchain=ERC20")
	})

	t.Run("充值记录", func(t *testing.T) {
		txs, err := a.FetchDeposits(ctx, "USDT", 0, 0, adapter.Options{})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "24.5", txs[0].Amount, "到账数量扣除手续费")
		assert.Equal(t, model.TransactionPending, txs[0].Status)
		assert.Equal(t, "0.5", txs[0].Fee.Cost)
		assert.Contains(t, ft.last().URL, "txType=deposit")
	})

	t.Run("下单自动生成客户端ID", func(t *testing.T) {
		o, err := a.CreateOrder(ctx, "BTC/USDT", model.OrderTypeLimit, model.SideBuy, "1", "100", adapter.Options{})
		require.NoError(t, err)
		assert.Equal(t, "16e607e2b83a8bXHbAwwoqDo55c166fa", o.ID)
		body := ft.last().Body
		assert.Regexp(t, `"id":"[0-9a-f]{32}"`, body)
	})

	t.Run("减少保证金", func(t *testing.T) {
		mod, err := a.ReduceMargin(ctx, "BTC/USDT:USDT", "1.5")
		require.NoError(t, err)
		assert.Equal(t, "ok", mod.Status)
		assert.Equal(t, "1.5", mod.Amount)
		assert.Equal(t, "reduce", mod.Type)
		assert.Equal(t, "USDT", mod.Code)
		assert.Contains(t, ft.last().Body, `"amount":"-1.5"`)
	})
}

func TestStrictParsing(t *testing.T) {
	a, _ := newTestAscendex(t, nil)
	require.NoError(t, a.LoadMarkets(context.Background(), false))
	decode := func(t *testing.T, body string) adapter.Raw {
		t.Helper()
		v, err := adapter.Decode([]byte(body))
		require.NoError(t, err)
		return adapter.AsRaw(v)
	}

	t.Run("未知交易对", func(t *testing.T) {
		_, err := a.parseOrder(decode(t, `{"symbol":"NOPE-PERP","orderId":"x","status":"New"}`), nil)
		var pe *adapter.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "order", pe.Entity)
		assert.Equal(t, "NOPE-PERP", pe.Value)
		assert.ErrorIs(t, err, taxonomy.BadSymbol)
	})

	t.Run("缺少交易对且未指定市场", func(t *testing.T) {
		_, err := a.parseOrder(decode(t, `{"orderId":"x","status":"New"}`), nil)
		var pe *adapter.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "symbol", pe.Field)
		assert.Nil(t, pe.Value)
	})

	t.Run("数量格式错误", func(t *testing.T) {
		_, err := a.parseOrder(decode(t, `{"symbol":"BTC/USDT","orderId":"x","status":"New","orderQty":"abc"}`), nil)
		var pe *adapter.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "orderQty", pe.Field)
		assert.Equal(t, "abc", pe.Value)
	})

	t.Run("转账状态", func(t *testing.T) {
		tx, err := a.parseTransaction(decode(t, `{"requestId":"r1","asset":"USDT","transactionType":"withdraw","amount":"5","status":"rejected"}`))
		require.NoError(t, err)
		assert.Equal(t, model.TransactionFailed, tx.Status, "被拒绝的提现视为失败")

		tx, err = a.parseTransaction(decode(t, `{"requestId":"r2","asset":"USDT","transactionType":"deposit","amount":"5","status":"weird"}`))
		require.NoError(t, err)
		assert.Empty(t, tx.Status, "未知状态不设置")
	})
}

func TestPrivateWithoutCredentials(t *testing.T) {
	ft := &fakeTransport{routes: baseRoutes}
	a := New(adapter.Config{Transport: ft})
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"余额", func() error { _, err := a.FetchBalance(ctx, adapter.Options{}); return err }},
		{"下单", func() error {
			_, err := a.CreateOrder(ctx, "BTC/USDT", model.OrderTypeLimit, model.SideBuy, "1", "100", adapter.Options{})
			return err
		}},
		{"充值地址", func() error { _, err := a.FetchDepositAddress(ctx, "USDT", adapter.Options{}); return err }},
		{"充值记录", func() error { _, err := a.FetchDeposits(ctx, "USDT", 0, 0, adapter.Options{}); return err }},
		{"持仓", func() error { _, err := a.FetchPositions(ctx, nil, adapter.Options{}); return err }},
		{"交易费率", func() error { _, err := a.FetchTradingFees(ctx); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
		})
	}
	assert.Empty(t, ft.requests, "缺少凭证时不应发出任何请求")
}

func TestFetchMarketsSkipsMalformed(t *testing.T) {
	t.Run("部分合约无法解析", func(t *testing.T) {
		a, _ := newTestAscendex(t, map[string]string{
			"GET /api/pro/v2/futures/contract": `{"code":0,"data":[
				{"symbol":"BTC-PERP","status":"Normal","settlementAsset":"USDT","underlying":"BTC/USDT",
				 "priceFilter":{"tickSize":"0.1"},"lotSizeFilter":{"lotSize":"0.0001"}},
				{"status":"Normal"}]}`,
		})
		markets, err := a.FetchMarkets(context.Background())
		require.NoError(t, err)
		assert.Len(t, markets, 2, "跳过缺少symbol的合约")
	})

	t.Run("全部现货无法解析", func(t *testing.T) {
		a, _ := newTestAscendex(t, map[string]string{
			"GET /api/pro/v1/products":      `{"code":0,"data":[{"symbol":"BTCUSDT","statusCode":"Normal"}]}`,
			"GET /api/pro/v1/cash/products": `{"code":0,"data":[]}`,
		})
		_, err := a.FetchMarkets(context.Background())
		assert.Error(t, err)
	})
}

func TestFetchTimeAndTradingFees(t *testing.T) {
	a, ft := newTestAscendex(t, map[string]string{
		"GET /api/pro/v1/exchange-info": `{"code":0,"data":{"requestTimeEcho":1700000000000,"requestReceiveAt":1700000000730,"latency":730}}`,
		"GET /8/api/pro/v1/spot/fee": `{"code":"0","data":{"domain":"spot","userUID":"U1479576458","vipLevel":"0","fees":[
			{"symbol":"BTC/USDT","fee":{"taker":"0.001","maker":"0.0008"}},
			{"symbol":"LAMB/BTC","fee":{"taker":"0.002","maker":"0.002"}}]}}`,
	})
	ctx := context.Background()

	t.Run("服务器时间", func(t *testing.T) {
		ts, err := a.FetchTime(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1700000000730), ts)
		assert.Contains(t, ft.last().URL, "requestTime=1700000000000")
		assert.Empty(t, ft.last().Headers["x-auth-key"], "公共接口不签名")
	})

	t.Run("交易费率", func(t *testing.T) {
		fees, err := a.FetchTradingFees(ctx)
		require.NoError(t, err)
		require.Len(t, fees, 1, "未加载的交易对被跳过")
		fee := fees["BTC/USDT"]
		assert.Equal(t, "0.0008", fee.Maker)
		assert.Equal(t, "0.001", fee.Taker)

		req := ft.last()
		assert.Contains(t, req.URL, "/8/api/pro/v1/spot/fee")
		assert.Equal(t, adapter.HMAC(req.Headers["x-auth-timestamp"]+"+fee", "secret", adapter.SHA256, adapter.Base64),
			req.Headers["x-auth-signature"], "签名路径为 fee")
	})

	t.Run("缺少时间字段", func(t *testing.T) {
		ft.mu.Lock()
		ft.routes["GET /api/pro/v1/exchange-info"] = `{"code":0,"data":{}}`
		ft.mu.Unlock()
		_, err := a.FetchTime(ctx)
		var pe *adapter.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "requestReceiveAt", pe.Field)
	})
}
