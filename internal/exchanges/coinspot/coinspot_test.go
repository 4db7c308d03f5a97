package coinspot

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// routeTransport 按 "方法 路径" 返回预置响应
func routeTransport(routes map[string]string, seen *[]*adapter.SignedRequest) adapter.Transport {
	return adapter.TransportFunc(func(ctx context.Context, req *adapter.SignedRequest) (*adapter.Reply, error) {
		*seen = append(*seen, req)
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, err
		}
		body, ok := routes[req.Method+" "+u.Path]
		if !ok {
			return &adapter.Reply{StatusCode: 404, Body: []byte(`{"status":"error","message":"not found"}`)}, nil
		}
		return &adapter.Reply{StatusCode: 200, Body: []byte(body)}, nil
	})
}

func newTestCoinSpot(t *testing.T, routes map[string]string) (*CoinSpot, *[]*adapter.SignedRequest) {
	t.Helper()
	seen := &[]*adapter.SignedRequest{}
	c := New(adapter.Config{
		Credentials: adapter.Credentials{APIKey: "key", Secret: "secret"},
		Transport:   routeTransport(routes, seen),
		Clock:       func() time.Time { return time.UnixMilli(1700000000000) },
	})
	require.NoError(t, c.LoadMarkets(context.Background(), false))
	return c, seen
}

func TestStaticMarkets(t *testing.T) {
	c, seen := newTestCoinSpot(t, nil)
	assert.Empty(t, *seen, "固定市场不发起请求")

	m, err := c.Market("BTC/AUD")
	require.NoError(t, err)
	assert.Equal(t, "btc", m.ID)
	assert.Equal(t, "aud", m.QuoteID)
	assert.True(t, m.Spot)
	assert.Len(t, c.Registry().Symbols(), len(baseIDs))

	assert.Equal(t, "DASH", c.Registry().ResolveCurrencyCode("drk"))
	assert.Equal(t, "btc", c.Registry().CurrencyID("BTC"))
}

func TestClassifyError(t *testing.T) {
	c := New(adapter.Config{})

	assert.NoError(t, c.ClassifyError(200, []byte(`{"status":"ok","prices":{}}`)))
	assert.NoError(t, c.ClassifyError(200, []byte(`{"prices":{}}`)), "没有 status 字段视为成功")

	err := c.ClassifyError(200, []byte(`{"status":"error","message":"Invalid amount"}`))
	require.Error(t, err)
	assert.Equal(t, taxonomy.ExchangeError, taxonomy.KindOf(err))
	assert.Contains(t, err.Error(), "Invalid amount")
}

func TestSign(t *testing.T) {
	t.Run("私有接口签名", func(t *testing.T) {
		c := New(adapter.Config{
			Credentials: adapter.Credentials{APIKey: "key", Secret: "secret"},
			Clock:       func() time.Time { return time.UnixMilli(1700000000000) },
		})
		req, err := c.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		require.NoError(t, err)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "https://www.coinspot.com.au/api/my/balances", req.URL)
		assert.Equal(t, `{"nonce":1700000000000}`, req.Body)
		assert.Equal(t, "application/json", req.Headers["Content-Type"])
		assert.Equal(t, "key", req.Headers["key"])
		assert.Equal(t, "941424f2e7b99aae78e1b288b9f2cf96c283b7d965ffdf47f17741139f0d2de6b217d4b5989df9f7da9cc8dc90db80b6ced548f72affbf9ca1770779ce81d0e8",
			req.Headers["sign"])
	})

	t.Run("公共接口无签名", func(t *testing.T) {
		c := New(adapter.Config{})
		req, err := c.BuildRequest(adapter.OpFetchTickers, adapter.Args{})
		require.NoError(t, err)
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "https://www.coinspot.com.au/pubapi/latest", req.URL)
		assert.Empty(t, req.Headers["sign"])
	})

	t.Run("缺少密钥", func(t *testing.T) {
		c := New(adapter.Config{})
		_, err := c.BuildRequest(adapter.OpFetchBalance, adapter.Args{})
		assert.Error(t, err)
	})
}

func TestPublicEndpoints(t *testing.T) {
	ctx := context.Background()
	c, seen := newTestCoinSpot(t, map[string]string{
		"GET /pubapi/latest": `{"status":"ok","prices":{
			"btc":{"bid":"52732.47000022","ask":"53268.0699976","last":"53284.03"},
			"ltc":{"bid":"79.39","ask":"87.98","last":"87.95"},
			"zzz":{"bid":"1","ask":"2","last":"1.5"}}}`,
		"POST /api/orders": `{"status":"ok",
			"buyorders":[{"amount":0.5,"rate":52000,"total":26000,"coin":"BTC","market":"BTC/AUD"},
			             {"amount":1.25,"rate":52100,"total":65125,"coin":"BTC","market":"BTC/AUD"}],
			"sellorders":[{"amount":0.1,"rate":53300,"total":5330,"coin":"BTC","market":"BTC/AUD"}]}`,
		"POST /api/orders/history": `{"status":"ok","orders":[
			{"amount":0.00102091,"rate":21549.09999991,"total":21.99969168,"coin":"BTC","solddate":1604890646143,"market":"BTC/AUD"}]}`,
	})

	t.Run("单个行情", func(t *testing.T) {
		ticker, err := c.FetchTicker(ctx, "BTC/AUD")
		require.NoError(t, err)
		assert.Equal(t, "BTC/AUD", ticker.Symbol)
		assert.Equal(t, "52732.47000022", ticker.Bid)
		assert.Equal(t, "53284.03", ticker.Last)
		assert.Equal(t, ticker.Last, ticker.Close)
	})

	t.Run("全部行情跳过未知币种", func(t *testing.T) {
		tickers, err := c.FetchTickers(ctx, nil)
		require.NoError(t, err)
		require.Len(t, tickers, 2)
		assert.Equal(t, "BTC/AUD", tickers[0].Symbol)
		assert.Equal(t, "LTC/AUD", tickers[1].Symbol)

		only, err := c.FetchTickers(ctx, []string{"LTC/AUD"})
		require.NoError(t, err)
		require.Len(t, only, 1)
		assert.Equal(t, "87.95", only[0].Last)
	})

	t.Run("订单簿", func(t *testing.T) {
		book, err := c.FetchOrderBook(ctx, "BTC/AUD", 1)
		require.NoError(t, err)
		assert.Equal(t, []model.PriceLevel{{"52100", "1.25"}}, book.Bids, "买盘按价格降序并截断")
		assert.Equal(t, []model.PriceLevel{{"53300", "0.1"}}, book.Asks)

		last := (*seen)[len(*seen)-1]
		assert.JSONEq(t, `{"cointype":"btc","nonce":1700000000000}`, last.Body)
	})

	t.Run("公共成交", func(t *testing.T) {
		trades, err := c.FetchTrades(ctx, "BTC/AUD", 0, 0)
		require.NoError(t, err)
		require.Len(t, trades, 1)
		assert.Equal(t, int64(1604890646143), trades[0].Timestamp)
		assert.Equal(t, "21549.09999991", trades[0].Price)
		assert.Equal(t, "0.00102091", trades[0].Amount)
		assert.Equal(t, "21.99969168", trades[0].Cost)
		assert.Nil(t, trades[0].Fee)
	})

	t.Run("未知交易对", func(t *testing.T) {
		_, err := c.FetchTicker(ctx, "DOT/AUD")
		assert.Equal(t, taxonomy.BadSymbol, taxonomy.KindOf(err))
	})
}

func TestPrivateEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("成交记录推导价格和手续费", func(t *testing.T) {
		c, seen := newTestCoinSpot(t, map[string]string{
			"POST /api/ro/my/transactions": `{"status":"ok",
				"buyorders":[{"otc":false,"market":"ADA/AUD","amount":400,"created":"2022-10-20T09:56:44.502Z",
					"audfeeExGst":1.80018002,"audGst":0.180018,"audtotal":200}],
				"sellorders":[{"otc":false,"market":"xrp/aud","amount":154.52345614,"total":115.78858204658796,
					"created":"2022-04-16T09:36:43.698Z","audfeeExGst":1.08995731,"audGst":0.10899573,"audtotal":118.7}]}`,
		})
		trades, err := c.FetchMyTrades(ctx, "", 0, 0, adapter.Options{})
		require.NoError(t, err)
		require.Len(t, trades, 2)

		sell, buy := trades[0], trades[1]
		assert.Equal(t, model.SideSell, sell.Side)
		assert.Equal(t, "XRP/AUD", sell.Symbol)
		assert.Equal(t, int64(1650101803698), sell.Timestamp)

		assert.Equal(t, model.SideBuy, buy.Side)
		assert.Equal(t, "ADA/AUD", buy.Symbol)
		assert.Equal(t, int64(1666259804502), buy.Timestamp)
		assert.Equal(t, "200", buy.Cost)
		assert.Equal(t, "0.5", buy.Price)
		require.NotNil(t, buy.Fee)
		assert.Equal(t, "1.98019802", buy.Fee.Cost, "手续费含GST")
		assert.Equal(t, "AUD", buy.Fee.Currency)

		recent, err := c.FetchMyTrades(ctx, "", 1665000000000, 0, adapter.Options{})
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, model.SideBuy, recent[0].Side)
		assert.Contains(t, (*seen)[len(*seen)-1].Body, `"startdate":"2022-10-05"`)
	})

	t.Run("读写密钥的余额", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/my/balances": `{"status":"ok","balance":{"btc":"0.5","aud":"1000"}}`,
		})
		bal, err := c.FetchBalance(ctx, adapter.Options{})
		require.NoError(t, err)
		assert.Equal(t, "0.5", bal.Currencies["BTC"].Total)
		assert.Equal(t, "1000", bal.Currencies["AUD"].Total)
	})

	t.Run("只读密钥的余额", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/my/balances": `{"status":"ok","balances":[
				{"LTC":{"balance":0.1,"audbalance":16.59,"rate":165.95}},
				{"DRK":{"balance":2,"audbalance":100,"rate":50}}]}`,
		})
		bal, err := c.FetchBalance(ctx, adapter.Options{})
		require.NoError(t, err)
		assert.Equal(t, "0.1", bal.Currencies["LTC"].Total)
		assert.Equal(t, "2", bal.Currencies["DASH"].Total, "DRK 映射为 DASH")
	})

	t.Run("限价下单", func(t *testing.T) {
		c, seen := newTestCoinSpot(t, map[string]string{
			"POST /api/my/buy": `{"status":"ok","coin":"BTC","market":"BTC/AUD","amount":0.5,"rate":50000,"id":"5f2d1e"}`,
		})
		o, err := c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeLimit, model.SideBuy, "0.5", "50000", adapter.Options{})
		require.NoError(t, err)
		assert.Equal(t, "5f2d1e", o.ID)
		assert.Equal(t, "BTC/AUD", o.Symbol)
		assert.Equal(t, model.SideBuy, o.Side)
		assert.Equal(t, "50000", o.Price)
		assert.Equal(t, "0.5", o.Amount)
		assert.Equal(t, model.OrderStatusOpen, o.Status)

		req := (*seen)[len(*seen)-1]
		assert.JSONEq(t, `{"amount":0.5,"cointype":"btc","nonce":1700000000000,"rate":50000}`, req.Body)
		assert.Equal(t, adapter.HMAC(req.Body, "secret", adapter.SHA512, adapter.Hex), req.Headers["sign"])
	})

	t.Run("市价单被拒绝", func(t *testing.T) {
		c, seen := newTestCoinSpot(t, nil)
		_, err := c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeMarket, model.SideSell, "1", "", adapter.Options{})
		assert.Equal(t, taxonomy.InvalidOrder, taxonomy.KindOf(err))
		assert.Empty(t, *seen)
	})

	t.Run("撤单需要方向", func(t *testing.T) {
		c, seen := newTestCoinSpot(t, map[string]string{
			"POST /api/my/sell/cancel": `{"status":"ok"}`,
		})
		_, err := c.CancelOrder(ctx, "abc", "BTC/AUD", adapter.Options{})
		assert.Equal(t, taxonomy.ArgumentsRequired, taxonomy.KindOf(err))

		o, err := c.CancelOrder(ctx, "abc", "BTC/AUD", adapter.Options{Extra: map[string]interface{}{"side": "sell"}})
		require.NoError(t, err)
		assert.Equal(t, "abc", o.ID)
		assert.Equal(t, model.OrderStatusCanceled, o.Status)
		assert.JSONEq(t, `{"id":"abc","nonce":1700000000000}`, (*seen)[len(*seen)-1].Body, "side 不发送给交易所")
	})

	t.Run("交易所返回错误", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/my/sell": `{"status":"error","message":"Not enough coins"}`,
		})
		_, err := c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeLimit, model.SideSell, "10", "50000", adapter.Options{})
		require.Error(t, err)
		assert.True(t, taxonomy.KindOf(err).IsA(taxonomy.ExchangeError))
	})
}

func TestStrictParsing(t *testing.T) {
	ctx := context.Background()

	t.Run("不在市场列表中的成交返回解析错误", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/ro/my/transactions": `{"status":"ok","buyorders":[],
				"sellorders":[{"market":"SOLO/ALGO","amount":1,"total":2,"created":"2022-04-16T09:36:43.698Z"}]}`,
		})
		_, err := c.FetchMyTrades(ctx, "", 0, 0, adapter.Options{})
		var perr *adapter.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "trade", perr.Entity)
		assert.Equal(t, "SOLO/ALGO", perr.Value)
	})

	t.Run("成交数量格式错误", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/ro/my/transactions": `{"status":"ok","buyorders":[{"market":"BTC/AUD","amount":"1.2.3","audtotal":200,
				"created":"2022-10-20T09:56:44.502Z"}]}`,
		})
		_, err := c.FetchMyTrades(ctx, "", 0, 0, adapter.Options{})
		var perr *adapter.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "amount", perr.Field)
	})

	t.Run("下单回执市场不一致", func(t *testing.T) {
		c, _ := newTestCoinSpot(t, map[string]string{
			"POST /api/my/buy": `{"status":"ok","market":"SOLO/ALGO","amount":0.5,"rate":50000,"id":"1"}`,
		})
		_, err := c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeLimit, model.SideBuy, "0.5", "50000", adapter.Options{})
		var perr *adapter.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "order", perr.Entity)
	})
}

func TestCreateOrderValidatesNumbers(t *testing.T) {
	ctx := context.Background()
	c, seen := newTestCoinSpot(t, map[string]string{
		"POST /api/my/buy": `{"status":"ok","market":"BTC/AUD","amount":0.5,"rate":50000,"id":"1"}`,
	})
	cases := []struct {
		name, amount, price string
	}{
		{"数量不是数字", "abc", "50000"},
		{"价格不是数字", "0.5", "5e"},
		{"数量为零", "0", "50000"},
		{"价格为负", "0.5", "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeLimit, model.SideBuy, tc.amount, tc.price, adapter.Options{})
			assert.Equal(t, taxonomy.BadRequest, taxonomy.KindOf(err))
			assert.Empty(t, *seen, "参数不合法时不发送请求")
		})
	}
}

func TestPrivateWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	seen := &[]*adapter.SignedRequest{}
	c := New(adapter.Config{Transport: routeTransport(nil, seen)})

	_, err := c.FetchBalance(ctx, adapter.Options{})
	assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
	_, err = c.FetchMyTrades(ctx, "", 0, 0, adapter.Options{})
	assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
	_, err = c.CreateOrder(ctx, "BTC/AUD", model.OrderTypeLimit, model.SideBuy, "1", "1", adapter.Options{})
	assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
	_, err = c.CancelOrder(ctx, "1", "BTC/AUD", adapter.Options{Side: model.SideBuy})
	assert.Equal(t, taxonomy.AuthenticationConfigError, taxonomy.KindOf(err))
	assert.Empty(t, *seen, "缺少凭证时不发送任何请求")
	assert.False(t, c.Registry().Populated(), "缺少凭证时不加载市场")
}
