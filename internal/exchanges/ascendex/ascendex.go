// Package ascendex 实现AscendEX交易所适配器：现货、杠杆与永续合约
package ascendex

import (
	"context"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// ExchangeID 交易所ID
const ExchangeID = "ascendex"

// sessionAccountGroup 会话中账户组的键
const sessionAccountGroup = "accountGroup"

// Ascendex AscendEX 适配器
type Ascendex struct {
	*adapter.Base
}

var _ adapter.Exchange = (*Ascendex)(nil)
var _ adapter.Dialect = (*Ascendex)(nil)

// New 创建适配器实例
func New(cfg adapter.Config) *Ascendex {
	a := &Ascendex{}
	a.Base = adapter.NewBase(a, cfg)
	return a
}

// Describe 返回描述
func (a *Ascendex) Describe() *adapter.Descriptor {
	return adapter.NewDescriptor(ExchangeID).
		Name("AscendEX").
		Version("v2").
		RateLimit(400).
		Flags(false, true).
		Has(func(c *adapter.Capabilities) {
			c.Spot, c.Margin, c.Swap = true, true, true
			c.FetchMarkets, c.FetchCurrencies = true, true
			c.FetchTicker, c.FetchTickers = true, true
			c.FetchOrderBook, c.FetchTrades, c.FetchOHLCV = true, true, true
			c.FetchTime = true
			c.FetchBalance, c.FetchTradingFees = true, true
			c.CreateOrder, c.CreateOrders = true, true
			c.CancelOrder, c.CancelAllOrders = true, true
			c.FetchOrder, c.FetchOpenOrders, c.FetchClosedOrders = true, true, true
			c.FetchDeposits, c.FetchWithdrawals, c.FetchDepositsWithdrawals = true, true, true
			c.FetchDepositAddress, c.FetchDepositWithdrawFees = true, true
			c.Transfer = true
			c.FetchPositions = true
			c.FetchFundingRate, c.FetchFundingRates, c.FetchFundingHistory = true, true, true
			c.FetchLeverage, c.FetchLeverages, c.SetLeverage = true, true, true
			c.FetchMarginMode, c.FetchMarginModes, c.SetMarginMode = true, true, true
			c.FetchLeverageTiers = true
			c.AddMargin, c.ReduceMargin = true, true
		}).
		Timeframes(map[string]string{
			"1m": "1", "5m": "5", "15m": "15", "30m": "30",
			"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
			"1d": "1d", "1w": "1w", "1M": "1m",
		}).
		API("rest", "https://ascendex.com").
		TestAPI("rest", "https://api-test.ascendex-sandbox.com").
		Site("https://ascendex.com", "https://ascendex.github.io/ascendex-pro-api/#ascendex-pro-api-documentation").
		Fees("0.002", "0.002").
		Precision(precise.TickSize).
		Credentials(adapter.RequiredCredentials{APIKey: true, Secret: true}).
		ExactKind(taxonomy.BadRequest, "1900", "100001", "100002", "100003", "100004", "100005",
			"100006", "100007", "100010", "100011", "100012", "100013", "150001").
		ExactKind(taxonomy.AuthenticationError, "2100", "100009", "200001", "200010").
		ExactKind(taxonomy.BadSymbol, "5002", "6001", "100008", "300012", "310004").
		ExactKind(taxonomy.InsufficientFunds, "6010", "300011", "310001").
		ExactKind(taxonomy.InvalidOrder, "60060", "600503", "300001", "300002", "300003", "300004",
			"300005", "300006", "300007", "300008", "300009", "300013", "300014", "300020",
			"300031", "310002", "310003", "310005").
		ExactKind(taxonomy.ExchangeError, "100101", "200002", "200003", "200004", "200005", "200006",
			"200007", "200008", "200009", "200011", "200012", "200013", "510001", "900001").
		ExactKind(taxonomy.PermissionDenied, "200014", "200015").
		ExactKind(taxonomy.AccountSuspended, "300021").
		Aliases(map[string]string{
			"XBT":     "XBT",
			"BOND":    "BONDED",
			"BTCBEAR": "BEAR",
			"BTCBULL": "BULL",
			"BYN":     "BeyondFi",
			"PLN":     "Pollen",
		}).
		Networks(map[string]string{
			"BSC":   "BEP20 (BSC)",
			"ARB":   "arbitrum",
			"SOL":   "Solana",
			"AVAX":  "avalanche C chain",
			"OMNI":  "Omni",
			"TRC20": "TRC20",
			"ERC20": "ERC20",
			"GO20":  "GO20",
			"BEP2":  "BEP2",
			"BTC":   "Bitcoin",
			"BCH":   "Bitcoin ABC",
			"LTC":   "Litecoin",
			"MATIC": "Matic Network",
			"AKT":   "Akash",
		}).
		Accounts(map[string]string{
			string(model.MarketTypeSpot):   "cash",
			string(model.MarketTypeMargin): "margin",
			string(model.MarketTypeSwap):   "futures",
		}).
		DefaultType(model.MarketTypeSpot).
		Build()
}

// ClassifyError code 与 message 都表示成功时才算成功
func (a *Ascendex) ClassifyError(status int, body []byte) error {
	return a.ClassifyBody(body, []string{"code"}, []string{"message"})
}

// LoadAccounts 加载账户组，私有接口的路径依赖它
func (a *Ascendex) LoadAccounts(ctx context.Context) error {
	return a.Session().Ensure(ctx, func(ctx context.Context) (map[string]string, error) {
		resp, err := a.Request(ctx, opAccountInfo, adapter.Args{})
		if err != nil {
			return nil, err
		}
		group := adapter.AsRaw(resp).Dict("data").String("accountGroup")
		if group == "" {
			return nil, taxonomy.New(taxonomy.ExchangeError, ExchangeID, "account info has no accountGroup")
		}
		return map[string]string{sessionAccountGroup: group}, nil
	})
}

// accountCategory 市场类型对应的账户类别，设置了保证金模式时为杠杆账户
func (a *Ascendex) accountCategory(t model.MarketType, marginMode model.MarginModeType) string {
	if marginMode != "" {
		return "margin"
	}
	if v, ok := a.Descriptor().AccountsByType[string(t)]; ok {
		return v
	}
	return "cash"
}

// marketType 请求使用的市场类型：显式选项 > 市场本身 > 默认类型
func (a *Ascendex) marketType(m *model.Market, opts adapter.Options) model.MarketType {
	if opts.MarketType != "" {
		return opts.MarketType
	}
	if m != nil && m.Type != "" {
		return m.Type
	}
	return a.Descriptor().DefaultType
}

// prepare 加载市场与账户组；私有接口先检查凭证，缺失时不发任何请求
func (a *Ascendex) prepare(ctx context.Context, private bool) error {
	if private {
		if err := a.CheckCredentials(); err != nil {
			return err
		}
	}
	if err := a.LoadMarkets(ctx, false); err != nil {
		return err
	}
	if private {
		return a.LoadAccounts(ctx)
	}
	return nil
}
