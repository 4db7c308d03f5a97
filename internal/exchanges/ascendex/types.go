package ascendex

import (
	"net/http"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

// 内部操作，只用于构建请求
const (
	opProducts         adapter.Operation = "ascendex.products"
	opCashProducts     adapter.Operation = "ascendex.cashProducts"
	opContracts        adapter.Operation = "ascendex.contracts"
	opAccountInfo      adapter.Operation = "ascendex.accountInfo"
	opFetchLeverages   adapter.Operation = "fetchLeverages"
	opFetchMarginModes adapter.Operation = "fetchMarginModes"
)

const (
	maxBatchOrders   = 10
	maxOHLCVLimit    = 500
	minLeverage      = 1
	maxLeverage      = 100
	defaultCategory  = "cash"
	placeholderOrder = "foobar"
)

// scope 接口作用域，决定路径前缀
type scope int

const (
	scopeNone            scope = iota
	scopeAccountCategory       // /{account-group}/api/pro/v1/{account-category}/...
	scopeAccountGroup          // /{account-group}/api/pro/...
	scopeData                  // /api/pro/data/v2/...
)

// endpoint 接口定义
type endpoint struct {
	version string
	private bool
	scope   scope
	method  string
	path    string
}

func public(version, path string) endpoint {
	return endpoint{version: version, method: http.MethodGet, path: path}
}

func private(version string, sc scope, method, path string) endpoint {
	return endpoint{version: version, private: true, scope: sc, method: method, path: path}
}

// 公共接口
var (
	epAssets        = public("v2", "assets")
	epExchangeInfo  = public("v1", "exchange-info")
	epProducts      = public("v1", "products")
	epCashProducts  = public("v1", "cash/products")
	epContracts     = public("v2", "futures/contract")
	epPricingData   = public("v2", "futures/pricing-data")
	epFuturesTicker = public("v2", "futures/ticker")
	epTicker        = public("v1", "ticker")
	epBarHist       = public("v1", "barhist")
	epDepth         = public("v1", "depth")
	epTrades        = public("v1", "trades")
)

// 私有接口
var (
	epInfo           = private("v1", scopeNone, http.MethodGet, "info")
	epTransactions   = private("v1", scopeNone, http.MethodGet, "wallet/transactions")
	epDepositAddress = private("v1", scopeNone, http.MethodGet, "wallet/deposit/address")

	epBalance     = private("v1", scopeAccountCategory, http.MethodGet, "balance")
	epOpenOrders  = private("v1", scopeAccountCategory, http.MethodGet, "order/open")
	epOrderStatus = private("v1", scopeAccountCategory, http.MethodGet, "order/status")
	epPlaceOrder  = private("v1", scopeAccountCategory, http.MethodPost, "order")
	epBatchOrder  = private("v1", scopeAccountCategory, http.MethodPost, "order/batch")
	epCancelOrder = private("v1", scopeAccountCategory, http.MethodDelete, "order")
	epCancelAll   = private("v1", scopeAccountCategory, http.MethodDelete, "order/all")
	epTransfer    = private("v1", scopeAccountGroup, http.MethodPost, "transfer")
	epSpotFee     = private("v1", scopeAccountGroup, http.MethodGet, "spot/fee")

	epOrderHist = private("v2", scopeData, http.MethodGet, "order/hist")

	epPosition           = private("v2", scopeAccountGroup, http.MethodGet, "futures/position")
	epFuturesOrderHist   = private("v2", scopeAccountGroup, http.MethodGet, "futures/order/hist/current")
	epFundingPayments    = private("v2", scopeAccountGroup, http.MethodGet, "futures/funding-payments")
	epFuturesOpenOrders  = private("v2", scopeAccountGroup, http.MethodGet, "futures/order/open")
	epFuturesOrderStatus = private("v2", scopeAccountGroup, http.MethodGet, "futures/order/status")
	epIsolatedMargin     = private("v2", scopeAccountGroup, http.MethodPost, "futures/isolated-position-margin")
	epMarginType         = private("v2", scopeAccountGroup, http.MethodPost, "futures/margin-type")
	epLeverage           = private("v2", scopeAccountGroup, http.MethodPost, "futures/leverage")
	epFuturesOrder       = private("v2", scopeAccountGroup, http.MethodPost, "futures/order")
	epFuturesCancel      = private("v2", scopeAccountGroup, http.MethodDelete, "futures/order")
	epFuturesCancelAll   = private("v2", scopeAccountGroup, http.MethodDelete, "futures/order/all")
)

// call 路由结果
type call struct {
	ep       endpoint
	params   adapter.Params
	category string // account-category 路径段
}

// orderStatuses 交易所订单状态 -> 统一状态
var orderStatuses = map[string]model.OrderStatus{
	"PendingNew":      model.OrderStatusOpen,
	"New":             model.OrderStatusOpen,
	"PartiallyFilled": model.OrderStatusOpen,
	"Filled":          model.OrderStatusClosed,
	"Canceled":        model.OrderStatusCanceled,
	"Rejected":        model.OrderStatusRejected,
}

// transactionStatuses 充提状态，被拒绝的充提记为失败
var transactionStatuses = map[string]model.TransactionStatus{
	"reviewing": model.TransactionPending,
	"pending":   model.TransactionPending,
	"confirmed": model.TransactionOK,
	"rejected":  model.TransactionFailed,
}
