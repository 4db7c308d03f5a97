package adapter

import (
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

// Operation 适配器操作名，适配器可定义自己的内部操作
type Operation string

const (
	OpFetchMarkets             Operation = "fetchMarkets"
	OpFetchCurrencies          Operation = "fetchCurrencies"
	OpFetchTicker              Operation = "fetchTicker"
	OpFetchTickers             Operation = "fetchTickers"
	OpFetchOrderBook           Operation = "fetchOrderBook"
	OpFetchTrades              Operation = "fetchTrades"
	OpFetchOHLCV               Operation = "fetchOHLCV"
	OpFetchTime                Operation = "fetchTime"
	OpFetchTradingFees         Operation = "fetchTradingFees"
	OpFetchBalance             Operation = "fetchBalance"
	OpCreateOrder              Operation = "createOrder"
	OpCreateOrders             Operation = "createOrders"
	OpCancelOrder              Operation = "cancelOrder"
	OpCancelAllOrders          Operation = "cancelAllOrders"
	OpFetchOrder               Operation = "fetchOrder"
	OpFetchOrders              Operation = "fetchOrders"
	OpFetchOpenOrders          Operation = "fetchOpenOrders"
	OpFetchClosedOrders        Operation = "fetchClosedOrders"
	OpFetchMyTrades            Operation = "fetchMyTrades"
	OpFetchDeposits            Operation = "fetchDeposits"
	OpFetchWithdrawals         Operation = "fetchWithdrawals"
	OpFetchDepositsWithdrawals Operation = "fetchDepositsWithdrawals"
	OpFetchDepositAddress      Operation = "fetchDepositAddress"
	OpFetchDepositWithdrawFees Operation = "fetchDepositWithdrawFees"
	OpTransfer                 Operation = "transfer"
	OpFetchPositions           Operation = "fetchPositions"
	OpFetchFundingRates        Operation = "fetchFundingRates"
	OpFetchFundingHistory      Operation = "fetchFundingHistory"
	OpSetLeverage              Operation = "setLeverage"
	OpSetMarginMode            Operation = "setMarginMode"
	OpFetchLeverageTiers       Operation = "fetchLeverageTiers"
	OpModifyMargin             Operation = "modifyMargin"
)

// Options 调用选项，常用字段为强类型，其余放在 Extra 中原样透传给交易所
type Options struct {
	TriggerPrice  string               // 触发价，设置后为止损/止盈单
	PostOnly      bool                 // 只做挂单
	ReduceOnly    bool                 // 只减仓
	TimeInForce   string               // GTC / IOC / FOK
	ClientOrderID string               // 客户端订单ID
	MarginMode    model.MarginModeType // 保证金模式
	MarketType    model.MarketType     // 市场类型提示
	Side          model.Side           // 部分交易所撤单时需要方向
	Network       string               // 统一链代码
	Until         int64                // 结束时间，毫秒
	Extra         map[string]interface{}
}

// OrderRequest 批量下单中的一笔订单
type OrderRequest struct {
	Symbol  string
	Type    model.OrderType
	Side    model.Side
	Amount  string
	Price   string
	Options Options
}

// Args 构建请求所需的全部参数
type Args struct {
	Symbol     string
	Symbols    []string
	Code       string // 统一币种代码
	ID         string // 订单ID
	Type       model.OrderType
	Side       model.Side
	Amount     string
	Price      string
	Since      int64
	Limit      int
	Timeframe  string
	Leverage   int
	MarginMode model.MarginModeType
	From       string // 划转源账户
	To         string // 划转目标账户
	Orders     []OrderRequest
	Options    Options
}
