package types

import (
	"time"
)

// DataType 调度任务的数据类型
type DataType string

const (
	DataTypeMarkets   DataType = "markets"   // 刷新市场缓存
	DataTypeTicker    DataType = "ticker"    // 行情
	DataTypeOrderbook DataType = "orderbook" // 订单簿
	DataTypeTrades    DataType = "trades"    // 成交
	DataTypeOHLCV     DataType = "ohlcv"     // K线
	DataTypeBalance   DataType = "balance"   // 账户余额
)

// Valid 是否为支持的数据类型
func (d DataType) Valid() bool {
	switch d {
	case DataTypeMarkets, DataTypeTicker, DataTypeOrderbook, DataTypeTrades, DataTypeOHLCV, DataTypeBalance:
		return true
	}
	return false
}

// JobResult 一次任务产出的数据，Data 为统一模型的值或切片
type JobResult struct {
	Job       string      `json:"job"`
	Exchange  string      `json:"exchange"`
	DataType  DataType    `json:"data_type"`
	Symbol    string      `json:"symbol,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// DataCallback 数据回调函数类型
type DataCallback func(result *JobResult) error
