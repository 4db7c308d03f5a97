package model

import "github.com/mooyang-code/exchange-normalizer/internal/precise"

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusClosed   OrderStatus = "closed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusExpired  OrderStatus = "expired"
)

// OrderType 订单类型，止损类订单统一为 limit/market 并设置 TriggerPrice
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Order 订单。由解析函数产生，产生后不再修改
type Order struct {
	ID                 string      `json:"id"`
	ClientOrderID      string      `json:"client_order_id,omitempty"`
	Timestamp          int64       `json:"timestamp,omitempty"`
	LastTradeTimestamp int64       `json:"last_trade_timestamp,omitempty"`
	Symbol             string      `json:"symbol"`
	Type               OrderType   `json:"type,omitempty"`
	TimeInForce        string      `json:"time_in_force,omitempty"`
	Side               Side        `json:"side,omitempty"`
	Price              string      `json:"price,omitempty"`
	TriggerPrice       string      `json:"trigger_price,omitempty"`
	Amount             string      `json:"amount,omitempty"`
	Filled             string      `json:"filled,omitempty"`
	Remaining          string      `json:"remaining,omitempty"`
	Cost               string      `json:"cost,omitempty"`
	Average            string      `json:"average,omitempty"`
	Status             OrderStatus `json:"status,omitempty"`
	PostOnly           *bool       `json:"post_only,omitempty"`
	ReduceOnly         *bool       `json:"reduce_only,omitempty"`
	Fee                *Fee        `json:"fee,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// Complete 补全可推导的字段：
// amount 与 filled 都已知时 remaining 总是重新计算；
// 只知道其中一个时用 remaining 推导另一个；
// cost 缺失时用 filled*average（或 filled*price）推导
func (o *Order) Complete() error {
	var err error
	switch {
	case o.Amount != "" && o.Filled != "":
		if o.Remaining, err = precise.Sub(o.Amount, o.Filled); err != nil {
			return err
		}
	case o.Amount != "" && o.Remaining != "":
		if o.Filled, err = precise.Sub(o.Amount, o.Remaining); err != nil {
			return err
		}
	case o.Filled != "" && o.Remaining != "":
		if o.Amount, err = precise.Add(o.Filled, o.Remaining); err != nil {
			return err
		}
	}

	if o.TimeInForce == "PO" {
		o.PostOnly = Bool(true)
	}

	if o.Cost == "" && o.Filled != "" {
		price := o.Average
		if price == "" {
			price = o.Price
		}
		if price != "" {
			if o.Cost, err = precise.Mul(o.Filled, price); err != nil {
				return err
			}
		}
	}
	if o.Average == "" && o.Cost != "" && o.Filled != "" && !precise.IsZero(o.Filled) {
		if o.Average, err = precise.Div(o.Cost, o.Filled); err != nil {
			return err
		}
	}
	return nil
}
