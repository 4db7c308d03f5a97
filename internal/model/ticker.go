package model

import (
	"sort"

	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// Ticker 行情快照，所有字段均可选，缺失时保持为空
type Ticker struct {
	Symbol        string `json:"symbol"`
	Timestamp     int64  `json:"timestamp,omitempty"`
	High          string `json:"high,omitempty"`
	Low           string `json:"low,omitempty"`
	Bid           string `json:"bid,omitempty"`
	BidVolume     string `json:"bid_volume,omitempty"`
	Ask           string `json:"ask,omitempty"`
	AskVolume     string `json:"ask_volume,omitempty"`
	Vwap          string `json:"vwap,omitempty"`
	Open          string `json:"open,omitempty"`
	Close         string `json:"close,omitempty"`
	Last          string `json:"last,omitempty"`
	PreviousClose string `json:"previous_close,omitempty"`
	Change        string `json:"change,omitempty"`
	Percentage    string `json:"percentage,omitempty"`
	Average       string `json:"average,omitempty"`
	BaseVolume    string `json:"base_volume,omitempty"`
	QuoteVolume   string `json:"quote_volume,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// Complete 补全可推导的字段：close 与 last 互补，已知开收盘价时计算涨跌额、涨跌幅和均价
func (t *Ticker) Complete() error {
	if t.Close == "" {
		t.Close = t.Last
	}
	if t.Last == "" {
		t.Last = t.Close
	}
	if t.Open == "" || t.Close == "" {
		return nil
	}
	var err error
	if t.Change == "" {
		if t.Change, err = precise.Sub(t.Close, t.Open); err != nil {
			return err
		}
	}
	if t.Average == "" {
		sum, err := precise.Add(t.Close, t.Open)
		if err != nil {
			return err
		}
		if t.Average, err = precise.Div(sum, "2"); err != nil {
			return err
		}
	}
	if t.Percentage == "" && !precise.IsZero(t.Open) {
		ratio, err := precise.Div(t.Change, t.Open)
		if err != nil {
			return err
		}
		if t.Percentage, err = precise.Mul(ratio, "100"); err != nil {
			return err
		}
	}
	return nil
}

// PriceLevel 盘口档位 [价格, 数量]
type PriceLevel [2]string

// Price 价格
func (l PriceLevel) Price() string { return l[0] }

// Amount 数量
func (l PriceLevel) Amount() string { return l[1] }

// OrderBook 订单簿，买盘价格降序，卖盘价格升序
type OrderBook struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp,omitempty"`
	Nonce     int64        `json:"nonce,omitempty"` // 交易所提供的序列号
}

// Sort 按价格排序，非法价格排在最后
func (b *OrderBook) Sort() {
	sortLevels(b.Bids, true)
	sortLevels(b.Asks, false)
}

func sortLevels(levels []PriceLevel, desc bool) {
	sort.SliceStable(levels, func(i, j int) bool {
		c, err := precise.Cmp(levels[i].Price(), levels[j].Price())
		if err != nil {
			return false
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Fee 手续费
type Fee struct {
	Cost     string `json:"cost,omitempty"`
	Currency string `json:"currency,omitempty"`
	Rate     string `json:"rate,omitempty"`
}

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade 成交记录
type Trade struct {
	ID           string `json:"id,omitempty"`
	Order        string `json:"order,omitempty"`
	Timestamp    int64  `json:"timestamp,omitempty"`
	Symbol       string `json:"symbol"`
	Type         string `json:"type,omitempty"`
	Side         Side   `json:"side,omitempty"`
	TakerOrMaker string `json:"taker_or_maker,omitempty"`
	Price        string `json:"price"`
	Amount       string `json:"amount"`
	Cost         string `json:"cost,omitempty"`
	Fee          *Fee   `json:"fee,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// Complete 缺少成交额时按 price*amount 推导
func (t *Trade) Complete() error {
	if t.Cost != "" {
		return nil
	}
	cost, err := precise.Mul(t.Price, t.Amount)
	if err != nil {
		return err
	}
	t.Cost = cost
	return nil
}

// OHLCV K线
type OHLCV struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}
