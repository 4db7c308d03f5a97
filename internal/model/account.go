package model

import (
	"fmt"

	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// Balance 单币种余额，free + used = total
type Balance struct {
	Free  string `json:"free,omitempty"`
	Used  string `json:"used,omitempty"`
	Total string `json:"total,omitempty"`
	Debt  string `json:"debt,omitempty"` // 借贷，仅杠杆账户
}

// Complete 已知任意两项时推导第三项
func (b *Balance) Complete() error {
	var err error
	switch {
	case b.Free != "" && b.Used != "":
		b.Total, err = precise.Add(b.Free, b.Used)
	case b.Total != "" && b.Used != "":
		b.Free, err = precise.Sub(b.Total, b.Used)
	case b.Total != "" && b.Free != "":
		b.Used, err = precise.Sub(b.Total, b.Free)
	}
	return err
}

// Balances 账户余额
type Balances struct {
	Timestamp  int64                  `json:"timestamp,omitempty"`
	Currencies map[string]Balance     `json:"currencies"`
	Info       map[string]interface{} `json:"info,omitempty"`
}

// NewBalances 创建空余额
func NewBalances() *Balances {
	return &Balances{Currencies: make(map[string]Balance)}
}

// Set 写入余额并补全
func (b *Balances) Set(code string, bal Balance) error {
	if err := bal.Complete(); err != nil {
		return fmt.Errorf("补全余额 %s 失败: %w", code, err)
	}
	b.Currencies[code] = bal
	return nil
}

// Validate 校验每个币种 total = free + used
func (b *Balances) Validate() error {
	for code, bal := range b.Currencies {
		if bal.Free == "" || bal.Used == "" || bal.Total == "" {
			continue
		}
		sum, err := precise.Add(bal.Free, bal.Used)
		if err != nil {
			return err
		}
		if ok, _ := precise.Eq(sum, bal.Total); !ok {
			return fmt.Errorf("余额不一致 %s: free=%s used=%s total=%s", code, bal.Free, bal.Used, bal.Total)
		}
	}
	return nil
}

// MarginModeType 保证金模式
type MarginModeType string

const (
	MarginCross    MarginModeType = "cross"
	MarginIsolated MarginModeType = "isolated"
)

// PositionSide 持仓方向
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// Position 合约持仓
type Position struct {
	Symbol           string         `json:"symbol"`
	Side             PositionSide   `json:"side,omitempty"`
	Contracts        string         `json:"contracts,omitempty"`
	ContractSize     string         `json:"contract_size,omitempty"`
	Notional         string         `json:"notional,omitempty"`
	EntryPrice       string         `json:"entry_price,omitempty"`
	MarkPrice        string         `json:"mark_price,omitempty"`
	UnrealizedPnl    string         `json:"unrealized_pnl,omitempty"`
	MarginMode       MarginModeType `json:"margin_mode,omitempty"`
	Leverage         string         `json:"leverage,omitempty"`
	Collateral       string         `json:"collateral,omitempty"`
	LiquidationPrice string         `json:"liquidation_price,omitempty"`
	StopLossPrice    string         `json:"stop_loss_price,omitempty"`
	TakeProfitPrice  string         `json:"take_profit_price,omitempty"`
	Timestamp        int64          `json:"timestamp,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// TransactionType 资金流水类型
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus 充提状态
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionOK       TransactionStatus = "ok"
	TransactionFailed   TransactionStatus = "failed"
	TransactionCanceled TransactionStatus = "canceled"
)

// Transaction 充值或提现记录
type Transaction struct {
	ID          string            `json:"id"`
	TxID        string            `json:"txid,omitempty"`
	Type        TransactionType   `json:"type"`
	Currency    string            `json:"currency"`
	Network     string            `json:"network,omitempty"`
	Amount      string            `json:"amount,omitempty"`
	Status      TransactionStatus `json:"status,omitempty"`
	Address     string            `json:"address,omitempty"`
	AddressFrom string            `json:"address_from,omitempty"`
	AddressTo   string            `json:"address_to,omitempty"`
	Tag         string            `json:"tag,omitempty"`
	TagFrom     string            `json:"tag_from,omitempty"`
	TagTo       string            `json:"tag_to,omitempty"`
	Fee         *Fee              `json:"fee,omitempty"`
	Timestamp   int64             `json:"timestamp,omitempty"`
	Internal    bool              `json:"internal,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// DepositAddress 充值地址
type DepositAddress struct {
	Currency string `json:"currency"`
	Network  string `json:"network,omitempty"`
	Address  string `json:"address"`
	Tag      string `json:"tag,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// Transfer 账户间划转
type Transfer struct {
	ID          string `json:"id,omitempty"`
	Timestamp   int64  `json:"timestamp,omitempty"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Status      string `json:"status"` // ok / failed

	Info map[string]interface{} `json:"info,omitempty"`
}
