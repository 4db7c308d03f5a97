package model

// CurrencyLimits 币种限额
type CurrencyLimits struct {
	Deposit  MinMax `json:"deposit"`
	Withdraw MinMax `json:"withdraw"`
}

// Network 币种在某条链上的信息
type Network struct {
	ID        string         `json:"id"`      // 交易所原生链ID
	Network   string         `json:"network"` // 统一链代码
	Active    bool           `json:"active"`
	Deposit   bool           `json:"deposit"`
	Withdraw  bool           `json:"withdraw"`
	Fee       string         `json:"fee,omitempty"`
	Precision string         `json:"precision,omitempty"`
	Limits    CurrencyLimits `json:"limits"`
}

// Currency 币种信息
type Currency struct {
	ID        string             `json:"id"`   // 交易所原生ID
	Code      string             `json:"code"` // 别名映射后的统一代码
	Name      string             `json:"name,omitempty"`
	Active    bool               `json:"active"`
	Deposit   bool               `json:"deposit"`
	Withdraw  bool               `json:"withdraw"`
	Fee       string             `json:"fee,omitempty"`
	Precision string             `json:"precision,omitempty"`
	Limits    CurrencyLimits     `json:"limits"`
	Networks  map[string]Network `json:"networks,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// DepositWithdrawFee 充提手续费
type DepositWithdrawFee struct {
	Currency    string                           `json:"currency"`
	WithdrawFee string                           `json:"withdraw_fee,omitempty"` // 只有一条链时才设置
	DepositFee  string                           `json:"deposit_fee,omitempty"`
	Networks    map[string]NetworkDepositWithdraw `json:"networks,omitempty"`
	Info        map[string]interface{}           `json:"info,omitempty"`
}

// NetworkDepositWithdraw 单条链的充提手续费
type NetworkDepositWithdraw struct {
	WithdrawFee string `json:"withdraw_fee,omitempty"`
	DepositFee  string `json:"deposit_fee,omitempty"`
}
