package model

// FundingRate 资金费率
type FundingRate struct {
	Symbol           string `json:"symbol"`
	MarkPrice        string `json:"mark_price,omitempty"`
	IndexPrice       string `json:"index_price,omitempty"`
	InterestRate     string `json:"interest_rate,omitempty"`
	Timestamp        int64  `json:"timestamp,omitempty"`
	FundingRate      string `json:"funding_rate,omitempty"`
	FundingTimestamp int64  `json:"funding_timestamp,omitempty"` // 下次结算时间

	Info map[string]interface{} `json:"info,omitempty"`
}

// FundingHistory 资金费支付记录
type FundingHistory struct {
	Symbol    string `json:"symbol"`
	Code      string `json:"code"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Amount    string `json:"amount"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// LeverageTier 阶梯保证金档位，MaxLeverage = 1 / 初始保证金率
type LeverageTier struct {
	Tier                  int    `json:"tier"`
	Symbol                string `json:"symbol"`
	Currency              string `json:"currency"`
	MinNotional           string `json:"min_notional"`
	MaxNotional           string `json:"max_notional"`
	MaintenanceMarginRate string `json:"maintenance_margin_rate"`
	MaxLeverage           string `json:"max_leverage"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// Leverage 杠杆倍数
type Leverage struct {
	Symbol        string         `json:"symbol"`
	MarginMode    MarginModeType `json:"margin_mode,omitempty"`
	LongLeverage  string         `json:"long_leverage,omitempty"`
	ShortLeverage string         `json:"short_leverage,omitempty"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// MarginMode 保证金模式
type MarginMode struct {
	Symbol     string         `json:"symbol"`
	MarginMode MarginModeType `json:"margin_mode"`

	Info map[string]interface{} `json:"info,omitempty"`
}

// MarginModification 逐仓保证金调整结果
type MarginModification struct {
	Symbol     string         `json:"symbol"`
	Type       string         `json:"type"` // add / reduce
	MarginMode MarginModeType `json:"margin_mode"`
	Amount     string         `json:"amount"`
	Code       string         `json:"code,omitempty"`
	Status     string         `json:"status"` // ok / failed

	Info map[string]interface{} `json:"info,omitempty"`
}
