package adapter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// AmountToPrecision 下单数量按市场精度截断
func (b *Base) AmountToPrecision(m model.Market, amount string) (string, error) {
	return b.toPrecision(m.Symbol, "amount", amount, m.Precision.Amount, precise.Truncate)
}

// PriceToPrecision 价格按市场精度四舍五入
func (b *Base) PriceToPrecision(m model.Market, price string) (string, error) {
	return b.toPrecision(m.Symbol, "price", price, m.Precision.Price, precise.Round)
}

// CurrencyToPrecision 币种数量按币种精度四舍五入，精度未知时只做格式校验
func (b *Base) CurrencyToPrecision(code, amount string) (string, error) {
	cur, _ := b.registry.Currency(code)
	return b.toPrecision(code, "amount", amount, cur.Precision, precise.Round)
}

func (b *Base) toPrecision(subject, field, value, precision string, rounding precise.RoundingMode) (string, error) {
	if precision == "" {
		n, err := precise.Parse(value)
		if err != nil || n == "" {
			return "", taxonomy.Newf(taxonomy.BadRequest, b.desc.ID, "%s %s must be a number, got %q", subject, field, value)
		}
		return n, nil
	}
	out, err := precise.ToPrecision(value, precision, rounding, b.desc.PrecisionMode, precise.NoPadding)
	if err != nil {
		return "", taxonomy.Wrap(taxonomy.BadRequest, b.desc.ID, err, subject+" "+field)
	}
	return out, nil
}

// ParseSymbol 解析响应里的市场标识。已知市场 m 优先；
// 标识缺失或无法落到已加载市场时返回 ParseError，不会拼出缓存里不存在的符号
func (b *Base) ParseSymbol(entity, id string, m *model.Market, delimiter string, hint ...model.MarketType) (string, error) {
	if m != nil && (id == "" || id == m.ID || id == m.Symbol) {
		return m.Symbol, nil
	}
	if id == "" {
		return "", &ParseError{Entity: entity, Field: "symbol"}
	}
	symbol, err := b.registry.StrictSymbol(id, delimiter, hint...)
	if err != nil {
		return "", &ParseError{Entity: entity, Field: "symbol", Value: id, Err: err}
	}
	return symbol, nil
}

// ParseTimeframe 周期字符串转秒数，如 "1m" -> 60
func ParseTimeframe(tf string) (int64, error) {
	if len(tf) < 2 {
		return 0, &ParseError{Entity: "timeframe", Field: "value", Value: tf}
	}
	amount, err := strconv.ParseInt(tf[:len(tf)-1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, &ParseError{Entity: "timeframe", Field: "value", Value: tf}
	}
	var unit int64
	switch tf[len(tf)-1] {
	case 's':
		unit = 1
	case 'm':
		unit = 60
	case 'h':
		unit = 3600
	case 'd':
		unit = 86400
	case 'w':
		unit = 7 * 86400
	case 'M':
		unit = 30 * 86400
	case 'y':
		unit = 365 * 86400
	default:
		return 0, &ParseError{Entity: "timeframe", Field: "unit", Value: tf}
	}
	return amount * unit, nil
}

// ParseLevels 解析 [[price, amount], ...] 形式的档位
func ParseLevels(list []interface{}, priceIndex, amountIndex int) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(list))
	for _, item := range list {
		price, amount := ListNumber(item, priceIndex), ListNumber(item, amountIndex)
		if price == "" || amount == "" {
			continue
		}
		out = append(out, model.PriceLevel{price, amount})
	}
	return out
}

// ParseKeyedLevels 解析 [{priceKey: .., amountKey: ..}, ...] 形式的档位
func ParseKeyedLevels(list []interface{}, priceKey, amountKey string) []model.PriceLevel {
	out := make([]model.PriceLevel, 0, len(list))
	for _, item := range list {
		r := AsRaw(item)
		price, amount := r.Number(priceKey), r.Number(amountKey)
		if price == "" || amount == "" {
			continue
		}
		out = append(out, model.PriceLevel{price, amount})
	}
	return out
}

// ListNumber 列表第 i 个元素的十进制字符串
func ListNumber(v interface{}, i int) string {
	l := AsList(v)
	if i < 0 || i >= len(l) || l[i] == nil {
		return ""
	}
	n, err := precise.Parse(toString(l[i]))
	if err != nil {
		return ""
	}
	return n
}

// FilterBySinceLimit 按时间升序排序后过滤：since 之后的前 limit 条；
// 未指定 since 时取最近的 limit 条
func FilterBySinceLimit[T any](items []T, timestamp func(T) int64, since int64, limit int) []T {
	sort.SliceStable(items, func(i, j int) bool { return timestamp(items[i]) < timestamp(items[j]) })
	out := items
	if since > 0 {
		out = out[:0:0]
		for _, it := range items {
			if timestamp(it) >= since {
				out = append(out, it)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		if since > 0 {
			out = out[:limit]
		} else {
			out = out[len(out)-limit:]
		}
	}
	return out
}

// FilterBySymbols 只保留指定符号，symbols 为空时原样返回
func FilterBySymbols[T any](items []T, symbol func(T) string, symbols []string) []T {
	if len(symbols) == 0 {
		return items
	}
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if _, ok := want[symbol(it)]; ok {
			out = append(out, it)
		}
	}
	return out
}

// SplitPair 按分隔符拆分交易对ID
func SplitPair(id, delimiter string) (base, quote string, ok bool) {
	parts := strings.Split(id, delimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ScaledTimestamp 小数形式的时间乘以 factor 后截断为整数毫秒，如秒级 "1637856276.264215" 乘 "1000"
func ScaledTimestamp(value, factor string) int64 {
	if value == "" {
		return 0
	}
	ms, err := precise.Mul(value, factor)
	if err != nil || ms == "" {
		return 0
	}
	ms, err = precise.ToPrecision(ms, "0", precise.Truncate, precise.DecimalPlaces, precise.NoPadding)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
