package precise

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode 舍入方式
type RoundingMode int

const (
	Round    RoundingMode = iota // 四舍五入（远离零）
	Truncate                     // 向零截断
	RoundUp                      // 远离零进位
)

// CountingMode 精度的表达方式
type CountingMode int

const (
	DecimalPlaces CountingMode = iota // 精度为小数位数，例如 "4"
	TickSize                          // 精度为最小变动单位，例如 "0.0001"、"0.5"
)

// PaddingMode 补零方式
type PaddingMode int

const (
	NoPadding   PaddingMode = iota // 去掉尾部的零
	PadWithZero                    // 按精度补齐小数位
)

// ToPrecision 按精度格式化数值。结果再次以同样参数格式化时保持不变
func ToPrecision(x, precision string, rounding RoundingMode, counting CountingMode, padding PaddingMode) (string, error) {
	d, unset, err := parse(x)
	if err != nil || unset {
		return "", err
	}

	var (
		result   decimal.Decimal
		decimals int32
	)

	switch counting {
	case DecimalPlaces:
		places, err := strconv.Atoi(strings.TrimSpace(precision))
		if err != nil {
			return "", &FormatError{Input: precision, Reason: "decimal places must be an integer"}
		}
		if places < 0 {
			// 负的小数位等价于 10^n 的步长
			tick := decimal.New(1, int32(-places))
			result = roundToTick(d, tick, rounding)
			decimals = 0
			break
		}
		decimals = int32(places)
		switch rounding {
		case Truncate:
			result = d.Truncate(decimals)
		case RoundUp:
			result = d.RoundUp(decimals)
		default:
			result = d.Round(decimals)
		}

	case TickSize:
		tick, unset, err := parse(precision)
		if err != nil {
			return "", err
		}
		if unset || tick.Sign() <= 0 {
			return "", &FormatError{Input: precision, Reason: "tick size must be positive"}
		}
		result = roundToTick(d, tick, rounding)
		decimals = int32(decimalCount(tick))

	default:
		return "", &FormatError{Input: precision, Reason: "unknown counting mode"}
	}

	if padding == PadWithZero {
		return result.StringFixed(decimals), nil
	}
	return result.String(), nil
}

// roundToTick 舍入到步长的整数倍
func roundToTick(d, tick decimal.Decimal, rounding RoundingMode) decimal.Decimal {
	q, r := d.QuoRem(tick, 0)
	if !r.IsZero() {
		step := decimal.NewFromInt(int64(d.Sign()))
		switch rounding {
		case RoundUp:
			q = q.Add(step)
		case Round:
			if r.Abs().Mul(decimal.NewFromInt(2)).Cmp(tick) >= 0 {
				q = q.Add(step)
			}
		}
	}
	return q.Mul(tick)
}

// decimalCount 去掉尾部零后的小数位数
func decimalCount(d decimal.Decimal) int {
	s := d.String()
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

// ParsePrecision 将小数位数转换为步长，"8" -> "0.00000001"，"-2" -> "100"
func ParsePrecision(places string) (string, error) {
	places = strings.TrimSpace(places)
	if places == "" {
		return "", nil
	}
	n, err := strconv.Atoi(places)
	if err != nil {
		return "", &FormatError{Input: places, Reason: "precision must be an integer"}
	}
	return decimal.New(1, int32(-n)).String(), nil
}

// PrecisionFromString 步长对应的小数位数，"0.001" -> 3
func PrecisionFromString(tick string) (int, error) {
	d, unset, err := parse(tick)
	if err != nil || unset {
		return 0, err
	}
	return decimalCount(d), nil
}
