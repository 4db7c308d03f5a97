// Package precise 提供基于十进制字符串的任意精度运算。
// 所有金额和数量都以字符串进出，空字符串表示"未设置"，运算结果同样为空。
package precise

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SignificantDigits 不能整除时保留的有效数字位数
const SignificantDigits = 34

// parse 解析十进制字符串，空字符串返回 unset=true
func parse(s string) (d decimal.Decimal, unset bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true, nil
	}
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, &FormatError{Input: s, Reason: err.Error()}
	}
	return d, false, nil
}

// parsePair 解析两个操作数
func parsePair(a, b string) (x, y decimal.Decimal, unset bool, err error) {
	x, ua, err := parse(a)
	if err != nil {
		return x, y, false, err
	}
	y, ub, err := parse(b)
	if err != nil {
		return x, y, false, err
	}
	return x, y, ua || ub, nil
}

// Parse 解析并校验字符串，返回规范化的形式（去掉多余的零）
func Parse(s string) (string, error) {
	d, unset, err := parse(s)
	if err != nil || unset {
		return "", err
	}
	return d.String(), nil
}

// Valid 判断字符串是否为合法的十进制数
func Valid(s string) bool {
	_, unset, err := parse(s)
	return err == nil && !unset
}

// Add 加法
func Add(a, b string) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	return x.Add(y).String(), nil
}

// Sub 减法
func Sub(a, b string) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	return x.Sub(y).String(), nil
}

// Mul 乘法
func Mul(a, b string) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	return x.Mul(y).String(), nil
}

// Div 除法，能整除时结果精确，否则保留 SignificantDigits 位有效数字并去掉尾部的零
func Div(a, b string) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	if y.IsZero() {
		return "", &ArithmeticError{Op: "division", Operand: b}
	}
	places := SignificantDigits - (magnitude(x) - magnitude(y)) + 1
	if places < 0 {
		places = 0
	}
	return x.DivRound(y, int32(places)).String(), nil
}

// DivPrec 除法，结果截断到固定小数位
func DivPrec(a, b string, places int32) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	if y.IsZero() {
		return "", &ArithmeticError{Op: "division", Operand: b}
	}
	q, _ := x.QuoRem(y, places)
	return q.String(), nil
}

// Mod 取模，结果符号与被除数一致
func Mod(a, b string) (string, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil || unset {
		return "", err
	}
	if y.IsZero() {
		return "", &ArithmeticError{Op: "modulo", Operand: b}
	}
	return x.Mod(y).String(), nil
}

// Abs 绝对值
func Abs(a string) (string, error) {
	x, unset, err := parse(a)
	if err != nil || unset {
		return "", err
	}
	return x.Abs().String(), nil
}

// Neg 取反
func Neg(a string) (string, error) {
	x, unset, err := parse(a)
	if err != nil || unset {
		return "", err
	}
	return x.Neg().String(), nil
}

// Cmp 比较大小，返回 -1/0/1。未设置的值无法比较
func Cmp(a, b string) (int, error) {
	x, y, unset, err := parsePair(a, b)
	if err != nil {
		return 0, err
	}
	if unset {
		return 0, &FormatError{Input: a + "," + b, Reason: "cannot compare unset value"}
	}
	return x.Cmp(y), nil
}

// Eq 相等
func Eq(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return err == nil && c == 0, err
}

// Gt 大于
func Gt(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return err == nil && c > 0, err
}

// Ge 大于等于
func Ge(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return err == nil && c >= 0, err
}

// Lt 小于
func Lt(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return err == nil && c < 0, err
}

// Le 小于等于
func Le(a, b string) (bool, error) {
	c, err := Cmp(a, b)
	return err == nil && c <= 0, err
}

// Min 较小值，任一未设置时返回另一个
func Min(a, b string) (string, error) {
	return pick(a, b, func(c int) bool { return c <= 0 })
}

// Max 较大值，任一未设置时返回另一个
func Max(a, b string) (string, error) {
	return pick(a, b, func(c int) bool { return c >= 0 })
}

func pick(a, b string, keepA func(int) bool) (string, error) {
	x, ua, err := parse(a)
	if err != nil {
		return "", err
	}
	y, ub, err := parse(b)
	if err != nil {
		return "", err
	}
	switch {
	case ua && ub:
		return "", nil
	case ua:
		return y.String(), nil
	case ub:
		return x.String(), nil
	}
	if keepA(x.Cmp(y)) {
		return x.String(), nil
	}
	return y.String(), nil
}

// IsZero 判断是否为零，未设置返回false
func IsZero(a string) bool {
	x, unset, err := parse(a)
	return err == nil && !unset && x.IsZero()
}

// Sign 符号，未设置或非法返回0
func Sign(a string) int {
	x, unset, err := parse(a)
	if err != nil || unset {
		return 0
	}
	return x.Sign()
}

// FromInt 整数转十进制字符串
func FromInt(v int64) string {
	return decimal.NewFromInt(v).String()
}

// magnitude 整数部分位数（0.001 为 -2，123 为 3）
func magnitude(d decimal.Decimal) int {
	if d.IsZero() {
		return 0
	}
	return d.NumDigits() + int(d.Exponent())
}
