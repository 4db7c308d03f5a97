package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mooyang-code/exchange-normalizer/internal/precise"
)

// decoder 数字保留为 json.Number，避免浮点精度损失
var decoder = sonic.Config{UseNumber: true}.Froze()

// Decode 解码响应体
func Decode(body []byte) (interface{}, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := decoder.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	return v, nil
}

// ParseError 必需字段缺失或无法解析
type ParseError struct {
	Entity string
	Field  string
	Value  interface{}
	Err    error
}

// Error 实现error接口
func (e *ParseError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("parse %s: field %s has invalid value %v", e.Entity, e.Field, e.Value)
	}
	return fmt.Sprintf("parse %s: missing required field %s", e.Entity, e.Field)
}

// Unwrap 返回底层原因
func (e *ParseError) Unwrap() error { return e.Err }

// Raw 交易所原始对象，按候选键顺序读取字段
type Raw map[string]interface{}

// AsRaw 转为 Raw，不是对象时返回 nil
func AsRaw(v interface{}) Raw {
	switch x := v.(type) {
	case map[string]interface{}:
		return Raw(x)
	case Raw:
		return x
	}
	return nil
}

// AsList 转为列表，不是列表时返回 nil
func AsList(v interface{}) []interface{} {
	if l, ok := v.([]interface{}); ok {
		return l
	}
	return nil
}

// Value 第一个存在且非空的值
func (r Raw) Value(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has 键存在且非空
func (r Raw) Has(key string) bool {
	_, ok := r.Value(key)
	return ok
}

// String 候选键中第一个非空值的字符串形式
func (r Raw) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			if s := toString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// StringLower 小写字符串
func (r Raw) StringLower(keys ...string) string {
	return strings.ToLower(r.String(keys...))
}

// StringUpper 大写字符串
func (r Raw) StringUpper(keys ...string) string {
	return strings.ToUpper(r.String(keys...))
}

// Number 十进制字符串，无法解析时为空
func (r Raw) Number(keys ...string) string {
	for _, k := range keys {
		if s := r.String(k); s != "" {
			if n, err := precise.Parse(s); err == nil {
				return n
			}
		}
	}
	return ""
}

// StrictNumber 可选的数值字段：缺失时为空，存在但无法解析时返回 ParseError
func (r Raw) StrictNumber(entity string, keys ...string) (string, error) {
	for _, k := range keys {
		s := r.String(k)
		if s == "" {
			continue
		}
		n, err := precise.Parse(s)
		if err != nil {
			return "", &ParseError{Entity: entity, Field: k, Value: s}
		}
		return n, nil
	}
	return "", nil
}

// NumberReader 连续读取一个实体的数值字段，保留第一个格式错误
type NumberReader struct {
	r      Raw
	entity string
	err    error
}

// Numbers 创建数值读取器
func (r Raw) Numbers(entity string) *NumberReader {
	return &NumberReader{r: r, entity: entity}
}

// Get 读取数值，缺失时为空
func (n *NumberReader) Get(keys ...string) string {
	v, err := n.r.StrictNumber(n.entity, keys...)
	if err != nil && n.err == nil {
		n.err = err
	}
	return v
}

// Err 第一个格式错误
func (n *NumberReader) Err() error { return n.err }

// Int64 整数，缺失或无法解析时为0
func (r Raw) Int64(keys ...string) int64 {
	for _, k := range keys {
		s := r.String(k)
		if s == "" {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if d, err := precise.ToPrecision(s, "0", precise.Truncate, precise.DecimalPlaces, precise.NoPadding); err == nil {
			if n, err := strconv.ParseInt(d, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// Bool 布尔值，第二个返回值表示是否存在
func (r Raw) Bool(keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b, true
			}
		case json.Number:
			return x.String() != "0", true
		}
	}
	return false, false
}

// Dict 子对象
func (r Raw) Dict(key string) Raw {
	return AsRaw(r[key])
}

// List 子列表
func (r Raw) List(key string) []interface{} {
	return AsList(r[key])
}

// Require 必需字段，缺失时返回 ParseError
func (r Raw) Require(entity string, keys ...string) (string, error) {
	if s := r.String(keys...); s != "" {
		return s, nil
	}
	return "", &ParseError{Entity: entity, Field: strings.Join(keys, "|")}
}

// RequireNumber 必需的数值字段
func (r Raw) RequireNumber(entity string, keys ...string) (string, error) {
	s, err := r.Require(entity, keys...)
	if err != nil {
		return "", err
	}
	n, err := precise.Parse(s)
	if err != nil {
		return "", &ParseError{Entity: entity, Field: strings.Join(keys, "|"), Value: s}
	}
	return n, nil
}

// Map 转为普通 map，用于 Info 字段
func (r Raw) Map() map[string]interface{} {
	return map[string]interface{}(r)
}

// toString 值转字符串，浮点数按最短表示输出
func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// ParseISO8601 ISO8601 时间转毫秒，无法解析时为0
func ParseISO8601(s string) int64 {
	if s == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

// ISO8601 毫秒转 ISO8601 字符串
func ISO8601(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
