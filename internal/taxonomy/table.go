package taxonomy

import (
	"sort"
	"strings"

	"github.com/buger/jsonparser"
)

// Table 适配器错误映射表
type Table struct {
	Exact map[string]Kind // 错误码或完整消息 -> 类别
	Broad map[string]Kind // 消息子串 -> 类别
}

// Clone 深拷贝
func (t Table) Clone() Table {
	out := Table{Exact: make(map[string]Kind, len(t.Exact)), Broad: make(map[string]Kind, len(t.Broad))}
	for k, v := range t.Exact {
		out.Exact[k] = v
	}
	for k, v := range t.Broad {
		out.Broad[k] = v
	}
	return out
}

// Match 按 精确错误码 -> 精确消息 -> 模糊子串 的顺序查找类别
func (t Table) Match(code, message string) (Kind, bool) {
	if code != "" {
		if k, ok := t.Exact[code]; ok {
			return k, true
		}
	}
	if message != "" {
		if k, ok := t.Exact[message]; ok {
			return k, true
		}
		if k, ok := t.broadMatch(message); ok {
			return k, true
		}
	}
	return "", false
}

// broadMatch 子串匹配，多个命中时取最长的，长度相同取字典序最小的
func (t Table) broadMatch(message string) (Kind, bool) {
	var hits []string
	for sub := range t.Broad {
		if sub != "" && strings.Contains(message, sub) {
			hits = append(hits, sub)
		}
	}
	if len(hits) == 0 {
		return "", false
	}
	sort.Slice(hits, func(i, j int) bool {
		if len(hits[i]) != len(hits[j]) {
			return len(hits[i]) > len(hits[j])
		}
		return hits[i] < hits[j]
	})
	return t.Broad[hits[0]], true
}

// Classify 生成分类错误，未命中时为 ExchangeError 并保留原始错误码和消息
func (t Table) Classify(exchange, code, message string) error {
	kind, ok := t.Match(code, message)
	if !ok {
		kind = ExchangeError
	}
	return WithCode(kind, exchange, code, message)
}

// IsSuccess 成功响应的判定：错误码缺失或为 "0"，并且消息缺失或为空。两个指标必须同时满足
func IsSuccess(code, message string) bool {
	return (code == "" || code == "0") && message == ""
}

// Peek 在不完整解码的情况下读取响应体中的错误码与消息，按候选键顺序取第一个存在的值
func Peek(body []byte, codeKeys, messageKeys []string) (code, message string) {
	return peekFirst(body, codeKeys), peekFirst(body, messageKeys)
}

func peekFirst(body []byte, keys []string) string {
	for _, key := range keys {
		value, dataType, _, err := jsonparser.Get(body, strings.Split(key, ".")...)
		if err != nil {
			continue
		}
		switch dataType {
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				s = string(value)
			}
			return s
		case jsonparser.Number, jsonparser.Boolean:
			return string(value)
		case jsonparser.Null:
			return ""
		default:
			return string(value)
		}
	}
	return ""
}
