package adapter

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// SignedRequest 构建完成、可直接发送的请求
type SignedRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Cost    int // 限频权重
}

// Reply 传输层返回的原始响应，非2xx状态码同样以 Reply 返回
type Reply struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Transport 传输层边界：只有连接、超时等传输失败才返回错误
type Transport interface {
	Execute(ctx context.Context, req *SignedRequest) (*Reply, error)
}

// TransportFunc 函数形式的传输层
type TransportFunc func(ctx context.Context, req *SignedRequest) (*Reply, error)

// Execute 实现 Transport
func (f TransportFunc) Execute(ctx context.Context, req *SignedRequest) (*Reply, error) {
	return f(ctx, req)
}

// Credentials API凭证
type Credentials struct {
	APIKey   string `yaml:"api_key" json:"-"`
	Secret   string `yaml:"secret" json:"-"`
	Password string `yaml:"password" json:"-"`
	UID      string `yaml:"uid" json:"-"`
}

// String 不输出凭证内容
func (c Credentials) String() string {
	mask := func(s string) string {
		if s == "" {
			return "<empty>"
		}
		return "<redacted>"
	}
	return fmt.Sprintf("Credentials{APIKey:%s Secret:%s}", mask(c.APIKey), mask(c.Secret))
}

// GoString 不输出凭证内容
func (c Credentials) GoString() string { return c.String() }

// Check 检查必需的凭证，缺失时返回 AuthenticationConfigError，发生在任何网络请求之前
func (c Credentials) Check(exchange string, required RequiredCredentials) error {
	var missing []string
	if required.APIKey && c.APIKey == "" {
		missing = append(missing, "apiKey")
	}
	if required.Secret && c.Secret == "" {
		missing = append(missing, "secret")
	}
	if required.UID && c.UID == "" {
		missing = append(missing, "uid")
	}
	if required.Password && c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return taxonomy.Newf(taxonomy.AuthenticationConfigError, exchange, "requires %v credential", missing)
	}
	return nil
}

// Params 请求参数
type Params map[string]interface{}

// Extend 合并参数，后者覆盖前者，返回新的 Params
func (p Params) Extend(others ...map[string]interface{}) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Omit 去掉指定键，返回新的 Params
func (p Params) Omit(keys ...string) Params {
	out := p.Extend()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Keys 排序后的键
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode 按键排序的URL编码，空值参数被跳过
func (p Params) Encode() string {
	values := url.Values{}
	for k, v := range p {
		if v == nil {
			continue
		}
		values.Set(k, Stringify(v))
	}
	return values.Encode()
}

// JSON 键排序的JSON编码
func (p Params) JSON() (string, error) {
	b, err := sonic.ConfigStd.Marshal(map[string]interface{}(p))
	if err != nil {
		return "", fmt.Errorf("编码请求参数失败: %w", err)
	}
	return string(b), nil
}

// Stringify 参数值转字符串
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
