package adapter

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"sync"
	"time"
)

// HashAlgo HMAC 摘要算法
type HashAlgo int

const (
	SHA256 HashAlgo = iota
	SHA512
)

// Encoding 签名输出编码
type Encoding int

const (
	Hex Encoding = iota
	Base64
)

// HMAC 计算签名
func HMAC(payload, secret string, algo HashAlgo, enc Encoding) string {
	var fn func() hash.Hash
	switch algo {
	case SHA512:
		fn = sha512.New
	default:
		fn = sha256.New
	}
	mac := hmac.New(fn, []byte(secret))
	mac.Write([]byte(payload))
	sum := mac.Sum(nil)
	if enc == Base64 {
		return base64.StdEncoding.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}

// CanonicalPayload 通用签名串：时间戳 + 方法 + 路径 + 请求体
func CanonicalPayload(timestamp, method, path, body string) string {
	return timestamp + method + path + body
}

// Nonce 严格递增的毫秒级nonce，同一毫秒内多次调用时递增
type Nonce struct {
	mu    sync.Mutex
	last  int64
	clock func() time.Time
}

// NewNonce 创建nonce生成器，clock 为空时使用系统时间
func NewNonce(clock func() time.Time) *Nonce {
	if clock == nil {
		clock = time.Now
	}
	return &Nonce{clock: clock}
}

// Next 下一个nonce
func (n *Nonce) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.clock().UnixMilli()
	if now <= n.last {
		now = n.last + 1
	}
	n.last = now
	return now
}
