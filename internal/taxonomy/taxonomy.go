// Package taxonomy 定义统一的错误分类。
// 每个适配器提供精确匹配表（错误码或完整消息）和模糊匹配表（消息子串），
// 分类顺序为：精确错误码 -> 精确消息 -> 模糊子串 -> ExchangeError。
package taxonomy

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind 错误类别，本身实现 error 以便用 errors.Is 判断
type Kind string

const (
	ExchangeError             Kind = "ExchangeError"
	BadRequest                Kind = "BadRequest"
	AuthenticationError       Kind = "AuthenticationError"
	PermissionDenied          Kind = "PermissionDenied"
	AccountSuspended          Kind = "AccountSuspended"
	ArgumentsRequired         Kind = "ArgumentsRequired"
	BadSymbol                 Kind = "BadSymbol"
	InsufficientFunds         Kind = "InsufficientFunds"
	InvalidOrder              Kind = "InvalidOrder"
	OrderNotFound             Kind = "OrderNotFound"
	NotSupported              Kind = "NotSupported"
	RateLimitExceeded         Kind = "RateLimitExceeded"
	NetworkError              Kind = "NetworkError"
	AuthenticationConfigError Kind = "AuthenticationConfigError"
)

// parents 类别继承关系，未列出的类别没有父类
var parents = map[Kind]Kind{
	BadRequest:          ExchangeError,
	AuthenticationError: ExchangeError,
	PermissionDenied:    AuthenticationError,
	AccountSuspended:    AuthenticationError,
	ArgumentsRequired:   ExchangeError,
	BadSymbol:           BadRequest,
	InsufficientFunds:   ExchangeError,
	InvalidOrder:        ExchangeError,
	OrderNotFound:       InvalidOrder,
	NotSupported:        ExchangeError,
	RateLimitExceeded:   NetworkError,
}

// Error 实现error接口
func (k Kind) Error() string { return string(k) }

// Parent 父类别
func (k Kind) Parent() (Kind, bool) {
	p, ok := parents[k]
	return p, ok
}

// IsA 判断 k 是否为 target 或其子类
func (k Kind) IsA(target Kind) bool {
	for cur, ok := k, true; ok; cur, ok = cur.Parent() {
		if cur == target {
			return true
		}
	}
	return false
}

// Retryable 调用方可以重试的类别：网络错误和限频
func (k Kind) Retryable() bool {
	return k.IsA(NetworkError)
}

// Error 分类后的交易所错误
type Error struct {
	Kind     Kind
	Exchange string
	Code     string // 交易所原始错误码
	Message  string // 交易所原始消息或本地描述
	cause    error
}

// Error 实现error接口
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Exchange)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error { return e.cause }

// Is 支持 errors.Is(err, taxonomy.InsufficientFunds) 以及父类判断
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind.IsA(k)
	}
	return false
}

// New 创建分类错误
func New(kind Kind, exchange, message string) error {
	return errors.WithStack(&Error{Kind: kind, Exchange: exchange, Message: message})
}

// Newf 创建分类错误，消息支持格式化
func Newf(kind Kind, exchange, format string, args ...interface{}) error {
	return New(kind, exchange, fmt.Sprintf(format, args...))
}

// WithCode 创建携带交易所错误码的分类错误
func WithCode(kind Kind, exchange, code, message string) error {
	return errors.WithStack(&Error{Kind: kind, Exchange: exchange, Code: code, Message: message})
}

// Wrap 用指定类别包装底层错误
func Wrap(kind Kind, exchange string, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: kind, Exchange: exchange, Message: message, cause: cause})
}

// As 提取分类错误
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 错误的类别，未分类的错误返回空
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if e, ok := As(err); ok {
		return e.Kind.Retryable()
	}
	return false
}

// Cause 返回最底层的错误
func Cause(err error) error {
	return errors.Cause(err)
}
