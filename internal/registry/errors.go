package registry

import (
	"fmt"

	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// UnknownMarketError 原生市场ID在缓存中不存在
type UnknownMarketError struct {
	Exchange string
	ID       string
}

// Error 实现error接口
func (e *UnknownMarketError) Error() string {
	return fmt.Sprintf("%s: unknown market id %q", e.Exchange, e.ID)
}

// Is 归类为 BadSymbol
func (e *UnknownMarketError) Is(target error) bool {
	if k, ok := target.(taxonomy.Kind); ok {
		return taxonomy.BadSymbol.IsA(k)
	}
	return false
}
