package adapter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/metrics"
)

// ParseList 逐条解析列表，跳过无法解析的条目并汇总上报；
// 列表非空但没有一条能解析时返回第一个错误
func ParseList[T any](b *Base, entity string, items []interface{}, parse func(Raw) (T, error)) ([]T, error) {
	out := make([]T, 0, len(items))
	var first error
	skipped := 0
	for _, item := range items {
		v, err := parse(AsRaw(item))
		if err != nil {
			if first == nil {
				first = err
			}
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped == 0 {
		return out, nil
	}
	metrics.ObserveSkipped(b.desc.ID, entity, skipped)
	b.logger.Warn("跳过无法解析的条目",
		zap.String("entity", entity),
		zap.Int("skipped", skipped),
		zap.Int("total", len(items)),
		zap.Error(first))
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %d 条全部无法解析: %w", entity, skipped, first)
	}
	return out, nil
}
