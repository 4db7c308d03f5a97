package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BatchConfig 分批处理交易对的配置
type BatchConfig struct {
	Size  int           // 每批交易对数量
	Pause time.Duration // 批次之间的间隔
}

// DefaultBatchConfig 默认分批配置
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Size: 20, Pause: 100 * time.Millisecond}
}

// processInBatches 分批处理交易对，任一批失败即返回
func processInBatches(ctx context.Context, logger *zap.Logger, cfg BatchConfig, symbols []string, processor func(batch []string) error) error {
	total := len(symbols)
	if total == 0 {
		return nil
	}
	size := cfg.Size
	if size <= 0 {
		size = total
	}
	batches := (total + size - 1) / size

	for i := 0; i < total; i += size {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + size
		if end > total {
			end = total
		}
		batch := symbols[i:end]
		num := i/size + 1

		start := time.Now()
		if err := processor(batch); err != nil {
			return fmt.Errorf("batch %d/%d failed: %w", num, batches, err)
		}
		logger.Debug("批次处理完成",
			zap.Int("batch", num),
			zap.Int("batches", batches),
			zap.Int("size", len(batch)),
			zap.Duration("elapsed", time.Since(start)))

		if end < total && cfg.Pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Pause):
			}
		}
	}
	return nil
}
