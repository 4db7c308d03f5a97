package app

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/scheduler"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// SchedulerManager 调度器管理器
type SchedulerManager struct {
	logger *zap.Logger
}

// NewSchedulerManager 创建新的调度器管理器
func NewSchedulerManager(logger *zap.Logger) *SchedulerManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerManager{
		logger: logger,
	}
}

// Setup 创建调度器、添加任务并启动。未启用时返回 nil
func (sm *SchedulerManager) Setup(config *types.Config, sources map[string]types.MarketSource, callback types.DataCallback) (*scheduler.Scheduler, error) {
	if !config.Scheduler.Enabled {
		sm.logger.Info("调度器未启用")
		return nil, nil
	}
	if callback == nil {
		callback = sm.logResult
	}

	sched := scheduler.New(sm.logger.Named("scheduler"), sources, callback, config.Scheduler)
	sm.logger.Info("开始添加任务...", zap.Int("job_count", len(config.Scheduler.Jobs)))
	for _, job := range config.Scheduler.Jobs {
		if err := sched.AddJob(job); err != nil {
			sm.logger.Error("添加任务失败",
				zap.String("job", job.Name),
				zap.Error(err))
			continue
		}
	}

	if err := sched.Start(); err != nil {
		return nil, err
	}
	sm.logger.Info("调度器启动成功")
	return sched, nil
}

// logResult 默认回调，记录数据摘要
func (sm *SchedulerManager) logResult(result *types.JobResult) error {
	sm.logger.Info("收到任务数据",
		zap.String("job", result.Job),
		zap.String("exchange", result.Exchange),
		zap.String("type", string(result.DataType)),
		zap.String("symbol", result.Symbol),
		zap.Int("items", countItems(result.Data)),
		zap.Time("timestamp", result.Timestamp))
	return nil
}

// countItems 切片返回长度，其他非空值为1
func countItems(data interface{}) int {
	if data == nil {
		return 0
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len()
	case reflect.Ptr:
		if v.IsNil() {
			return 0
		}
	}
	return 1
}
