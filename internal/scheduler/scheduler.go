// Package scheduler 按 cron 表达式定时调用适配器，结果交给回调处理
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/metrics"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// 未配置时的默认值
const (
	defaultDepth     = 20
	defaultLimit     = 100
	defaultTimeframe = "1h"
)

// Scheduler 调度器
type Scheduler struct {
	cron      *cron.Cron
	logger    *zap.Logger
	exchanges map[string]types.MarketSource
	callback  types.DataCallback
	timeout   time.Duration
	batch     BatchConfig
	slots     chan struct{}
	jobs      map[string]*JobInfo
	mutex     sync.RWMutex
}

// JobInfo 任务信息
type JobInfo struct {
	Config     types.JobConfig
	EntryID    cron.EntryID
	Status     JobStatus
	LastRun    time.Time
	NextRun    time.Time
	RunCount   int64
	ErrorCount int64
	SkipCount  int64
	LastError  string
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending JobStatus = "pending" // 等待中
	JobStatusRunning JobStatus = "running" // 运行中
	JobStatusFailed  JobStatus = "failed"  // 失败
)

// New 创建调度器
func New(logger *zap.Logger, exchanges map[string]types.MarketSource, callback types.DataCallback, config types.SchedulerConfig) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if callback == nil {
		callback = func(*types.JobResult) error { return nil }
	}
	maxJobs := config.MaxConcurrentJobs
	if maxJobs <= 0 {
		maxJobs = 1
	}
	timeout := config.JobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger,
		exchanges: exchanges,
		callback:  callback,
		timeout:   timeout,
		batch:     DefaultBatchConfig(),
		slots:     make(chan struct{}, maxJobs),
		jobs:      make(map[string]*JobInfo),
	}
}

// SetBatchConfig 设置分批配置
func (s *Scheduler) SetBatchConfig(cfg BatchConfig) {
	s.batch = cfg
}

// AddJob 添加任务
func (s *Scheduler) AddJob(jobConfig types.JobConfig) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.jobs[jobConfig.Name]; exists {
		return fmt.Errorf("job %s already exists", jobConfig.Name)
	}
	if _, exists := s.exchanges[jobConfig.Exchange]; !exists {
		return fmt.Errorf("exchange %s not found", jobConfig.Exchange)
	}
	if !types.DataType(jobConfig.DataType).Valid() {
		return fmt.Errorf("unsupported data type: %s", jobConfig.DataType)
	}

	name := jobConfig.Name
	entryID, err := s.cron.AddFunc(jobConfig.Cron, func() { s.trigger(name) })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.jobs[name] = &JobInfo{
		Config:  jobConfig,
		EntryID: entryID,
		Status:  JobStatusPending,
	}

	s.logger.Info("任务已添加",
		zap.String("name", name),
		zap.String("cron", jobConfig.Cron),
		zap.String("exchange", jobConfig.Exchange),
		zap.String("dataType", jobConfig.DataType))
	return nil
}

// trigger cron 触发。并发任务数已满时跳过本次执行
func (s *Scheduler) trigger(name string) {
	select {
	case s.slots <- struct{}{}:
	default:
		s.mutex.Lock()
		if job, ok := s.jobs[name]; ok {
			job.SkipCount++
		}
		s.mutex.Unlock()
		s.logger.Warn("并发任务数已满，跳过本次执行", zap.String("job", name))
		return
	}
	defer func() { <-s.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.RunJob(ctx, name)
}

// RunJob 立即执行一次任务并记录状态
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	s.mutex.Lock()
	job, ok := s.jobs[name]
	if !ok {
		s.mutex.Unlock()
		return fmt.Errorf("job %s not found", name)
	}
	job.Status = JobStatusRunning
	job.LastRun = time.Now()
	job.RunCount++
	jobConfig := job.Config
	exchange := s.exchanges[jobConfig.Exchange]
	s.mutex.Unlock()

	s.logger.Debug("开始执行任务",
		zap.String("job", name),
		zap.String("dataType", jobConfig.DataType))

	err := s.executeJob(ctx, jobConfig, exchange)
	metrics.ObserveJob(name, err)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err != nil {
		job.Status = JobStatusFailed
		job.ErrorCount++
		job.LastError = err.Error()
		s.logger.Error("任务执行失败", zap.String("job", name), zap.Error(err))
		return err
	}
	job.Status = JobStatusPending
	job.LastError = ""
	s.logger.Debug("任务执行成功", zap.String("job", name))
	return nil
}

// executeJob 按数据类型执行
func (s *Scheduler) executeJob(ctx context.Context, jobConfig types.JobConfig, exchange types.MarketSource) error {
	switch types.DataType(jobConfig.DataType) {
	case types.DataTypeMarkets:
		if err := exchange.LoadMarkets(ctx, true); err != nil {
			return fmt.Errorf("failed to reload markets: %w", err)
		}
		return s.deliver(jobConfig, "", nil)
	case types.DataTypeTicker:
		return s.executeTicker(ctx, jobConfig, exchange)
	case types.DataTypeOrderbook:
		return s.executePerSymbol(ctx, jobConfig, func(symbol string) (interface{}, error) {
			return exchange.FetchOrderBook(ctx, symbol, orDefault(jobConfig.Depth, defaultDepth))
		})
	case types.DataTypeTrades:
		return s.executePerSymbol(ctx, jobConfig, func(symbol string) (interface{}, error) {
			return exchange.FetchTrades(ctx, symbol, 0, orDefault(jobConfig.Limit, defaultLimit))
		})
	case types.DataTypeOHLCV:
		timeframe := jobConfig.Timeframe
		if timeframe == "" {
			timeframe = defaultTimeframe
		}
		return s.executePerSymbol(ctx, jobConfig, func(symbol string) (interface{}, error) {
			return exchange.FetchOHLCV(ctx, symbol, timeframe, 0, orDefault(jobConfig.Limit, defaultLimit))
		})
	case types.DataTypeBalance:
		balances, err := exchange.FetchBalance(ctx, adapter.Options{})
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		return s.deliver(jobConfig, "", balances)
	default:
		return fmt.Errorf("unsupported data type: %s", jobConfig.DataType)
	}
}

// executeTicker 批量获取行情，未配置交易对时获取全部
func (s *Scheduler) executeTicker(ctx context.Context, jobConfig types.JobConfig, exchange types.MarketSource) error {
	if len(jobConfig.Symbols) == 0 {
		tickers, err := exchange.FetchTickers(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to fetch tickers: %w", err)
		}
		return s.deliver(jobConfig, "", tickers)
	}
	return processInBatches(ctx, s.logger, s.batch, jobConfig.Symbols, func(batch []string) error {
		tickers, err := exchange.FetchTickers(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to fetch tickers: %w", err)
		}
		return s.deliver(jobConfig, "", tickers)
	})
}

// executePerSymbol 逐个交易对获取，单个失败只记录日志，全部失败时返回最后一个错误
func (s *Scheduler) executePerSymbol(ctx context.Context, jobConfig types.JobConfig, fetch func(symbol string) (interface{}, error)) error {
	if len(jobConfig.Symbols) == 0 {
		return fmt.Errorf("no symbols configured for %s data", jobConfig.DataType)
	}
	var (
		lastErr error
		failed  int
	)
	err := processInBatches(ctx, s.logger, s.batch, jobConfig.Symbols, func(batch []string) error {
		for _, symbol := range batch {
			data, err := fetch(symbol)
			if err != nil {
				failed++
				lastErr = err
				s.logger.Error("获取数据失败",
					zap.String("job", jobConfig.Name),
					zap.String("symbol", symbol),
					zap.Error(err))
				continue
			}
			if err := s.deliver(jobConfig, symbol, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed == len(jobConfig.Symbols) {
		return lastErr
	}
	return nil
}

// deliver 调用回调，回调失败只记录日志
func (s *Scheduler) deliver(jobConfig types.JobConfig, symbol string, data interface{}) error {
	result := &types.JobResult{
		Job:       jobConfig.Name,
		Exchange:  jobConfig.Exchange,
		DataType:  types.DataType(jobConfig.DataType),
		Symbol:    symbol,
		Data:      data,
		Timestamp: time.Now(),
	}
	if err := s.callback(result); err != nil {
		s.logger.Error("处理任务数据失败",
			zap.String("job", jobConfig.Name),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.cron.Start()
	s.logger.Info("调度器已启动", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop 停止调度器，等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		s.logger.Info("调度器已停止")
		return nil
	case <-ctx.Done():
		s.logger.Warn("调度器停止超时")
		return ctx.Err()
	}
}

// GetJobStatus 获取任务状态的副本
func (s *Scheduler) GetJobStatus() map[string]*JobInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[string]*JobInfo, len(s.jobs))
	for name, job := range s.jobs {
		info := *job
		info.NextRun = s.cron.Entry(job.EntryID).Next
		result[name] = &info
	}
	return result
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
