// Package types 定义进程配置和调度任务的数据类型
package types

import (
	"sort"
	"time"

	"github.com/mooyang-code/exchange-normalizer/internal/exchanges/httpclient"
)

// Config 主配置结构
type Config struct {
	App        AppConfig                 `yaml:"app"`        // 应用配置
	Log        LogConfig                 `yaml:"log"`        // 日志配置
	Exchanges  map[string]ExchangeConfig `yaml:"exchanges"`  // 交易所配置，键为交易所ID
	Scheduler  SchedulerConfig           `yaml:"scheduler"`  // 调度器配置
	Monitoring MonitoringConfig          `yaml:"monitoring"` // 监控配置
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `yaml:"name"`      // 应用名称
	Version  string `yaml:"version"`   // 应用版本
	LogLevel string `yaml:"log_level"` // 日志级别
}

// LogConfig 日志文件配置，File 为空时只输出到控制台
type LogConfig struct {
	File       string `yaml:"file"`        // 日志文件路径
	MaxSizeMB  int    `yaml:"max_size_mb"` // 单个文件最大大小
	MaxBackups int    `yaml:"max_backups"` // 保留的旧文件数
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ExchangeConfig 单个交易所配置
type ExchangeConfig struct {
	Enabled   bool               `yaml:"enabled"`    // 是否启用
	APIKey    string             `yaml:"api_key"`    // API密钥
	APISecret string             `yaml:"api_secret"` // API私钥
	Password  string             `yaml:"password"`   // 交易密码，部分交易所需要
	UID       string             `yaml:"uid"`        // 账户ID，部分交易所需要
	Sandbox   bool               `yaml:"sandbox"`    // 是否使用测试网
	HTTP      *httpclient.Config `yaml:"http"`       // HTTP客户端配置，为空时按交易所限频生成
	Markets   MarketsConfig      `yaml:"markets"`    // 市场缓存配置
}

// MarketsConfig 市场与币种缓存配置
type MarketsConfig struct {
	LoadOnStart        bool          `yaml:"load_on_start"`         // 启动时加载市场
	AutoUpdate         bool          `yaml:"auto_update"`           // 是否自动刷新
	UpdateInterval     time.Duration `yaml:"update_interval"`       // 刷新间隔
	RetryAttempts      uint          `yaml:"retry_attempts"`        // 拉取失败的重试次数
	SkipOnNetworkError bool          `yaml:"skip_on_network_error"` // 网络错误时是否跳过初始化
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	Enabled           bool          `yaml:"enabled"`             // 是否启用
	MaxConcurrentJobs int           `yaml:"max_concurrent_jobs"` // 最大并发任务数
	JobTimeout        time.Duration `yaml:"job_timeout"`         // 单次任务超时
	Jobs              []JobConfig   `yaml:"jobs"`                // 任务列表
}

// JobConfig 任务配置
type JobConfig struct {
	Name      string   `yaml:"name"`      // 任务名称
	Exchange  string   `yaml:"exchange"`  // 交易所ID
	DataType  string   `yaml:"data_type"` // 数据类型
	Cron      string   `yaml:"cron"`      // Cron表达式，带秒
	Symbols   []string `yaml:"symbols"`   // 统一交易对
	Timeframe string   `yaml:"timeframe"` // K线周期
	Depth     int      `yaml:"depth"`     // 订单簿深度
	Limit     int      `yaml:"limit"`     // 成交/K线条数
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Enabled         bool `yaml:"enabled"`           // 是否启用
	MetricsPort     int  `yaml:"metrics_port"`      // 指标端口
	HealthCheckPort int  `yaml:"health_check_port"` // gRPC健康检查端口
}

// EnabledExchanges 已启用的交易所ID，按ID排序
func (c *Config) EnabledExchanges() []string {
	var ids []string
	for id, ex := range c.Exchanges {
		if ex.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
