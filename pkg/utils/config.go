// Package utils 提供配置文件的加载、渲染、校验与保存
package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// LoadEnv 加载 .env 文件到环境变量，文件不存在时忽略，已有的环境变量不会被覆盖
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("加载环境变量文件 %s 失败: %w", p, err)
		}
	}
	return nil
}

// LoadConfig 从YAML文件加载配置。文件先按模板渲染，可以用 {{ env "KEY" }} 读取密钥
func LoadConfig(configPath string) (*types.Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 渲染并解析配置内容
func ParseConfig(data []byte) (*types.Config, error) {
	rendered, err := RenderTemplate(data)
	if err != nil {
		return nil, err
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(rendered, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return config, nil
}

// RenderTemplate 使用 sprig 函数渲染配置模板
func RenderTemplate(data []byte) ([]byte, error) {
	tmpl, err := template.New("config").Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("解析配置模板失败: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("渲染配置模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

// applyDefaults 填充未配置的默认值
func applyDefaults(config *types.Config) {
	for id, ex := range config.Exchanges {
		if ex.Markets.UpdateInterval == 0 {
			ex.Markets.UpdateInterval = time.Hour
		}
		if ex.Markets.RetryAttempts == 0 {
			ex.Markets.RetryAttempts = 3
		}
		config.Exchanges[id] = ex
	}
	if config.Scheduler.JobTimeout == 0 {
		config.Scheduler.JobTimeout = 30 * time.Second
	}
}

// validateConfig 验证配置的有效性
func validateConfig(config *types.Config) error {
	if config.App.Name == "" {
		return fmt.Errorf("应用名称不能为空")
	}

	for id, ex := range config.Exchanges {
		if !ex.Enabled || ex.HTTP == nil {
			continue
		}
		if err := ex.HTTP.Validate(); err != nil {
			return fmt.Errorf("交易所 %s 的HTTP配置无效: %w", id, err)
		}
	}

	if config.Monitoring.Enabled {
		if config.Monitoring.MetricsPort <= 0 && config.Monitoring.HealthCheckPort <= 0 {
			return fmt.Errorf("启用监控时至少需要配置一个端口")
		}
	}

	if !config.Scheduler.Enabled {
		return nil
	}
	if config.Scheduler.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("最大并发任务数必须大于0")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	names := make(map[string]bool, len(config.Scheduler.Jobs))
	for i, job := range config.Scheduler.Jobs {
		if job.Name == "" {
			return fmt.Errorf("第%d个任务名称不能为空", i+1)
		}
		if names[job.Name] {
			return fmt.Errorf("任务名称重复: %s", job.Name)
		}
		names[job.Name] = true
		if ex, ok := config.Exchanges[job.Exchange]; !ok || !ex.Enabled {
			return fmt.Errorf("任务 %s 的交易所 %q 未配置或未启用", job.Name, job.Exchange)
		}
		if !types.DataType(job.DataType).Valid() {
			return fmt.Errorf("任务 %s 的数据类型不支持: %s", job.Name, job.DataType)
		}
		if _, err := parser.Parse(job.Cron); err != nil {
			return fmt.Errorf("任务 %s 的Cron表达式无效: %w", job.Name, err)
		}
	}
	return nil
}

// SaveConfig 保存配置到文件
func SaveConfig(config *types.Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// GetDefaultConfig 获取默认配置
func GetDefaultConfig() *types.Config {
	return &types.Config{
		App: types.AppConfig{
			Name:     "exchange-normalizer",
			Version:  "1.0.0",
			LogLevel: "info",
		},
		Exchanges: map[string]types.ExchangeConfig{},
		Scheduler: types.SchedulerConfig{
			Enabled:           false,
			MaxConcurrentJobs: 10,
			JobTimeout:        30 * time.Second,
		},
		Monitoring: types.MonitoringConfig{
			Enabled:         true,
			MetricsPort:     8080,
			HealthCheckPort: 8081,
		},
	}
}
