package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mooyang-code/exchange-normalizer/internal/scheduler"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
	"github.com/mooyang-code/exchange-normalizer/pkg/utils"
)

// shutdownTimeout 优雅关闭的超时
const shutdownTimeout = 30 * time.Second

// Manager 应用程序管理器
type Manager struct {
	config           *types.Config
	logger           *zap.Logger
	components       *SystemComponents
	schedulerManager *SchedulerManager
	serviceManager   *ServiceManager
	scheduler        *scheduler.Scheduler
	cancel           context.CancelFunc
}

// New 创建新的应用程序管理器
func New() *Manager {
	return &Manager{}
}

// Initialize 加载 .env 与配置并初始化日志
func (m *Manager) Initialize(configPath string, envFiles ...string) error {
	if err := utils.LoadEnv(envFiles...); err != nil {
		return fmt.Errorf("加载环境变量失败: %w", err)
	}
	config, err := utils.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := NewLogger(config.App.LogLevel, config.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	m.InitializeWith(config, logger)
	return nil
}

// InitializeWith 使用已有的配置与日志
func (m *Manager) InitializeWith(config *types.Config, logger *zap.Logger) {
	m.config = config
	m.logger = logger
	m.schedulerManager = NewSchedulerManager(logger)
	m.serviceManager = NewServiceManager(logger)

	m.logger.Info("启动交易所数据标准化服务",
		zap.String("name", config.App.Name),
		zap.String("version", config.App.Version),
		zap.Strings("exchanges", config.EnabledExchanges()))
}

// Start 初始化交易所，启动调度器与监控服务
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	components, err := NewSystemInitializer(m.logger, m.config).InitializeSystem(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("系统初始化失败: %w", err)
	}
	m.components = components

	m.scheduler, err = m.schedulerManager.Setup(m.config, components.Sources(), nil)
	if err != nil {
		m.Shutdown()
		return fmt.Errorf("设置调度器失败: %w", err)
	}

	if err := m.serviceManager.Start(m.config, components); err != nil {
		m.Shutdown()
		return fmt.Errorf("启动服务失败: %w", err)
	}
	m.logger.Info("所有服务启动完成")
	return nil
}

// Run 启动并阻塞到收到 SIGINT/SIGTERM
func (m *Manager) Run() error {
	if err := m.Start(context.Background()); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	m.logger.Info("等待退出信号...")
	sig := <-sigChan
	m.logger.Info("收到退出信号，正在优雅关闭...", zap.String("signal", sig.String()))

	m.Shutdown()
	m.logger.Info("程序已退出")
	return nil
}

// Shutdown 按启动的逆序关闭
func (m *Manager) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if m.scheduler != nil {
		if err := m.scheduler.Stop(ctx); err != nil {
			m.logger.Error("停止调度器失败", zap.Error(err))
		}
		m.scheduler = nil
	}
	if m.serviceManager != nil {
		m.serviceManager.Stop(ctx)
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.components != nil {
		if err := m.components.Shutdown(); err != nil {
			m.logger.Error("关闭系统组件失败", zap.Error(err))
		}
		m.components = nil
	}
}

// Components 已初始化的系统组件
func (m *Manager) Components() *SystemComponents {
	return m.components
}

// GetLogger 获取日志器
func (m *Manager) GetLogger() *zap.Logger {
	return m.logger
}

// Sync 同步日志
func (m *Manager) Sync() {
	if m.logger != nil {
		_ = m.logger.Sync()
	}
}

// NewLogger 控制台输出，配置了日志文件时同时写入按大小切割的文件
func NewLogger(level string, fileConfig types.LogConfig) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Encoding = "console"
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	if fileConfig.File == "" {
		return logger, nil
	}

	writer := &lumberjack.Logger{
		Filename:   fileConfig.File,
		MaxSize:    fileConfig.MaxSizeMB,
		MaxBackups: fileConfig.MaxBackups,
		MaxAge:     fileConfig.MaxAgeDays,
		Compress:   fileConfig.Compress,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(writer),
		config.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
