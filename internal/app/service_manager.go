package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mooyang-code/exchange-normalizer/internal/metrics"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

// readinessInterval 健康状态的检查间隔
const readinessInterval = 5 * time.Second

// StatusProvider 提供系统就绪状态与详情
type StatusProvider interface {
	Ready() bool
	GetSystemStatus() map[string]interface{}
}

// ServiceManager 服务管理器：指标HTTP服务与gRPC健康检查
type ServiceManager struct {
	logger     *zap.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
	stop       chan struct{}
	wg         sync.WaitGroup
}

// NewServiceManager 创建新的服务管理器
func NewServiceManager(logger *zap.Logger) *ServiceManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceManager{
		logger: logger,
		health: health.NewServer(),
		stop:   make(chan struct{}),
	}
}

// Start 启动各种服务
func (sm *ServiceManager) Start(config *types.Config, status StatusProvider) error {
	if !config.Monitoring.Enabled {
		sm.logger.Info("监控服务未启用")
		return nil
	}
	metrics.Init()

	if port := config.Monitoring.MetricsPort; port > 0 {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return fmt.Errorf("failed to listen metrics port %d: %w", port, err)
		}
		sm.serveHTTP(listener, status)
	}
	if port := config.Monitoring.HealthCheckPort; port > 0 {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			sm.Stop(context.Background())
			return fmt.Errorf("failed to listen health check port %d: %w", port, err)
		}
		sm.serveGRPC(listener, status)
	}
	return nil
}

// Handler 指标与状态的HTTP路由
func (sm *ServiceManager) Handler(status StatusProvider) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !status.Ready() {
			http.Error(w, "markets not loaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigStd.NewEncoder(w).Encode(status.GetSystemStatus())
	})
	return mux
}

func (sm *ServiceManager) serveHTTP(listener net.Listener, status StatusProvider) {
	sm.httpServer = &http.Server{
		Handler:           sm.Handler(status),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		if err := sm.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			sm.logger.Error("指标服务异常退出", zap.Error(err))
		}
	}()
	sm.logger.Info("指标服务启动", zap.String("addr", listener.Addr().String()))
}

func (sm *ServiceManager) serveGRPC(listener net.Listener, status StatusProvider) {
	sm.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(sm.grpcServer, sm.health)
	sm.updateHealth(status)

	sm.wg.Add(2)
	go func() {
		defer sm.wg.Done()
		if err := sm.grpcServer.Serve(listener); err != nil {
			sm.logger.Error("健康检查服务异常退出", zap.Error(err))
		}
	}()
	go func() {
		defer sm.wg.Done()
		ticker := time.NewTicker(readinessInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sm.updateHealth(status)
			case <-sm.stop:
				return
			}
		}
	}()
	sm.logger.Info("健康检查服务启动", zap.String("addr", listener.Addr().String()))
}

// updateHealth 市场全部加载后为 SERVING
func (sm *ServiceManager) updateHealth(status StatusProvider) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if status.Ready() {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	sm.health.SetServingStatus("", serving)
}

// Stop 停止所有服务
func (sm *ServiceManager) Stop(ctx context.Context) {
	select {
	case <-sm.stop:
		return
	default:
		close(sm.stop)
	}

	if sm.httpServer != nil {
		if err := sm.httpServer.Shutdown(ctx); err != nil {
			sm.logger.Warn("关闭指标服务失败", zap.Error(err))
		}
	}
	if sm.grpcServer != nil {
		sm.health.Shutdown()
		sm.grpcServer.GracefulStop()
	}
	sm.wg.Wait()
	sm.logger.Info("监控服务已停止")
}
