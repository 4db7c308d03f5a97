package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/types"
)

func testConfig() *types.Config {
	return &types.Config{
		App: types.AppConfig{Name: "test", Version: "0.0.1"},
		Exchanges: map[string]types.ExchangeConfig{
			"coinspot": {Enabled: true, Markets: types.MarketsConfig{LoadOnStart: true}},
			"btcalpha": {Enabled: true},
			"ascendex": {Enabled: false},
		},
	}
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []string{"ascendex", "btcalpha", "coinspot"}, Supported())
}

func TestExchangeManager(t *testing.T) {
	em := NewExchangeManager(zap.NewNop())
	defer em.Close()

	exchanges, err := em.Initialize(testConfig())
	require.NoError(t, err)
	assert.Len(t, exchanges, 2, "未启用的交易所不创建")

	ex, ok := em.Get("coinspot")
	require.True(t, ok)
	assert.Equal(t, "coinspot", ex.ID())

	status, ok := em.ClientStatus("btcalpha")
	require.True(t, ok)
	assert.Equal(t, "btcalpha", status.Name)

	_, err = em.Add("coinspot", types.ExchangeConfig{})
	assert.Error(t, err, "重复创建")
	_, err = em.Add("kraken", types.ExchangeConfig{})
	assert.Error(t, err, "不支持的交易所")

	require.NoError(t, em.Close())
	assert.Empty(t, em.All())
}

func TestRegistryConfig(t *testing.T) {
	cfg := registryConfig(types.MarketsConfig{AutoUpdate: true, UpdateInterval: time.Minute, RetryAttempts: 5})
	assert.True(t, cfg.AutoUpdate)
	assert.Equal(t, time.Minute, cfg.UpdateInterval)
	assert.Equal(t, uint(5), cfg.RetryAttempts)

	def := registryConfig(types.MarketsConfig{})
	assert.False(t, def.AutoUpdate)
	assert.Equal(t, uint(3), def.RetryAttempts)
}

func TestInitializeSystem(t *testing.T) {
	si := NewSystemInitializer(zap.NewNop(), testConfig())
	components, err := si.InitializeSystem(context.Background())
	require.NoError(t, err)
	defer components.Shutdown()

	coinspot, ok := components.GetExchange("coinspot")
	require.True(t, ok)
	assert.True(t, marketsLoaded(coinspot), "静态市场无需网络即可加载")

	btcalpha, _ := components.GetExchange("btcalpha")
	assert.False(t, marketsLoaded(btcalpha))
	assert.False(t, components.Ready())

	status := components.GetSystemStatus()
	exchanges := status["exchanges"].(map[string]interface{})
	info := exchanges["coinspot"].(map[string]interface{})
	assert.Equal(t, "CoinSpot", info["name"])
	assert.Equal(t, true, info["markets_loaded"])
	assert.Contains(t, info, "http")

	assert.Len(t, components.Sources(), 2)
}

func TestSchedulerManager(t *testing.T) {
	config := testConfig()
	sm := NewSchedulerManager(zap.NewNop())

	sched, err := sm.Setup(config, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, sched, "未启用时不创建调度器")

	si := NewSystemInitializer(zap.NewNop(), config)
	components, err := si.InitializeSystem(context.Background())
	require.NoError(t, err)
	defer components.Shutdown()

	config.Scheduler = types.SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 1,
		JobTimeout:        time.Second,
		Jobs: []types.JobConfig{
			{Name: "coinspot-markets", Exchange: "coinspot", DataType: "markets", Cron: "@every 1h"},
			{Name: "unknown", Exchange: "kraken", DataType: "markets", Cron: "@every 1h"},
		},
	}
	var results []*types.JobResult
	sched, err = sm.Setup(config, components.Sources(), func(r *types.JobResult) error {
		results = append(results, r)
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, sched)
	defer sched.Stop(context.Background())

	assert.Len(t, sched.GetJobStatus(), 1, "无效任务被跳过")
	require.NoError(t, sched.RunJob(context.Background(), "coinspot-markets"))
	require.Len(t, results, 1)
	assert.Equal(t, "coinspot", results[0].Exchange)
}

func TestCountItems(t *testing.T) {
	assert.Equal(t, 0, countItems(nil))
	assert.Equal(t, 2, countItems([]model.Ticker{{}, {}}))
	assert.Equal(t, 0, countItems((*model.Balances)(nil)))
	assert.Equal(t, 1, countItems(model.NewBalances()))
}

type fakeStatus struct{ ready bool }

func (f fakeStatus) Ready() bool { return f.ready }

func (f fakeStatus) GetSystemStatus() map[string]interface{} {
	return map[string]interface{}{"ready": f.ready}
}

func TestServiceHandler(t *testing.T) {
	sm := NewServiceManager(zap.NewNop())

	tests := []struct {
		name   string
		ready  bool
		path   string
		status int
		body   string
	}{
		{"未就绪", false, "/healthz", http.StatusServiceUnavailable, "markets not loaded"},
		{"已就绪", true, "/healthz", http.StatusOK, "ok"},
		{"状态", true, "/status", http.StatusOK, `"ready":true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			sm.Handler(fakeStatus{ready: tt.ready}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}

	rec := httptest.NewRecorder()
	sm.Handler(fakeStatus{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServiceManagerDisabled(t *testing.T) {
	sm := NewServiceManager(zap.NewNop())
	require.NoError(t, sm.Start(testConfig(), fakeStatus{}))
	sm.Stop(context.Background())
	sm.Stop(context.Background())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", types.LogConfig{})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger("bogus", types.LogConfig{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel), "非法级别按info处理")

	file := filepath.Join(t.TempDir(), "app.log")
	logger, err = NewLogger("info", types.LogConfig{File: file, MaxSizeMB: 1})
	require.NoError(t, err)
	logger.Info("hello file")
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
