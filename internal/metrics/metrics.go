// Package metrics 注册适配器请求、错误分类和标识缓存相关的 Prometheus 指标
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	RequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "normalizer_request_latency_seconds",
		Help:    "Latency of exchange REST requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"exchange", "operation"})

	RequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_request_total",
		Help: "Total number of exchange REST requests",
	}, []string{"exchange", "operation"})

	ErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_error_total",
		Help: "Exchange errors by classified kind",
	}, []string{"exchange", "operation", "kind"})

	CacheRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_cache_refresh_total",
		Help: "Identifier cache refresh attempts by result",
	}, []string{"exchange", "result"})

	CacheMarkets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "normalizer_cache_markets",
		Help: "Number of markets in the identifier cache",
	}, []string{"exchange"})

	SkippedEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_skipped_entries_total",
		Help: "List entries dropped because they could not be parsed",
	}, []string{"exchange", "entity"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "normalizer_job_runs_total",
		Help: "Scheduled job executions by result",
	}, []string{"job", "result"})
)

// Init 注册Go运行时和进程指标，只执行一次
func Init() {
	once.Do(func() {
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler 指标HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest 记录一次请求，kind 为空表示成功
func ObserveRequest(exchange, operation string, elapsed time.Duration, kind string) {
	RequestTotal.WithLabelValues(exchange, operation).Inc()
	RequestLatency.WithLabelValues(exchange, operation).Observe(elapsed.Seconds())
	if kind != "" {
		ErrorTotal.WithLabelValues(exchange, operation, kind).Inc()
	}
}

// ObserveCacheRefresh 记录标识缓存刷新结果
func ObserveCacheRefresh(exchange string, markets int, err error) {
	if err != nil {
		CacheRefreshTotal.WithLabelValues(exchange, "error").Inc()
		return
	}
	CacheRefreshTotal.WithLabelValues(exchange, "ok").Inc()
	CacheMarkets.WithLabelValues(exchange).Set(float64(markets))
}

// ObserveSkipped 记录批量解析时跳过的条目数
func ObserveSkipped(exchange, entity string, n int) {
	SkippedEntries.WithLabelValues(exchange, entity).Add(float64(n))
}

// ObserveJob 记录调度任务执行结果
func ObserveJob(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	JobRuns.WithLabelValues(job, result).Inc()
}
