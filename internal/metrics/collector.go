// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 运行指标
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	activeRuns   prometheus.Gauge
	runTurnCount prometheus.Histogram

	// 轮次指标
	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec

	// Sink 指标
	sinkDeliveries *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec
	dbQueryDuration   *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 运行指标
	c.runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of finished group chat runs",
		},
		[]string{"stop_reason"},
	)

	c.runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Group chat run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"stop_reason"},
	)

	c.activeRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of runs currently in progress",
		},
	)

	c.runTurnCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_turns",
			Help:      "Number of participant messages per run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// 轮次指标
	c.turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of participant turns",
		},
		[]string{"participant", "status"},
	)

	c.turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Participant turn duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"participant"},
	)

	// Sink 指标
	c.sinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_deliveries_total",
			Help:      "Total number of messages delivered to sinks",
		},
		[]string{"sink", "status"},
	)

	// 数据库指标
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"database", "operation"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🔁 运行指标记录
// =============================================================================

// RunStarted 记录运行开始
func (c *Collector) RunStarted() {
	c.activeRuns.Inc()
}

// RecordRun 记录运行结束
func (c *Collector) RecordRun(stopReason string, turns int, duration time.Duration) {
	c.activeRuns.Dec()
	c.runsTotal.WithLabelValues(stopReason).Inc()
	c.runDuration.WithLabelValues(stopReason).Observe(duration.Seconds())
	c.runTurnCount.Observe(float64(turns))
}

// =============================================================================
// 🎭 轮次指标记录
// =============================================================================

// RecordTurn 记录一次参与者发言
func (c *Collector) RecordTurn(participant string, err error, duration time.Duration) {
	c.turnsTotal.WithLabelValues(participant, status(err)).Inc()
	c.turnDuration.WithLabelValues(participant).Observe(duration.Seconds())
}

// RecordSinkDelivery 记录一次消息投递
func (c *Collector) RecordSinkDelivery(sink string, err error) {
	c.sinkDeliveries.WithLabelValues(sink, status(err)).Inc()
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// RecordDBQuery 记录数据库查询
func (c *Collector) RecordDBQuery(database, operation string, duration time.Duration) {
	c.dbQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
