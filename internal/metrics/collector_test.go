package metrics

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.runsTotal)
	assert.NotNil(t, collector.runDuration)
	assert.NotNil(t, collector.turnsTotal)
	assert.NotNil(t, collector.turnDuration)
	assert.NotNil(t, collector.sinkDeliveries)
}

func TestNewCollector_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(nextTestNamespace(), nil)
	})
}

func TestCollector_RecordRun(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RunStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.activeRuns))

	collector.RecordRun("terminated_by_condition", 4, 2*time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(collector.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.runsTotal.WithLabelValues("terminated_by_condition")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.runDuration))
}

func TestCollector_RecordTurn(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordTurn("writer", nil, 100*time.Millisecond)
	collector.RecordTurn("writer", nil, 50*time.Millisecond)
	collector.RecordTurn("critic", errors.New("boom"), 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("writer", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("critic", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(collector.turnDuration))
}

func TestCollector_RecordSinkDelivery(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordSinkDelivery("transcript", nil)
	collector.RecordSinkDelivery("redis", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.sinkDeliveries.WithLabelValues("transcript", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.sinkDeliveries.WithLabelValues("redis", "error")))
}

func TestCollector_RecordDatabaseQuery(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 记录数据库查询
	collector.RecordDBQuery("sqlite", "insert_message", 20*time.Millisecond)

	count := testutil.CollectAndCount(collector.dbQueryDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 更新连接池状态
	collector.RecordDBConnections("postgres", 10, 5)

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("postgres")))
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("postgres")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RunStarted()
			collector.RecordTurn("writer", nil, time.Millisecond)
			collector.RecordSinkDelivery("console", nil)
			collector.RecordRun("cancelled", 1, time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.turnsTotal.WithLabelValues("writer", "success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.runsTotal.WithLabelValues("cancelled")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.activeRuns))
}

func TestCollector_MetricsRegistration(t *testing.T) {
	// 创建自定义 registry
	registry := prometheus.NewRegistry()

	// 创建 collector（会自动注册到默认 registry）
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 手动注册到自定义 registry
	registry.MustRegister(collector.runsTotal)
	registry.MustRegister(collector.turnsTotal)

	collector.RecordRun("error", 0, time.Millisecond)

	count, err := testutil.GatherAndCount(registry)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
