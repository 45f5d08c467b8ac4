package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.stageExecutionsTotal)
	assert.NotNil(t, collector.sourceSearchesTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("GET", "/api/v1/projects", 200, 100*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/api/v1/projects", 200, 50*time.Millisecond)
	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordLLMRequest("openai", "gpt-4o", "success", 500*time.Millisecond, 100, 50)

	assert.Greater(t, testutil.CollectAndCount(collector.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.llmTokensUsed), 0)
}

func TestCollector_RecordStageExecution(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordStageExecution("research", "completed", 12*time.Second)
	collector.RecordStageExecution("writing", "failed", 3*time.Second)

	assert.Greater(t, testutil.CollectAndCount(collector.stageExecutionsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.stageExecutionDuration), 0)
}

func TestCollector_RecordSourceSearch(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordSourceSearch("arxiv", "success", 800*time.Millisecond, 20)
	collector.RecordSourceSearch("pubmed", "error", 2*time.Second, 0)

	assert.Greater(t, testutil.CollectAndCount(collector.sourceSearchesTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.sourceResultsReturned), 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCacheHit("redis")
	collector.RecordCacheMiss("redis")

	assert.Greater(t, testutil.CollectAndCount(collector.cacheHits), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.cacheMisses), 0)
}

func TestCollector_RecordDBConnections(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDBConnections("postgres", 10, 5)

	assert.Greater(t, testutil.CollectAndCount(collector.dbConnectionsOpen), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.dbConnectionsIdle), 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordHTTPRequest("GET", "/api/v1/projects", 200, 100*time.Millisecond)
			collector.RecordLLMRequest("openai", "gpt-4o", "success", 500*time.Millisecond, 100, 50)
			collector.RecordCacheHit("redis")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(collector.httpRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.llmRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.cacheHits), 0)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, "2xx", statusCode(201))
	assert.Equal(t, "3xx", statusCode(302))
	assert.Equal(t, "4xx", statusCode(404))
	assert.Equal(t, "5xx", statusCode(503))
	assert.Equal(t, "unknown", statusCode(99))
}
