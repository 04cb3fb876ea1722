package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrementRequest()
	m.IncrementRequest()
	m.IncrementError()
	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCacheMiss()
	m.IncrementHistoryWriteError()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.InDelta(t, 33.33, stats["cache_hit_rate_percent"].(float64), 0.01)
	assert.Equal(t, int64(1), stats["history_write_errors"])
}

func TestRecordPrediction(t *testing.T) {
	m := NewMetrics()

	m.RecordPrediction("/predict_score", true)
	m.RecordPrediction("/predict_score", false)
	m.RecordPrediction("/predict_risk", true)

	stats := m.GetPredictionStats()
	score := stats["/predict_score"].(map[string]interface{})
	assert.Equal(t, int64(2), score["total"])
	assert.Equal(t, int64(1), score["failures"])
	assert.Equal(t, 50.0, score["failure_rate_percent"])

	risk := stats["/predict_risk"].(map[string]interface{})
	assert.Equal(t, int64(0), risk["failures"])
}

func TestPercentiles(t *testing.T) {
	m := NewMetrics()
	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))
	assert.Equal(t, time.Duration(0), NewMetrics().GetPercentileResponseTime(95))
}

func TestResponseTimeWindow(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 1500; i++ {
		m.RecordResponseTime(time.Millisecond)
	}
	assert.Len(t, m.ResponseTimes, 1000)
}

func TestRateLimitStats(t *testing.T) {
	m := NewMetrics()
	m.IncrementRateLimitIPBlock()
	m.IncrementRateLimitEndpoint("/predict_risk")
	m.IncrementRateLimitFallback()

	stats := m.GetRateLimitStats()
	assert.Equal(t, int64(1), stats["ip_blocks"])
	assert.Equal(t, int64(1), stats["fallback_count"])
	assert.Equal(t, map[string]int64{"/predict_risk": 1}, stats["endpoint_blocks"])
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementRequest()
			m.RecordPrediction("/predict_score", true)
			m.RecordRequestByStatus(200)
			m.RecordResponseTime(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.GetStats()["total_requests"])
	assert.Equal(t, int64(50), m.GetStatusCodeDistribution()[200])
}
