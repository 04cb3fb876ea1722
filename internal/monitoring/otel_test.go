package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestInstrumentsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	inst, err := NewInstruments(provider)
	require.NoError(t, err)

	ctx := context.Background()
	inst.RecordPrediction(ctx, "/predict_score", true)
	inst.RecordPrediction(ctx, "/predict_score", false)
	inst.RecordPrediction(ctx, "/predict_risk", true)
	inst.RecordRequest(ctx, "POST", "/predict_score", 200, 3*time.Millisecond)
	inst.RecordCacheLookup(ctx, true)

	metrics := collect(t, reader)

	require.Contains(t, metrics, "predictions_total")
	assert.Equal(t, int64(3), sumTotal(t, metrics["predictions_total"]))

	preds := metrics["predictions_total"].Data.(metricdata.Sum[int64])
	assert.Len(t, preds.DataPoints, 3)

	require.Contains(t, metrics, "http_requests_total")
	assert.Equal(t, int64(1), sumTotal(t, metrics["http_requests_total"]))

	require.Contains(t, metrics, "http_request_duration_ms")
	hist, ok := metrics["http_request_duration_ms"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	require.Contains(t, metrics, "prediction_cache_lookups_total")
}

func TestNilInstrumentsAreNoops(t *testing.T) {
	var inst *Instruments
	ctx := context.Background()

	assert.NotPanics(t, func() {
		inst.RecordPrediction(ctx, "/predict_score", true)
		inst.RecordRequest(ctx, "GET", "/health", 200, time.Millisecond)
		inst.RecordCacheLookup(ctx, false)
	})
}

func TestInitMeterProviderWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitMeterProvider(ctx, "", "test-service")
	require.NoError(t, err)

	inst, err := NewGlobalInstruments()
	require.NoError(t, err)
	inst.RecordPrediction(ctx, "/predict_risk", true)

	assert.NoError(t, shutdown(ctx))
}
