package monitoring

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "academic-risk-predictor"

// Instruments are the OpenTelemetry counterparts of Metrics. A nil *Instruments records nothing.
type Instruments struct {
	requests    metric.Int64Counter
	latency     metric.Float64Histogram
	predictions metric.Int64Counter
	cacheHits   metric.Int64Counter
}

// InitMeterProvider installs a global meter provider. Without an endpoint the provider has no
// reader and measurements are dropped. The returned function flushes and stops the exporter.
func InitMeterProvider(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	res, err := sdkresource.Merge(sdkresource.Default(), sdkresource.NewSchemaless(
		attribute.String("service.name", service),
	))
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if endpoint != "" {
		ctxInit, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exp, err := otlpmetricgrpc.New(ctxInit,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second))))
		slog.Info("metrics exporter initialized", "endpoint", endpoint)
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// NewInstruments creates the service instruments on the given meter provider
func NewInstruments(provider metric.MeterProvider) (*Instruments, error) {
	meter := provider.Meter(meterName)

	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests by route and status"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http_request_duration_ms",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	predictions, err := meter.Int64Counter("predictions_total",
		metric.WithDescription("Predictions by endpoint and outcome"))
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter("prediction_cache_lookups_total",
		metric.WithDescription("Prediction cache lookups by result"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		requests:    requests,
		latency:     latency,
		predictions: predictions,
		cacheHits:   cacheHits,
	}, nil
}

// NewGlobalInstruments creates instruments on the global meter provider
func NewGlobalInstruments() (*Instruments, error) {
	return NewInstruments(otel.GetMeterProvider())
}

// RecordRequest records one served HTTP request
func (i *Instruments) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	i.requests.Add(ctx, 1, attrs)
	i.latency.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

// RecordPrediction records a prediction outcome
func (i *Instruments) RecordPrediction(ctx context.Context, endpoint string, success bool) {
	if i == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	i.predictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	))
}

// RecordCacheLookup records a prediction cache hit or miss
func (i *Instruments) RecordCacheLookup(ctx context.Context, hit bool) {
	if i == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	i.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
