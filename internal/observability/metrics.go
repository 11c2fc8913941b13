// Package observability records OpenTelemetry metrics and spans for the
// estimation pipeline. Providers are taken from the otel globals, so the
// binary decides where data goes; tests install an in-memory reader.
package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/rendis/flowcost"

// MetricsRecorder records flowcost metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEstimation records one completed estimation.
	RecordEstimation(ctx context.Context, graphType string, nodeCount int, cost float64, duration time.Duration)

	// RecordBatch records one completed batch estimation.
	RecordBatch(ctx context.Context, size int, duration time.Duration)

	// RecordImport records a workflow import attempt.
	RecordImport(ctx context.Context, source string, err error)

	// RecordFailure records a rejected or failed operation by error code.
	RecordFailure(ctx context.Context, operation, code string)
}

type otelMetrics struct {
	estimations       metric.Int64Counter
	estimationLatency metric.Float64Histogram
	estimatedCost     metric.Float64Histogram
	graphSize         metric.Int64Histogram
	batchSize         metric.Int64Histogram
	batchLatency      metric.Float64Histogram
	imports           metric.Int64Counter
	failures          metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &otelMetrics{}
	var err error

	if m.estimations, err = meter.Int64Counter("flowcost.estimations",
		metric.WithDescription("Number of workflow estimations"),
	); err != nil {
		return nil, err
	}
	if m.estimationLatency, err = meter.Float64Histogram("flowcost.estimation.latency_ms",
		metric.WithDescription("Time spent computing an estimation"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.estimatedCost, err = meter.Float64Histogram("flowcost.estimation.cost_usd",
		metric.WithDescription("Estimated total cost per workflow run"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, err
	}
	if m.graphSize, err = meter.Int64Histogram("flowcost.estimation.nodes",
		metric.WithDescription("Number of nodes per estimated workflow"),
	); err != nil {
		return nil, err
	}
	if m.batchSize, err = meter.Int64Histogram("flowcost.batch.size",
		metric.WithDescription("Number of workflows per batch"),
	); err != nil {
		return nil, err
	}
	if m.batchLatency, err = meter.Float64Histogram("flowcost.batch.latency_ms",
		metric.WithDescription("Time spent computing a batch"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.imports, err = meter.Int64Counter("flowcost.imports",
		metric.WithDescription("Number of workflow imports"),
	); err != nil {
		return nil, err
	}
	if m.failures, err = meter.Int64Counter("flowcost.failures",
		metric.WithDescription("Number of rejected or failed operations"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordEstimation(ctx context.Context, graphType string, nodeCount int, cost float64, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("graph_type", graphType))
	m.estimations.Add(ctx, 1, attrs)
	m.estimationLatency.Record(ctx, milliseconds(duration), attrs)
	m.estimatedCost.Record(ctx, cost, attrs)
	m.graphSize.Record(ctx, int64(nodeCount), attrs)
}

func (m *otelMetrics) RecordBatch(ctx context.Context, size int, duration time.Duration) {
	m.batchSize.Record(ctx, int64(size))
	m.batchLatency.Record(ctx, milliseconds(duration))
}

func (m *otelMetrics) RecordImport(ctx context.Context, source string, err error) {
	m.imports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", err == nil),
	))
}

func (m *otelMetrics) RecordFailure(ctx context.Context, operation, code string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
