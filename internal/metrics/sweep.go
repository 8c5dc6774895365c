package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SweepMetrics defines the interface for recording sweep execution metrics.
// Implementations track per-run outcomes and durations so a long sweep can be
// watched from Prometheus instead of the terminal.
type SweepMetrics interface {
	// RecordRun records one trainer invocation outcome.
	// Task examples: "gab", "ws". Status examples: "succeeded", "failed".
	RecordRun(ctx context.Context, task, status string)

	// RecordRunDuration records how long one trainer invocation took.
	// Duration is recorded in seconds as a histogram for percentile calculations.
	RecordRunDuration(ctx context.Context, task string, duration time.Duration, status string)

	// RecordSweep records a finished sweep with its terminal status.
	RecordSweep(ctx context.Context, task, status string)
}

// sweepMetrics implements SweepMetrics using OpenTelemetry metrics.
type sweepMetrics struct {
	runCounter       metric.Int64Counter
	runDurationHisto metric.Float64Histogram
	sweepCounter     metric.Int64Counter
}

// NewSweepMetrics creates a new SweepMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names.
func NewSweepMetrics(meterProvider metric.MeterProvider, namespace string) (SweepMetrics, error) {
	meter := meterProvider.Meter(namespace)

	runCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_runs_total", namespace),
		metric.WithDescription("Total number of trainer invocations"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run counter: %w", err)
	}

	runDurationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_run_duration_seconds", namespace),
		metric.WithDescription("Duration of trainer invocations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	sweepCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_sweeps_total", namespace),
		metric.WithDescription("Total number of finished sweeps"),
		metric.WithUnit("{sweep}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep counter: %w", err)
	}

	return &sweepMetrics{
		runCounter:       runCounter,
		runDurationHisto: runDurationHisto,
		sweepCounter:     sweepCounter,
	}, nil
}

// RecordRun increments the run counter with task and status labels.
func (s *sweepMetrics) RecordRun(ctx context.Context, task, status string) {
	s.runCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("task", task),
			attribute.String("status", status),
		),
	)
}

// RecordRunDuration records the run duration in seconds with task and status labels.
func (s *sweepMetrics) RecordRunDuration(
	ctx context.Context,
	task string,
	duration time.Duration,
	status string,
) {
	s.runDurationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("task", task),
			attribute.String("status", status),
		),
	)
}

// RecordSweep increments the sweep counter with task and status labels.
func (s *sweepMetrics) RecordSweep(ctx context.Context, task, status string) {
	s.sweepCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("task", task),
			attribute.String("status", status),
		),
	)
}
