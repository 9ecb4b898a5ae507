// Package telemetry provides OpenTelemetry instruments for clustering jobs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/thebtf/logcluster"

// JobMetrics records submitted jobs, failures and run time per job kind.
// Without a configured MeterProvider every instrument is a no-op.
type JobMetrics struct {
	submitted metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewJobMetrics creates instruments on the global MeterProvider.
func NewJobMetrics() *JobMetrics {
	return NewJobMetricsWithProvider(otel.GetMeterProvider())
}

// NewJobMetricsWithProvider creates instruments on the given provider, falling
// back to no-op instruments when one cannot be created.
func NewJobMetricsWithProvider(mp metric.MeterProvider) *JobMetrics {
	meter := mp.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	submitted, err := meter.Int64Counter("logcluster.jobs.submitted",
		metric.WithDescription("Clustering and merge jobs submitted"))
	if err != nil {
		submitted, _ = fallback.Int64Counter("logcluster.jobs.submitted")
	}
	failed, err := meter.Int64Counter("logcluster.jobs.failed",
		metric.WithDescription("Jobs that returned an error or panicked"))
	if err != nil {
		failed, _ = fallback.Int64Counter("logcluster.jobs.failed")
	}
	duration, err := meter.Float64Histogram("logcluster.jobs.duration",
		metric.WithDescription("Job run time"),
		metric.WithUnit("s"))
	if err != nil {
		duration, _ = fallback.Float64Histogram("logcluster.jobs.duration")
	}

	return &JobMetrics{
		submitted: submitted,
		failed:    failed,
		duration:  duration,
	}
}

// Submitted counts one job of the given kind.
func (m *JobMetrics) Submitted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Finished records a job's run time and whether it failed.
func (m *JobMetrics) Finished(ctx context.Context, kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.failed.Add(ctx, 1, attrs)
	}
}
