package executor

import (
	"context"

	"github.com/thebtf/logcluster/internal/telemetry"
)

// Inline runs every job synchronously inside Submit.
type Inline struct {
	metrics *telemetry.JobMetrics
}

// NewInline creates an Inline executor. metrics may be nil.
func NewInline(metrics *telemetry.JobMetrics) *Inline {
	return &Inline{metrics: metrics}
}

// Submit runs job before returning an already completed Handle.
func (e *Inline) Submit(ctx context.Context, job Job) Handle {
	e.metrics.Submitted(ctx, job.Kind)
	f := newFuture()
	f.complete(run(ctx, job, e.metrics))
	return f
}
