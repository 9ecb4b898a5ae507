// Package executor runs clustering jobs. The reduction driver only needs
// Submit and Await, so jobs can run inline, on a goroutine pool, or on any
// other backend that satisfies Executor.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thebtf/logcluster/internal/telemetry"
	"github.com/thebtf/logcluster/pkg/similarity"
)

// ErrJobPanic is wrapped by the error of a job that panicked.
var ErrJobPanic = errors.New("job panicked")

// Job is one unit of clustering work. Run must only touch data the job owns
// or data shared read-only.
type Job struct {
	Kind string // "cluster" or "merge"
	Name string // unique label, e.g. "cluster[3]"
	Run  func(ctx context.Context) (similarity.ClusterSet, error)
}

// Handle is the pending result of a submitted job.
type Handle interface {
	// Await blocks until the job finishes or ctx is done.
	Await(ctx context.Context) (similarity.ClusterSet, error)
}

// Executor accepts jobs for execution.
type Executor interface {
	Submit(ctx context.Context, job Job) Handle
}

// future is a Handle completed exactly once by closing done.
type future struct {
	done chan struct{}
	set  similarity.ClusterSet
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) complete(set similarity.ClusterSet, err error) {
	f.set, f.err = set, err
	close(f.done)
}

func (f *future) Await(ctx context.Context) (similarity.ClusterSet, error) {
	select {
	case <-f.done:
		return f.set, f.err
	case <-ctx.Done():
		// A finished job wins over a concurrent cancellation.
		select {
		case <-f.done:
			return f.set, f.err
		default:
		}
		return nil, ctx.Err()
	}
}

// run executes job, converting a panic into an error and recording metrics.
func run(ctx context.Context, job Job, metrics *telemetry.JobMetrics) (set similarity.ClusterSet, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			set = nil
			err = fmt.Errorf("%w: %s: %v", ErrJobPanic, job.Name, r)
		}
		metrics.Finished(ctx, job.Kind, time.Since(start), err)
	}()
	return job.Run(ctx)
}
