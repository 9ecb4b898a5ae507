package executor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/thebtf/logcluster/internal/telemetry"
)

// Pool runs jobs on goroutines with at most Workers running at once.
// Submit never blocks; jobs wait for a free slot.
type Pool struct {
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	workers int
	metrics *telemetry.JobMetrics
}

// NewPool creates a Pool. workers below 1 is treated as 1. metrics may be nil.
func NewPool(workers int, metrics *telemetry.JobMetrics) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		metrics: metrics,
	}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Submit schedules job. If ctx is cancelled before a slot frees up the job
// never runs and its Handle reports the context error.
func (p *Pool) Submit(ctx context.Context, job Job) Handle {
	p.metrics.Submitted(ctx, job.Kind)
	f := newFuture()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			log.Debug().Str("job", job.Name).Err(err).Msg("Job dropped before start")
			f.complete(nil, err)
			return
		}
		defer p.sem.Release(1)

		f.complete(run(ctx, job, p.metrics))
	}()

	return f
}

// Wait blocks until every submitted job has finished or been dropped.
func (p *Pool) Wait() {
	p.wg.Wait()
}
