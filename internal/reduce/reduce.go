// Package reduce drives the batch clustering and pairwise merge of a corpus.
package reduce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/logcluster/internal/executor"
	"github.com/thebtf/logcluster/pkg/similarity"
)

// DefaultBatchSize is the number of lines clustered by one leaf job.
const DefaultBatchSize = 1000

var (
	// ErrInvalidBatchSize is returned for batch sizes below 1.
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrWorkerFailure wraps the error of any failed cluster or merge job.
	ErrWorkerFailure = errors.New("clustering job failed")
)

// Options controls a reduction.
type Options struct {
	Threshold float64
	BatchSize int
}

// Validate checks the threshold and batch size.
func (o Options) Validate() error {
	if err := similarity.ValidateThreshold(o.Threshold); err != nil {
		return err
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, o.BatchSize)
	}
	return nil
}

// Batches splits [0, n) into contiguous runs of size indices; the last run
// holds the remainder.
func Batches(n, size int) [][]int {
	if n <= 0 || size < 1 {
		return nil
	}
	out := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		batch := make([]int, end-start)
		for i := range batch {
			batch[i] = start + i
		}
		out = append(out, batch)
	}
	return out
}

type pending struct {
	name   string
	handle executor.Handle
}

// All clusters lines batch by batch on exec, then merges the batch results
// pairwise through a FIFO queue: the two oldest pending results are merged
// and the merge is queued at the tail until one result remains.
//
// The queue is consumed in logical order regardless of which job finishes
// first, so the output depends only on lines, opts and the batch layout.
// Any failed job fails the whole reduction.
func All(ctx context.Context, lines []string, opts Options, exec executor.Executor) (similarity.ClusterSet, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	batches := Batches(len(lines), opts.BatchSize)
	if len(batches) == 0 {
		return similarity.ClusterSet{}, nil
	}

	// Queued jobs that have not started are dropped on early return.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	queue := make([]pending, 0, len(batches))
	for i, batch := range batches {
		job := clusterJob(i, batch, lines, opts.Threshold)
		log.Debug().
			Str("job", job.Name).
			Int("first", batch[0]).
			Int("size", len(batch)).
			Msg("Submitting batch")
		queue = append(queue, pending{name: job.Name, handle: exec.Submit(ctx, job)})
	}

	merges := 0
	for len(queue) > 1 {
		fst, snd := queue[0], queue[1]
		queue = queue[2:]

		a, err := await(ctx, fst)
		if err != nil {
			return nil, err
		}
		b, err := await(ctx, snd)
		if err != nil {
			return nil, err
		}

		job := mergeJob(merges, a, b, lines, opts.Threshold)
		log.Debug().
			Str("job", job.Name).
			Str("left", fst.name).
			Str("right", snd.name).
			Msg("Submitting merge")
		queue = append(queue, pending{name: job.Name, handle: exec.Submit(ctx, job)})
		merges++
	}

	result, err := await(ctx, queue[0])
	if err != nil {
		return nil, err
	}
	if err := result.Validate(len(lines)); err != nil {
		return nil, err
	}

	log.Info().
		Int("lines", len(lines)).
		Int("batches", len(batches)).
		Int("merges", merges).
		Int("clusters", len(result)).
		Dur("elapsed", time.Since(start)).
		Msg("Clustering complete")

	return result, nil
}

func await(ctx context.Context, p pending) (similarity.ClusterSet, error) {
	set, err := p.handle.Await(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", p.name).Msg("Clustering job failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrWorkerFailure, p.name, err)
	}
	return set, nil
}

func clusterJob(i int, batch []int, lines []string, threshold float64) executor.Job {
	return executor.Job{
		Kind: "cluster",
		Name: fmt.Sprintf("cluster[%d]", i),
		Run: func(context.Context) (similarity.ClusterSet, error) {
			return similarity.Group(batch, lines, threshold), nil
		},
	}
}

// mergeJob owns a and b: they come from completed jobs and nothing else
// holds them once they leave the queue.
func mergeJob(i int, a, b similarity.ClusterSet, lines []string, threshold float64) executor.Job {
	return executor.Job{
		Kind: "merge",
		Name: fmt.Sprintf("merge[%d]", i),
		Run: func(context.Context) (similarity.ClusterSet, error) {
			return similarity.Merge(a, b, lines, threshold), nil
		},
	}
}
