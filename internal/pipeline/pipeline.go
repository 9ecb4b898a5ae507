// Package pipeline runs a clustering pass from input files to a report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/logcluster/internal/config"
	"github.com/thebtf/logcluster/internal/executor"
	"github.com/thebtf/logcluster/internal/loader"
	"github.com/thebtf/logcluster/internal/reduce"
	"github.com/thebtf/logcluster/internal/render"
	"github.com/thebtf/logcluster/internal/telemetry"
	"github.com/thebtf/logcluster/pkg/similarity"
)

// Result is the outcome of one pass.
type Result struct {
	Lines    []string
	Clusters similarity.ClusterSet
	Report   *render.Report
}

// Runner holds what a pass needs besides its inputs.
type Runner struct {
	cfg     *config.Config
	loader  *loader.Loader
	metrics *telemetry.JobMetrics
}

// New creates a Runner. metrics may be nil.
func New(cfg *config.Config, metrics *telemetry.JobMetrics) *Runner {
	return &Runner{
		cfg:     cfg,
		loader:  loader.New(cfg.Workers),
		metrics: metrics,
	}
}

// Run reads paths in order, concatenates their lines and clusters them.
func (r *Runner) Run(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	lines, err := r.loader.ReadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	log.Info().
		Strs("files", paths).
		Int("lines", len(lines)).
		Dur("elapsed", time.Since(start)).
		Msg("Input loaded")

	return r.Cluster(ctx, lines)
}

// Cluster clusters lines already in memory.
func (r *Runner) Cluster(ctx context.Context, lines []string) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	exec, wait := r.executor()
	defer wait()

	set, err := reduce.All(ctx, lines, r.cfg.ReduceOptions(), exec)
	if err != nil {
		return nil, err
	}

	report, err := render.NewReport(lines, set, r.cfg.Seed)
	if err != nil {
		return nil, err
	}
	return &Result{Lines: lines, Clusters: set, Report: report}, nil
}

// executor picks the inline executor for a single worker so the whole pass
// stays on the calling goroutine.
func (r *Runner) executor() (executor.Executor, func()) {
	if r.cfg.Workers <= 1 {
		return executor.NewInline(r.metrics), func() {}
	}
	pool := executor.NewPool(r.cfg.Workers, r.metrics)
	return pool, pool.Wait
}
