package playercount

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Runner processes a batch of datasets in-process. One dataset's failure
// never stops the others.
type Runner struct {
	logger      *slog.Logger
	pipeline    *Pipeline
	parallelism int
}

// NewRunner creates a runner executing at most parallelism datasets at once.
// A non-positive parallelism uses GOMAXPROCS.
func NewRunner(logger *slog.Logger, pipeline *Pipeline, parallelism int) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		logger:      logger,
		pipeline:    pipeline,
		parallelism: parallelism,
	}
}

// RunBatch processes every dataset and returns one report entry per config,
// in input order. Datasets not yet started when ctx is canceled are reported
// as CanceledError.
func (r *Runner) RunBatch(ctx context.Context, configs []DatasetConfig, mode Mode) *BatchReport {
	report := r.newReport(len(configs))

	logger := r.logger.With("runId", report.RunID)
	logger.Info("Starting batch", "datasets", len(configs), "parallelism", r.parallelism, "mode", mode)

	// Workers always return nil so the group never cancels siblings.
	g := new(errgroup.Group)
	g.SetLimit(r.parallelism)

	for i, ds := range configs {
		g.Go(func() error {
			report.Datasets[i] = *r.pipeline.ProcessIsolated(ctx, ds, mode)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	logger.Info("Batch completed",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt))
	return report
}

// RunDataset processes a single dataset outside any failure boundary: its
// error is returned alongside a one-entry report, and a panic propagates.
func (r *Runner) RunDataset(ctx context.Context, ds DatasetConfig, mode Mode) (*BatchReport, error) {
	report := r.newReport(1)
	dataset, err := r.pipeline.Process(ctx, ds, mode)
	report.Datasets[0] = *dataset
	report.FinishedAt = time.Now().UTC()
	return report, err
}

func (r *Runner) newReport(n int) *BatchReport {
	report := &BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Datasets:  make([]DatasetReport, n),
	}
	if cal := r.pipeline.Calendar(); cal != nil {
		report.CalendarVersion = cal.Version()
	}
	return report
}
