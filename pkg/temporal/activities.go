package temporal

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/activity"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

// Activities defines the activities used by BatchWorkflow
type Activities interface {
	ProcessDatasetActivity(ctx context.Context, task DatasetTask) (*playercount.DatasetReport, error)
}

// ActivitiesImpl runs dataset tasks against a local pipeline. Raw and output
// directories are those of the worker host.
type ActivitiesImpl struct {
	logger   *slog.Logger
	pipeline *playercount.Pipeline
}

// NewActivitiesImpl creates a new activities implementation
func NewActivitiesImpl(logger *slog.Logger, pipeline *playercount.Pipeline) *ActivitiesImpl {
	return &ActivitiesImpl{
		logger:   logger,
		pipeline: pipeline,
	}
}

// ProcessDatasetActivity cleans, enriches and writes one dataset. Dataset
// failures are returned inside the report, never as an activity error, so
// they are not mistaken for infrastructure faults.
func (a *ActivitiesImpl) ProcessDatasetActivity(ctx context.Context, task DatasetTask) (*playercount.DatasetReport, error) {
	info := activity.GetInfo(ctx)
	a.logger.Info("Processing dataset activity",
		"runID", task.RunID,
		"dataset", task.Dataset.OutputSlug,
		"workflowID", info.WorkflowExecution.ID,
		"attempt", info.Attempt)

	report := a.pipeline.ProcessIsolated(ctx, task.Dataset, task.Mode)
	return report, nil
}
