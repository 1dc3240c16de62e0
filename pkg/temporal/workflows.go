package temporal

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

const (
	// Workflow IDs
	BatchWorkflowIDPrefix = "playercount-batch-"

	// Workflow names
	BatchWorkflowName = "playercount-batch"

	// Activity names
	ProcessDatasetActivityName = "process-dataset"

	// Default values
	DefaultTaskQueue          = "playercount-task-queue"
	DefaultDatasetTimeout     = 10 * time.Minute
	DefaultBatchParallelism   = 4
	DefaultWorkflowRunTimeout = time.Hour
)

// BatchRequest is the input of BatchWorkflow.
type BatchRequest struct {
	RunID           string                      `json:"run_id"`
	CalendarVersion string                      `json:"calendar_version,omitempty"`
	Datasets        []playercount.DatasetConfig `json:"datasets"`
	Mode            playercount.Mode            `json:"mode,omitempty"`
	// Parallelism caps concurrently running dataset activities.
	Parallelism int `json:"parallelism,omitempty"`
	// DatasetTimeout bounds a single dataset activity.
	DatasetTimeout time.Duration `json:"dataset_timeout,omitempty"`
}

// DatasetTask is the input of the process-dataset activity.
type DatasetTask struct {
	RunID   string                    `json:"run_id"`
	Dataset playercount.DatasetConfig `json:"dataset"`
	Mode    playercount.Mode          `json:"mode,omitempty"`
}

// BatchWorkflow processes every dataset of a request as its own activity and
// always completes with a report. A dataset that fails, inside the activity
// or in the activity machinery, is recorded and the rest carry on.
func BatchWorkflow(ctx workflow.Context, request BatchRequest) (*playercount.BatchReport, error) {
	logger := workflow.GetLogger(ctx)

	runID := request.RunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.RunID
	}
	mode := request.Mode
	if mode == "" {
		mode = playercount.ModeEnrich
	}
	parallelism := request.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultBatchParallelism
	}
	timeout := request.DatasetTimeout
	if timeout <= 0 {
		timeout = DefaultDatasetTimeout
	}

	logger.Info("Starting batch workflow", "runID", runID, "datasets", len(request.Datasets), "parallelism", parallelism)

	// Datasets are never retried: a failed file fails the same way again.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	report := &playercount.BatchReport{
		RunID:           runID,
		CalendarVersion: request.CalendarVersion,
		StartedAt:       workflow.Now(ctx),
		Datasets:        make([]playercount.DatasetReport, len(request.Datasets)),
	}

	selector := workflow.NewSelector(ctx)
	next, pending := 0, 0

	start := func(i int) {
		ds := request.Datasets[i]
		task := DatasetTask{RunID: runID, Dataset: ds, Mode: mode}
		future := workflow.ExecuteActivity(ctx, ProcessDatasetActivityName, task)
		selector.AddFuture(future, func(f workflow.Future) {
			pending--
			var result playercount.DatasetReport
			if err := f.Get(ctx, &result); err != nil {
				logger.Error("Dataset activity failed", "dataset", ds.OutputSlug, "error", err)
				result = activityFailure(ds, err, workflow.Now(ctx))
			}
			report.Datasets[i] = result
		})
		pending++
	}

	for next < len(request.Datasets) || pending > 0 {
		for next < len(request.Datasets) && pending < parallelism {
			start(next)
			next++
		}
		selector.Select(ctx)
	}

	report.FinishedAt = workflow.Now(ctx)
	logger.Info("Batch workflow completed", "runID", runID, "succeeded", report.Succeeded(), "failed", report.Failed())
	return report, nil
}

func activityFailure(ds playercount.DatasetConfig, err error, at time.Time) playercount.DatasetReport {
	result := playercount.DatasetReport{
		Dataset:     ds.OutputSlug,
		RawFilename: ds.RawFilename,
		FinishedAt:  at,
	}
	result.Fail(&playercount.Error{Kind: playercount.KindActivity, Dataset: ds.OutputSlug, Err: err})
	return result
}

// GenerateBatchWorkflowID creates a workflow ID for a batch run
func GenerateBatchWorkflowID(runID string) string {
	return BatchWorkflowIDPrefix + runID
}
