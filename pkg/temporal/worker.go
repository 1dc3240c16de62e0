package temporal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

// Register adds the batch workflow and dataset activity to a worker.
func Register(r worker.Registry, activities *ActivitiesImpl) {
	r.RegisterWorkflowWithOptions(BatchWorkflow, workflow.RegisterOptions{Name: BatchWorkflowName})
	r.RegisterActivityWithOptions(activities.ProcessDatasetActivity, activity.RegisterOptions{Name: ProcessDatasetActivityName})
}

// NewBatchRequest builds a request for datasets with a fresh run ID.
func NewBatchRequest(calendarVersion string, datasets []playercount.DatasetConfig, mode playercount.Mode) BatchRequest {
	return BatchRequest{
		RunID:           uuid.NewString(),
		CalendarVersion: calendarVersion,
		Datasets:        datasets,
		Mode:            mode,
	}
}

// StartBatch starts BatchWorkflow on taskQueue.
func StartBatch(ctx context.Context, c client.Client, taskQueue string, request BatchRequest) (client.WorkflowRun, error) {
	if request.RunID == "" {
		request.RunID = uuid.NewString()
	}
	options := client.StartWorkflowOptions{
		ID:                 GenerateBatchWorkflowID(request.RunID),
		TaskQueue:          taskQueue,
		WorkflowRunTimeout: DefaultWorkflowRunTimeout,
	}

	run, err := c.ExecuteWorkflow(ctx, options, BatchWorkflowName, request)
	if err != nil {
		return nil, fmt.Errorf("failed to start batch workflow: %w", err)
	}
	return run, nil
}

// RunBatch starts BatchWorkflow and waits for its report.
func RunBatch(ctx context.Context, c client.Client, taskQueue string, request BatchRequest) (*playercount.BatchReport, error) {
	run, err := StartBatch(ctx, c, taskQueue, request)
	if err != nil {
		return nil, err
	}

	var report playercount.BatchReport
	if err := run.Get(ctx, &report); err != nil {
		return nil, fmt.Errorf("batch workflow %s failed: %w", run.GetID(), err)
	}
	return &report, nil
}
