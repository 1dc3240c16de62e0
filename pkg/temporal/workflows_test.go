package temporal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

type BatchWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env        *testsuite.TestWorkflowEnvironment
	outDir     string
	activities *ActivitiesImpl
}

func TestBatchWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(BatchWorkflowTestSuite))
}

func (s *BatchWorkflowTestSuite) SetupTest() {
	rawDir := s.T().TempDir()
	s.outDir = s.T().TempDir()

	raw := map[string]string{
		"steamdb_chart_440.csv":     "DateTime,Players\n2024-03-13 00:00:00,100\n2024-03-14 00:00:00,200\n",
		"steamdb_chart_730 (2).csv": "DateTime,Players\n2024-03-22 00:00:00,300\n2024-03-22 00:00:00,310\n",
	}
	for name, content := range raw {
		s.Require().NoError(os.WriteFile(filepath.Join(rawDir, name), []byte(content), 0o644))
	}

	cal, err := playercount.NewSaleCalendar("test", []playercount.SaleWindow{{
		Name:  "spring_2024",
		Start: day(2024, 3, 14),
		End:   day(2024, 3, 21),
	}})
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &playercount.Config{CalendarVersion: "test", Columns: playercount.DefaultColumns, Weekend: playercount.DefaultWeekend}
	s.activities = NewActivitiesImpl(logger, playercount.NewPipeline(logger, cfg, cal, rawDir, s.outDir))

	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflowWithOptions(BatchWorkflow, workflow.RegisterOptions{Name: BatchWorkflowName})
	s.env.RegisterActivityWithOptions(s.activities.ProcessDatasetActivity, activity.RegisterOptions{Name: ProcessDatasetActivityName})
}

func (s *BatchWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *BatchWorkflowTestSuite) datasets() []playercount.DatasetConfig {
	return []playercount.DatasetConfig{
		{RawFilename: "steamdb_chart_440.csv", OutputSlug: "tf2"},
		{RawFilename: "steamdb_chart_8500.csv", OutputSlug: "eve_online"},
		{RawFilename: "steamdb_chart_730 (2).csv", OutputSlug: "cs2"},
	}
}

func (s *BatchWorkflowTestSuite) TestPartialFailure() {
	s.env.ExecuteWorkflow(BatchWorkflowName, BatchRequest{
		RunID:           "run-1",
		CalendarVersion: "test",
		Datasets:        s.datasets(),
		Parallelism:     2,
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var report playercount.BatchReport
	s.Require().NoError(s.env.GetWorkflowResult(&report))

	s.Equal("run-1", report.RunID)
	s.Equal("test", report.CalendarVersion)
	s.Require().Len(report.Datasets, 3)
	s.Equal(2, report.Succeeded())

	tf2, eve, cs2 := report.Datasets[0], report.Datasets[1], report.Datasets[2]
	s.Equal("tf2", tf2.Dataset)
	s.True(tf2.Succeeded())
	s.Equal(2, tf2.RowsProcessed)
	s.Equal("eve_online", eve.Dataset)
	s.Equal(playercount.KindMissingInput, eve.FailureKind)
	s.Equal("cs2", cs2.Dataset)
	s.True(cs2.Succeeded())
	s.Equal(1, cs2.RowsDropped)

	rows, err := playercount.ReadEnrichedFile(filepath.Join(s.outDir, "tf2_dataset_unificado.csv"))
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.False(rows[0].IsSaleDay)
	s.True(rows[1].IsSaleDay)

	s.NoFileExists(filepath.Join(s.outDir, "eve_online_dataset_unificado.csv"))
	s.FileExists(filepath.Join(s.outDir, "cs2_dataset_unificado.csv"))
}

func (s *BatchWorkflowTestSuite) TestActivityErrorIsRecorded() {
	s.env.OnActivity(ProcessDatasetActivityName, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, task DatasetTask) (*playercount.DatasetReport, error) {
			if task.Dataset.OutputSlug == "cs2" {
				return nil, errors.New("worker lost its volume")
			}
			return s.activities.ProcessDatasetActivity(ctx, task)
		})

	s.env.ExecuteWorkflow(BatchWorkflowName, BatchRequest{RunID: "run-2", Datasets: s.datasets()})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var report playercount.BatchReport
	s.Require().NoError(s.env.GetWorkflowResult(&report))
	s.Require().Len(report.Datasets, 3)

	s.True(report.Datasets[0].Succeeded())
	s.Equal(playercount.KindMissingInput, report.Datasets[1].FailureKind)
	s.Equal(playercount.KindActivity, report.Datasets[2].FailureKind)
	s.True(strings.Contains(report.Datasets[2].Cause, "worker lost its volume"), report.Datasets[2].Cause)
}

func (s *BatchWorkflowTestSuite) TestCleanMode() {
	s.env.ExecuteWorkflow(BatchWorkflowName, BatchRequest{
		RunID:       "run-3",
		Datasets:    s.datasets()[:1],
		Mode:        playercount.ModeClean,
		Parallelism: 1,
	})

	var report playercount.BatchReport
	s.Require().NoError(s.env.GetWorkflowResult(&report))
	s.Require().Len(report.Datasets, 1)
	s.True(report.Datasets[0].Succeeded())
	s.FileExists(filepath.Join(s.outDir, "tf2_daily_players.csv"))
}

func (s *BatchWorkflowTestSuite) TestEmptyBatch() {
	s.env.ExecuteWorkflow(BatchWorkflowName, BatchRequest{RunID: "run-4"})

	var report playercount.BatchReport
	s.Require().NoError(s.env.GetWorkflowResult(&report))
	s.Empty(report.Datasets)
	s.Zero(report.Failed())
}

func TestGenerateBatchWorkflowID(t *testing.T) {
	id := GenerateBatchWorkflowID("abc")
	if id != BatchWorkflowIDPrefix+"abc" {
		t.Errorf("Expected workflow ID '%s', got '%s'", BatchWorkflowIDPrefix+"abc", id)
	}

	req := NewBatchRequest("v1", nil, playercount.ModeEnrich)
	if req.RunID == "" {
		t.Error("Expected a generated run ID")
	}
	if req.CalendarVersion != "v1" {
		t.Errorf("Expected calendar version 'v1', got '%s'", req.CalendarVersion)
	}
}
