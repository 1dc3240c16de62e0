package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
	"github.com/leowmjw/go-temporal-playercount/pkg/settings"
	"github.com/leowmjw/go-temporal-playercount/pkg/temporal"
	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

// Execution modes
const (
	ModeLocal    = "local"
	ModeTemporal = "temporal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath  string
	rawDir      string
	outDir      string
	dataset     string
	mode        string
	cleanOnly   bool
	displayJSON bool
	parallelism int
	logLevel    string
	address     string
	namespace   string
	taskQueue   string
}

// run executes the command and returns the process exit code: 0 when every
// selected dataset succeeded, 1 when any failed, 2 on usage or setup errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	env, err := settings.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var opts options
	fs := flag.NewFlagSet("playercount", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", env.ConfigPath, "Path to HCL config file or directory (built-in defaults when empty)")
	fs.StringVar(&opts.rawDir, "raw-dir", env.RawDir, "Directory holding raw chart exports")
	fs.StringVar(&opts.outDir, "out-dir", env.OutDir, "Directory receiving processed tables")
	fs.StringVar(&opts.dataset, "dataset", "", "Process only the dataset with this slug")
	fs.StringVar(&opts.mode, "mode", ModeLocal, "Execution mode: 'local' or 'temporal'")
	fs.BoolVar(&opts.cleanOnly, "clean-only", false, "Write cleaned date,players tables without calendar features")
	fs.BoolVar(&opts.displayJSON, "json", false, "Display the report as JSON")
	fs.IntVar(&opts.parallelism, "parallelism", env.Parallelism, "Datasets processed concurrently")
	fs.StringVar(&opts.logLevel, "log-level", env.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.address, "address", env.Temporal.Addr, "Address of Temporal server")
	fs.StringVar(&opts.namespace, "namespace", env.Temporal.Namespace, "Temporal namespace")
	fs.StringVar(&opts.taskQueue, "task-queue", env.Temporal.TaskQueue, "Temporal task queue")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := settings.NewLogger(stderr, opts.logLevel)

	if opts.mode != ModeLocal && opts.mode != ModeTemporal {
		logger.Error("Mode must be either 'local' or 'temporal'", "mode", opts.mode)
		return 2
	}

	env.ConfigPath = opts.configPath
	cfg, cal, err := env.LoadData()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return 2
	}

	datasets := cfg.Datasets
	if opts.dataset != "" {
		ds, ok := cfg.Dataset(opts.dataset)
		if !ok {
			logger.Error("Unknown dataset", "dataset", opts.dataset)
			return 2
		}
		datasets = []playercount.DatasetConfig{ds}
	}

	mode := playercount.ModeEnrich
	if opts.cleanOnly {
		mode = playercount.ModeClean
	}

	var report *playercount.BatchReport
	switch opts.mode {
	case ModeTemporal:
		report, err = runTemporal(ctx, opts, cal, datasets, mode, logger)
		if err != nil {
			logger.Error("Batch workflow failed", "error", err)
			return 2
		}
	default:
		pipeline := playercount.NewPipeline(logger, cfg, cal, opts.rawDir, opts.outDir)
		runner := playercount.NewRunner(logger, pipeline, opts.parallelism)
		if opts.dataset == "" {
			report = runner.RunBatch(ctx, datasets, mode)
			break
		}
		// A single dataset has nothing to continue with: its failure is the
		// run's failure.
		report, err = runner.RunDataset(ctx, datasets[0], mode)
		if err != nil {
			logger.Error("Dataset failed", "dataset", opts.dataset, "error", err)
		}
	}

	displayReport(stdout, report, opts.displayJSON, logger)

	if report.Failed() > 0 {
		return 1
	}
	return 0
}

func runTemporal(ctx context.Context, opts options, cal *playercount.SaleCalendar, datasets []playercount.DatasetConfig, mode playercount.Mode, logger *slog.Logger) (*playercount.BatchReport, error) {
	c, err := client.Dial(client.Options{
		HostPort:  opts.address,
		Namespace: opts.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	request := temporal.NewBatchRequest(cal.Version(), datasets, mode)
	request.Parallelism = opts.parallelism
	logger.Info("Submitting batch", "runID", request.RunID, "datasets", len(datasets), "taskQueue", opts.taskQueue)

	return temporal.RunBatch(ctx, c, opts.taskQueue, request)
}

// displayReport prints the batch report as JSON or as a console table.
func displayReport(w io.Writer, report *playercount.BatchReport, jsonOutput bool, logger *slog.Logger) {
	if jsonOutput {
		reportJSON, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal report to JSON", "error", err)
			fmt.Fprintf(w, "%+v\n", report)
			return
		}
		fmt.Fprintln(w, string(reportJSON))
		return
	}

	fmt.Fprintf(w, "Run %s (calendar %s)\n", report.RunID, report.CalendarVersion)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tSTATUS\tROWS\tDROPPED\tRANGE\tSALE DAYS\tPEAK\tDETAIL")
	for _, r := range report.Datasets {
		if !r.Succeeded() {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t%s\n", r.Dataset, r.FailureKind, r.Cause)
			continue
		}
		span, sale, peak := "-", "-", "-"
		if s := r.Summary; s != nil && s.Days > 0 {
			span = timeline.FormatDate(s.FirstDate) + ".." + timeline.FormatDate(s.LastDate)
			if s.PeakDate.IsZero() {
				sale = "n/a"
			} else {
				sale = fmt.Sprintf("%d", s.SaleDays)
				peak = fmt.Sprintf("%d on %s", s.PeakPlayers, timeline.FormatDate(s.PeakDate))
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.Dataset, r.Status, r.RowsProcessed, r.RowsDropped, span, sale, peak, r.OutputPath)
	}
	tw.Flush()

	fmt.Fprintf(w, "%d succeeded, %d failed\n", report.Succeeded(), report.Failed())
}
