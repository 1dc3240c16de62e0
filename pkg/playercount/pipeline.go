package playercount

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"time"
)

// Mode selects which artifact a dataset run produces.
type Mode string

const (
	// ModeEnrich writes date,players,is_weekend,is_sale_day.
	ModeEnrich Mode = "enrich"
	// ModeClean writes the cleaned date,players table only.
	ModeClean Mode = "clean"
)

// Pipeline runs ingest, enrich and persist for one dataset at a time. It
// holds no per-dataset state and may be shared by concurrent runs.
type Pipeline struct {
	logger   *slog.Logger
	config   *Config
	calendar *SaleCalendar
	rawDir   string
	outDir   string
}

// NewPipeline creates a pipeline reading raw files from rawDir and writing
// artifacts into outDir.
func NewPipeline(logger *slog.Logger, config *Config, calendar *SaleCalendar, rawDir, outDir string) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:   logger,
		config:   config,
		calendar: calendar,
		rawDir:   rawDir,
		outDir:   outDir,
	}
}

// Calendar returns the shared sale calendar.
func (p *Pipeline) Calendar() *SaleCalendar {
	return p.calendar
}

// RawPath resolves the raw input path for ds. Names that are absolute or
// climb out of the raw directory are rejected.
func (p *Pipeline) RawPath(ds DatasetConfig) (string, error) {
	if !isLocalPath(ds.RawFilename) {
		return "", &Error{
			Kind: KindMalformedInput,
			Err:  fmt.Errorf("raw file %q is outside the raw directory", ds.RawFilename),
		}
	}
	return filepath.Join(p.rawDir, filepath.FromSlash(ds.RawFilename)), nil
}

// OutputPath resolves the artifact path for ds in the given mode.
func (p *Pipeline) OutputPath(ds DatasetConfig, mode Mode) string {
	if mode == ModeClean {
		return filepath.Join(p.outDir, CleanedFilename(ds.OutputSlug))
	}
	return filepath.Join(p.outDir, EnrichedFilename(ds.OutputSlug))
}

// Process cleans and enriches ds and writes its artifact. Any failure aborts
// the dataset before output is written; the returned report is filled in
// either way.
func (p *Pipeline) Process(ctx context.Context, ds DatasetConfig, mode Mode) (*DatasetReport, error) {
	report := &DatasetReport{
		Dataset:     ds.OutputSlug,
		RawFilename: ds.RawFilename,
		StartedAt:   time.Now().UTC(),
	}

	err := p.process(ctx, ds, mode, report)
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) && pe.Dataset == "" {
			pe.Dataset = ds.OutputSlug
		}
		report.Fail(err)
		p.logger.Error("Dataset failed",
			"dataset", ds.OutputSlug,
			"kind", report.FailureKind,
			"error", err)
		return report, err
	}

	p.logger.Info("Dataset processed",
		"dataset", ds.OutputSlug,
		"output", report.OutputPath,
		"rows", report.RowsProcessed,
		"rowsDropped", report.RowsDropped)
	return report, nil
}

// ProcessIsolated is Process wrapped in a failure boundary: errors and panics
// are recorded in the report and never escape.
func (p *Pipeline) ProcessIsolated(ctx context.Context, ds DatasetConfig, mode Mode) (report *DatasetReport) {
	started := time.Now().UTC()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Dataset panicked", "dataset", ds.OutputSlug, "panic", r, "stack", string(debug.Stack()))
			report = &DatasetReport{
				Dataset:     ds.OutputSlug,
				RawFilename: ds.RawFilename,
				StartedAt:   started,
				FinishedAt:  time.Now().UTC(),
			}
			report.Fail(&Error{Kind: KindInternal, Dataset: ds.OutputSlug, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	report, _ = p.Process(ctx, ds, mode)
	return report
}

func (p *Pipeline) process(ctx context.Context, ds DatasetConfig, mode Mode, report *DatasetReport) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindCanceled, Err: err}
	}
	if err := ValidateDataset(ds); err != nil {
		return &Error{Kind: KindMalformedInput, Err: err}
	}

	rawPath, err := p.RawPath(ds)
	if err != nil {
		return err
	}
	p.logger.Info("Processing dataset", "dataset", ds.OutputSlug, "source", rawPath, "mode", mode)

	ingested, err := Ingest(rawPath, IngestOptions{
		Columns:      p.config.ColumnsFor(ds),
		StrictCounts: p.config.StrictCounts,
	})
	if err != nil {
		return err
	}
	report.Ingest = ingested
	report.RowsDropped = ingested.RowsDropped
	if ingested.RowsDropped > 0 {
		p.logger.Warn("Rows dropped during cleaning",
			"dataset", ds.OutputSlug,
			"rowsDropped", ingested.RowsDropped,
			"nullCounts", ingested.NullCounts,
			"invalidCounts", ingested.InvalidCounts,
			"invalidTimestamps", ingested.InvalidTimestamps,
			"duplicates", ingested.DuplicatesDropped)
	}

	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindCanceled, Err: err}
	}

	outPath := p.OutputPath(ds, mode)
	var render func(io.Writer) error

	switch mode {
	case ModeClean:
		render = func(w io.Writer) error { return WriteCleaned(w, ingested.Observations) }
		first, last := dateRange(ingested.Observations)
		report.Summary = &Summary{Days: len(ingested.Observations), FirstDate: first, LastDate: last}
	default:
		enriched := EnrichWith(ingested.Observations, p.calendar, p.config.WeekendFor(ds))
		report.Summary = Summarize(enriched)
		render = func(w io.Writer) error { return WriteEnriched(w, enriched) }
	}

	if err := writeFileAtomic(outPath, render); err != nil {
		return err
	}

	report.Status = StatusSucceeded
	report.OutputPath = outPath
	report.RowsProcessed = len(ingested.Observations)
	return nil
}

func dateRange(obs []Observation) (time.Time, time.Time) {
	if len(obs) == 0 {
		return time.Time{}, time.Time{}
	}
	return obs[0].Date, obs[len(obs)-1].Date
}
