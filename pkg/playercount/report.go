package playercount

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Status is the terminal state of one dataset in a batch.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// DatasetReport records what happened to one dataset.
type DatasetReport struct {
	Dataset     string `json:"dataset"`
	RawFilename string `json:"raw_filename"`
	OutputPath  string `json:"output_path,omitempty"`
	Status      Status `json:"status"`

	RowsProcessed int           `json:"rows_processed"`
	RowsDropped   int           `json:"rows_dropped"`
	Ingest        *IngestResult `json:"ingest,omitempty"`
	Summary       *Summary      `json:"summary,omitempty"`

	FailureKind Kind   `json:"failure_kind,omitempty"`
	Cause       string `json:"cause,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded reports whether the dataset produced its artifact.
func (r *DatasetReport) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Fail marks the report failed with the kind and message of err.
func (r *DatasetReport) Fail(err error) {
	r.Status = StatusFailed
	r.FailureKind = KindOf(err)
	r.Cause = err.Error()
	r.OutputPath = ""
}

// BatchReport aggregates the per-dataset outcomes of one run, in
// configuration order.
type BatchReport struct {
	RunID           string          `json:"run_id"`
	CalendarVersion string          `json:"calendar_version,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Datasets        []DatasetReport `json:"datasets"`
}

// Succeeded counts datasets that produced output.
func (b *BatchReport) Succeeded() int {
	n := 0
	for i := range b.Datasets {
		if b.Datasets[i].Succeeded() {
			n++
		}
	}
	return n
}

// Failed counts datasets that did not.
func (b *BatchReport) Failed() int {
	return len(b.Datasets) - b.Succeeded()
}

// Failures returns the failed dataset reports.
func (b *BatchReport) Failures() []DatasetReport {
	var out []DatasetReport
	for _, r := range b.Datasets {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// Summary describes an enriched series.
type Summary struct {
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
	Days        int       `json:"days"`
	SaleDays    int       `json:"sale_days"`
	WeekendDays int       `json:"weekend_days"`

	PeakPlayers int64     `json:"peak_players"`
	PeakDate    time.Time `json:"peak_date"`

	MeanPlayers        float64 `json:"mean_players"`
	MeanPlayersOnSale  float64 `json:"mean_players_on_sale"`
	MeanPlayersOffSale float64 `json:"mean_players_off_sale"`
}

// Summarize computes a Summary. rows must be sorted by date, as Enrich
// output is. An empty series yields a zero Summary.
func Summarize(rows []EnrichedObservation) *Summary {
	s := &Summary{Days: len(rows)}
	if len(rows) == 0 {
		return s
	}
	s.FirstDate = rows[0].Date
	s.LastDate = rows[len(rows)-1].Date

	all := make([]float64, 0, len(rows))
	var onSale, offSale []float64
	for _, row := range rows {
		v := float64(row.Players)
		all = append(all, v)
		if row.IsSaleDay {
			s.SaleDays++
			onSale = append(onSale, v)
		} else {
			offSale = append(offSale, v)
		}
		if row.IsWeekend {
			s.WeekendDays++
		}
		if row.Players > s.PeakPlayers || s.PeakDate.IsZero() {
			s.PeakPlayers = row.Players
			s.PeakDate = row.Date
		}
	}

	s.MeanPlayers = mean(all)
	s.MeanPlayersOnSale = mean(onSale)
	s.MeanPlayersOffSale = mean(offSale)
	return s
}

// mean is stat.Mean with 0 for an empty sample; NaN does not survive JSON.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
