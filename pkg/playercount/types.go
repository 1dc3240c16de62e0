package playercount

import (
	"time"
)

// Observation is one calendar day's player count after cleaning.
type Observation struct {
	Date    time.Time `json:"date"`
	Players int64     `json:"players"`
}

// EnrichedObservation is an Observation tagged with calendar features.
type EnrichedObservation struct {
	Observation
	IsWeekend bool `json:"is_weekend"`
	IsSaleDay bool `json:"is_sale_day"`
}

// ColumnMapping names the source columns holding the timestamp and the
// player count. Matching is case-insensitive and ignores surrounding space.
type ColumnMapping struct {
	Timestamp string `json:"timestamp" validate:"required"`
	Players   string `json:"players" validate:"required"`
}

// DefaultColumns matches the SteamDB chart export.
var DefaultColumns = ColumnMapping{Timestamp: "DateTime", Players: "Players"}

// DatasetConfig maps one raw export file to the slug used to name its
// processed artifacts. RawFilename is relative to the raw directory and may
// not leave it. Columns and Weekend override the process-wide values
// when set.
type DatasetConfig struct {
	RawFilename string         `json:"raw_filename" validate:"required,localpath"`
	OutputSlug  string         `json:"output_slug" validate:"required,slug"`
	Title       string         `json:"title,omitempty"`
	AppID       int            `json:"app_id,omitempty" validate:"gte=0"`
	Columns     *ColumnMapping `json:"columns,omitempty" validate:"omitempty"`
	Weekend     *WeekendPolicy `json:"weekend,omitempty"`
}

// SaleWindow is one historical storefront promotion, inclusive on both ends.
type SaleWindow struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IngestResult is the outcome of cleaning one raw table.
type IngestResult struct {
	Observations []Observation `json:"-"`

	// RowsRead counts data rows with a non-empty timestamp.
	RowsRead int `json:"rows_read"`
	// RowsDropped is NullCounts + InvalidCounts + InvalidTimestamps +
	// DuplicatesDropped, so len(Observations)+RowsDropped == RowsRead.
	RowsDropped       int `json:"rows_dropped"`
	NullCounts        int `json:"null_counts"`
	InvalidCounts     int `json:"invalid_counts"`
	InvalidTimestamps int `json:"invalid_timestamps"`
	DuplicatesDropped int `json:"duplicates_dropped"`
	// BlankRows counts rows without a timestamp, such as the empty padding
	// rows exports carry at either end. They are not part of RowsRead.
	BlankRows int `json:"blank_rows"`

	// Rejects holds the first few rejected rows for diagnostics.
	Rejects []RowReject `json:"rejects,omitempty"`
}

// RowReject describes one row removed during cleaning.
type RowReject struct {
	Line   int    `json:"line"`
	Reason Kind   `json:"reason"`
	Value  string `json:"value,omitempty"`
}

const maxRejects = 20
