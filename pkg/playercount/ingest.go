package playercount

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

// IngestOptions controls how a raw table is cleaned.
type IngestOptions struct {
	Columns ColumnMapping
	// StrictCounts turns a non-integer player count into a dataset-level
	// InvalidCountError instead of a dropped row.
	StrictCounts bool
}

// nullTokens are the spellings exports use for a missing value.
var nullTokens = map[string]struct{}{
	"": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {}, "<na>": {},
}

type cleanRow struct {
	date    time.Time
	players int64
}

// Ingest cleans the raw table at path. A missing file yields a
// MissingInputError; a table without the mapped columns yields a
// MalformedInputError.
func Ingest(path string, opts IngestOptions) (*IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindMissingInput, path, err)
		}
		return nil, newError(KindMalformedInput, path, err)
	}
	defer f.Close()

	result, err := IngestReader(f, opts)
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return result, nil
}

// IngestReader cleans a raw delimited table: it maps the configured columns,
// truncates timestamps to their calendar date, drops rows whose count is
// missing or not a non-negative integer, sorts by date and keeps the last
// row seen for any repeated date. Every removed row is counted.
func IngestReader(r io.Reader, opts IngestOptions) (*IngestResult, error) {
	cols := opts.Columns
	if cols.Timestamp == "" || cols.Players == "" {
		cols = DefaultColumns
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, newError(KindMalformedInput, "", errors.New("input is empty"))
	}
	if err != nil {
		return nil, newError(KindMalformedInput, "", fmt.Errorf("failed to read header: %w", err))
	}

	tsIdx, playersIdx, err := locateColumns(header, cols)
	if err != nil {
		return nil, newError(KindMalformedInput, "", err)
	}

	result := &IngestResult{}
	var rows []cleanRow

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, &Error{Kind: KindMalformedInput, Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)

		ts := field(record, tsIdx)
		if ts == "" {
			result.BlankRows++
			continue
		}
		result.RowsRead++

		date, err := timeline.ParseTimestamp(ts)
		if err != nil {
			result.InvalidTimestamps++
			result.reject(line, KindInvalidTimestamp, ts)
			continue
		}

		raw := field(record, playersIdx)
		if isNull(raw) {
			result.NullCounts++
			result.reject(line, KindNullCount, raw)
			continue
		}

		players, err := parseCount(raw)
		if err != nil {
			if opts.StrictCounts {
				return nil, &Error{Kind: KindInvalidCount, Line: line, Err: err}
			}
			result.InvalidCounts++
			result.reject(line, KindInvalidCount, raw)
			continue
		}

		rows = append(rows, cleanRow{date: date, players: players})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	result.Observations = make([]Observation, 0, len(rows))
	for i, row := range rows {
		// Within a run of equal dates the stable sort kept file order, so the
		// last element of the run is the latest row for that day.
		if i+1 < len(rows) && rows[i+1].date.Equal(row.date) {
			result.DuplicatesDropped++
			result.reject(0, KindDuplicateDate, timeline.FormatDate(row.date))
			continue
		}
		result.Observations = append(result.Observations, Observation{Date: row.date, Players: row.players})
	}

	result.RowsDropped = result.NullCounts + result.InvalidCounts + result.InvalidTimestamps + result.DuplicatesDropped
	return result, nil
}

func locateColumns(header []string, cols ColumnMapping) (int, int, error) {
	tsIdx, playersIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case tsIdx < 0 && strings.EqualFold(name, cols.Timestamp):
			tsIdx = i
		case playersIdx < 0 && strings.EqualFold(name, cols.Players):
			playersIdx = i
		}
	}

	var missing []string
	if tsIdx < 0 {
		missing = append(missing, fmt.Sprintf("timestamp column %q", cols.Timestamp))
	}
	if playersIdx < 0 {
		missing = append(missing, fmt.Sprintf("player count column %q", cols.Players))
	}
	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("header lacks %s", strings.Join(missing, " and "))
	}
	return tsIdx, playersIdx, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func isNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(s)]
	return ok
}

// parseCount accepts plain integers and integral decimals such as "1234.0",
// which is how exports with gaps usually render counts.
func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative player count %q", s)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("player count %q is not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("player count %q is not an integer", s)
	}
	if f < 0 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("player count %q is out of range", s)
	}
	return int64(f), nil
}

func (r *IngestResult) reject(line int, reason Kind, value string) {
	if len(r.Rejects) >= maxRejects {
		return
	}
	r.Rejects = append(r.Rejects, RowReject{Line: line, Reason: reason, Value: value})
}
