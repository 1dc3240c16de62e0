package playercount

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

var (
	cleanedHeader  = []string{"date", "players"}
	enrichedHeader = []string{"date", "players", "is_weekend", "is_sale_day"}
)

// CleanedFilename names the cleaned artifact for a dataset slug.
func CleanedFilename(slug string) string {
	return slug + "_daily_players.csv"
}

// EnrichedFilename names the enriched artifact for a dataset slug.
func EnrichedFilename(slug string) string {
	return slug + "_dataset_unificado.csv"
}

// WriteCleaned writes observations as date,players rows.
func WriteCleaned(w io.Writer, observations []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cleanedHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, obs := range observations {
		record := []string{timeline.FormatDate(obs.Date), strconv.FormatInt(obs.Players, 10)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEnriched writes rows as date,players,is_weekend,is_sale_day with the
// flags rendered as 1 or 0.
func WriteEnriched(w io.Writer, rows []EnrichedObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(enrichedHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		record := []string{
			timeline.FormatDate(row.Date),
			strconv.FormatInt(row.Players, 10),
			formatFlag(row.IsWeekend),
			formatFlag(row.IsSaleDay),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEnriched parses a table produced by WriteEnriched.
func ReadEnriched(r io.Reader) ([]EnrichedObservation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(enrichedHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, newError(KindMalformedInput, "", fmt.Errorf("failed to read header: %w", err))
	}
	for i, name := range enrichedHeader {
		if strings.TrimSpace(header[i]) != name {
			return nil, newError(KindMalformedInput, "", fmt.Errorf("unexpected column %q at position %d, expected %q", header[i], i, name))
		}
	}

	var rows []EnrichedObservation
	for {
		record, err := cr.Read()
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
		line, _ := cr.FieldPos(0)

		row, err := parseEnrichedRecord(record)
		if err != nil {
			return nil, &Error{Kind: KindMalformedInput, Line: line, Err: err}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadEnrichedFile reads an enriched artifact from disk.
func ReadEnrichedFile(path string) ([]EnrichedObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, newError(KindMissingInput, path, err)
		}
		return nil, newError(KindMalformedInput, path, err)
	}
	defer f.Close()
	return ReadEnriched(bufio.NewReader(f))
}

func parseEnrichedRecord(record []string) (EnrichedObservation, error) {
	date, err := timeline.ParseDate(record[0])
	if err != nil {
		return EnrichedObservation{}, err
	}
	players, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return EnrichedObservation{}, fmt.Errorf("invalid players %q: %w", record[1], err)
	}
	weekend, err := parseFlag(record[2])
	if err != nil {
		return EnrichedObservation{}, err
	}
	sale, err := parseFlag(record[3])
	if err != nil {
		return EnrichedObservation{}, err
	}
	return EnrichedObservation{
		Observation: Observation{Date: date, Players: players},
		IsWeekend:   weekend,
		IsSaleDay:   sale,
	}, nil
}

func formatFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}

// writeFileAtomic renders into a temporary file beside path and renames it
// into place, so readers never observe a partial artifact.
func writeFileAtomic(path string, render func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newError(KindOutputWrite, path, fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return newError(KindOutputWrite, path, fmt.Errorf("failed to create temp file: %w", err))
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := render(buf); err != nil {
		return newError(KindOutputWrite, path, err)
	}
	if err := buf.Flush(); err != nil {
		return newError(KindOutputWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return newError(KindOutputWrite, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return newError(KindOutputWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return newError(KindOutputWrite, path, fmt.Errorf("failed to move artifact into place: %w", err))
	}
	return nil
}
