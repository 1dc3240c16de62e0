package playercount

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEnrichedFormat(t *testing.T) {
	rows := []EnrichedObservation{
		{Observation: Observation{Date: d(2024, 3, 14), Players: 1000}, IsSaleDay: true},
		{Observation: Observation{Date: d(2024, 3, 15), Players: 1200}, IsWeekend: true, IsSaleDay: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, rows))

	want := "date,players,is_weekend,is_sale_day\n" +
		"2024-03-14,1000,0,1\n" +
		"2024-03-15,1200,1,1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCleanedFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCleaned(&buf, []Observation{{Date: d(2012, 7, 1), Players: 3}}))
	assert.Equal(t, "date,players\n2012-07-01,3\n", buf.String())
}

func TestEnrichedRoundTrip(t *testing.T) {
	result, err := IngestReader(strings.NewReader(messyExport), IngestOptions{})
	require.NoError(t, err)
	rows := Enrich(result.Observations, testCalendar(t))

	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, rows))

	got, err := ReadEnriched(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadEnrichedAcceptsBooleanFlags(t *testing.T) {
	input := "date,players,is_weekend,is_sale_day\n2024-03-15,5,true,False\n"
	got, err := ReadEnriched(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsWeekend)
	assert.False(t, got[0].IsSaleDay)
}

func TestReadEnrichedRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"wrong header", "day,players,is_weekend,is_sale_day\n", 0},
		{"bad flag", "date,players,is_weekend,is_sale_day\n2024-03-15,5,yes,0\n", 2},
		{"bad date", "date,players,is_weekend,is_sale_day\n2024-03-15,5,0,0\n15/03/2024,5,0,0\n", 3},
		{"short row", "date,players,is_weekend,is_sale_day\n2024-03-15,5,0\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadEnriched(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInput)
			var pe *Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, EnrichedFilename("tf2"))

	require.NoError(t, writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	// A failed render leaves the previous artifact and no temp files behind.
	err = writeFileAtomic(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("render failed")
	})
	assert.ErrorIs(t, err, ErrOutputWrite)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestArtifactNames(t *testing.T) {
	assert.Equal(t, "cs2_dataset_unificado.csv", EnrichedFilename("cs2"))
	assert.Equal(t, "cs2_daily_players.csv", CleanedFilename("cs2"))
}
