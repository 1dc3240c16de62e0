package hcl

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeHCLFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.hcl": {Data: []byte(`
			dataset "tf2" {
				raw_file = "steamdb_chart_440.csv"
			}`)},
		"b.hcl": {Data: []byte(`
			strict_counts = true
			dataset "cs2" {
				raw_file = "steamdb_chart_730 (2).csv"
			}`)},
	}

	body, err := MergeHCLFiles(fsys, []string{"a.hcl", "b.hcl"})
	require.NoError(t, err)

	cfg, err := configFromBody(body, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, cfg.StrictCounts)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "tf2", cfg.Datasets[0].OutputSlug)
	assert.Equal(t, "cs2", cfg.Datasets[1].OutputSlug)

	_, err = MergeHCLFiles(fsys, []string{"missing.hcl"})
	assert.ErrorContains(t, err, "failed to read file")
}

func TestMergeHCLFilesDuplicateAttribute(t *testing.T) {
	fsys := fstest.MapFS{
		"a.hcl": {Data: []byte(`strict_counts = true`)},
		"b.hcl": {Data: []byte(`strict_counts = false`)},
	}
	body, err := MergeHCLFiles(fsys, []string{"a.hcl", "b.hcl"})
	require.NoError(t, err)

	_, err = configFromBody(body, nil)
	assert.ErrorContains(t, err, "failed to decode HCL body")
}

func TestParseHCLDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "calendars"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datasets.hcl"), []byte(`
		dataset "tf2" {
			raw_file = "steamdb_chart_440.csv"
		}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "calendars", "2025.hcl"), []byte(`
		calendar_version = "2025"
		sale_window "spring_2025" {
			start = date("2025-03-13")
			end   = date("2025-03-20")
		}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not config"), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "2025", cfg.CalendarVersion)
	assert.Len(t, cfg.Datasets, 1)
	require.Len(t, cfg.SaleWindows, 1)
	assert.Equal(t, "spring_2025", cfg.SaleWindows[0].Name)

	_, err = ParseHCLDirectory(t.TempDir())
	assert.ErrorContains(t, err, "no HCL files found")
}
