package playercount

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func writeRaw(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCalendar(t *testing.T) *SaleCalendar {
	t.Helper()
	cal, err := NewSaleCalendar("test", []SaleWindow{
		{Name: "winter_2023", Start: d(2023, 12, 21), End: d(2024, 1, 4)},
		{Name: "spring_2024", Start: d(2024, 3, 14), End: d(2024, 3, 21)},
		{Name: "summer_2024", Start: d(2024, 6, 27), End: d(2024, 7, 11)},
	})
	require.NoError(t, err)
	return cal
}

func testConfig(datasets ...DatasetConfig) *Config {
	return &Config{
		CalendarVersion: "test",
		Columns:         DefaultColumns,
		Weekend:         DefaultWeekend,
		Datasets:        datasets,
	}
}
