package settings

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/raw", s.RawDir)
	assert.Equal(t, "data/processed", s.OutDir)
	assert.Equal(t, 4, s.Parallelism)
	assert.Equal(t, "localhost:7233", s.Temporal.Addr)
	assert.Equal(t, "playercount-task-queue", s.Temporal.TaskQueue)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLAYERCOUNT_RAW_DIR", "/srv/raw")
	t.Setenv("PLAYERCOUNT_PARALLELISM", "8")
	t.Setenv("PLAYERCOUNT_TASK_QUEUE", "charts")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/raw", s.RawDir)
	assert.Equal(t, 8, s.Parallelism)
	assert.Equal(t, "charts", s.Temporal.TaskQueue)

	t.Setenv("PLAYERCOUNT_PARALLELISM", "lots")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PLAYERCOUNT_PARALLELISM", "-1")
	_, err = Load()
	assert.ErrorContains(t, err, "must not be negative")
}

func TestLoadData(t *testing.T) {
	s := &Settings{}
	cfg, cal, err := s.LoadData()
	require.NoError(t, err)
	assert.Len(t, cfg.Datasets, 5)
	assert.Equal(t, cfg.CalendarVersion, cal.Version())

	path := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`sale_window "x" {
		start = "2024-01-01"
		end   = "2024-01-02"
	}
	sale_window "x" {
		start = "2024-02-01"
		end   = "2024-02-02"
	}`), 0o644))
	s.ConfigPath = path
	_, _, err = s.LoadData()
	assert.ErrorContains(t, err, "invalid sale calendar")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = NewLogger(&buf, "bogus")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
