package settings

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/leowmjw/go-temporal-playercount/pkg/hcl"
	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

// Settings holds process-level settings read from the environment. Command
// line flags override them.
type Settings struct {
	RawDir      string `envconfig:"PLAYERCOUNT_RAW_DIR" default:"data/raw"`
	OutDir      string `envconfig:"PLAYERCOUNT_OUT_DIR" default:"data/processed"`
	ConfigPath  string `envconfig:"PLAYERCOUNT_CONFIG"`
	Parallelism int    `envconfig:"PLAYERCOUNT_PARALLELISM" default:"4"`
	LogLevel    string `envconfig:"PLAYERCOUNT_LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"PLAYERCOUNT_HTTP_ADDR" default:":8080"`
	Temporal    TemporalSettings
}

// TemporalSettings locates the Temporal frontend and task queue.
type TemporalSettings struct {
	Addr      string `envconfig:"PLAYERCOUNT_TEMPORAL_ADDR" default:"localhost:7233"`
	Namespace string `envconfig:"PLAYERCOUNT_NAMESPACE" default:"default"`
	TaskQueue string `envconfig:"PLAYERCOUNT_TASK_QUEUE" default:"playercount-task-queue"`
}

// Load reads Settings from the environment.
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if s.Parallelism < 0 {
		return nil, fmt.Errorf("PLAYERCOUNT_PARALLELISM must not be negative, got %d", s.Parallelism)
	}
	return &s, nil
}

// LoadData loads the dataset configuration and builds its sale calendar.
func (s *Settings) LoadData() (*playercount.Config, *playercount.SaleCalendar, error) {
	cfg, err := hcl.LoadConfig(s.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid sale calendar: %w", err)
	}
	return cfg, cal, nil
}

// NewLogger builds a text logger at the named level (debug, info, warn,
// error). Unknown names log at info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
