package hcl

import (
	"embed"
	"fmt"
	"sync"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
)

//go:embed defaults/*.hcl
var defaultFiles embed.FS

var (
	defaultsOnce   sync.Once
	defaultsConfig *playercount.Config
)

// DefaultConfig returns the built-in datasets and sale calendar. Each call
// returns a fresh copy that the caller may modify.
func DefaultConfig() *playercount.Config {
	defaultsOnce.Do(func() {
		cfg, err := loadDefaults()
		if err != nil {
			// The embedded files are covered by tests; failing here is a
			// build defect.
			panic(fmt.Sprintf("invalid embedded defaults: %v", err))
		}
		defaultsConfig = cfg
	})
	return cloneConfig(defaultsConfig)
}

func loadDefaults() (*playercount.Config, error) {
	files, err := findHCLFiles(defaultFiles, "defaults")
	if err != nil {
		return nil, err
	}
	body, err := MergeHCLFiles(defaultFiles, files)
	if err != nil {
		return nil, err
	}
	return configFromBody(body, nil)
}

func cloneConfig(c *playercount.Config) *playercount.Config {
	out := *c
	out.Datasets = append([]playercount.DatasetConfig(nil), c.Datasets...)
	out.SaleWindows = append([]playercount.SaleWindow(nil), c.SaleWindows...)
	return &out
}
