package hcl

import (
	"fmt"
	"hash/fnv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/leowmjw/go-temporal-playercount/pkg/playercount"
	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

// HCLConfig is the on-disk shape of a playercount configuration. Every
// top-level section is optional; missing ones fall back to the defaults.
type HCLConfig struct {
	CalendarVersion *string         `hcl:"calendar_version,optional"`
	WeekendDays     []string        `hcl:"weekend_days,optional"`
	StrictCounts    *bool           `hcl:"strict_counts,optional"`
	Columns         *HCLColumns     `hcl:"columns,block"`
	Datasets        []HCLDataset    `hcl:"dataset,block"`
	SaleWindows     []HCLSaleWindow `hcl:"sale_window,block"`
}

// HCLColumns maps the source column names
type HCLColumns struct {
	Timestamp string `hcl:"timestamp"`
	Players   string `hcl:"players"`
}

// HCLDataset declares one raw export, labelled by its output slug
type HCLDataset struct {
	Slug        string      `hcl:"slug,label"`
	RawFile     string      `hcl:"raw_file"`
	Title       *string     `hcl:"title,optional"`
	AppID       *int        `hcl:"app_id,optional"`
	WeekendDays []string    `hcl:"weekend_days,optional"`
	Columns     *HCLColumns `hcl:"columns,block"`
}

// HCLSaleWindow is one named sale period
type HCLSaleWindow struct {
	Name  string `hcl:"name,label"`
	Start string `hcl:"start"`
	End   string `hcl:"end"`
}

// dateFunc validates a YYYY-MM-DD literal at decode time, so a typo in the
// calendar points at the offending expression.
var dateFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{
			Name: "date",
			Type: cty.String,
		},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		t, err := timeline.ParseDate(args[0].AsString())
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(timeline.FormatDate(t)), nil
	},
})

func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"date": dateFunc,
		},
	}
}

// ParseHCLConfig parses one configuration document and layers it over
// DefaultConfig. The result is validated.
func ParseHCLConfig(content []byte, filename string) (*playercount.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return configFromBody(file.Body, DefaultConfig())
}

// ParseHCLDatasets decodes only the dataset blocks of a document, as used to
// submit an ad-hoc batch. Other sections are ignored.
func ParseHCLDatasets(content []byte, filename string) ([]playercount.DatasetConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	var hclConfig HCLConfig
	diags = gohcl.DecodeBody(file.Body, newEvalContext(), &hclConfig)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}
	if len(hclConfig.Datasets) == 0 {
		return nil, fmt.Errorf("%s: no dataset blocks", filename)
	}

	datasets := make([]playercount.DatasetConfig, 0, len(hclConfig.Datasets))
	for _, d := range hclConfig.Datasets {
		ds, err := convertDataset(d)
		if err != nil {
			return nil, err
		}
		if err := playercount.ValidateDataset(ds); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", d.Slug, err)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

func configFromBody(body hcl.Body, base *playercount.Config) (*playercount.Config, error) {
	var hclConfig HCLConfig
	diags := gohcl.DecodeBody(body, newEvalContext(), &hclConfig)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}

	cfg, err := convertHCLConfig(&hclConfig, base)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// convertHCLConfig overlays the decoded sections on base. A nil base means
// no fallback.
func convertHCLConfig(h *HCLConfig, base *playercount.Config) (*playercount.Config, error) {
	cfg := &playercount.Config{
		Columns: playercount.DefaultColumns,
		Weekend: playercount.DefaultWeekend,
	}
	if base != nil {
		*cfg = *base
	}

	if h.CalendarVersion != nil {
		cfg.CalendarVersion = *h.CalendarVersion
	}
	if h.StrictCounts != nil {
		cfg.StrictCounts = *h.StrictCounts
	}
	if h.Columns != nil {
		cfg.Columns = convertColumns(h.Columns)
	}
	if len(h.WeekendDays) > 0 {
		weekend, err := playercount.ParseWeekendDays(h.WeekendDays)
		if err != nil {
			return nil, fmt.Errorf("weekend_days: %w", err)
		}
		cfg.Weekend = weekend
	}

	if len(h.Datasets) > 0 {
		cfg.Datasets = make([]playercount.DatasetConfig, 0, len(h.Datasets))
		for _, d := range h.Datasets {
			ds, err := convertDataset(d)
			if err != nil {
				return nil, err
			}
			cfg.Datasets = append(cfg.Datasets, ds)
		}
	}

	if len(h.SaleWindows) > 0 {
		cfg.SaleWindows = make([]playercount.SaleWindow, 0, len(h.SaleWindows))
		for _, w := range h.SaleWindows {
			window, err := convertSaleWindow(w)
			if err != nil {
				return nil, err
			}
			cfg.SaleWindows = append(cfg.SaleWindows, window)
		}
		// Replaced windows must not keep reporting the version they replaced.
		if h.CalendarVersion == nil {
			cfg.CalendarVersion = deriveCalendarVersion(cfg.SaleWindows)
		}
	}

	return cfg, nil
}

// deriveCalendarVersion names an unversioned calendar after its content, so
// equal windows always report the same version.
func deriveCalendarVersion(windows []playercount.SaleWindow) string {
	h := fnv.New32a()
	for _, w := range windows {
		fmt.Fprintf(h, "%s:%s:%s;", w.Name, timeline.FormatDate(w.Start), timeline.FormatDate(w.End))
	}
	return fmt.Sprintf("custom-%08x", h.Sum32())
}

func convertColumns(c *HCLColumns) playercount.ColumnMapping {
	return playercount.ColumnMapping{Timestamp: c.Timestamp, Players: c.Players}
}

func convertDataset(d HCLDataset) (playercount.DatasetConfig, error) {
	ds := playercount.DatasetConfig{
		RawFilename: d.RawFile,
		OutputSlug:  d.Slug,
	}
	if d.Title != nil {
		ds.Title = *d.Title
	}
	if d.AppID != nil {
		ds.AppID = *d.AppID
	}
	if d.Columns != nil {
		cols := convertColumns(d.Columns)
		ds.Columns = &cols
	}
	if len(d.WeekendDays) > 0 {
		weekend, err := playercount.ParseWeekendDays(d.WeekendDays)
		if err != nil {
			return playercount.DatasetConfig{}, fmt.Errorf("dataset %q weekend_days: %w", d.Slug, err)
		}
		ds.Weekend = &weekend
	}
	return ds, nil
}

func convertSaleWindow(w HCLSaleWindow) (playercount.SaleWindow, error) {
	start, err := timeline.ParseDate(w.Start)
	if err != nil {
		return playercount.SaleWindow{}, fmt.Errorf("sale_window %q start: %w", w.Name, err)
	}
	end, err := timeline.ParseDate(w.End)
	if err != nil {
		return playercount.SaleWindow{}, fmt.Errorf("sale_window %q end: %w", w.Name, err)
	}
	if end.Before(start) {
		return playercount.SaleWindow{}, fmt.Errorf("sale_window %q: end %s precedes start %s", w.Name, w.End, w.Start)
	}
	return playercount.SaleWindow{Name: w.Name, Start: start, End: end}, nil
}

// IsHCL attempts to detect if the given content is in HCL format
func IsHCL(content []byte) bool {
	_, diags := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return !diags.HasErrors()
}
