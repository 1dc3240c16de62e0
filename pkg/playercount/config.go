package playercount

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config is the static data configuration for a run: which datasets exist,
// how their columns are named and which days count as weekend or sale days.
type Config struct {
	CalendarVersion string          `json:"calendar_version"`
	Columns         ColumnMapping   `json:"columns"`
	Weekend         WeekendPolicy   `json:"weekend" validate:"required"`
	StrictCounts    bool            `json:"strict_counts"`
	Datasets        []DatasetConfig `json:"datasets" validate:"required,min=1,dive"`
	SaleWindows     []SaleWindow    `json:"sale_windows"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("localpath", func(fl validator.FieldLevel) bool {
		return isLocalPath(fl.Field().String())
	})
	return v
}

// isLocalPath reports whether name stays inside the directory it is joined
// to: not absolute, no volume, no ".." escaping it.
func isLocalPath(name string) bool {
	return filepath.IsLocal(filepath.FromSlash(name))
}

// Validate checks field constraints and cross-dataset uniqueness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	slugs := make(map[string]struct{}, len(c.Datasets))
	for _, ds := range c.Datasets {
		if _, dup := slugs[ds.OutputSlug]; dup {
			return fmt.Errorf("dataset slug %q declared twice", ds.OutputSlug)
		}
		slugs[ds.OutputSlug] = struct{}{}
	}
	return nil
}

// ValidateDataset checks a single dataset entry.
func ValidateDataset(ds DatasetConfig) error {
	if err := validate.Struct(ds); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fe.Namespace(), validationMessage(fe)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "slug":
		return "must be lowercase letters, digits, '_' or '-'"
	case "localpath":
		return "must be a relative path inside the raw directory"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// Dataset returns the dataset with the given slug.
func (c *Config) Dataset(slug string) (DatasetConfig, bool) {
	for _, ds := range c.Datasets {
		if ds.OutputSlug == slug {
			return ds, true
		}
	}
	return DatasetConfig{}, false
}

// ColumnsFor resolves the column mapping for ds.
func (c *Config) ColumnsFor(ds DatasetConfig) ColumnMapping {
	if ds.Columns != nil {
		return *ds.Columns
	}
	if c.Columns.Timestamp == "" || c.Columns.Players == "" {
		return DefaultColumns
	}
	return c.Columns
}

// WeekendFor resolves the weekend policy for ds.
func (c *Config) WeekendFor(ds DatasetConfig) WeekendPolicy {
	if ds.Weekend != nil && *ds.Weekend != 0 {
		return *ds.Weekend
	}
	if c.Weekend == 0 {
		return DefaultWeekend
	}
	return c.Weekend
}

// Calendar builds the sale calendar described by the configuration.
func (c *Config) Calendar() (*SaleCalendar, error) {
	return NewSaleCalendar(c.CalendarVersion, c.SaleWindows)
}
