package playercount

import (
	"fmt"
	"time"

	"github.com/leowmjw/go-temporal-playercount/pkg/timeline"
)

// SaleCalendar answers whether a date falls inside any historical sale
// window. It is immutable after construction and safe for concurrent use.
type SaleCalendar struct {
	version string
	windows []SaleWindow
	byName  map[string]SaleWindow
	set     timeline.IntervalSet
}

// NewSaleCalendar validates the windows and precomputes their union. Every
// window needs a unique name; overlapping and touching windows are allowed.
func NewSaleCalendar(version string, windows []SaleWindow) (*SaleCalendar, error) {
	intervals := make([]timeline.Interval, 0, len(windows))
	byName := make(map[string]SaleWindow, len(windows))

	for i, w := range windows {
		if w.Start.IsZero() || w.End.IsZero() {
			return nil, fmt.Errorf("sale window %d (%q): start and end are required", i, w.Name)
		}
		if timeline.Day(w.End).Before(timeline.Day(w.Start)) {
			return nil, fmt.Errorf("sale window %d (%q): end %s precedes start %s",
				i, w.Name, timeline.FormatDate(w.End), timeline.FormatDate(w.Start))
		}
		if w.Name == "" {
			return nil, fmt.Errorf("sale window %d: name is required", i)
		}
		if _, dup := byName[w.Name]; dup {
			return nil, fmt.Errorf("sale window %q declared twice", w.Name)
		}
		byName[w.Name] = w
		intervals = append(intervals, timeline.NewInterval(w.Start, w.End, w.Name))
	}

	copied := make([]SaleWindow, len(windows))
	copy(copied, windows)

	return &SaleCalendar{
		version: version,
		windows: copied,
		byName:  byName,
		set:     timeline.Union(intervals...),
	}, nil
}

// IsSaleDay reports whether t's calendar date is inside any window,
// including both endpoints.
func (c *SaleCalendar) IsSaleDay(t time.Time) bool {
	return c.set.Contains(t)
}

// Lookup returns the names of the windows whose union covers t.
func (c *SaleCalendar) Lookup(t time.Time) ([]string, bool) {
	in, ok := c.set.Lookup(t)
	if !ok {
		return nil, false
	}
	var names []string
	for _, name := range in.Labels {
		w, ok := c.byName[name]
		if ok && timeline.NewInterval(w.Start, w.End).Contains(t) {
			names = append(names, name)
		}
	}
	return names, true
}

// Version identifies the calendar data the instance was built from.
func (c *SaleCalendar) Version() string {
	return c.version
}

// Windows returns a copy of the configured windows in declaration order.
func (c *SaleCalendar) Windows() []SaleWindow {
	out := make([]SaleWindow, len(c.windows))
	copy(out, c.windows)
	return out
}

// CoveredDays is the number of distinct days inside the union.
func (c *SaleCalendar) CoveredDays() int {
	return c.set.Days()
}
