package timeline

import (
	"time"
)

// Interval is a closed range of calendar days. Both Start and End are part of
// the interval.
type Interval struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Labels []string  `json:"labels,omitempty"`
}

// IntervalSet is a union of intervals kept sorted by Start with no two
// members overlapping or touching. Build one with Union.
type IntervalSet []Interval

// NewInterval builds an interval from two dates, truncating both to the day.
func NewInterval(start, end time.Time, labels ...string) Interval {
	return Interval{Start: Day(start), End: Day(end), Labels: labels}
}

// Contains reports whether the day of t lies within the interval.
func (i Interval) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(i.Start) && !d.After(i.End)
}

// Days returns the number of calendar days covered, counting both ends.
func (i Interval) Days() int {
	if i.End.Before(i.Start) {
		return 0
	}
	return DaysBetween(i.Start, i.End) + 1
}
