package timeline

import (
	"sort"
	"time"
)

// Union merges intervals into an IntervalSet. Overlapping intervals, and
// intervals whose ends fall on consecutive days, collapse into one member that
// carries the labels of everything it absorbed. Intervals whose End precedes
// their Start are ignored. The input slice is not modified.
func Union(intervals ...Interval) IntervalSet {
	sorted := make([]Interval, 0, len(intervals))
	for _, in := range intervals {
		in = NewInterval(in.Start, in.End, in.Labels...)
		if in.End.Before(in.Start) {
			continue
		}
		sorted = append(sorted, in)
	}
	if len(sorted) == 0 {
		return IntervalSet{}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var merged IntervalSet
	current := sorted[0]
	current.Labels = append([]string(nil), current.Labels...)

	for i := 1; i < len(sorted); i++ {
		next := sorted[i]

		if !next.Start.After(current.End.AddDate(0, 0, 1)) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			current.Labels = append(current.Labels, next.Labels...)
			continue
		}

		merged = append(merged, current)
		current = next
		current.Labels = append([]string(nil), current.Labels...)
	}

	merged = append(merged, current)
	return merged
}

// Contains reports whether the day of t is covered by any member of the set.
// It runs in O(log n).
func (s IntervalSet) Contains(t time.Time) bool {
	_, ok := s.Lookup(t)
	return ok
}

// Lookup returns the member covering the day of t.
func (s IntervalSet) Lookup(t time.Time) (Interval, bool) {
	d := Day(t)
	i := sort.Search(len(s), func(i int) bool {
		return !s[i].End.Before(d)
	})
	if i < len(s) && !s[i].Start.After(d) {
		return s[i], true
	}
	return Interval{}, false
}

// Days returns the number of distinct calendar days covered by the set.
func (s IntervalSet) Days() int {
	total := 0
	for _, in := range s {
		total += in.Days()
	}
	return total
}

// Span returns the first and last covered day. ok is false for an empty set.
func (s IntervalSet) Span() (first, last time.Time, ok bool) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s[0].Start, s[len(s)-1].End, true
}
