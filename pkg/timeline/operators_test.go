package timeline

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name     string
		input    []Interval
		expected IntervalSet
	}{
		{
			name:     "empty input",
			input:    nil,
			expected: IntervalSet{},
		},
		{
			name: "disjoint intervals are sorted",
			input: []Interval{
				{Start: d(2024, 6, 27), End: d(2024, 7, 11)},
				{Start: d(2024, 3, 14), End: d(2024, 3, 21)},
			},
			expected: IntervalSet{
				{Start: d(2024, 3, 14), End: d(2024, 3, 21)},
				{Start: d(2024, 6, 27), End: d(2024, 7, 11)},
			},
		},
		{
			name: "overlapping intervals merge",
			input: []Interval{
				{Start: d(2024, 1, 1), End: d(2024, 1, 10)},
				{Start: d(2024, 1, 5), End: d(2024, 1, 20)},
			},
			expected: IntervalSet{
				{Start: d(2024, 1, 1), End: d(2024, 1, 20)},
			},
		},
		{
			name: "adjacent days merge",
			input: []Interval{
				{Start: d(2024, 1, 1), End: d(2024, 1, 10)},
				{Start: d(2024, 1, 11), End: d(2024, 1, 12)},
			},
			expected: IntervalSet{
				{Start: d(2024, 1, 1), End: d(2024, 1, 12)},
			},
		},
		{
			name: "contained interval is absorbed",
			input: []Interval{
				{Start: d(2024, 1, 1), End: d(2024, 1, 31)},
				{Start: d(2024, 1, 5), End: d(2024, 1, 6)},
			},
			expected: IntervalSet{
				{Start: d(2024, 1, 1), End: d(2024, 1, 31)},
			},
		},
		{
			name: "inverted interval is dropped",
			input: []Interval{
				{Start: d(2024, 2, 1), End: d(2024, 1, 1)},
			},
			expected: IntervalSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Union(tt.input...)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d intervals, got %d: %v", len(tt.expected), len(result), result)
			}
			for i := range result {
				if !result[i].Start.Equal(tt.expected[i].Start) || !result[i].End.Equal(tt.expected[i].End) {
					t.Errorf("interval %d: expected %v..%v, got %v..%v", i,
						tt.expected[i].Start, tt.expected[i].End, result[i].Start, result[i].End)
				}
			}
		})
	}
}

func TestUnionKeepsLabels(t *testing.T) {
	set := Union(
		NewInterval(d(2023, 12, 21), d(2024, 1, 4), "winter_2023"),
		NewInterval(d(2024, 1, 3), d(2024, 1, 8), "new_year_2024"),
	)
	if len(set) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(set))
	}
	if len(set[0].Labels) != 2 || set[0].Labels[0] != "winter_2023" || set[0].Labels[1] != "new_year_2024" {
		t.Errorf("unexpected labels %v", set[0].Labels)
	}
}

func TestUnionDoesNotMutateInput(t *testing.T) {
	input := []Interval{
		NewInterval(d(2024, 6, 27), d(2024, 7, 11), "b"),
		NewInterval(d(2024, 3, 14), d(2024, 3, 21), "a"),
	}
	Union(input...)
	if input[0].Labels[0] != "b" || !input[0].Start.Equal(d(2024, 6, 27)) {
		t.Errorf("input was modified: %v", input)
	}
}

func TestIntervalSetContains(t *testing.T) {
	set := Union(
		NewInterval(d(2024, 3, 14), d(2024, 3, 21)),
		NewInterval(d(2023, 12, 21), d(2024, 1, 4)),
		NewInterval(d(2024, 6, 27), d(2024, 7, 11)),
	)

	tests := []struct {
		date     time.Time
		expected bool
	}{
		{d(2024, 3, 14), true},
		{d(2024, 3, 21), true},
		{d(2024, 3, 22), false},
		{d(2024, 3, 13), false},
		{d(2023, 12, 31), true},
		{d(2024, 1, 4), true},
		{d(2024, 1, 5), false},
		{d(2010, 1, 1), false},
		{d(2030, 1, 1), false},
		{time.Date(2024, 7, 11, 23, 59, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		if got := set.Contains(tt.date); got != tt.expected {
			t.Errorf("Contains(%s) = %v, expected %v", FormatDate(tt.date), got, tt.expected)
		}
	}
}

func TestIntervalSetEmpty(t *testing.T) {
	var set IntervalSet
	if set.Contains(d(2024, 1, 1)) {
		t.Error("empty set should contain nothing")
	}
	if _, _, ok := set.Span(); ok {
		t.Error("empty set should have no span")
	}
}

func TestIntervalSetDays(t *testing.T) {
	set := Union(
		NewInterval(d(2024, 2, 27), d(2024, 3, 1)),
		NewInterval(d(2024, 3, 1), d(2024, 3, 2)),
	)
	// 2024 is a leap year: Feb 27, 28, 29, Mar 1, 2.
	if got := set.Days(); got != 5 {
		t.Errorf("expected 5 days, got %d", got)
	}
	first, last, ok := set.Span()
	if !ok || !first.Equal(d(2024, 2, 27)) || !last.Equal(d(2024, 3, 2)) {
		t.Errorf("unexpected span %v..%v", first, last)
	}
}
