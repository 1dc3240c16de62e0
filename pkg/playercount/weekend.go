package playercount

import (
	"fmt"
	"strings"
	"time"
)

// WeekendPolicy is the set of weekdays treated as the weekend, one bit per
// time.Weekday.
type WeekendPolicy uint8

// DefaultWeekend is Friday through Sunday: player activity peaks from Friday
// evening, so Friday counts as weekend.
const DefaultWeekend = WeekendPolicy(1<<time.Friday | 1<<time.Saturday | 1<<time.Sunday)

// NewWeekendPolicy builds a policy from explicit weekdays.
func NewWeekendPolicy(days ...time.Weekday) WeekendPolicy {
	var p WeekendPolicy
	for _, d := range days {
		p |= 1 << d
	}
	return p
}

// ParseWeekendDays builds a policy from weekday names ("friday", "Sat", ...).
func ParseWeekendDays(names []string) (WeekendPolicy, error) {
	var p WeekendPolicy
	for _, name := range names {
		day, err := parseWeekday(name)
		if err != nil {
			return 0, err
		}
		p |= 1 << day
	}
	return p, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) >= 3 && strings.HasPrefix(full, n)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// IsWeekend reports whether t's weekday belongs to the policy.
func (p WeekendPolicy) IsWeekend(t time.Time) bool {
	return p&(1<<t.Weekday()) != 0
}

// Days lists the policy's weekdays from Sunday to Saturday.
func (p WeekendPolicy) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if p&(1<<d) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func (p WeekendPolicy) String() string {
	days := p.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}
