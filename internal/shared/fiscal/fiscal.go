package fiscal

import (
	"fmt"
	"time"
)

// Year is an Indian financial year identified by its starting calendar year.
// Year(2025) covers 1 April 2025 through 31 March 2026.
type Year int

// YearFor returns the financial year containing the given date. The clock is
// always passed in explicitly so callers stay testable.
func YearFor(today time.Time) Year {
	if today.Month() >= time.April {
		return Year(today.Year())
	}
	return Year(today.Year() - 1)
}

// Parse accepts either "2025" or "2025-26".
func Parse(s string) (Year, error) {
	var start, end int
	if n, err := fmt.Sscanf(s, "%d-%d", &start, &end); err == nil && n == 2 {
		if (start+1)%100 != end {
			return 0, fmt.Errorf("invalid financial year %q", s)
		}
		return Year(start), nil
	}
	if n, err := fmt.Sscanf(s, "%d", &start); err == nil && n == 1 && start >= 1900 {
		return Year(start), nil
	}
	return 0, fmt.Errorf("invalid financial year %q", s)
}

func (y Year) String() string {
	return fmt.Sprintf("%d-%02d", int(y), (int(y)+1)%100)
}

// Start returns 1 April of the starting calendar year, in UTC.
func (y Year) Start() time.Time {
	return time.Date(int(y), time.April, 1, 0, 0, 0, 0, time.UTC)
}

// End returns 31 March of the following calendar year, in UTC.
func (y Year) End() time.Time {
	return time.Date(int(y)+1, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the date falls inside the financial year.
func (y Year) Contains(t time.Time) bool {
	return YearFor(t) == y
}

// MonthIndex maps a calendar month to its 0-based position in the financial
// year: April is 0, March is 11.
func MonthIndex(m time.Month) int {
	if m >= time.April {
		return int(m) - int(time.April)
	}
	return int(m) + 12 - int(time.April)
}

// MonthAt is the inverse of MonthIndex.
func MonthAt(index int) time.Month {
	m := (index + int(time.April) - 1) % 12
	return time.Month(m + 1)
}

// MonthsElapsed returns how many whole financial-year months have fully
// elapsed before asOf. Dates before the year start yield 0, after the year
// end yield 12.
func (y Year) MonthsElapsed(asOf time.Time) int {
	if !asOf.After(y.Start()) {
		return 0
	}
	if asOf.After(y.End()) {
		return 12
	}
	return MonthIndex(asOf.Month())
}

// MonthsRemaining is 12 minus MonthsElapsed, inclusive of the month of asOf.
func (y Year) MonthsRemaining(asOf time.Time) int {
	return 12 - y.MonthsElapsed(asOf)
}
