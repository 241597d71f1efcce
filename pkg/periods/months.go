package periods

import (
	"fmt"
	"time"
)

// ParseMonth("YYYY-MM") -> first day of the month, UTC
func ParseMonth(yyyymm string) (time.Time, error) {
	if len(yyyymm) != 7 || yyyymm[4] != '-' {
		return time.Time{}, fmt.Errorf("expected YYYY-MM (e.g. 2025-01), got %q", yyyymm)
	}
	t, err := time.Parse(monthLayout, yyyymm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q", yyyymm)
	}
	return t, nil
}

// FormatMonth returns the YYYY-MM key of t.
func FormatMonth(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// MonthStart truncates t to the first instant of its UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths shifts a month start by n calendar months.
func AddMonths(month time.Time, n int) time.Time {
	return MonthStart(month).AddDate(0, n, 0)
}

// MonthsBetweenInclusive lists every month start from start to end, both included.
func MonthsBetweenInclusive(start, end time.Time) []time.Time {
	cur := MonthStart(start)
	last := MonthStart(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// CalendarMonthsBetween counts calendar month boundaries from -> to, ignoring the day of month.
func CalendarMonthsBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// LastCompleteMonth is the most recent calendar month that has fully elapsed at now.
func LastCompleteMonth(now time.Time) time.Time {
	return AddMonths(now, -1)
}

// DefaultCohortRange returns the n most recent complete months as (start, end) keys.
func DefaultCohortRange(now time.Time, n int) (string, string) {
	if n < 1 {
		n = 1
	}
	end := LastCompleteMonth(now)
	start := AddMonths(end, -(n - 1))
	return FormatMonth(start), FormatMonth(end)
}
