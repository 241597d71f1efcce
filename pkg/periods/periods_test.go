package periods

import (
	"sort"
	"testing"
	"time"

	"warranty-analytics/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestKey(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		g    models.Granularity
		want string
	}{
		{"daily", date(2024, 3, 5), models.Daily, "2024-03-05"},
		{"monthly", date(2024, 3, 5), models.Monthly, "2024-03"},
		{"yearly", date(2024, 3, 5), models.Yearly, "2024"},
		{"weekly mid year", date(2024, 3, 5), models.Weekly, "2024-W10"},
		// Monday 2024-12-30 belongs to week 1 of 2025
		{"weekly year rollover forward", date(2024, 12, 30), models.Weekly, "2025-W01"},
		// Friday 2021-01-01 belongs to week 53 of 2020 (leap week)
		{"weekly leap week", date(2021, 1, 1), models.Weekly, "2020-W53"},
		{"weekly sunday", date(2024, 1, 7), models.Weekly, "2024-W01"},
		{"weekly monday", date(2024, 1, 8), models.Weekly, "2024-W02"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Key(tc.t, tc.g); got != tc.want {
				t.Fatalf("Key(%v, %s) = %q, want %q", tc.t, tc.g, got, tc.want)
			}
		})
	}
}

func TestKey_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2024-02-01 05:00 at UTC+10 is still January 31 in UTC
	local := time.Date(2024, 2, 1, 5, 0, 0, 0, loc)
	if got := Key(local, models.Monthly); got != "2024-01" {
		t.Fatalf("got %q, want 2024-01", got)
	}
}

func TestKey_SortsChronologically(t *testing.T) {
	start := date(2019, 12, 20)
	var keys []string
	for i := 0; i < 800; i += 3 {
		keys = append(keys, Key(start.AddDate(0, 0, i), models.Weekly))
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("weekly keys not sorted: %v", keys)
	}
}

func TestLabel(t *testing.T) {
	cases := []struct {
		key  string
		g    models.Granularity
		want string
	}{
		{"2024-03-05", models.Daily, "Mar 5, 2024"},
		{"2024-W10", models.Weekly, "W10 2024"},
		{"2020-W53", models.Weekly, "W53 2020"},
		{"2024-03", models.Monthly, "Mar 2024"},
		{"2024", models.Yearly, "2024"},
		{"garbage", models.Monthly, "garbage"},
	}
	for _, tc := range cases {
		if got := Label(tc.key, tc.g); got != tc.want {
			t.Fatalf("Label(%q, %s) = %q, want %q", tc.key, tc.g, got, tc.want)
		}
	}
}

func TestWeekStart(t *testing.T) {
	got, err := WeekStart("2025-W01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	// round trip through Key
	if k := Key(got, models.Weekly); k != "2025-W01" {
		t.Fatalf("Key(WeekStart) = %q", k)
	}
	if _, err := WeekStart("2025-W54"); err == nil {
		t.Fatal("expected error for week 54")
	}
}

func TestParseMonth_Valid(t *testing.T) {
	got, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseMonth_InvalidLength(t *testing.T) {
	_, err := ParseMonth("2025-3")
	if err == nil {
		t.Fatal("expected error for invalid length, got nil")
	}
}

func TestParseMonth_InvalidMonth(t *testing.T) {
	_, err := ParseMonth("2025-13") // 13th month
	if err == nil {
		t.Fatal("expected error for invalid month, got nil")
	}
}

func TestMonthsBetweenInclusive(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got := MonthsBetweenInclusive(start, end)
	if len(got) != 4 {
		t.Fatalf("got %d months, want 4", len(got))
	}
	// spot-check
	if got[0].Month() != time.March || got[3].Month() != time.June {
		t.Fatalf("unexpected months: %v", got)
	}
	if got := MonthsBetweenInclusive(end, start); len(got) != 0 {
		t.Fatalf("reversed range should be empty, got %v", got)
	}
}

func TestFormatMonth(t *testing.T) {
	d := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	if fm := FormatMonth(d); fm != "2025-11" {
		t.Fatalf("got %q, want %q", fm, "2025-11")
	}
}

func TestCalendarMonthsBetween(t *testing.T) {
	cases := []struct {
		from, to time.Time
		want     int
	}{
		{date(2024, 1, 31), date(2024, 2, 1), 1},
		{date(2024, 1, 1), date(2024, 1, 31), 0},
		{date(2024, 11, 15), date(2025, 2, 1), 3},
		{date(2024, 3, 1), date(2024, 2, 28), -1},
	}
	for _, tc := range cases {
		if got := CalendarMonthsBetween(tc.from, tc.to); got != tc.want {
			t.Fatalf("CalendarMonthsBetween(%v, %v) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestLastCompleteMonth(t *testing.T) {
	got := LastCompleteMonth(date(2025, 1, 31))
	if fm := FormatMonth(got); fm != "2024-12" {
		t.Fatalf("got %q, want 2024-12", fm)
	}
	// first instant of a month: previous month is the last complete one
	got = LastCompleteMonth(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if fm := FormatMonth(got); fm != "2025-02" {
		t.Fatalf("got %q, want 2025-02", fm)
	}
}

func TestDefaultCohortRange(t *testing.T) {
	start, end := DefaultCohortRange(date(2025, 3, 10), 12)
	if start != "2024-03" || end != "2025-02" {
		t.Fatalf("got %s..%s, want 2024-03..2025-02", start, end)
	}
}
