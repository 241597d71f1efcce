// Package periods turns calendar dates into sortable period keys and display labels.
// All calendar arithmetic is done in UTC.
package periods

import (
	"fmt"
	"strconv"
	"time"

	"warranty-analytics/pkg/models"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Key returns the period key of t: YYYY-MM-DD, YYYY-Www (ISO week), YYYY-MM or YYYY.
// Keys of one granularity sort lexicographically in chronological order.
func Key(t time.Time, g models.Granularity) string {
	t = t.UTC()
	switch g {
	case models.Daily:
		return t.Format(dayLayout)
	case models.Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case models.Yearly:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format(monthLayout)
	}
}

// Label renders a period key for display. Unparseable keys are returned unchanged.
func Label(key string, g models.Granularity) string {
	switch g {
	case models.Daily:
		t, err := time.Parse(dayLayout, key)
		if err != nil {
			return key
		}
		return t.Format("Jan 2, 2006")
	case models.Weekly:
		year, week, err := parseWeekKey(key)
		if err != nil {
			return key
		}
		return fmt.Sprintf("W%d %d", week, year)
	case models.Yearly:
		return key
	default:
		t, err := time.Parse(monthLayout, key)
		if err != nil {
			return key
		}
		return t.Format("Jan 2006")
	}
}

// WeekStart returns the Monday (UTC) of the ISO week named by a YYYY-Www key.
func WeekStart(key string) (time.Time, error) {
	year, week, err := parseWeekKey(key)
	if err != nil {
		return time.Time{}, err
	}
	// Jan 4 is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

func parseWeekKey(key string) (int, int, error) {
	if len(key) != 8 || key[4:6] != "-W" {
		return 0, 0, fmt.Errorf("week key %q: expected YYYY-Www", key)
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return 0, 0, fmt.Errorf("week key %q: %w", key, err)
	}
	week, err := strconv.Atoi(key[6:])
	if err != nil {
		return 0, 0, fmt.Errorf("week key %q: %w", key, err)
	}
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("week key %q: week out of range", key)
	}
	return year, week, nil
}
