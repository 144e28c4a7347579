// Package caldate contains calendar-date helpers shared by the pipeline stages.
// A calendar date is a time.Time at midnight UTC; only year, month and day are
// meaningful.
package caldate

import (
	"fmt"
	"math"
	"time"
)

// Layout is the storage and wire format for calendar dates.
const Layout = "2006-01-02"

// Of returns the calendar date of t as observed in loc. A nil loc means UTC.
func Of(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the time-of-day and zone of t, keeping its own year, month
// and day.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns d shifted by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// DaysBetween returns the signed number of calendar days from from to to.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(Normalize(to).Sub(Normalize(from)).Hours() / 24))
}

// Parse reads a calendar date. It accepts YYYY-MM-DD and RFC3339 timestamps;
// for the latter the date is taken as written, in the timestamp's own offset.
func Parse(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return Normalize(t), nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Format renders a calendar date as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format(Layout)
}

// FormatPtr renders an optional calendar date; nil renders as "".
func FormatPtr(d *time.Time) string {
	if d == nil {
		return ""
	}
	return Format(*d)
}

// ParseOptional parses s, treating "" as an absent date.
func ParseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
