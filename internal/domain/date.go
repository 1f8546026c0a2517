package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and in history.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf drops the time-of-day, keeping the calendar date of t in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InclusiveDays returns the number of calendar days from start to end,
// counting both ends. The result is never below 1.
func InclusiveDays(start, end time.Time) int {
	days := int((DateOf(end).Unix()-DateOf(start).Unix())/secondsPerDay) + 1
	if days < 1 {
		return 1
	}
	return days
}
