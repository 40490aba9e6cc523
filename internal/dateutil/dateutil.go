// Package dateutil provides calendar-date helpers operating on
// YYYY-MM-DD strings interpreted as local-midnight instants.
package dateutil

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// YMD formats t as YYYY-MM-DD using its local calendar fields.
func YMD(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Today returns the current date as YYYY-MM-DD in local time.
func Today() string {
	return YMD(time.Now())
}

// FromYMD parses a YYYY-MM-DD string into a local-midnight instant.
// Malformed input yields the zero time.
func FromYMD(s string) time.Time {
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TodayAt returns today at HH:MM local time.
func TodayAt(hour, minute int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.Local)
}

// AddDays returns the date n calendar days after s. AddDate rolls over
// month and year boundaries and is unaffected by DST transitions, which
// a fixed 24h increment would not be.
func AddDays(s string, n int) string {
	return YMD(FromYMD(s).AddDate(0, 0, n))
}

// CmpYMD compares two dates by their local-midnight instants and
// returns -1, 0 or +1.
func CmpYMD(a, b string) int {
	ta, tb := FromYMD(a), FromYMD(b)
	switch {
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}
