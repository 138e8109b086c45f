package domain

import (
	"fmt"
	"time"
)

// Date is a civil date counted in whole days since the Unix epoch (UTC).
// Daily observations never carry a time-of-day component, so integer day
// arithmetic keeps gap and window computations exact and branch-free.
type Date int32

const dateLayout = "2006-01-02"

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustDate parses an ISO date string and panics on failure.
// Intended for fixtures and tests.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime converts a time.Time to its UTC civil date.
func FromTime(t time.Time) Date {
	t = t.UTC()
	days := t.Unix() / 86400
	if t.Unix() < 0 && t.Unix()%86400 != 0 {
		days--
	}
	return Date(days)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// String returns the ISO YYYY-MM-DD form.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// DayOfYear returns the 1-based ordinal day within the calendar year.
func (d Date) DayOfYear() int {
	return d.Time().YearDay()
}
