package model

import (
	"fmt"
	"time"
)

// Date and time layouts. Users type DD.MM.YYYY and HH:MM; storage keys
// days in ISO form.
const (
	DateLayout    = "02.01.2006"
	ISODateLayout = "2006-01-02"
	ClockLayout   = "15:04"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// ParseDate parses a user-entered DD.MM.YYYY calendar day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a day in the user-facing DD.MM.YYYY form.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// FormatISODate renders a day in the storage form.
func FormatISODate(d time.Time) string {
	return d.Format(ISODateLayout)
}
