package normalize

import (
	"strings"
	"time"
)

// Date formats accepted on the command line and in config files.
var dateFormats = []string{
	"2006-01-02",
	"20060102",
	"01/02/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

// ParseDate attempts to parse a date string in the accepted formats, as UTC.
// Returns nil if the input is empty or unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// NextWeekday returns the first day strictly after t that falls on wd, keeping
// t's time of day.
func NextWeekday(t time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(t.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return t.AddDate(0, 0, delta)
}

// WholeDays returns the number of complete 24-hour periods from start to stop,
// or 0 if stop is not after start.
func WholeDays(start, stop time.Time) int {
	if !stop.After(start) {
		return 0
	}
	return int(stop.Sub(start) / (24 * time.Hour))
}
