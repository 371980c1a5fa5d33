package service

import (
	"strings"
	"time"
)

// dateLayouts are tried in order.  Inputs without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
}

// Years the store's DATETIME columns can hold.
const (
	minYear = 1000
	maxYear = 9999
)

// ParseDateTime parses the calendar date/time formats HTML date pickers and
// JSON clients send: ISO dates, ISO date-times with or without offset and
// RFC 1123 strings.  Instants outside years 1000-9999 (after conversion to
// UTC) are rejected.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t = t.UTC()
			if y := t.Year(); y < minYear || y > maxYear {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}
