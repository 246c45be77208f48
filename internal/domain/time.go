package domain

import (
	"fmt"
	"time"
)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the ISO datetime formats the upstream backend emits.
// Zone offsets are dropped so all scheduling math happens in local wall time,
// matching how the existing show data is stored.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparsable datetime %q", value)
}

// ParseDate parses a calendar date, accepting a full datetime and truncating.
func ParseDate(value string) (time.Time, error) {
	t, err := ParseTime(value)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
