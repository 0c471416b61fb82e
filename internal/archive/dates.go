package archive

import (
	"fmt"
	"strings"
	"time"
)

// Layouts observed across feeder firmware generations. Birth and detection
// dates are day-first in the raw export; the visit log writes ISO dates.
var (
	dayFirstLayouts = []string{
		"02.01.2006",
		"02/01/2006",
		"02-01-2006",
		"2006-01-02",
	}
	timestampLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"02.01.2006 15:04:05",
		"02/01/2006 15:04:05",
	}
)

// parseDayFirstDate parses a date preferring day-first layouts, falling back
// to ISO for re-exported archives.
func parseDayFirstDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}

// parseTimestamp parses a combined date+time value from the legacy schema.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format")
}

// combineDateTime joins separate date and time columns from the current
// schema. The feeder occasionally writes "24:00:00" for midnight; that
// normalizes to "00:00:00" without a day shift, matching the historical
// behavior of this tool.
func combineDateTime(rawDate, rawTime string) (time.Time, error) {
	rawTime = strings.TrimSpace(rawTime)
	if rawTime == "24:00:00" {
		rawTime = "00:00:00"
	}
	date, err := parseDayFirstDate(rawDate)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse("15:04:05", rawTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported time format %q", rawTime)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
}
