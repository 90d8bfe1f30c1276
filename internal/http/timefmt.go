package http

import (
	"errors"
	"strings"
	"time"
)

// Booking times travel as naive wall-clock strings without an offset.
const (
	wallClockLayout = "2006-01-02T15:04:05"
	dateLayout      = "2006-01-02"
)

var (
	wallClockInputLayouts = []string{wallClockLayout, "2006-01-02T15:04"}
	errTimeFormat         = errors.New("must be a local date-time such as 2024-03-04T09:00")
	errDateFormat         = errors.New("must be a date such as 2024-03-04")
)

func parseWallClock(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range wallClockInputLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errTimeFormat
}

// parseDate accepts a bare date or a wall-clock timestamp.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, nil
	}
	if t, err := parseWallClock(value, loc); err == nil {
		return t, nil
	}
	return time.Time{}, errDateFormat
}

func formatWallClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(wallClockLayout)
}
