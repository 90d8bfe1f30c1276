package booking

import (
	"hash/fnv"
	"time"
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CombineDateTime returns the calendar date of dateSource with the clock time
// of clock, in clock's location.
func CombineDateTime(dateSource, clock time.Time) time.Time {
	loc := clock.Location()
	y, m, d := dateSource.In(loc).Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// StartOfWeek returns midnight of the Monday starting the week containing t.
func StartOfWeek(t time.Time) time.Time {
	start := StartOfDay(t)
	// Monday == 1, Sunday == 0.
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}

// Palette lists the colors assigned to new bookings and series.
var Palette = []string{
	"#4f86c6",
	"#e07a5f",
	"#81b29a",
	"#f2cc8f",
	"#9c89b8",
	"#3d405b",
	"#f4a261",
	"#2a9d8f",
}

// ColorFor picks a palette entry derived from key, so a series keeps a stable
// color no matter which instance is inspected.
func ColorFor(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return Palette[h.Sum32()%uint32(len(Palette))]
}
