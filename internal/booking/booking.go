// Package booking holds the classroom booking data model shared by the
// conflict engine, the recurrence generator and the persistence adapters.
//
// All timestamps are naive wall-clock times: they carry whatever
// *time.Location the caller configured and are never converted between zones.
package booking

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind classifies whether a booking belongs to a generated series.
type Kind string

const (
	// KindOneTime is a standalone booking.
	KindOneTime Kind = "one_time"
	// KindRecurringWeekly repeats every seven days.
	KindRecurringWeekly Kind = "recurring_weekly"
	// KindRecurringWeekday repeats every day, skipping Saturdays and Sundays.
	KindRecurringWeekday Kind = "recurring_weekday"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindOneTime, KindRecurringWeekly, KindRecurringWeekday:
		return true
	}
	return false
}

// Recurring reports whether k describes a generated series.
func (k Kind) Recurring() bool {
	return k == KindRecurringWeekly || k == KindRecurringWeekday
}

// ParseKind converts a user supplied label into a Kind. An empty label maps
// to KindOneTime.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "one_time", "onetime", "once":
		return KindOneTime, nil
	case "recurring_weekly", "weekly":
		return KindRecurringWeekly, nil
	case "recurring_weekday", "weekday", "weekdays":
		return KindRecurringWeekday, nil
	}
	return "", fmt.Errorf("booking: unknown kind %q", value)
}

// Booking is one calendar reservation instance.
type Booking struct {
	ID          string
	ClassroomID string
	Title       string
	Organizer   string
	Description string
	Start       time.Time
	End         time.Time
	Kind        Kind
	SeriesID    string
	OwnerID     string
	Color       string
}

// Duration returns End - Start.
func (b Booking) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// InSeries reports whether the booking is a member of a generated series.
func (b Booking) InSeries() bool {
	return b.SeriesID != ""
}

// Template returns the shared metadata of b without its identity.
func (b Booking) Template() Template {
	return Template{
		ClassroomID: b.ClassroomID,
		Title:       b.Title,
		Organizer:   b.Organizer,
		Description: b.Description,
		Start:       b.Start,
		End:         b.End,
		Kind:        b.Kind,
		OwnerID:     b.OwnerID,
		Color:       b.Color,
	}
}

// Template seeds the recurrence generator: every field a series shares, plus
// the anchor interval. It never carries an ID or a series ID.
type Template struct {
	ClassroomID string
	Title       string
	Organizer   string
	Description string
	Start       time.Time
	End         time.Time
	Kind        Kind
	OwnerID     string
	Color       string
}

// Instance materialises the template at the given interval.
func (t Template) Instance(id, seriesID string, start, end time.Time) Booking {
	return Booking{
		ID:          id,
		ClassroomID: t.ClassroomID,
		Title:       t.Title,
		Organizer:   t.Organizer,
		Description: t.Description,
		Start:       start,
		End:         end,
		Kind:        t.Kind,
		SeriesID:    seriesID,
		OwnerID:     t.OwnerID,
		Color:       t.Color,
	}
}

// Classroom is a bookable resource.
type Classroom struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SortByStart orders bookings chronologically, breaking ties by ID.
func SortByStart(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
}

// SeriesMembers returns every booking in corpus carrying seriesID, ordered
// chronologically. The first element is the series anchor.
func SeriesMembers(corpus []Booking, seriesID string) []Booking {
	if seriesID == "" {
		return nil
	}
	members := make([]Booking, 0)
	for _, b := range corpus {
		if b.SeriesID == seriesID {
			members = append(members, b)
		}
	}
	SortByStart(members)
	return members
}

// Find returns the booking with the given id.
func Find(corpus []Booking, id string) (Booking, bool) {
	for _, b := range corpus {
		if b.ID == id {
			return b, true
		}
	}
	return Booking{}, false
}

// Clone copies a booking slice so callers can mutate the result freely.
func Clone(bookings []Booking) []Booking {
	if bookings == nil {
		return nil
	}
	out := make([]Booking, len(bookings))
	copy(out, bookings)
	return out
}
