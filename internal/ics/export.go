// Package ics renders classroom bookings as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/classroom-scheduler/internal/booking"
)

const (
	productID = "-//classroom-scheduler//bookings//EN"
	// Booking times are naive wall-clock values, so they are written as
	// floating times without a TZID.
	floatingLayout = "20060102T150405"

	// PropertySeriesID carries the series a booking was generated from.
	PropertySeriesID ical.ComponentProperty = "X-SERIES-ID"
	// PropertyKind carries the booking kind.
	PropertyKind ical.ComponentProperty = "X-BOOKING-KIND"
)

// Export writes one VEVENT per booking of classroom to w. stamp is used as
// DTSTAMP for every event.
func Export(w io.Writer, classroom booking.Classroom, bookings []booking.Booking, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(classroom.Name)

	ordered := booking.Clone(bookings)
	booking.SortByStart(ordered)
	for _, b := range ordered {
		if b.ClassroomID != classroom.ID {
			continue
		}
		addEvent(cal, classroom, b, stamp)
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func addEvent(cal *ical.Calendar, classroom booking.Classroom, b booking.Booking, stamp time.Time) {
	event := cal.AddEvent(b.ID)
	event.SetDtStampTime(stamp)
	event.SetProperty(ical.ComponentPropertyDtStart, b.Start.Format(floatingLayout))
	event.SetProperty(ical.ComponentPropertyDtEnd, b.End.Format(floatingLayout))
	event.SetSummary(b.Title)
	if description := describe(b); description != "" {
		event.SetDescription(description)
	}
	if location := classroomLocation(classroom); location != "" {
		event.SetLocation(location)
	}
	if b.Color != "" {
		event.SetProperty(ical.ComponentPropertyColor, b.Color)
	}
	event.SetProperty(PropertyKind, string(b.Kind))
	if b.SeriesID != "" {
		event.SetProperty(PropertySeriesID, b.SeriesID)
	}
}

func describe(b booking.Booking) string {
	var parts []string
	if b.Organizer != "" {
		parts = append(parts, "Organizer: "+b.Organizer)
	}
	if b.Description != "" {
		parts = append(parts, b.Description)
	}
	return strings.Join(parts, "\n")
}

func classroomLocation(c booking.Classroom) string {
	switch {
	case c.Location == "":
		return c.Name
	case c.Name == "":
		return c.Location
	}
	return c.Name + ", " + c.Location
}
