package scheduler

import (
	"fmt"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

// Exclusion names bookings the overlap check must ignore.
type Exclusion struct {
	BookingID string
	SeriesID  string
}

func (x Exclusion) excludes(b booking.Booking) bool {
	if x.BookingID != "" && b.ID == x.BookingID {
		return true
	}
	return x.SeriesID != "" && b.SeriesID == x.SeriesID
}

// IntervalsOverlap reports whether [s1,e1) and [s2,e2) intersect. Touching
// boundaries do not overlap.
func IntervalsOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

// FindConflict returns the first booking in existing that occupies
// classroomID during [start,end), ignoring excluded bookings.
//
// The candidate interval is assumed valid (start before end).
func FindConflict(start, end time.Time, classroomID string, existing []booking.Booking, exclude Exclusion) (booking.Booking, bool) {
	for _, b := range existing {
		if b.ClassroomID != classroomID {
			continue
		}
		if exclude.excludes(b) {
			continue
		}
		if IntervalsOverlap(start, end, b.Start, b.End) {
			return b, true
		}
	}
	return booking.Booking{}, false
}

// Overlaps reports whether FindConflict would find a colliding booking.
func Overlaps(start, end time.Time, classroomID string, existing []booking.Booking, exclude Exclusion) bool {
	_, found := FindConflict(start, end, classroomID, existing, exclude)
	return found
}

// ConflictError reports a candidate interval that collides with an existing booking.
type ConflictError struct {
	Start time.Time
	End   time.Time
	// InstanceIndex is the position of the candidate within a generated
	// series; zero for single bookings.
	InstanceIndex int
	Existing      booking.Booking
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scheduler: %s to %s conflicts with %q (%s to %s)",
		e.Start.Format(time.DateTime), e.End.Format(time.DateTime),
		e.Existing.Title,
		e.Existing.Start.Format(time.DateTime), e.Existing.End.Format(time.DateTime),
	)
}

// DoubleBooking pairs two stored bookings that overlap in the same classroom.
type DoubleBooking struct {
	First  booking.Booking
	Second booking.Booking
}

// FindDoubleBookings scans a corpus for overlapping pairs. The engine rejects
// such writes locally, but concurrent clients working from stale snapshots can
// still produce them.
func FindDoubleBookings(corpus []booking.Booking) []DoubleBooking {
	if len(corpus) < 2 {
		return nil
	}
	ordered := booking.Clone(corpus)
	booking.SortByStart(ordered)

	var found []DoubleBooking
	for i, current := range ordered {
		for _, next := range ordered[i+1:] {
			if !next.Start.Before(current.End) {
				break
			}
			if next.ClassroomID == current.ClassroomID && IntervalsOverlap(current.Start, current.End, next.Start, next.End) {
				found = append(found, DoubleBooking{First: current, Second: next})
			}
		}
	}
	return found
}
