package application

import (
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

func (p Principal) actor() scheduler.Actor {
	return scheduler.Actor{UserID: p.UserID, IsAdmin: p.IsAdmin}
}

// BookingInput captures caller provided booking fields.
type BookingInput struct {
	ClassroomID string
	Title       string
	Organizer   string
	Description string
	Start       time.Time
	End         time.Time
	// Kind requests a series when recurring; RecurrenceUntil is then required
	// on create and optional on series edits.
	Kind            booking.Kind
	RecurrenceUntil *time.Time
}

// CreateBookingParams wraps the data required to create a booking or series.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// EditBookingParams wraps the data required to edit a booking. Scope selects
// between the addressed instance and its whole series.
type EditBookingParams struct {
	Principal Principal
	BookingID string
	Scope     scheduler.Scope
	Input     BookingInput
}

// MoveBookingParams moves a booking to a new start, keeping its duration.
type MoveBookingParams struct {
	Principal Principal
	BookingID string
	Start     time.Time
}

// ResizeBookingParams changes a booking's end time.
type ResizeBookingParams struct {
	Principal Principal
	BookingID string
	End       time.Time
}

// DeleteBookingParams removes a booking or its whole series.
type DeleteBookingParams struct {
	Principal Principal
	BookingID string
	Scope     scheduler.Scope
}

// MutationResult summarises the bookings a successful operation changed.
type MutationResult struct {
	Created []booking.Booking
	Updated []booking.Booking
	Removed []booking.Booking
	// Truncated reports that a generated series stopped at the span cap before
	// the requested end date.
	Truncated bool
}

// ListPeriod identifies the range preset requested for booking listings.
type ListPeriod string

const (
	// ListPeriodNone indicates no preset; caller supplied explicit bounds.
	ListPeriodNone ListPeriod = ""
	// ListPeriodDay constrains results to a single day.
	ListPeriodDay ListPeriod = "day"
	// ListPeriodWeek constrains results to the Monday-start week containing the reference time.
	ListPeriodWeek ListPeriod = "week"
)

// ListBookingsParams wraps the data required to list bookings.
type ListBookingsParams struct {
	Principal       Principal
	ClassroomID     string
	From            *time.Time
	To              *time.Time
	Period          ListPeriod
	PeriodReference time.Time
}

// DoubleBookingWarning flags two stored bookings overlapping in one classroom.
type DoubleBookingWarning struct {
	ClassroomID string
	BookingIDs  [2]string
	Start       time.Time
	End         time.Time
}

// ClassroomInput captures caller provided classroom fields.
type ClassroomInput struct {
	Name     string
	Location string
	Capacity int
}

// CreateClassroomParams wraps the data required to add a classroom.
type CreateClassroomParams struct {
	Principal Principal
	Input     ClassroomInput
}

// UpdateClassroomParams wraps the data required to update a classroom.
type UpdateClassroomParams struct {
	Principal   Principal
	ClassroomID string
	Input       ClassroomInput
}
