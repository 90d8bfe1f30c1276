package persistence

import (
	"context"
	"time"
)

// ClassroomRepository exposes catalog operations for classrooms.
type ClassroomRepository interface {
	CreateClassroom(ctx context.Context, classroom Classroom) error
	UpdateClassroom(ctx context.Context, classroom Classroom) error
	GetClassroom(ctx context.Context, id string) (Classroom, error)
	ListClassrooms(ctx context.Context) ([]Classroom, error)
	// DeleteClassroom removes the classroom and every booking referencing it.
	DeleteClassroom(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries to those overlapping [From, To).
// Nil bounds are open.
type BookingFilter struct {
	ClassroomID string
	From        *time.Time
	To          *time.Time
}

// Matches reports whether b satisfies the filter.
func (f BookingFilter) Matches(b Booking) bool {
	if f.ClassroomID != "" && b.ClassroomID != f.ClassroomID {
		return false
	}
	if f.From != nil && !b.End.After(*f.From) {
		return false
	}
	if f.To != nil && !b.Start.Before(*f.To) {
		return false
	}
	return true
}

// BookingRepository stores booking instances. Series are not stored as
// separate records; they are the set of bookings sharing a series id.
type BookingRepository interface {
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	// CreateBookings inserts every booking or none of them.
	CreateBookings(ctx context.Context, bookings []Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	DeleteBooking(ctx context.Context, id string) error
	// DeleteBookingSeries removes every booking carrying seriesID and
	// returns how many were removed. Missing series remove nothing.
	DeleteBookingSeries(ctx context.Context, seriesID string) (int, error)
}
