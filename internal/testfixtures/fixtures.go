package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/persistence"
)

var (
	classroomCounter uint64
	bookingCounter   uint64
)

// referenceTime is a Monday morning so week presets start on the same day.
var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// At returns the reference day shifted by days, at hour:minute.
func At(days, hour, minute int) time.Time {
	day := referenceTime.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// --------------------------- Classroom fixtures ---------------------------

// ClassroomFixture is a deterministic classroom record.
type ClassroomFixture struct {
	ID        string
	Name      string
	Location  string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClassroomOption configures the generated classroom fixture.
type ClassroomOption func(*ClassroomFixture)

// NewClassroomFixture returns a classroom fixture with optional overrides.
func NewClassroomFixture(opts ...ClassroomOption) ClassroomFixture {
	idx := atomic.AddUint64(&classroomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ClassroomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Location:  fmt.Sprintf("Building A, floor %d", idx%5+1),
		Capacity:  30,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithClassroomID overrides the generated classroom ID.
func WithClassroomID(id string) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.ID = id
	}
}

// WithClassroomName overrides the generated name.
func WithClassroomName(name string) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.Name = name
	}
}

// WithClassroomLocation overrides the generated location.
func WithClassroomLocation(location string) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.Location = location
	}
}

// WithClassroomCapacity overrides the capacity.
func WithClassroomCapacity(capacity int) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.Capacity = capacity
	}
}

// Domain returns the fixture as a booking.Classroom.
func (f ClassroomFixture) Domain() booking.Classroom {
	return booking.Classroom{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Classroom.
func (f ClassroomFixture) Persistence() persistence.Classroom {
	return persistence.Classroom{
		ID:        f.ID,
		Name:      f.Name,
		Location:  f.Location,
		Capacity:  f.Capacity,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture is a deterministic booking record. By default it is a one
// hour one-time booking at 10:00 on the reference day.
type BookingFixture struct {
	ID          string
	ClassroomID string
	Title       string
	Organizer   string
	Description string
	Start       time.Time
	End         time.Time
	Kind        booking.Kind
	SeriesID    string
	OwnerID     string
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a booking fixture with optional overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	start := At(0, 10, 0)
	fixture := BookingFixture{
		ID:          fmt.Sprintf("booking-%03d", idx),
		ClassroomID: "room-001",
		Title:       fmt.Sprintf("Lesson %03d", idx),
		Organizer:   "Ms. Tanaka",
		Start:       start,
		End:         start.Add(time.Hour),
		Kind:        booking.KindOneTime,
		OwnerID:     "teacher-1",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingClassroom overrides the classroom.
func WithBookingClassroom(classroomID string) BookingOption {
	return func(f *BookingFixture) {
		f.ClassroomID = classroomID
	}
}

// WithBookingTitle overrides the title.
func WithBookingTitle(title string) BookingOption {
	return func(f *BookingFixture) {
		f.Title = title
	}
}

// WithBookingOwner overrides the owning user.
func WithBookingOwner(ownerID string) BookingOption {
	return func(f *BookingFixture) {
		f.OwnerID = ownerID
	}
}

// WithBookingInterval overrides the start and end.
func WithBookingInterval(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingSeries marks the fixture as a member of seriesID.
func WithBookingSeries(seriesID string, kind booking.Kind) BookingOption {
	return func(f *BookingFixture) {
		f.SeriesID = seriesID
		f.Kind = kind
	}
}

// Domain returns the fixture as a booking.Booking with its palette colour.
func (f BookingFixture) Domain() booking.Booking {
	return booking.Booking{
		ID:          f.ID,
		ClassroomID: f.ClassroomID,
		Title:       f.Title,
		Organizer:   f.Organizer,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Kind:        f.Kind,
		SeriesID:    f.SeriesID,
		OwnerID:     f.OwnerID,
		Color:       booking.ColorFor(f.Title),
	}
}

// Persistence returns the fixture as a persistence.Booking.
func (f BookingFixture) Persistence() persistence.Booking {
	b := f.Domain()
	return persistence.Booking{
		ID:          b.ID,
		ClassroomID: b.ClassroomID,
		Title:       b.Title,
		Organizer:   b.Organizer,
		Description: b.Description,
		Start:       b.Start,
		End:         b.End,
		Kind:        string(b.Kind),
		SeriesID:    b.SeriesID,
		OwnerID:     b.OwnerID,
		Color:       b.Color,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}

// WeeklySeries returns count weekly members of seriesID starting from the
// template fixture. Member IDs are "<seriesID>-<n>".
func WeeklySeries(seriesID string, count int, opts ...BookingOption) []booking.Booking {
	template := NewBookingFixture(opts...)
	template.SeriesID = seriesID
	template.Kind = booking.KindRecurringWeekly
	members := make([]booking.Booking, 0, count)
	for i := 0; i < count; i++ {
		member := template
		member.ID = fmt.Sprintf("%s-%d", seriesID, i+1)
		member.Start = template.Start.AddDate(0, 0, 7*i)
		member.End = template.End.AddDate(0, 0, 7*i)
		members = append(members, member.Domain())
	}
	return members
}
