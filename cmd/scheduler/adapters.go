package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/persistence"
)

type bookingStoreAdapter struct {
	repo persistence.BookingRepository
	now  func() time.Time
}

func newBookingStoreAdapter(repo persistence.BookingRepository, now func() time.Time) *bookingStoreAdapter {
	if now == nil {
		now = time.Now
	}
	return &bookingStoreAdapter{repo: repo, now: now}
}

func (a *bookingStoreAdapter) FetchBookings(ctx context.Context, from, to *time.Time) ([]booking.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	bookings := make([]booking.Booking, 0, len(models))
	for _, model := range models {
		b, err := toDomainBooking(model)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (a *bookingStoreAdapter) CreateBookings(ctx context.Context, bookings []booking.Booking) ([]booking.Booking, error) {
	now := a.now()
	models := make([]persistence.Booking, 0, len(bookings))
	for _, b := range bookings {
		models = append(models, toPersistenceBooking(b, now, now))
	}
	if err := a.repo.CreateBookings(ctx, models); err != nil {
		return nil, err
	}
	return booking.Clone(bookings), nil
}

// UpdateBooking leaves created_at to the repository, which keeps the stored value.
func (a *bookingStoreAdapter) UpdateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error) {
	if err := a.repo.UpdateBooking(ctx, toPersistenceBooking(b, time.Time{}, a.now())); err != nil {
		return booking.Booking{}, err
	}
	return b, nil
}

func (a *bookingStoreAdapter) DeleteBooking(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

func (a *bookingStoreAdapter) DeleteBookingSeries(ctx context.Context, seriesID string) error {
	_, err := a.repo.DeleteBookingSeries(ctx, seriesID)
	return err
}

type classroomStoreAdapter struct {
	repo persistence.ClassroomRepository
}

func newClassroomStoreAdapter(repo persistence.ClassroomRepository) *classroomStoreAdapter {
	return &classroomStoreAdapter{repo: repo}
}

func (a *classroomStoreAdapter) FetchClassrooms(ctx context.Context) ([]booking.Classroom, error) {
	models, err := a.repo.ListClassrooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	classrooms := make([]booking.Classroom, 0, len(models))
	for _, model := range models {
		classrooms = append(classrooms, toDomainClassroom(model))
	}
	return classrooms, nil
}

func (a *classroomStoreAdapter) GetClassroom(ctx context.Context, id string) (booking.Classroom, error) {
	stored, err := a.repo.GetClassroom(ctx, id)
	if err != nil {
		return booking.Classroom{}, err
	}
	return toDomainClassroom(stored), nil
}

func (a *classroomStoreAdapter) AddClassroom(ctx context.Context, classroom booking.Classroom) (booking.Classroom, error) {
	if err := a.repo.CreateClassroom(ctx, toPersistenceClassroom(classroom)); err != nil {
		return booking.Classroom{}, err
	}
	return a.GetClassroom(ctx, classroom.ID)
}

func (a *classroomStoreAdapter) UpdateClassroom(ctx context.Context, classroom booking.Classroom) (booking.Classroom, error) {
	if err := a.repo.UpdateClassroom(ctx, toPersistenceClassroom(classroom)); err != nil {
		return booking.Classroom{}, err
	}
	return a.GetClassroom(ctx, classroom.ID)
}

func (a *classroomStoreAdapter) DeleteClassroom(ctx context.Context, id string) error {
	return a.repo.DeleteClassroom(ctx, id)
}

func toDomainBooking(model persistence.Booking) (booking.Booking, error) {
	kind := booking.Kind(model.Kind)
	if !kind.Valid() {
		return booking.Booking{}, fmt.Errorf("booking %s: unknown kind %q: %w", model.ID, model.Kind, persistence.ErrConstraintViolation)
	}
	return booking.Booking{
		ID:          model.ID,
		ClassroomID: model.ClassroomID,
		Title:       model.Title,
		Organizer:   model.Organizer,
		Description: model.Description,
		Start:       model.Start,
		End:         model.End,
		Kind:        kind,
		SeriesID:    model.SeriesID,
		OwnerID:     model.OwnerID,
		Color:       model.Color,
	}, nil
}

func toPersistenceBooking(b booking.Booking, created, updated time.Time) persistence.Booking {
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
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

func toDomainClassroom(model persistence.Classroom) booking.Classroom {
	return booking.Classroom{
		ID:        model.ID,
		Name:      model.Name,
		Location:  model.Location,
		Capacity:  model.Capacity,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceClassroom(classroom booking.Classroom) persistence.Classroom {
	return persistence.Classroom{
		ID:        classroom.ID,
		Name:      classroom.Name,
		Location:  classroom.Location,
		Capacity:  classroom.Capacity,
		CreatedAt: classroom.CreatedAt,
		UpdatedAt: classroom.UpdatedAt,
	}
}
