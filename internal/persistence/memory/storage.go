// Package memory provides an in-process implementation of the persistence
// repositories, used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// Storage keeps classrooms and bookings in maps guarded by a single lock.
type Storage struct {
	mu         sync.RWMutex
	classrooms map[string]persistence.Classroom
	bookings   map[string]persistence.Booking
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		classrooms: make(map[string]persistence.Classroom),
		bookings:   make(map[string]persistence.Booking),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- ClassroomRepository implementation ---

// CreateClassroom stores a new classroom.
func (s *Storage) CreateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	if classroom.ID == "" || classroom.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classrooms[classroom.ID]; ok {
		return fmt.Errorf("memory: classroom %s: %w", classroom.ID, persistence.ErrDuplicate)
	}
	s.classrooms[classroom.ID] = classroom
	return nil
}

// UpdateClassroom replaces an existing classroom.
func (s *Storage) UpdateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	if classroom.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classrooms[classroom.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.classrooms[classroom.ID] = classroom
	return nil
}

// GetClassroom retrieves a classroom by ID.
func (s *Storage) GetClassroom(ctx context.Context, id string) (persistence.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classroom, ok := s.classrooms[id]
	if !ok {
		return persistence.Classroom{}, persistence.ErrNotFound
	}
	return classroom, nil
}

// ListClassrooms returns all classrooms ordered by name.
func (s *Storage) ListClassrooms(ctx context.Context) ([]persistence.Classroom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	classrooms := make([]persistence.Classroom, 0, len(s.classrooms))
	for _, classroom := range s.classrooms {
		classrooms = append(classrooms, classroom)
	}

	sort.Slice(classrooms, func(i, j int) bool {
		left, right := strings.ToLower(classrooms[i].Name), strings.ToLower(classrooms[j].Name)
		if left == right {
			return classrooms[i].ID < classrooms[j].ID
		}
		return left < right
	})
	return classrooms, nil
}

// DeleteClassroom removes a classroom and every booking that references it.
func (s *Storage) DeleteClassroom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.classrooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.classrooms, id)

	for bookingID, b := range s.bookings {
		if b.ClassroomID == id {
			delete(s.bookings, bookingID)
		}
	}
	return nil
}

// --- BookingRepository implementation ---

// ListBookings returns bookings matching the filter ordered by start time.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if filter.Matches(b) {
			bookings = append(bookings, b)
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
	return bookings, nil
}

// CreateBookings stores every booking or, when any of them is rejected, none.
func (s *Storage) CreateBookings(ctx context.Context, bookings []persistence.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if err := s.checkBookingLocked(b); err != nil {
			return err
		}
		if _, ok := s.bookings[b.ID]; ok {
			return fmt.Errorf("memory: booking %s: %w", b.ID, persistence.ErrDuplicate)
		}
		if _, ok := seen[b.ID]; ok {
			return fmt.Errorf("memory: booking %s: %w", b.ID, persistence.ErrDuplicate)
		}
		seen[b.ID] = struct{}{}
	}

	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return nil
}

// UpdateBooking replaces an existing booking, keeping its owner and creation time.
func (s *Storage) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[booking.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := s.checkBookingLocked(booking); err != nil {
		return err
	}
	booking.OwnerID = stored.OwnerID
	booking.CreatedAt = stored.CreatedAt
	s.bookings[booking.ID] = booking
	return nil
}

// DeleteBooking removes a booking by ID.
func (s *Storage) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// DeleteBookingSeries removes every booking in the series.
func (s *Storage) DeleteBookingSeries(ctx context.Context, seriesID string) (int, error) {
	if seriesID == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, b := range s.bookings {
		if b.SeriesID == seriesID {
			delete(s.bookings, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Storage) checkBookingLocked(b persistence.Booking) error {
	if b.ID == "" || !b.Start.Before(b.End) {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.classrooms[b.ClassroomID]; !ok {
		return fmt.Errorf("memory: classroom %s: %w", b.ClassroomID, persistence.ErrConstraintViolation)
	}
	return nil
}
