// Package firestore implements the persistence repositories on Cloud
// Firestore. Booking times are stored as naive wall-clock strings so that a
// booking reads back unchanged regardless of the server's zone.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/classroom-scheduler/internal/persistence"
)

const (
	classroomsCollection = "classrooms"
	bookingsCollection   = "bookings"

	naiveLayout = "2006-01-02T15:04:05"

	// maxBatchWrites is Firestore's per-commit write limit.
	maxBatchWrites = 500
)

type classroomDoc struct {
	Name      string    `firestore:"name"`
	Location  string    `firestore:"location"`
	Capacity  int       `firestore:"capacity"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type bookingDoc struct {
	ClassroomID string    `firestore:"classroom_id"`
	Title       string    `firestore:"title"`
	Organizer   string    `firestore:"organizer"`
	Description string    `firestore:"description"`
	Start       string    `firestore:"start"`
	End         string    `firestore:"end"`
	Kind        string    `firestore:"kind"`
	SeriesID    string    `firestore:"series_id"`
	OwnerID     string    `firestore:"owner_id"`
	Color       string    `firestore:"color"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

// Store implements persistence.ClassroomRepository and
// persistence.BookingRepository.
type Store struct {
	client   *firestore.Client
	location *time.Location
}

// New wraps an existing Firestore client. loc interprets stored wall-clock
// times and defaults to time.Local.
func New(client *firestore.Client, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{client: client, location: loc}
}

// Close closes the Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// --- ClassroomRepository implementation ---

// CreateClassroom stores a new classroom, failing if the id is taken.
func (s *Store) CreateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	if classroom.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.classrooms().Doc(classroom.ID).Create(ctx, toClassroomDoc(classroom))
	return mapError(err)
}

// UpdateClassroom replaces an existing classroom.
func (s *Store) UpdateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	ref := s.classrooms().Doc(classroom.ID)
	return mapError(s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, toClassroomDoc(classroom))
	}))
}

// GetClassroom retrieves a classroom by ID.
func (s *Store) GetClassroom(ctx context.Context, id string) (persistence.Classroom, error) {
	if id == "" {
		return persistence.Classroom{}, persistence.ErrNotFound
	}
	snap, err := s.classrooms().Doc(id).Get(ctx)
	if err != nil {
		return persistence.Classroom{}, mapError(err)
	}
	return fromClassroomSnapshot(snap)
}

// ListClassrooms returns all classrooms ordered by name.
func (s *Store) ListClassrooms(ctx context.Context) ([]persistence.Classroom, error) {
	iter := s.classrooms().OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var classrooms []persistence.Classroom
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}
		classroom, err := fromClassroomSnapshot(snap)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}
	return classrooms, nil
}

// DeleteClassroom removes the classroom and every booking referencing it.
// Cascades larger than one commit are written in several batches.
func (s *Store) DeleteClassroom(ctx context.Context, id string) error {
	ref := s.classrooms().Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		return mapError(err)
	}

	refs, err := s.bookingRefs(ctx, s.bookings().Where("classroom_id", "==", id))
	if err != nil {
		return err
	}
	return s.deleteAll(ctx, append(refs, ref))
}

// --- BookingRepository implementation ---

// ListBookings returns bookings matching the filter ordered by start time.
// Only the classroom restriction is pushed to Firestore; the time window is
// applied after the read to avoid composite index requirements.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := s.bookings().Query
	if filter.ClassroomID != "" {
		query = query.Where("classroom_id", "==", filter.ClassroomID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var bookings []persistence.Booking
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}
		b, err := s.fromBookingSnapshot(snap)
		if err != nil {
			return nil, err
		}
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

// CreateBookings writes all bookings in one batch commit.
func (s *Store) CreateBookings(ctx context.Context, bookings []persistence.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	if len(bookings) > maxBatchWrites {
		return fmt.Errorf("firestore: %d bookings exceed the %d write batch limit: %w",
			len(bookings), maxBatchWrites, persistence.ErrConstraintViolation)
	}

	batch := s.client.Batch()
	for _, b := range bookings {
		if b.ID == "" {
			return persistence.ErrConstraintViolation
		}
		batch.Create(s.bookings().Doc(b.ID), s.toBookingDoc(b))
	}
	_, err := batch.Commit(ctx)
	return mapError(err)
}

// UpdateBooking replaces an existing booking, keeping its owner and creation time.
func (s *Store) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	ref := s.bookings().Doc(b.ID)
	return mapError(s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		stored, err := s.fromBookingSnapshot(snap)
		if err != nil {
			return err
		}
		b.OwnerID = stored.OwnerID
		b.CreatedAt = stored.CreatedAt
		return tx.Set(ref, s.toBookingDoc(b))
	}))
}

// DeleteBooking removes a booking by ID.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	_, err := s.bookings().Doc(id).Delete(ctx, firestore.Exists)
	return mapError(err)
}

// DeleteBookingSeries removes every booking in the series.
func (s *Store) DeleteBookingSeries(ctx context.Context, seriesID string) (int, error) {
	if seriesID == "" {
		return 0, nil
	}
	refs, err := s.bookingRefs(ctx, s.bookings().Where("series_id", "==", seriesID))
	if err != nil {
		return 0, err
	}
	if err := s.deleteAll(ctx, refs); err != nil {
		return 0, err
	}
	return len(refs), nil
}

func (s *Store) classrooms() *firestore.CollectionRef {
	return s.client.Collection(classroomsCollection)
}

func (s *Store) bookings() *firestore.CollectionRef {
	return s.client.Collection(bookingsCollection)
}

func (s *Store) bookingRefs(ctx context.Context, query firestore.Query) ([]*firestore.DocumentRef, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return refs, nil
		}
		if err != nil {
			return nil, mapError(err)
		}
		refs = append(refs, snap.Ref)
	}
}

func (s *Store) deleteAll(ctx context.Context, refs []*firestore.DocumentRef) error {
	for start := 0; start < len(refs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(refs))
		batch := s.client.Batch()
		for _, ref := range refs[start:end] {
			batch.Delete(ref)
		}
		if _, err := batch.Commit(ctx); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func toClassroomDoc(c persistence.Classroom) classroomDoc {
	return classroomDoc{
		Name:      c.Name,
		Location:  c.Location,
		Capacity:  c.Capacity,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromClassroomSnapshot(snap *firestore.DocumentSnapshot) (persistence.Classroom, error) {
	var doc classroomDoc
	if err := snap.DataTo(&doc); err != nil {
		return persistence.Classroom{}, fmt.Errorf("decode classroom %s: %w", snap.Ref.ID, err)
	}
	return persistence.Classroom{
		ID:        snap.Ref.ID,
		Name:      doc.Name,
		Location:  doc.Location,
		Capacity:  doc.Capacity,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) toBookingDoc(b persistence.Booking) bookingDoc {
	return bookingDoc{
		ClassroomID: b.ClassroomID,
		Title:       b.Title,
		Organizer:   b.Organizer,
		Description: b.Description,
		Start:       b.Start.In(s.location).Format(naiveLayout),
		End:         b.End.In(s.location).Format(naiveLayout),
		Kind:        b.Kind,
		SeriesID:    b.SeriesID,
		OwnerID:     b.OwnerID,
		Color:       b.Color,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func (s *Store) fromBookingSnapshot(snap *firestore.DocumentSnapshot) (persistence.Booking, error) {
	var doc bookingDoc
	if err := snap.DataTo(&doc); err != nil {
		return persistence.Booking{}, fmt.Errorf("decode booking %s: %w", snap.Ref.ID, err)
	}
	start, err := time.ParseInLocation(naiveLayout, doc.Start, s.location)
	if err != nil {
		return persistence.Booking{}, fmt.Errorf("booking %s start: %w", snap.Ref.ID, err)
	}
	end, err := time.ParseInLocation(naiveLayout, doc.End, s.location)
	if err != nil {
		return persistence.Booking{}, fmt.Errorf("booking %s end: %w", snap.Ref.ID, err)
	}
	return persistence.Booking{
		ID:          snap.Ref.ID,
		ClassroomID: doc.ClassroomID,
		Title:       doc.Title,
		Organizer:   doc.Organizer,
		Description: doc.Description,
		Start:       start,
		End:         end,
		Kind:        doc.Kind,
		SeriesID:    doc.SeriesID,
		OwnerID:     doc.OwnerID,
		Color:       doc.Color,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

// mapError translates gRPC status codes into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return persistence.ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case codes.FailedPrecondition, codes.InvalidArgument:
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
