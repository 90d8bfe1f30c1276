// Package persistencetest holds a behavioural test suite shared by every
// persistence store implementation.
package persistencetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// Store is the union of repositories a backend provides.
type Store interface {
	persistence.ClassroomRepository
	persistence.BookingRepository
}

// Factory returns an empty store bound to the test's lifetime.
type Factory func(t *testing.T) Store

// Base is the Monday all contract bookings are placed around. Stores must
// round-trip it without zone conversion.
var Base = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// Classroom returns a classroom record with the given id.
func Classroom(id string) persistence.Classroom {
	return persistence.Classroom{
		ID:        id,
		Name:      "Room " + id,
		Location:  "Building A",
		Capacity:  30,
		CreatedAt: Base,
		UpdatedAt: Base,
	}
}

// Booking returns a one hour booking record starting dayOffset days after Base.
func Booking(id, classroomID string, dayOffset int) persistence.Booking {
	start := Base.AddDate(0, 0, dayOffset)
	return persistence.Booking{
		ID:          id,
		ClassroomID: classroomID,
		Title:       "Lecture " + id,
		Organizer:   "Prof. Adeyemi",
		Start:       start,
		End:         start.Add(time.Hour),
		Kind:        "one_time",
		OwnerID:     "owner-1",
		Color:       "#4f86c6",
		CreatedAt:   Base,
		UpdatedAt:   Base,
	}
}

// Series returns n weekly booking records sharing seriesID.
func Series(seriesID, classroomID string, n int) []persistence.Booking {
	bookings := make([]persistence.Booking, n)
	for i := range bookings {
		b := Booking(fmt.Sprintf("%s-%d", seriesID, i), classroomID, 7*i)
		b.SeriesID = seriesID
		b.Kind = "recurring_weekly"
		bookings[i] = b
	}
	return bookings
}

// Run exercises the repository contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("classroom lifecycle", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.CreateClassroom(ctx, Classroom("b")))
		require.NoError(t, store.CreateClassroom(ctx, Classroom("a")))
		require.ErrorIs(t, store.CreateClassroom(ctx, Classroom("a")), persistence.ErrDuplicate)

		fetched, err := store.GetClassroom(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Room a", fetched.Name)
		assert.Equal(t, 30, fetched.Capacity)
		assert.True(t, fetched.CreatedAt.Equal(Base))

		updated := Classroom("a")
		updated.Name = "Aula Magna"
		updated.Capacity = 120
		require.NoError(t, store.UpdateClassroom(ctx, updated))

		listed, err := store.ListClassrooms(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "Aula Magna", listed[0].Name)
		assert.Equal(t, "b", listed[1].ID)

		require.ErrorIs(t, store.UpdateClassroom(ctx, Classroom("missing")), persistence.ErrNotFound)
		_, err = store.GetClassroom(ctx, "missing")
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("bookings round trip wall clock times", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))

		b := Booking("b1", "room-1", 0)
		b.Description = "Bring calculators"
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{b}))

		listed, err := store.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		got := listed[0]
		assert.Equal(t, b.Start.Format(time.DateTime), got.Start.Format(time.DateTime))
		assert.Equal(t, b.End.Format(time.DateTime), got.End.Format(time.DateTime))
		assert.Equal(t, "Bring calculators", got.Description)
		assert.Empty(t, got.SeriesID)

		b.Title = "Moved lecture"
		b.Start = b.Start.Add(2 * time.Hour)
		b.End = b.End.Add(2 * time.Hour)
		require.NoError(t, store.UpdateBooking(ctx, b))

		listed, err = store.ListBookings(ctx, persistence.BookingFilter{ClassroomID: "room-1"})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "Moved lecture", listed[0].Title)
		assert.Equal(t, 11, listed[0].Start.Hour())

		require.ErrorIs(t, store.UpdateBooking(ctx, Booking("missing", "room-1", 1)), persistence.ErrNotFound)
		require.NoError(t, store.DeleteBooking(ctx, "b1"))
		require.ErrorIs(t, store.DeleteBooking(ctx, "b1"), persistence.ErrNotFound)
	})

	t.Run("update keeps owner and creation time", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{Booking("b1", "room-1", 0)}))

		b := Booking("b1", "room-1", 0)
		b.Title = "Renamed"
		b.OwnerID = "someone-else"
		b.CreatedAt = time.Time{}
		b.UpdatedAt = Base.Add(time.Hour)
		require.NoError(t, store.UpdateBooking(ctx, b))

		listed, err := store.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		got := listed[0]
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "owner-1", got.OwnerID)
		assert.True(t, got.CreatedAt.Equal(Base), "created_at changed to %v", got.CreatedAt)
		assert.True(t, got.UpdatedAt.Equal(Base.Add(time.Hour)), "updated_at not written: %v", got.UpdatedAt)
	})

	t.Run("batch insert is all or nothing", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{Booking("taken", "room-1", 0)}))

		batch := []persistence.Booking{
			Booking("new-1", "room-1", 1),
			Booking("taken", "room-1", 2),
		}
		require.ErrorIs(t, store.CreateBookings(ctx, batch), persistence.ErrDuplicate)

		listed, err := store.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "taken", listed[0].ID)
	})

	t.Run("list filters by overlapping window", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-2")))
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{
			Booking("mon", "room-1", 0),
			Booking("tue", "room-1", 1),
			Booking("wed", "room-2", 2),
			Booking("next", "room-1", 7),
		}))

		from := Base.AddDate(0, 0, 1)
		to := Base.AddDate(0, 0, 7)
		listed, err := store.ListBookings(ctx, persistence.BookingFilter{From: &from, To: &to})
		require.NoError(t, err)
		ids := make([]string, 0, len(listed))
		for _, b := range listed {
			ids = append(ids, b.ID)
		}
		assert.Equal(t, []string{"tue", "wed"}, ids)

		listed, err = store.ListBookings(ctx, persistence.BookingFilter{ClassroomID: "room-1", To: &to})
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	t.Run("series delete is idempotent", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))
		require.NoError(t, store.CreateBookings(ctx, Series("s1", "room-1", 4)))
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{Booking("solo", "room-1", 1)}))

		removed, err := store.DeleteBookingSeries(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 4, removed)

		removed, err = store.DeleteBookingSeries(ctx, "s1")
		require.NoError(t, err)
		assert.Zero(t, removed)

		listed, err := store.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "solo", listed[0].ID)
	})

	t.Run("classroom delete cascades to bookings", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-1")))
		require.NoError(t, store.CreateClassroom(ctx, Classroom("room-2")))
		require.NoError(t, store.CreateBookings(ctx, Series("s1", "room-1", 3)))
		require.NoError(t, store.CreateBookings(ctx, []persistence.Booking{Booking("keep", "room-2", 0)}))

		require.NoError(t, store.DeleteClassroom(ctx, "room-1"))
		require.ErrorIs(t, store.DeleteClassroom(ctx, "room-1"), persistence.ErrNotFound)

		listed, err := store.ListBookings(ctx, persistence.BookingFilter{})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, "keep", listed[0].ID)
	})
}
