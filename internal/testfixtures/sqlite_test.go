package testfixtures

import (
	"context"
	"testing"

	"github.com/example/classroom-scheduler/internal/persistence"
)

func TestSQLiteHarnessRoundTripsBookings(t *testing.T) {
	ctx := context.Background()
	harness := NewSQLiteHarness(t, nil)

	room := NewClassroomFixture(WithClassroomID("room-001"))
	if err := harness.Classrooms.CreateClassroom(ctx, room.Persistence()); err != nil {
		t.Fatalf("CreateClassroom failed: %v", err)
	}
	b := NewBookingFixture(WithBookingID("b-1"), WithBookingClassroom(room.ID))
	if err := harness.Bookings.CreateBookings(ctx, []persistence.Booking{b.Persistence()}); err != nil {
		t.Fatalf("CreateBookings failed: %v", err)
	}

	stored, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{ClassroomID: room.ID})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "b-1" || !stored[0].Start.Equal(b.Start) {
		t.Fatalf("unexpected stored bookings: %+v", stored)
	}

	harness.Close()
	harness.Close()
}
