package scheduler

import (
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

var day = time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func existingBooking(id, room string, start, end time.Time) booking.Booking {
	return booking.Booking{
		ID:          id,
		ClassroomID: room,
		Title:       "Existing " + id,
		Start:       start,
		End:         end,
		Kind:        booking.KindOneTime,
		OwnerID:     "owner-" + id,
	}
}

func TestIntervalsOverlap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"touching end to start", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching start to end", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"partial overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"disjoint", at(8, 0), at(9, 0), at(13, 0), at(14, 0), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IntervalsOverlap(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
				t.Fatalf("IntervalsOverlap = %v, want %v", got, tc.want)
			}
			if got := IntervalsOverlap(tc.s2, tc.e2, tc.s1, tc.e1); got != tc.want {
				t.Fatalf("IntervalsOverlap is not symmetric for %s", tc.name)
			}
		})
	}
}

func TestFindConflict(t *testing.T) {
	t.Parallel()

	corpus := []booking.Booking{
		existingBooking("a", "room-1", at(9, 0), at(10, 0)),
		existingBooking("b", "room-2", at(9, 0), at(10, 0)),
	}
	series := existingBooking("s1", "room-1", at(13, 0), at(14, 0))
	series.SeriesID = "series-1"
	series.Kind = booking.KindRecurringWeekly
	corpus = append(corpus, series)

	t.Run("boundary touch is not a conflict", func(t *testing.T) {
		t.Parallel()
		if Overlaps(at(10, 0), at(11, 0), "room-1", corpus, Exclusion{}) {
			t.Fatal("expected back-to-back booking to be accepted")
		}
	})

	t.Run("overlap in same classroom is reported", func(t *testing.T) {
		t.Parallel()
		got, found := FindConflict(at(9, 30), at(10, 30), "room-1", corpus, Exclusion{})
		if !found {
			t.Fatal("expected conflict")
		}
		if got.ID != "a" {
			t.Fatalf("expected conflict with a, got %s", got.ID)
		}
	})

	t.Run("other classrooms are ignored", func(t *testing.T) {
		t.Parallel()
		if Overlaps(at(9, 0), at(10, 0), "room-3", corpus, Exclusion{}) {
			t.Fatal("expected no conflict in an empty classroom")
		}
	})

	t.Run("excluded booking id is ignored", func(t *testing.T) {
		t.Parallel()
		if Overlaps(at(9, 0), at(10, 0), "room-1", corpus, Exclusion{BookingID: "a"}) {
			t.Fatal("expected excluded booking to be skipped")
		}
	})

	t.Run("excluded series is ignored", func(t *testing.T) {
		t.Parallel()
		if Overlaps(at(13, 30), at(14, 30), "room-1", corpus, Exclusion{SeriesID: "series-1"}) {
			t.Fatal("expected series members to be skipped")
		}
		if !Overlaps(at(13, 30), at(14, 30), "room-1", corpus, Exclusion{BookingID: "a"}) {
			t.Fatal("expected series member to conflict when only another id is excluded")
		}
	})
}

func TestFindDoubleBookings(t *testing.T) {
	t.Parallel()

	corpus := []booking.Booking{
		existingBooking("late", "room-1", at(14, 0), at(15, 0)),
		existingBooking("a", "room-1", at(9, 0), at(11, 0)),
		existingBooking("b", "room-1", at(10, 0), at(12, 0)),
		existingBooking("c", "room-2", at(10, 0), at(12, 0)),
		existingBooking("d", "room-1", at(12, 0), at(13, 0)),
	}

	pairs := FindDoubleBookings(corpus)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 double booking, got %d: %+v", len(pairs), pairs)
	}
	if pairs[0].First.ID != "a" || pairs[0].Second.ID != "b" {
		t.Fatalf("unexpected pair %s/%s", pairs[0].First.ID, pairs[0].Second.ID)
	}

	if got := FindDoubleBookings(corpus[:1]); got != nil {
		t.Fatalf("expected nil for single booking corpus, got %+v", got)
	}
}

func TestConflictErrorMessage(t *testing.T) {
	t.Parallel()

	err := &ConflictError{
		Start:    at(9, 0),
		End:      at(10, 0),
		Existing: existingBooking("a", "room-1", at(9, 30), at(10, 30)),
	}
	want := `scheduler: 2024-03-06 09:00:00 to 2024-03-06 10:00:00 conflicts with "Existing a" (2024-03-06 09:30:00 to 2024-03-06 10:30:00)`
	if err.Error() != want {
		t.Fatalf("unexpected message:\n got %s\nwant %s", err.Error(), want)
	}
}
