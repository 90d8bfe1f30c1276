package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/recurrence"
)

// Wednesday 6 March 2024.
var wednesday = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

var (
	owner    = Actor{UserID: "teacher-1"}
	stranger = Actor{UserID: "teacher-2"}
	admin    = Actor{UserID: "admin-1", IsAdmin: true}
)

func newTestResolver() *Resolver {
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return NewResolver(recurrence.NewEngine(recurrence.WithIDGenerator(ids)), ids)
}

func createRequest(start time.Time, rule *Recurrence) Request {
	return Request{
		Action: ActionCreate,
		Actor:  owner,
		Start:  start,
		End:    start.Add(time.Hour),
		Details: Details{
			ClassroomID: "room-1",
			Title:       "Chemistry",
			Organizer:   "Dr. Okafor",
		},
		Recurrence: rule,
	}
}

// weeklySeries resolves a four week Wednesday 10:00-11:00 series and returns
// the resulting corpus.
func weeklySeries(t *testing.T, resolver *Resolver, corpus []booking.Booking) []booking.Booking {
	t.Helper()
	plan, err := resolver.Resolve(createRequest(wednesday, &Recurrence{
		Kind:  booking.KindRecurringWeekly,
		Until: wednesday.AddDate(0, 0, 21),
	}), corpus)
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	return plan.ApplyTo(corpus)
}

func requireInvalid(t *testing.T, err error, field string, sentinel error) {
	t.Helper()
	var invalidErr *InvalidRequestError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
	if invalidErr.Field != field {
		t.Fatalf("expected field %s, got %s", field, invalidErr.Field)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
}

func TestResolver_Create(t *testing.T) {
	t.Parallel()

	t.Run("single booking", func(t *testing.T) {
		t.Parallel()
		plan, err := newTestResolver().Resolve(createRequest(wednesday, nil), nil)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if len(plan.Created) != 1 || len(plan.Removed) != 0 || len(plan.Updated) != 0 {
			t.Fatalf("unexpected plan %+v", plan)
		}
		created := plan.Created[0]
		if created.ID != "id-1" || created.OwnerID != owner.UserID {
			t.Fatalf("unexpected identity on %+v", created)
		}
		if created.Kind != booking.KindOneTime || created.SeriesID != "" {
			t.Fatalf("expected standalone booking, got %+v", created)
		}
		if created.Color != booking.ColorFor(created.ID) {
			t.Fatalf("expected palette color, got %s", created.Color)
		}
	})

	t.Run("anonymous actor is rejected", func(t *testing.T) {
		t.Parallel()
		req := createRequest(wednesday, nil)
		req.Actor = Actor{}
		if _, err := newTestResolver().Resolve(req, nil); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("inverted interval is invalid", func(t *testing.T) {
		t.Parallel()
		req := createRequest(wednesday, nil)
		req.End = req.Start
		_, err := newTestResolver().Resolve(req, nil)
		requireInvalid(t, err, "time", ErrInvalidInterval)
	})

	t.Run("missing title is invalid", func(t *testing.T) {
		t.Parallel()
		req := createRequest(wednesday, nil)
		req.Details.Title = "  "
		_, err := newTestResolver().Resolve(req, nil)
		requireInvalid(t, err, "title", ErrMissingField)
	})

	t.Run("recurrence end on the start date is invalid", func(t *testing.T) {
		t.Parallel()
		req := createRequest(wednesday, &Recurrence{Kind: booking.KindRecurringWeekly, Until: wednesday.Add(3 * time.Hour)})
		_, err := newTestResolver().Resolve(req, nil)
		requireInvalid(t, err, "recurrence_until", ErrInvalidRecurrenceEnd)
	})

	t.Run("conflict rejects the booking", func(t *testing.T) {
		t.Parallel()
		corpus := []booking.Booking{existingBooking("x", "room-1", wednesday.Add(30*time.Minute), wednesday.Add(90*time.Minute))}
		_, err := newTestResolver().Resolve(createRequest(wednesday, nil), corpus)
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.Existing.ID != "x" {
			t.Fatalf("expected conflict with x, got %s", conflict.Existing.ID)
		}
	})

	t.Run("weekly series shares one id and color", func(t *testing.T) {
		t.Parallel()
		corpus := weeklySeries(t, newTestResolver(), nil)
		if len(corpus) != 4 {
			t.Fatalf("expected 4 instances, got %d", len(corpus))
		}
		for i, b := range corpus {
			if b.SeriesID != corpus[0].SeriesID || b.SeriesID == "" {
				t.Fatalf("instance %d has series id %q", i, b.SeriesID)
			}
			if b.Color != corpus[0].Color {
				t.Fatalf("instance %d has color %s, want %s", i, b.Color, corpus[0].Color)
			}
			if b.Kind != booking.KindRecurringWeekly {
				t.Fatalf("instance %d has kind %s", i, b.Kind)
			}
		}
	})

	t.Run("one conflicting instance rejects the whole series", func(t *testing.T) {
		t.Parallel()
		third := wednesday.AddDate(0, 0, 14)
		corpus := []booking.Booking{existingBooking("x", "room-1", third, third.Add(time.Hour))}

		plan, err := newTestResolver().Resolve(createRequest(wednesday, &Recurrence{
			Kind:  booking.KindRecurringWeekly,
			Until: wednesday.AddDate(0, 0, 21),
		}), corpus)
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.InstanceIndex != 2 {
			t.Fatalf("expected third instance to conflict, got index %d", conflict.InstanceIndex)
		}
		if !conflict.Start.Equal(third) {
			t.Fatalf("expected conflict at %s, got %s", third, conflict.Start)
		}
		if !plan.Empty() {
			t.Fatalf("expected no plan on conflict, got %+v", plan)
		}
	})
}

func TestResolver_EditSeries(t *testing.T) {
	t.Parallel()

	t.Run("shifts every instance and ignores its own members", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		corpus := weeklySeries(t, resolver, nil)
		oldSeries := corpus[0].SeriesID
		second := corpus[1]

		plan, err := resolver.Resolve(Request{
			Action:   ActionEditSeries,
			Actor:    owner,
			TargetID: second.ID,
			Start:    second.Start.Add(30 * time.Minute),
			End:      second.End.Add(30 * time.Minute),
			Details:  Details{Title: "Organic Chemistry"},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if plan.RemovedSeriesID != oldSeries || len(plan.Removed) != 4 {
			t.Fatalf("expected old series removed, got %+v", plan)
		}
		if len(plan.Created) != 4 {
			t.Fatalf("expected 4 replacement instances, got %d", len(plan.Created))
		}
		for i, b := range plan.Created {
			want := wednesday.AddDate(0, 0, 7*i).Add(30 * time.Minute)
			if !b.Start.Equal(want) {
				t.Fatalf("instance %d starts %s, want %s", i, b.Start, want)
			}
			if b.SeriesID == oldSeries {
				t.Fatal("expected a fresh series id")
			}
			if b.Title != "Organic Chemistry" || b.OwnerID != owner.UserID || b.Color != corpus[0].Color {
				t.Fatalf("unexpected metadata on %+v", b)
			}
		}

		next := plan.ApplyTo(corpus)
		if len(next) != 4 || len(booking.SeriesMembers(next, oldSeries)) != 0 {
			t.Fatalf("unexpected corpus after apply: %+v", next)
		}
	})

	t.Run("moving a later instance to the next day keeps every instance", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		corpus := weeklySeries(t, resolver, nil)
		third := corpus[2]
		newStart := third.Start.AddDate(0, 0, 1)

		plan, err := resolver.Resolve(Request{
			Action:   ActionEditSeries,
			Actor:    owner,
			TargetID: third.ID,
			Start:    newStart,
			End:      newStart.Add(third.Duration()),
			Details:  Details{Title: third.Title},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if len(plan.Created) != len(corpus) {
			t.Fatalf("expected %d instances after the shift, got %d", len(corpus), len(plan.Created))
		}
		for i, b := range plan.Created {
			want := newStart.AddDate(0, 0, 7*(i-2))
			if !b.Start.Equal(want) || b.Start.Weekday() != time.Thursday {
				t.Fatalf("instance %d starts %s, want %s", i, b.Start, want)
			}
		}
	})

	t.Run("weekday series shifted by a day keeps its length", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		monday := wednesday.AddDate(0, 0, -2)
		created, err := resolver.Resolve(createRequest(monday, &Recurrence{
			Kind:  booking.KindRecurringWeekday,
			Until: monday.AddDate(0, 0, 4),
		}), nil)
		if err != nil {
			t.Fatalf("create series: %v", err)
		}
		corpus := created.ApplyTo(nil)
		if len(corpus) != 5 {
			t.Fatalf("expected Monday to Friday, got %d instances", len(corpus))
		}
		midweek := corpus[2]
		newStart := midweek.Start.AddDate(0, 0, 1)

		plan, err := resolver.Resolve(Request{
			Action:   ActionEditSeries,
			Actor:    owner,
			TargetID: midweek.ID,
			Start:    newStart,
			End:      newStart.Add(midweek.Duration()),
			Details:  Details{Title: midweek.Title},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if len(plan.Created) != 5 {
			t.Fatalf("expected 5 instances, got %d", len(plan.Created))
		}
		if !plan.Created[2].Start.Equal(newStart) {
			t.Fatalf("edited instance starts %s, want %s", plan.Created[2].Start, newStart)
		}
		if last := plan.Created[4].Start; last.Weekday() != time.Monday || !last.Equal(monday.AddDate(0, 0, 7)) {
			t.Fatalf("expected the series to end on the following Monday, got %s", last)
		}
	})

	t.Run("conflict with another booking rejects the edit", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		last := wednesday.AddDate(0, 0, 21)
		corpus := weeklySeries(t, resolver, []booking.Booking{
			existingBooking("x", "room-1", last.Add(time.Hour), last.Add(2*time.Hour)),
		})
		target := corpus[0]

		_, err := resolver.Resolve(Request{
			Action:   ActionEditSeries,
			Actor:    owner,
			TargetID: target.ID,
			Start:    target.Start.Add(time.Hour),
			End:      target.End.Add(time.Hour),
			Details:  Details{Title: target.Title},
		}, corpus)
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if conflict.InstanceIndex != 3 || conflict.Existing.ID != "x" {
			t.Fatalf("unexpected conflict %+v", conflict)
		}
	})

	t.Run("standalone booking converts into a series", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		plan, err := resolver.Resolve(createRequest(wednesday, nil), nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		corpus := plan.ApplyTo(nil)
		target := corpus[0]

		plan, err = resolver.Resolve(Request{
			Action:     ActionEditInstance,
			Actor:      owner,
			TargetID:   target.ID,
			Start:      target.Start,
			End:        target.End,
			Details:    Details{Title: target.Title},
			Recurrence: &Recurrence{Kind: booking.KindRecurringWeekday, Until: wednesday.AddDate(0, 0, 2)},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if len(plan.Removed) != 1 || plan.Removed[0].ID != target.ID {
			t.Fatalf("expected standalone booking removed, got %+v", plan.Removed)
		}
		if len(plan.Created) != 3 {
			t.Fatalf("expected Wed/Thu/Fri instances, got %d", len(plan.Created))
		}
		if plan.Created[0].Color != target.Color {
			t.Fatal("expected color to carry over")
		}
	})
}

func TestResolver_SingleInstanceEdits(t *testing.T) {
	t.Parallel()

	t.Run("editing one instance detaches it", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		corpus := weeklySeries(t, resolver, nil)
		target := corpus[2]

		plan, err := resolver.Resolve(Request{
			Action:   ActionEditInstance,
			Actor:    owner,
			TargetID: target.ID,
			Start:    target.Start.Add(2 * time.Hour),
			End:      target.End.Add(2 * time.Hour),
			Details:  Details{Title: "Lab"},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if len(plan.Updated) != 1 {
			t.Fatalf("expected one update, got %+v", plan)
		}
		updated := plan.Updated[0]
		if updated.ID != target.ID || updated.SeriesID != "" || updated.Kind != booking.KindOneTime {
			t.Fatalf("expected detached booking, got %+v", updated)
		}
		next := plan.ApplyTo(corpus)
		if got := len(booking.SeriesMembers(next, target.SeriesID)); got != 3 {
			t.Fatalf("expected 3 remaining series members, got %d", got)
		}
	})

	t.Run("editing in place does not conflict with itself", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		corpus := weeklySeries(t, resolver, nil)
		target := corpus[0]

		_, err := resolver.Resolve(Request{
			Action:   ActionEditInstance,
			Actor:    owner,
			TargetID: target.ID,
			Start:    target.Start,
			End:      target.End.Add(15 * time.Minute),
			Details:  Details{Title: target.Title},
		}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	})

	t.Run("move keeps the duration", func(t *testing.T) {
		t.Parallel()
		target := existingBooking("a", "room-1", wednesday, wednesday.Add(90*time.Minute))
		target.OwnerID = owner.UserID

		plan, err := newTestResolver().Resolve(Request{
			Action:   ActionMove,
			Actor:    owner,
			TargetID: "a",
			Start:    wednesday.AddDate(0, 0, 1),
		}, []booking.Booking{target})
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		moved := plan.Updated[0]
		if moved.Duration() != 90*time.Minute || !moved.Start.Equal(wednesday.AddDate(0, 0, 1)) {
			t.Fatalf("unexpected moved booking %+v", moved)
		}
	})

	t.Run("move onto another booking conflicts", func(t *testing.T) {
		t.Parallel()
		target := existingBooking("a", "room-1", wednesday, wednesday.Add(time.Hour))
		target.OwnerID = owner.UserID
		blocker := existingBooking("b", "room-1", wednesday.Add(2*time.Hour), wednesday.Add(3*time.Hour))

		_, err := newTestResolver().Resolve(Request{
			Action:   ActionMove,
			Actor:    owner,
			TargetID: "a",
			Start:    wednesday.Add(150 * time.Minute),
		}, []booking.Booking{target, blocker})
		var conflict *ConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
	})

	t.Run("resize clamps to the minimum duration", func(t *testing.T) {
		t.Parallel()
		target := existingBooking("a", "room-1", wednesday, wednesday.Add(time.Hour))
		target.OwnerID = owner.UserID

		for _, end := range []time.Time{
			wednesday.Add(-time.Hour),
			wednesday,
			wednesday.Add(5 * time.Minute),
			wednesday.Add(MinimumDuration - time.Second),
		} {
			plan, err := newTestResolver().Resolve(Request{
				Action:   ActionResize,
				Actor:    owner,
				TargetID: "a",
				End:      end,
			}, []booking.Booking{target})
			if err != nil {
				t.Fatalf("Resolve(end=%s) returned error: %v", end, err)
			}
			if got := plan.Updated[0].Duration(); got != MinimumDuration {
				t.Fatalf("end %s: expected %s, got %s", end, MinimumDuration, got)
			}
		}
	})

	t.Run("resize at the minimum duration is kept", func(t *testing.T) {
		t.Parallel()
		target := existingBooking("a", "room-1", wednesday, wednesday.Add(time.Hour))
		target.OwnerID = owner.UserID

		plan, err := newTestResolver().Resolve(Request{
			Action:   ActionResize,
			Actor:    owner,
			TargetID: "a",
			End:      wednesday.Add(20 * time.Minute),
		}, []booking.Booking{target})
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if got := plan.Updated[0].Duration(); got != 20*time.Minute {
			t.Fatalf("expected 20m, got %s", got)
		}
	})

	t.Run("only administrators reassign classrooms", func(t *testing.T) {
		t.Parallel()
		target := existingBooking("a", "room-1", wednesday, wednesday.Add(time.Hour))
		target.OwnerID = owner.UserID
		corpus := []booking.Booking{target}
		req := Request{
			Action:   ActionEditInstance,
			Actor:    owner,
			TargetID: "a",
			Start:    target.Start,
			End:      target.End,
			Details:  Details{ClassroomID: "room-2", Title: target.Title},
		}

		_, err := newTestResolver().Resolve(req, corpus)
		requireInvalid(t, err, "classroom_id", ErrClassroomImmutable)

		req.Actor = admin
		plan, err := newTestResolver().Resolve(req, corpus)
		if err != nil {
			t.Fatalf("admin edit returned error: %v", err)
		}
		if plan.Updated[0].ClassroomID != "room-2" || plan.Updated[0].OwnerID != owner.UserID {
			t.Fatalf("unexpected update %+v", plan.Updated[0])
		}
	})
}

func TestResolver_Authorization(t *testing.T) {
	t.Parallel()

	target := existingBooking("a", "room-1", wednesday, wednesday.Add(time.Hour))
	target.OwnerID = owner.UserID
	corpus := []booking.Booking{target}

	for _, action := range []Action{ActionEditInstance, ActionMove, ActionResize, ActionDeleteInstance, ActionDeleteSeries} {
		action := action
		t.Run(string(action), func(t *testing.T) {
			t.Parallel()
			req := Request{
				Action:   action,
				TargetID: "a",
				Start:    wednesday.Add(time.Hour),
				End:      wednesday.Add(2 * time.Hour),
				Details:  Details{Title: "Changed"},
			}

			req.Actor = stranger
			if _, err := newTestResolver().Resolve(req, corpus); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
			}

			req.Actor = admin
			if _, err := newTestResolver().Resolve(req, corpus); err != nil {
				t.Fatalf("expected admin to succeed, got %v", err)
			}
		})
	}

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		_, err := newTestResolver().Resolve(Request{Action: ActionMove, Actor: owner, TargetID: "missing", Start: wednesday}, corpus)
		if !errors.Is(err, ErrTargetNotFound) {
			t.Fatalf("expected ErrTargetNotFound, got %v", err)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		t.Parallel()
		_, err := newTestResolver().Resolve(Request{Action: "archive", Actor: owner, TargetID: "a"}, corpus)
		if !errors.Is(err, ErrUnknownAction) {
			t.Fatalf("expected ErrUnknownAction, got %v", err)
		}
	})
}

func TestResolver_Delete(t *testing.T) {
	t.Parallel()

	t.Run("delete series removes every member", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		other := existingBooking("other", "room-1", wednesday.Add(-2*time.Hour), wednesday.Add(-time.Hour))
		corpus := weeklySeries(t, resolver, []booking.Booking{other})
		var member booking.Booking
		for _, b := range corpus {
			if b.InSeries() {
				member = b
				break
			}
		}

		plan, err := resolver.Resolve(Request{Action: ActionDeleteSeries, Actor: owner, TargetID: member.ID}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if plan.RemovedSeriesID != member.SeriesID || len(plan.Removed) != 4 {
			t.Fatalf("unexpected plan %+v", plan)
		}
		next := plan.ApplyTo(corpus)
		if len(next) != 1 || next[0].ID != "other" {
			t.Fatalf("expected only the unrelated booking to remain, got %+v", next)
		}

		again, err := resolver.Resolve(Request{Action: ActionDeleteSeries, Actor: owner, TargetID: member.ID}, next)
		if err != nil {
			t.Fatalf("second delete returned error: %v", err)
		}
		if !again.Empty() {
			t.Fatalf("expected empty plan for repeated delete, got %+v", again)
		}
	})

	t.Run("delete instance leaves the rest of the series", func(t *testing.T) {
		t.Parallel()
		resolver := newTestResolver()
		corpus := weeklySeries(t, resolver, nil)

		plan, err := resolver.Resolve(Request{Action: ActionDeleteInstance, Actor: owner, TargetID: corpus[1].ID}, corpus)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if plan.RemovedSeriesID != "" || len(plan.Removed) != 1 {
			t.Fatalf("unexpected plan %+v", plan)
		}
		if got := len(plan.ApplyTo(corpus)); got != 3 {
			t.Fatalf("expected 3 remaining bookings, got %d", got)
		}
	})
}

func TestActionScope(t *testing.T) {
	t.Parallel()

	if ActionEditSeries.Scope() != ScopeSeries || ActionDeleteSeries.Scope() != ScopeSeries {
		t.Fatal("expected series actions to have series scope")
	}
	if ActionMove.Scope() != ScopeSingle || ActionEditInstance.Scope() != ScopeSingle {
		t.Fatal("expected instance actions to have single scope")
	}
}
