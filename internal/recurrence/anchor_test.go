package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

func TestComputeSeriesAnchor_RoundTrip(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	t.Run("weekly", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(WithIDGenerator(sequentialIDs()))
		until := monday.AddDate(0, 0, 28)
		original, err := engine.GenerateSeries(seedAt(monday, time.Hour), until, booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		if len(original.Instances) != 5 {
			t.Fatalf("expected 5 instances, got %d", len(original.Instances))
		}

		edited := original.Instances[2]
		newStart := time.Date(2024, time.March, 18, 13, 15, 0, 0, time.UTC)
		newEnd := newStart.Add(90 * time.Minute)

		anchorStart, anchorEnd, err := ComputeSeriesAnchor(newStart, newEnd, original.Instances, edited.ID, booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("ComputeSeriesAnchor returned error: %v", err)
		}

		seed := seedAt(anchorStart, anchorEnd.Sub(anchorStart))
		regenerated, err := engine.GenerateSeries(seed, until, booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("regeneration failed: %v", err)
		}
		if len(regenerated.Instances) != 5 {
			t.Fatalf("expected 5 regenerated instances, got %d", len(regenerated.Instances))
		}
		for i, instance := range regenerated.Instances {
			want := newStart.AddDate(0, 0, 7*(i-2))
			if !instance.Start.Equal(want) {
				t.Fatalf("instance %d starts %s, want %s", i, instance.Start, want)
			}
			if instance.Duration() != 90*time.Minute {
				t.Fatalf("instance %d has duration %s", i, instance.Duration())
			}
		}
	})

	t.Run("weekday", func(t *testing.T) {
		t.Parallel()

		// Thursday seed so the series crosses a weekend.
		thursday := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
		engine := NewEngine(WithIDGenerator(sequentialIDs()))
		until := thursday.AddDate(0, 0, 8)
		original, err := engine.GenerateSeries(seedAt(thursday, time.Hour), until, booking.KindRecurringWeekday)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		// Thu, Fri, Mon, Tue, Wed, Thu, Fri.
		if len(original.Instances) != 7 {
			t.Fatalf("expected 7 instances, got %d", len(original.Instances))
		}

		index := 3
		edited := original.Instances[index]
		newStart := booking.CombineDateTime(edited.Start, time.Date(0, 1, 1, 15, 0, 0, 0, time.UTC))
		newEnd := newStart.Add(30 * time.Minute)

		anchorStart, anchorEnd, err := ComputeSeriesAnchor(newStart, newEnd, original.Instances, edited.ID, booking.KindRecurringWeekday)
		if err != nil {
			t.Fatalf("ComputeSeriesAnchor returned error: %v", err)
		}
		if !anchorStart.Equal(time.Date(2024, time.March, 7, 15, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected anchor %s", anchorStart)
		}

		regenerated, err := engine.GenerateSeries(seedAt(anchorStart, anchorEnd.Sub(anchorStart)), until, booking.KindRecurringWeekday)
		if err != nil {
			t.Fatalf("regeneration failed: %v", err)
		}
		if !regenerated.Instances[index].Start.Equal(newStart) {
			t.Fatalf("instance %d starts %s, want %s", index, regenerated.Instances[index].Start, newStart)
		}
	})

	t.Run("anchor edit returns the new times unchanged", func(t *testing.T) {
		t.Parallel()

		instances := []booking.Booking{
			{ID: "b", Start: monday.AddDate(0, 0, 7), End: monday.AddDate(0, 0, 7).Add(time.Hour)},
			{ID: "a", Start: monday, End: monday.Add(time.Hour)},
		}
		newStart := monday.Add(2 * time.Hour)
		gotStart, gotEnd, err := ComputeSeriesAnchor(newStart, newStart.Add(time.Hour), instances, "a", booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("ComputeSeriesAnchor returned error: %v", err)
		}
		if !gotStart.Equal(newStart) || !gotEnd.Equal(newStart.Add(time.Hour)) {
			t.Fatalf("anchor changed: %s - %s", gotStart, gotEnd)
		}
	})

	t.Run("unknown instance", func(t *testing.T) {
		t.Parallel()

		_, _, err := ComputeSeriesAnchor(monday, monday.Add(time.Hour), nil, "missing", booking.KindRecurringWeekly)
		if !errors.Is(err, ErrInstanceNotInSeries) {
			t.Fatalf("expected ErrInstanceNotInSeries, got %v", err)
		}
	})
}

func TestStepForwardInvertsStepBack(t *testing.T) {
	t.Parallel()

	thursday := time.Date(2024, time.March, 7, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		kind  booking.Kind
		steps int
		want  time.Time
	}{
		{name: "weekly", kind: booking.KindRecurringWeekly, steps: 3, want: thursday.AddDate(0, 0, 21)},
		{name: "weekday across a weekend", kind: booking.KindRecurringWeekday, steps: 2, want: thursday.AddDate(0, 0, 4)},
		{name: "zero steps", kind: booking.KindRecurringWeekday, steps: 0, want: thursday},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := StepForward(thursday, tt.steps, tt.kind)
			if !got.Equal(tt.want) {
				t.Fatalf("StepForward = %s, want %s", got, tt.want)
			}
			if back := stepBack(got, tt.steps, tt.kind); !back.Equal(thursday) {
				t.Fatalf("stepBack(StepForward) = %s, want %s", back, thursday)
			}
		})
	}
}
