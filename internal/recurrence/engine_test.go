package recurrence

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func seedAt(start time.Time, d time.Duration) booking.Template {
	return booking.Template{
		ClassroomID: "room-101",
		Title:       "Algebra",
		Organizer:   "Ms. Rivera",
		OwnerID:     "teacher-1",
		Color:       "#4f86c6",
		Start:       start,
		End:         start.Add(d),
	}
}

func TestEngine_GenerateSeries(t *testing.T) {
	t.Parallel()

	// Monday 4 March 2024.
	monday := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	t.Run("weekly series includes the end date", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(WithIDGenerator(sequentialIDs()))
		series, err := engine.GenerateSeries(seedAt(monday, time.Hour), monday.AddDate(0, 0, 21), booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		if len(series.Instances) != 4 {
			t.Fatalf("expected 4 instances, got %d", len(series.Instances))
		}
		ids := make(map[string]struct{})
		for i, instance := range series.Instances {
			want := monday.AddDate(0, 0, 7*i)
			if !instance.Start.Equal(want) {
				t.Fatalf("instance %d starts %s, want %s", i, instance.Start, want)
			}
			if instance.Duration() != time.Hour {
				t.Fatalf("instance %d has duration %s", i, instance.Duration())
			}
			if instance.SeriesID != series.ID || instance.SeriesID == "" {
				t.Fatalf("instance %d has series id %q, want %q", i, instance.SeriesID, series.ID)
			}
			if instance.Kind != booking.KindRecurringWeekly {
				t.Fatalf("instance %d has kind %q", i, instance.Kind)
			}
			if instance.ClassroomID != "room-101" || instance.OwnerID != "teacher-1" || instance.Color != "#4f86c6" {
				t.Fatalf("instance %d lost shared metadata: %#v", i, instance)
			}
			ids[instance.ID] = struct{}{}
		}
		if len(ids) != 4 {
			t.Fatalf("expected distinct instance ids, got %v", ids)
		}
		if _, clash := ids[series.ID]; clash {
			t.Fatalf("series id reused as an instance id")
		}
	})

	t.Run("weekday series skips weekends", func(t *testing.T) {
		t.Parallel()

		friday := time.Date(2024, time.March, 8, 14, 30, 0, 0, time.UTC)
		engine := NewEngine(WithIDGenerator(sequentialIDs()))
		series, err := engine.GenerateSeries(seedAt(friday, 45*time.Minute), friday.AddDate(0, 0, 3), booking.KindRecurringWeekday)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		if len(series.Instances) != 2 {
			t.Fatalf("expected friday and monday, got %d instances", len(series.Instances))
		}
		if !series.Instances[0].Start.Equal(friday) {
			t.Fatalf("first instance starts %s", series.Instances[0].Start)
		}
		if !series.Instances[1].Start.Equal(friday.AddDate(0, 0, 3)) {
			t.Fatalf("second instance starts %s", series.Instances[1].Start)
		}
		for _, instance := range series.Instances {
			if booking.IsWeekend(instance.Start) {
				t.Fatalf("weekend instance generated at %s", instance.Start)
			}
		}
	})

	t.Run("weekday series over a full year is not cut by a step count", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine(WithIDGenerator(sequentialIDs()))
		until := monday.AddDate(1, 0, 0).AddDate(0, 0, -1)
		series, err := engine.GenerateSeries(seedAt(monday, time.Hour), until, booking.KindRecurringWeekday)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		if series.Truncated {
			t.Fatalf("one year weekday series should not be truncated")
		}
		last := series.Instances[len(series.Instances)-1]
		if last.Start.Before(until.AddDate(0, 0, -3)) {
			t.Fatalf("series ended early at %s", last.Start)
		}
		if len(series.Instances) < 250 {
			t.Fatalf("expected roughly a year of weekdays, got %d", len(series.Instances))
		}
	})

	t.Run("span cap truncates and logs an anomaly", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		engine := NewEngine(WithIDGenerator(sequentialIDs()), WithMaxSpan(15*24*time.Hour), WithLogger(logger))
		series, err := engine.GenerateSeries(seedAt(monday, time.Hour), monday.AddDate(0, 0, 70), booking.KindRecurringWeekly)
		if err != nil {
			t.Fatalf("GenerateSeries returned error: %v", err)
		}
		if !series.Truncated {
			t.Fatalf("expected truncated series")
		}
		if len(series.Instances) != 3 {
			t.Fatalf("expected instances on days 0, 7 and 14, got %d", len(series.Instances))
		}
		if !strings.Contains(buf.String(), "recurrence generation truncated") {
			t.Fatalf("expected anomaly log, got %q", buf.String())
		}
	})

	t.Run("rejects one-time kind and empty intervals", func(t *testing.T) {
		t.Parallel()

		engine := NewEngine()
		if _, err := engine.GenerateSeries(seedAt(monday, time.Hour), monday.AddDate(0, 0, 7), booking.KindOneTime); !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("expected ErrInvalidKind, got %v", err)
		}
		if _, err := engine.GenerateSeries(seedAt(monday, 0), monday.AddDate(0, 0, 7), booking.KindRecurringWeekly); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("expected ErrInvalidDuration, got %v", err)
		}
		saturday := time.Date(2024, time.March, 9, 9, 0, 0, 0, time.UTC)
		if _, err := engine.GenerateSeries(seedAt(saturday, time.Hour), saturday.AddDate(0, 0, 1), booking.KindRecurringWeekday); !errors.Is(err, ErrEmptySeries) {
			t.Fatalf("expected ErrEmptySeries, got %v", err)
		}
	})
}
