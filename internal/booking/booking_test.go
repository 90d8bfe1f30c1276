package booking

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	cases := map[string]Kind{
		"":                  KindOneTime,
		"weekly":            KindRecurringWeekly,
		"RECURRING_WEEKDAY": KindRecurringWeekday,
		" weekdays ":        KindRecurringWeekday,
	}
	for input, want := range cases {
		got, err := ParseKind(input)
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %q, want %q", input, got, want)
		}
	}

	if _, err := ParseKind("monthly"); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

func TestSeriesMembersOrdersChronologically(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	corpus := []Booking{
		{ID: "c", SeriesID: "s1", Start: base.AddDate(0, 0, 14)},
		{ID: "x", SeriesID: "s2", Start: base},
		{ID: "a", SeriesID: "s1", Start: base},
		{ID: "b", SeriesID: "s1", Start: base.AddDate(0, 0, 7)},
	}

	members := SeriesMembers(corpus, "s1")
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	for i, want := range []string{"a", "b", "c"} {
		if members[i].ID != want {
			t.Fatalf("member %d = %s, want %s", i, members[i].ID, want)
		}
	}

	if SeriesMembers(corpus, "") != nil {
		t.Fatalf("expected nil for empty series id")
	}
}

func TestCalendarHelpers(t *testing.T) {
	t.Parallel()

	friday := time.Date(2024, time.March, 8, 13, 30, 0, 0, time.UTC)
	if IsWeekend(friday) {
		t.Fatalf("friday reported as weekend")
	}
	if !IsWeekend(friday.AddDate(0, 0, 1)) || !IsWeekend(friday.AddDate(0, 0, 2)) {
		t.Fatalf("saturday/sunday not reported as weekend")
	}

	if got := StartOfWeek(friday); !got.Equal(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected week start %s", got)
	}

	clock := time.Date(2024, time.January, 1, 9, 15, 0, 0, time.UTC)
	if got := CombineDateTime(friday, clock); !got.Equal(time.Date(2024, time.March, 8, 9, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected combined time %s", got)
	}
}

func TestColorForIsStable(t *testing.T) {
	t.Parallel()

	first := ColorFor("series-1")
	if first != ColorFor("series-1") {
		t.Fatalf("expected deterministic color")
	}
	found := false
	for _, c := range Palette {
		if c == first {
			found = true
		}
	}
	if !found {
		t.Fatalf("color %s not in palette", first)
	}
}
