package recurrence

import (
	"errors"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
)

// ErrInstanceNotInSeries indicates the edited booking is not among the supplied instances.
var ErrInstanceNotInSeries = errors.New("recurrence: instance is not part of the series")

// ComputeSeriesAnchor translates new times entered for one series instance
// into the anchor interval that, once regenerated, reproduces the edit at the
// instance's original position.
//
// It walks backward from newStart by the instance's index using the inverse
// of the generator's step: seven days per step for weekly series, one
// weekday per step for weekday series.
func ComputeSeriesAnchor(newStart, newEnd time.Time, instances []booking.Booking, editedID string, kind booking.Kind) (time.Time, time.Time, error) {
	if !kind.Recurring() {
		return time.Time{}, time.Time{}, ErrInvalidKind
	}
	if !newEnd.After(newStart) {
		return time.Time{}, time.Time{}, ErrInvalidDuration
	}

	ordered := booking.Clone(instances)
	booking.SortByStart(ordered)

	index := -1
	for i, instance := range ordered {
		if instance.ID == editedID {
			index = i
			break
		}
	}
	if index < 0 {
		return time.Time{}, time.Time{}, ErrInstanceNotInSeries
	}
	if index == 0 {
		return newStart, newEnd, nil
	}

	duration := newEnd.Sub(newStart)
	anchor := stepBack(newStart, index, kind)
	return anchor, anchor.Add(duration), nil
}

// StepForward returns the start of the instance steps positions after from,
// using the generator's cadence for kind.
func StepForward(from time.Time, steps int, kind booking.Kind) time.Time {
	if kind == booking.KindRecurringWeekly {
		return from.AddDate(0, 0, 7*steps)
	}
	current := from
	for remaining := steps; remaining > 0; {
		current = current.AddDate(0, 0, 1)
		if !booking.IsWeekend(current) {
			remaining--
		}
	}
	return current
}

func stepBack(from time.Time, steps int, kind booking.Kind) time.Time {
	if kind == booking.KindRecurringWeekly {
		return from.AddDate(0, 0, -7*steps)
	}
	current := from
	for remaining := steps; remaining > 0; {
		current = current.AddDate(0, 0, -1)
		if !booking.IsWeekend(current) {
			remaining--
		}
	}
	return current
}
