package recurrence

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/example/classroom-scheduler/internal/booking"
)

// DefaultMaxSpan bounds how far past the anchor a series may extend. It is
// measured in elapsed time so weekday and weekly series share the same limit.
const DefaultMaxSpan = 366 * 24 * time.Hour

var (
	// ErrInvalidKind indicates the generator was asked to expand a one-time booking.
	ErrInvalidKind = errors.New("recurrence: kind does not describe a series")
	// ErrInvalidDuration indicates the seed interval is empty or inverted.
	ErrInvalidDuration = errors.New("recurrence: seed duration must be positive")
	// ErrEmptySeries indicates the rule produced no instance before the end date.
	ErrEmptySeries = errors.New("recurrence: rule produced no instances")
)

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Series is the output of one generator call.
type Series struct {
	ID        string
	Instances []booking.Booking
	// Truncated is set when the span cap cut the series short of its end date.
	Truncated bool
}

// Engine expands seed bookings into dated series instances.
type Engine struct {
	maxSpan time.Duration
	newID   func() string
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSpan overrides DefaultMaxSpan.
func WithMaxSpan(span time.Duration) Option {
	return func(e *Engine) {
		if span > 0 {
			e.maxSpan = span
		}
	}
}

// WithIDGenerator overrides the random UUID generator used for booking and series ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithLogger sets the logger used to report truncated series.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine constructs an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxSpan: DefaultMaxSpan,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateSeries expands seed into chronologically ordered instances sharing
// one freshly minted series id.
//
// Semantics:
//   - iteration starts at seed.Start and the per-instance duration is
//     seed.End - seed.Start;
//   - the end date is inclusive: an instance starting anywhere on that
//     calendar day is produced;
//   - weekly series step seven days, weekday series step one day and skip
//     Saturdays and Sundays;
//   - instances starting more than the engine's span after seed.Start are
//     dropped and the series is flagged as truncated.
func (e *Engine) GenerateSeries(seed booking.Template, until time.Time, kind booking.Kind) (Series, error) {
	if !kind.Recurring() {
		return Series{}, ErrInvalidKind
	}
	duration := seed.End.Sub(seed.Start)
	if duration <= 0 {
		return Series{}, ErrInvalidDuration
	}

	loc := seed.Start.Location()
	requested := booking.StartOfDay(until.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond)
	limit := seed.Start.Add(e.maxSpan)
	window := requested
	if limit.Before(window) {
		window = limit
	}

	rule, err := rrule.NewRRule(ruleOptions(kind, seed.Start, requested))
	if err != nil {
		return Series{}, err
	}

	dates := rule.Between(seed.Start.Add(-time.Second), window, true)
	truncated := window.Before(requested) && !rule.After(window, false).IsZero()

	seriesID := e.newID()
	seed.Kind = kind
	instances := make([]booking.Booking, 0, len(dates))
	for _, date := range dates {
		start := booking.CombineDateTime(date, seed.Start)
		if start.Before(seed.Start) || start.After(window) {
			continue
		}
		instances = append(instances, seed.Instance(e.newID(), seriesID, start, start.Add(duration)))
	}

	if truncated {
		e.logger.Warn("recurrence generation truncated",
			"series_id", seriesID,
			"kind", string(kind),
			"max_span", e.maxSpan.String(),
			"requested_until", requested.Format(time.DateOnly),
			"generated", len(instances),
		)
	}

	if len(instances) == 0 {
		return Series{}, ErrEmptySeries
	}

	return Series{ID: seriesID, Instances: instances, Truncated: truncated}, nil
}

func ruleOptions(kind booking.Kind, start, until time.Time) rrule.ROption {
	opt := rrule.ROption{
		Dtstart:  start,
		Until:    until,
		Interval: 1,
	}
	switch kind {
	case booking.KindRecurringWeekday:
		opt.Freq = rrule.DAILY
		opt.Byweekday = weekdays
	default:
		opt.Freq = rrule.WEEKLY
	}
	return opt
}
