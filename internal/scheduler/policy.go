package scheduler

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/recurrence"
)

// MinimumDuration is the shortest interval a resize may leave behind.
const MinimumDuration = 15 * time.Minute

// Action identifies the user action being resolved.
type Action string

const (
	ActionCreate         Action = "create"
	ActionEditInstance   Action = "edit_instance"
	ActionEditSeries     Action = "edit_series"
	ActionMove           Action = "move"
	ActionResize         Action = "resize"
	ActionDeleteInstance Action = "delete_instance"
	ActionDeleteSeries   Action = "delete_series"
)

// Scope is whether an action applies to one instance or a whole series.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeSeries Scope = "series"
)

// Scope derives the scope implied by the action.
func (a Action) Scope() Scope {
	if a == ActionEditSeries || a == ActionDeleteSeries {
		return ScopeSeries
	}
	return ScopeSingle
}

// Actor is the caller's identity and permission verdict.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Details carries the display metadata of a booking request.
type Details struct {
	ClassroomID string
	Title       string
	Organizer   string
	Description string
}

// Recurrence asks for a series. A zero Until on a series edit keeps the
// existing series' last date.
type Recurrence struct {
	Kind  booking.Kind
	Until time.Time
}

// Request describes one user action.
type Request struct {
	Action     Action
	Actor      Actor
	TargetID   string
	Start      time.Time
	End        time.Time
	Details    Details
	Recurrence *Recurrence
}

func (r Request) recurring() bool {
	return r.Recurrence != nil && r.Recurrence.Kind.Recurring()
}

// Plan is the diff an action produces against the corpus. The caller applies
// it locally and to the store.
type Plan struct {
	Action Action
	// Removed lists bookings to delete. When RemovedSeriesID is set, Removed
	// holds every member of that series.
	Removed         []booking.Booking
	RemovedSeriesID string
	Created         []booking.Booking
	Updated         []booking.Booking
	// Truncated reports that a generated series hit the span cap.
	Truncated bool
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Removed) == 0 && len(p.Created) == 0 && len(p.Updated) == 0
}

// ApplyTo returns a new corpus with the plan applied. corpus is not modified.
func (p Plan) ApplyTo(corpus []booking.Booking) []booking.Booking {
	removed := make(map[string]struct{}, len(p.Removed))
	for _, b := range p.Removed {
		removed[b.ID] = struct{}{}
	}
	updated := make(map[string]booking.Booking, len(p.Updated))
	for _, b := range p.Updated {
		updated[b.ID] = b
	}

	out := make([]booking.Booking, 0, len(corpus)+len(p.Created))
	for _, b := range corpus {
		if _, ok := removed[b.ID]; ok {
			continue
		}
		if replacement, ok := updated[b.ID]; ok {
			b = replacement
		}
		out = append(out, b)
	}
	out = append(out, p.Created...)
	booking.SortByStart(out)
	return out
}

// Resolver decides which bookings should exist after an action. It holds no
// state between calls; the corpus is always passed in by the caller.
type Resolver struct {
	engine *recurrence.Engine
	newID  func() string
}

// NewResolver constructs a Resolver. A nil engine gets recurrence defaults and
// a nil newID uses random UUIDs.
func NewResolver(engine *recurrence.Engine, newID func() string) *Resolver {
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &Resolver{engine: engine, newID: newID}
}

// Resolve validates and authorizes req against corpus and returns the
// resulting plan. Any conflict rejects the whole action before a plan is
// produced.
func (r *Resolver) Resolve(req Request, corpus []booking.Booking) (Plan, error) {
	var (
		plan Plan
		err  error
	)
	switch req.Action {
	case ActionCreate:
		plan, err = r.create(req, corpus)
	case ActionEditInstance, ActionEditSeries:
		plan, err = r.edit(req, corpus)
	case ActionMove, ActionResize:
		plan, err = r.reshape(req, corpus)
	case ActionDeleteInstance, ActionDeleteSeries:
		plan, err = r.remove(req, corpus)
	default:
		return Plan{}, ErrUnknownAction
	}
	if err != nil {
		return Plan{}, err
	}
	plan.Action = req.Action
	return plan, nil
}

func (r *Resolver) create(req Request, corpus []booking.Booking) (Plan, error) {
	if strings.TrimSpace(req.Actor.UserID) == "" {
		return Plan{}, ErrUnauthorized
	}
	if err := validateDetails(req.Details); err != nil {
		return Plan{}, err
	}
	if err := validateInterval(req.Start, req.End); err != nil {
		return Plan{}, err
	}

	seed := booking.Template{
		ClassroomID: req.Details.ClassroomID,
		Title:       strings.TrimSpace(req.Details.Title),
		Organizer:   strings.TrimSpace(req.Details.Organizer),
		Description: req.Details.Description,
		Start:       req.Start,
		End:         req.End,
		Kind:        booking.KindOneTime,
		OwnerID:     req.Actor.UserID,
	}

	if req.recurring() {
		if err := validateRecurrence(*req.Recurrence, req.Start); err != nil {
			return Plan{}, err
		}
		return r.generate(seed, *req.Recurrence, corpus, Exclusion{}, nil)
	}

	id := r.newID()
	seed.Color = booking.ColorFor(id)
	created := seed.Instance(id, "", req.Start, req.End)
	if err := checkOne(created, corpus, Exclusion{}); err != nil {
		return Plan{}, err
	}
	return Plan{Created: []booking.Booking{created}}, nil
}

func (r *Resolver) edit(req Request, corpus []booking.Booking) (Plan, error) {
	target, err := r.authorizedTarget(req, corpus)
	if err != nil {
		return Plan{}, err
	}

	details, err := mergeDetails(req, target)
	if err != nil {
		return Plan{}, err
	}
	if err := validateInterval(req.Start, req.End); err != nil {
		return Plan{}, err
	}

	seed := target.Template()
	seed.ClassroomID = details.ClassroomID
	seed.Title = strings.TrimSpace(details.Title)
	seed.Organizer = strings.TrimSpace(details.Organizer)
	seed.Description = details.Description

	switch {
	case req.Action == ActionEditSeries && target.InSeries():
		members := booking.SeriesMembers(corpus, target.SeriesID)
		rule, inherited := inheritRule(req.Recurrence, target, members)
		anchorStart, anchorEnd, err := recurrence.ComputeSeriesAnchor(req.Start, req.End, members, target.ID, rule.Kind)
		if err != nil {
			return Plan{}, err
		}
		seed.Start, seed.End = anchorStart, anchorEnd
		if inherited {
			rule.Until = shiftedUntil(rule, target.Kind, anchorStart, members)
		}
		if req.Recurrence != nil && !req.Recurrence.Until.IsZero() {
			if err := validateRecurrence(rule, anchorStart); err != nil {
				return Plan{}, err
			}
		}
		plan, err := r.generate(seed, rule, corpus, Exclusion{SeriesID: target.SeriesID}, &target)
		if err != nil {
			return Plan{}, err
		}
		plan.Removed = members
		plan.RemovedSeriesID = target.SeriesID
		return plan, nil

	case req.recurring() && !target.InSeries():
		// A standalone booking becomes the anchor of a new series.
		seed.Start, seed.End = req.Start, req.End
		if err := validateRecurrence(*req.Recurrence, req.Start); err != nil {
			return Plan{}, err
		}
		plan, err := r.generate(seed, *req.Recurrence, corpus, Exclusion{BookingID: target.ID}, &target)
		if err != nil {
			return Plan{}, err
		}
		plan.Removed = []booking.Booking{target}
		return plan, nil
	}

	updated := detach(target)
	updated.ClassroomID = seed.ClassroomID
	updated.Title = seed.Title
	updated.Organizer = seed.Organizer
	updated.Description = seed.Description
	updated.Start, updated.End = req.Start, req.End
	if err := checkOne(updated, corpus, Exclusion{BookingID: target.ID}); err != nil {
		return Plan{}, err
	}
	return Plan{Updated: []booking.Booking{updated}}, nil
}

func (r *Resolver) reshape(req Request, corpus []booking.Booking) (Plan, error) {
	target, err := r.authorizedTarget(req, corpus)
	if err != nil {
		return Plan{}, err
	}

	updated := detach(target)
	if req.Action == ActionMove {
		if req.Start.IsZero() {
			return Plan{}, invalid("start", ErrMissingField)
		}
		updated.Start = req.Start
		updated.End = req.Start.Add(target.Duration())
	} else {
		if req.End.IsZero() {
			return Plan{}, invalid("end", ErrMissingField)
		}
		updated.End = req.End
		if updated.Duration() < MinimumDuration {
			updated.End = updated.Start.Add(MinimumDuration)
		}
	}

	if err := checkOne(updated, corpus, Exclusion{BookingID: target.ID}); err != nil {
		return Plan{}, err
	}
	return Plan{Updated: []booking.Booking{updated}}, nil
}

func (r *Resolver) remove(req Request, corpus []booking.Booking) (Plan, error) {
	target, err := r.authorizedTarget(req, corpus)
	if errors.Is(err, ErrTargetNotFound) {
		// Already gone: deleting twice is a no-op.
		return Plan{}, nil
	}
	if err != nil {
		return Plan{}, err
	}

	if req.Action == ActionDeleteSeries && target.InSeries() {
		return Plan{
			Removed:         booking.SeriesMembers(corpus, target.SeriesID),
			RemovedSeriesID: target.SeriesID,
		}, nil
	}
	return Plan{Removed: []booking.Booking{target}}, nil
}

func validateRecurrence(rule Recurrence, start time.Time) error {
	if !rule.Kind.Recurring() {
		return invalid("recurrence_kind", recurrence.ErrInvalidKind)
	}
	if rule.Until.IsZero() {
		return invalid("recurrence_until", ErrMissingField)
	}
	if !booking.StartOfDay(rule.Until.In(start.Location())).After(booking.StartOfDay(start)) {
		return invalid("recurrence_until", ErrInvalidRecurrenceEnd)
	}
	return nil
}

// generate expands seed and checks every instance. previous, when set, is the
// booking being replaced; its color carries over to the new series.
func (r *Resolver) generate(seed booking.Template, rule Recurrence, corpus []booking.Booking, exclude Exclusion, previous *booking.Booking) (Plan, error) {
	series, err := r.engine.GenerateSeries(seed, rule.Until, rule.Kind)
	if err != nil {
		if errors.Is(err, recurrence.ErrEmptySeries) {
			return Plan{}, invalid("recurrence_until", err)
		}
		return Plan{}, err
	}

	color := booking.ColorFor(series.ID)
	if previous != nil && previous.Color != "" {
		color = previous.Color
	}
	for i := range series.Instances {
		series.Instances[i].Color = color
	}

	for i, instance := range series.Instances {
		if existing, found := FindConflict(instance.Start, instance.End, instance.ClassroomID, corpus, exclude); found {
			return Plan{}, &ConflictError{Start: instance.Start, End: instance.End, InstanceIndex: i, Existing: existing}
		}
	}

	return Plan{Created: series.Instances, Truncated: series.Truncated}, nil
}

func (r *Resolver) authorizedTarget(req Request, corpus []booking.Booking) (booking.Booking, error) {
	target, ok := booking.Find(corpus, req.TargetID)
	if !ok || req.TargetID == "" {
		return booking.Booking{}, ErrTargetNotFound
	}
	if !CanModify(req.Actor, target) {
		return booking.Booking{}, ErrUnauthorized
	}
	return target, nil
}

// CanModify reports whether actor may change or delete target.
func CanModify(actor Actor, target booking.Booking) bool {
	if actor.IsAdmin {
		return true
	}
	return actor.UserID != "" && actor.UserID == target.OwnerID
}

// inheritRule fills the parts of a series edit the caller left out from the
// existing series. inherited reports that the end date came from the series.
func inheritRule(requested *Recurrence, target booking.Booking, members []booking.Booking) (rule Recurrence, inherited bool) {
	rule = Recurrence{Kind: target.Kind}
	if len(members) > 0 {
		rule.Until = members[len(members)-1].Start
		inherited = true
	}
	if requested == nil {
		return rule, inherited
	}
	if requested.Kind.Recurring() {
		rule.Kind = requested.Kind
	}
	if !requested.Until.IsZero() {
		rule.Until = requested.Until
		inherited = false
	}
	return rule, inherited
}

// shiftedUntil moves an inherited end date along with the anchor. With an
// unchanged cadence the series keeps its instance count; otherwise the end
// date moves by the same number of calendar days as the anchor.
func shiftedUntil(rule Recurrence, previous booking.Kind, anchorStart time.Time, members []booking.Booking) time.Time {
	if rule.Kind == previous {
		return recurrence.StepForward(anchorStart, len(members)-1, rule.Kind)
	}
	first := booking.StartOfDay(members[0].Start)
	days := int(booking.StartOfDay(anchorStart).Sub(first).Round(24*time.Hour) / (24 * time.Hour))
	return rule.Until.AddDate(0, 0, days)
}

// detach turns a series member into a standalone booking.
func detach(b booking.Booking) booking.Booking {
	b.SeriesID = ""
	b.Kind = booking.KindOneTime
	return b
}

func mergeDetails(req Request, target booking.Booking) (Details, error) {
	details := req.Details
	if details.ClassroomID == "" {
		details.ClassroomID = target.ClassroomID
	}
	if details.ClassroomID != target.ClassroomID && !req.Actor.IsAdmin {
		return Details{}, invalid("classroom_id", ErrClassroomImmutable)
	}
	if err := validateDetails(details); err != nil {
		return Details{}, err
	}
	return details, nil
}

func validateDetails(details Details) error {
	if strings.TrimSpace(details.ClassroomID) == "" {
		return invalid("classroom_id", ErrMissingField)
	}
	if strings.TrimSpace(details.Title) == "" {
		return invalid("title", ErrMissingField)
	}
	return nil
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() {
		return invalid("start", ErrMissingField)
	}
	if end.IsZero() {
		return invalid("end", ErrMissingField)
	}
	if !start.Before(end) {
		return invalid("time", ErrInvalidInterval)
	}
	return nil
}

func checkOne(candidate booking.Booking, corpus []booking.Booking, exclude Exclusion) error {
	if existing, found := FindConflict(candidate.Start, candidate.End, candidate.ClassroomID, corpus, exclude); found {
		return &ConflictError{Start: candidate.Start, End: candidate.End, Existing: existing}
	}
	return nil
}
