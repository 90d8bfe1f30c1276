package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

// BookingStore captures the persistence operations needed by the service.
type BookingStore interface {
	FetchBookings(ctx context.Context, from, to *time.Time) ([]booking.Booking, error)
	CreateBookings(ctx context.Context, bookings []booking.Booking) ([]booking.Booking, error)
	UpdateBooking(ctx context.Context, b booking.Booking) (booking.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	DeleteBookingSeries(ctx context.Context, seriesID string) error
}

// ClassroomLookup resolves classroom identifiers.
type ClassroomLookup interface {
	GetClassroom(ctx context.Context, id string) (booking.Classroom, error)
}

// BookingService owns the in-memory booking projection for this process. It
// resolves every mutation against the projection, applies the result
// optimistically and restores the previous snapshot when the store rejects
// the write.
//
// Writes are serialized within the process. Other processes writing to the
// same store are not coordinated with: two of them can both pass the local
// conflict check and double-book a classroom. Refresh narrows that window and
// reports any double bookings it finds.
type BookingService struct {
	store      BookingStore
	classrooms ClassroomLookup
	resolver   *scheduler.Resolver
	now        func() time.Time
	logger     *slog.Logger
	warnings   *warningCache

	writeMu sync.Mutex

	mu     sync.RWMutex
	corpus []booking.Booking
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(store BookingStore, classrooms ClassroomLookup, resolver *scheduler.Resolver, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(store, classrooms, resolver, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(store BookingStore, classrooms ClassroomLookup, resolver *scheduler.Resolver, now func() time.Time, logger *slog.Logger) *BookingService {
	if resolver == nil {
		resolver = scheduler.NewResolver(nil, nil)
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		store:      store,
		classrooms: classrooms,
		resolver:   resolver,
		now:        now,
		logger:     defaultLogger(logger),
		warnings:   newWarningCache(time.Minute, 64, now),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// Refresh replaces the projection with the store's current contents.
func (s *BookingService) Refresh(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("booking store not configured")
	}

	logger := s.loggerWith(ctx, "Refresh")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var fetched []booking.Booking
	fetched, err = s.store.FetchBookings(ctx, nil, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to refresh bookings", "error", err)
		return &PersistenceError{Op: "refresh", Err: err}
	}

	booking.SortByStart(fetched)
	s.swap(fetched)

	doubles := scheduler.FindDoubleBookings(fetched)
	for _, pair := range doubles {
		logger.WarnContext(ctx, "double booking detected",
			"classroom_id", pair.First.ClassroomID,
			"booking_id", pair.First.ID,
			"other_booking_id", pair.Second.ID,
		)
	}
	logger.InfoContext(ctx, "bookings refreshed", "result_count", len(fetched), "double_bookings", len(doubles))
	return nil
}

// Snapshot returns a copy of the current projection.
func (s *BookingService) Snapshot() []booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return booking.Clone(s.corpus)
}

// GetBooking returns one booking from the projection.
func (s *BookingService) GetBooking(ctx context.Context, principal Principal, id string) (booking.Booking, error) {
	if s == nil {
		return booking.Booking{}, fmt.Errorf("BookingService is nil")
	}
	if principal.UserID == "" {
		return booking.Booking{}, ErrUnauthorized
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := booking.Find(s.corpus, id)
	if !ok {
		return booking.Booking{}, ErrNotFound
	}
	return b, nil
}

// ListBookings returns projection bookings overlapping the requested window,
// plus warnings for any double bookings among them.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (bookings []booking.Booking, warnings []DoubleBookingWarning, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	from, to := params.From, params.To
	if params.Period != ListPeriodNone {
		start, end, ok := computePeriodRange(params.Period, params.PeriodReference)
		if !ok {
			vErr := &ValidationError{}
			vErr.add("period", "period must be day or week")
			err = vErr
			return
		}
		if from == nil {
			from = &start
		}
		if to == nil {
			to = &end
		}
	}
	if from != nil && to != nil && !from.Before(*to) {
		vErr := &ValidationError{}
		vErr.add("to", "end of range must be after its start")
		err = vErr
		return
	}

	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.UserID,
		"classroom_id", params.ClassroomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings), "warning_count", len(warnings)).DebugContext(ctx, "bookings listed")
	}()

	// Warnings are cached under the read lock; swap invalidates under the write lock.
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.corpus {
		if params.ClassroomID != "" && b.ClassroomID != params.ClassroomID {
			continue
		}
		if from != nil && !b.End.After(*from) {
			continue
		}
		if to != nil && !b.Start.Before(*to) {
			continue
		}
		bookings = append(bookings, b)
	}

	key := buildWarningCacheKey(params.ClassroomID, from, to)
	if cached, ok := s.warnings.Get(key); ok {
		warnings = cached
		return
	}
	for _, pair := range scheduler.FindDoubleBookings(bookings) {
		warnings = append(warnings, toDoubleBookingWarning(pair))
	}
	s.warnings.Store(key, warnings)
	return
}

// CreateBooking creates a standalone booking or, when a recurring kind is
// requested, a whole series.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (MutationResult, error) {
	req := scheduler.Request{
		Action:     scheduler.ActionCreate,
		Actor:      params.Principal.actor(),
		Start:      params.Input.Start,
		End:        params.Input.End,
		Details:    toDetails(params.Input),
		Recurrence: toRecurrence(params.Input),
	}
	if err := s.ensureClassroom(ctx, params.Input.ClassroomID); err != nil {
		return MutationResult{}, err
	}
	return s.apply(ctx, req)
}

// EditBooking edits the addressed instance or, with series scope, every
// instance of its series.
func (s *BookingService) EditBooking(ctx context.Context, params EditBookingParams) (MutationResult, error) {
	action := scheduler.ActionEditInstance
	if params.Scope == scheduler.ScopeSeries {
		action = scheduler.ActionEditSeries
	}
	req := scheduler.Request{
		Action:     action,
		Actor:      params.Principal.actor(),
		TargetID:   params.BookingID,
		Start:      params.Input.Start,
		End:        params.Input.End,
		Details:    toDetails(params.Input),
		Recurrence: toRecurrence(params.Input),
	}
	if params.Input.ClassroomID != "" {
		if err := s.ensureClassroom(ctx, params.Input.ClassroomID); err != nil {
			return MutationResult{}, err
		}
	}
	return s.apply(ctx, req)
}

// MoveBooking moves one booking to a new start, keeping its duration.
func (s *BookingService) MoveBooking(ctx context.Context, params MoveBookingParams) (MutationResult, error) {
	return s.apply(ctx, scheduler.Request{
		Action:   scheduler.ActionMove,
		Actor:    params.Principal.actor(),
		TargetID: params.BookingID,
		Start:    params.Start,
	})
}

// ResizeBooking changes one booking's end time.
func (s *BookingService) ResizeBooking(ctx context.Context, params ResizeBookingParams) (MutationResult, error) {
	return s.apply(ctx, scheduler.Request{
		Action:   scheduler.ActionResize,
		Actor:    params.Principal.actor(),
		TargetID: params.BookingID,
		End:      params.End,
	})
}

// DeleteBooking removes one booking or, with series scope, its whole series.
// Deleting something already gone succeeds without changes.
func (s *BookingService) DeleteBooking(ctx context.Context, params DeleteBookingParams) (MutationResult, error) {
	action := scheduler.ActionDeleteInstance
	if params.Scope == scheduler.ScopeSeries {
		action = scheduler.ActionDeleteSeries
	}
	return s.apply(ctx, scheduler.Request{
		Action:   action,
		Actor:    params.Principal.actor(),
		TargetID: params.BookingID,
	})
}

// ForgetClassroom drops every projected booking of a deleted classroom. The
// store cascades the deletion itself.
func (s *BookingService) ForgetClassroom(ctx context.Context, classroomID string) int {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.Snapshot()
	kept := current[:0:0]
	for _, b := range current {
		if b.ClassroomID != classroomID {
			kept = append(kept, b)
		}
	}
	s.swap(kept)

	dropped := len(current) - len(kept)
	s.loggerWith(ctx, "ForgetClassroom", "classroom_id", classroomID).
		InfoContext(ctx, "classroom bookings dropped", "result_count", dropped)
	return dropped
}

func (s *BookingService) apply(ctx context.Context, req scheduler.Request) (result MutationResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("booking store not configured")
		return
	}

	logger := s.loggerWith(ctx, string(req.Action),
		"principal_id", req.Actor.UserID,
		"booking_id", req.TargetID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking operation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"created", len(result.Created),
			"updated", len(result.Updated),
			"removed", len(result.Removed),
		).InfoContext(ctx, "booking operation applied")
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := s.Snapshot()
	plan, resolveErr := s.resolver.Resolve(req, snapshot)
	if resolveErr != nil {
		err = mapSchedulerError(resolveErr)
		return
	}
	if plan.Truncated {
		logger.WarnContext(ctx, "series truncated at the span cap", "created", len(plan.Created))
	}
	if plan.Empty() {
		return
	}

	// Optimistic: the projection reflects the plan before the store confirms.
	s.swap(plan.ApplyTo(snapshot))

	if persistErr := s.persist(ctx, logger, plan); persistErr != nil {
		s.swap(snapshot)
		err = &PersistenceError{Op: string(req.Action), Err: persistErr}
		return
	}

	result = MutationResult{
		Created:   plan.Created,
		Updated:   plan.Updated,
		Removed:   plan.Removed,
		Truncated: plan.Truncated,
	}
	return
}

// persist writes a plan to the store. Removals go first so a replacement
// series never collides with the series it replaces. When the creation step
// fails after a removal, the removed bookings are re-inserted.
func (s *BookingService) persist(ctx context.Context, logger *slog.Logger, plan scheduler.Plan) error {
	switch {
	case plan.RemovedSeriesID != "":
		if err := s.store.DeleteBookingSeries(ctx, plan.RemovedSeriesID); err != nil {
			return err
		}
	default:
		for _, b := range plan.Removed {
			if err := s.store.DeleteBooking(ctx, b.ID); err != nil && !isNotFound(err) {
				return err
			}
		}
	}

	for _, b := range plan.Updated {
		if _, err := s.store.UpdateBooking(ctx, b); err != nil {
			return err
		}
	}

	if len(plan.Created) == 0 {
		return nil
	}
	if _, err := s.store.CreateBookings(ctx, plan.Created); err != nil {
		if len(plan.Removed) > 0 {
			if _, restoreErr := s.store.CreateBookings(ctx, plan.Removed); restoreErr != nil {
				logger.ErrorContext(ctx, "failed to restore removed bookings",
					"error", restoreErr,
					"removed", len(plan.Removed),
				)
				return errors.Join(err, restoreErr)
			}
		}
		return err
	}
	return nil
}

func (s *BookingService) swap(corpus []booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = corpus
	s.warnings.Invalidate()
}

func (s *BookingService) ensureClassroom(ctx context.Context, classroomID string) error {
	if s.classrooms == nil || strings.TrimSpace(classroomID) == "" {
		return nil
	}
	_, err := s.classrooms.GetClassroom(ctx, classroomID)
	if isNotFound(err) {
		vErr := &ValidationError{}
		vErr.add("classroom_id", "classroom does not exist")
		return vErr
	}
	return err
}

// isNotFound treats a record that is already gone as deleted.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}

func toDetails(input BookingInput) scheduler.Details {
	return scheduler.Details{
		ClassroomID: input.ClassroomID,
		Title:       input.Title,
		Organizer:   input.Organizer,
		Description: input.Description,
	}
}

func toRecurrence(input BookingInput) *scheduler.Recurrence {
	if !input.Kind.Recurring() {
		return nil
	}
	rule := &scheduler.Recurrence{Kind: input.Kind}
	if input.RecurrenceUntil != nil {
		rule.Until = *input.RecurrenceUntil
	}
	return rule
}

func toDoubleBookingWarning(pair scheduler.DoubleBooking) DoubleBookingWarning {
	start, end := pair.Second.Start, pair.First.End
	if pair.Second.End.Before(end) {
		end = pair.Second.End
	}
	return DoubleBookingWarning{
		ClassroomID: pair.First.ClassroomID,
		BookingIDs:  [2]string{pair.First.ID, pair.Second.ID},
		Start:       start,
		End:         end,
	}
}

func mapSchedulerError(err error) error {
	switch {
	case errors.Is(err, scheduler.ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, scheduler.ErrTargetNotFound):
		return ErrNotFound
	case errors.Is(err, scheduler.ErrUnknownAction):
		vErr := &ValidationError{}
		vErr.add("action", "unsupported action")
		return vErr
	}

	var conflict *scheduler.ConflictError
	if errors.As(err, &conflict) {
		return &ConflictError{
			Start:         conflict.Start,
			End:           conflict.End,
			InstanceIndex: conflict.InstanceIndex,
			Existing:      conflict.Existing,
		}
	}

	var invalid *scheduler.InvalidRequestError
	if errors.As(err, &invalid) {
		message := invalid.Err.Error()
		if errors.Is(invalid.Err, scheduler.ErrMissingField) {
			message = invalid.Field + " is required"
		}
		vErr := &ValidationError{}
		vErr.add(invalid.Field, message)
		return vErr
	}
	return err
}

func computePeriodRange(period ListPeriod, reference time.Time) (time.Time, time.Time, bool) {
	switch period {
	case ListPeriodDay:
		start := booking.StartOfDay(reference)
		return start, start.AddDate(0, 0, 1), true
	case ListPeriodWeek:
		start := booking.StartOfWeek(reference)
		return start, start.AddDate(0, 0, 7), true
	}
	return time.Time{}, time.Time{}, false
}
