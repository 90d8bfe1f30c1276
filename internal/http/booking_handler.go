package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

type bookingService interface {
	GetBooking(ctx context.Context, principal application.Principal, id string) (booking.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]booking.Booking, []application.DoubleBookingWarning, error)
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.MutationResult, error)
	EditBooking(ctx context.Context, params application.EditBookingParams) (application.MutationResult, error)
	MoveBooking(ctx context.Context, params application.MoveBookingParams) (application.MutationResult, error)
	ResizeBooking(ctx context.Context, params application.ResizeBookingParams) (application.MutationResult, error)
	DeleteBooking(ctx context.Context, params application.DeleteBookingParams) (application.MutationResult, error)
}

// BookingHandler serves the booking endpoints of the weekly grid.
type BookingHandler struct {
	service   bookingService
	loc       *time.Location
	responder responder
	logger    *slog.Logger
}

// NewBookingHandler builds a handler that reads and writes wall-clock times
// in loc.
func NewBookingHandler(service bookingService, loc *time.Location, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	if loc == nil {
		loc = time.Local
	}
	return &BookingHandler{service: service, loc: loc, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, fieldErrs := h.buildListParams(r.URL.Query(), principal)
	if len(fieldErrs) > 0 {
		h.responder.writeValidation(r.Context(), w, fieldErrs)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "classroom_id", params.ClassroomID)
	bookings, warnings, err := h.service.ListBookings(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).DebugContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{
		Bookings: toBookingDTOs(bookings),
		Warnings: toWarningDTOs(warnings),
	})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := bookingIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	b, err := h.service.GetBooking(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(b)})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, fieldErrs := req.toInput(h.loc)
	if len(fieldErrs) > 0 {
		h.responder.writeValidation(r.Context(), w, fieldErrs)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "classroom_id", input.ClassroomID)
	result, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("created", len(result.Created)).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMutationResponse(result))
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := bookingIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}
	scope, ok := parseScope(r.URL.Query().Get("scope"))
	if !ok {
		h.responder.writeValidation(r.Context(), w, map[string]string{"scope": "scope must be instance or series"})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	input, fieldErrs := req.toInput(h.loc)
	if len(fieldErrs) > 0 {
		h.responder.writeValidation(r.Context(), w, fieldErrs)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", id, "scope", string(scope))
	result, err := h.service.EditBooking(r.Context(), application.EditBookingParams{
		Principal: principal,
		BookingID: id,
		Scope:     scope,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMutationResponse(result))
}

func (h *BookingHandler) Move(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := bookingIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	start, err := parseWallClock(req.Start, h.loc)
	if err != nil {
		h.responder.writeValidation(r.Context(), w, map[string]string{"start": err.Error()})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.MoveBooking(r.Context(), application.MoveBookingParams{
		Principal: principal,
		BookingID: id,
		Start:     start,
	})
	if err != nil {
		h.log(r.Context(), "Move", "principal_id", principal.UserID, "booking_id", id).
			ErrorContext(r.Context(), "booking move failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMutationResponse(result))
}

func (h *BookingHandler) Resize(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := bookingIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	end, err := parseWallClock(req.End, h.loc)
	if err != nil {
		h.responder.writeValidation(r.Context(), w, map[string]string{"end": err.Error()})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.ResizeBooking(r.Context(), application.ResizeBookingParams{
		Principal: principal,
		BookingID: id,
		End:       end,
	})
	if err != nil {
		h.log(r.Context(), "Resize", "principal_id", principal.UserID, "booking_id", id).
			ErrorContext(r.Context(), "booking resize failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMutationResponse(result))
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	id, ok := bookingIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}
	scope, ok := parseScope(r.URL.Query().Get("scope"))
	if !ok {
		h.responder.writeValidation(r.Context(), w, map[string]string{"scope": "scope must be instance or series"})
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", id, "scope", string(scope))
	result, err := h.service.DeleteBooking(r.Context(), application.DeleteBookingParams{
		Principal: principal,
		BookingID: id,
		Scope:     scope,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed", len(result.Removed)).InfoContext(r.Context(), "booking deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMutationResponse(result))
}

func (h *BookingHandler) buildListParams(values url.Values, principal application.Principal) (application.ListBookingsParams, map[string]string) {
	params := application.ListBookingsParams{
		Principal:   principal,
		ClassroomID: strings.TrimSpace(values.Get("classroom_id")),
		Period:      application.ListPeriod(strings.ToLower(strings.TrimSpace(values.Get("period")))),
	}
	fieldErrs := map[string]string{}

	if from, err := parseWallClock(values.Get("from"), h.loc); err != nil {
		fieldErrs["from"] = err.Error()
	} else if !from.IsZero() {
		params.From = &from
	}
	if to, err := parseWallClock(values.Get("to"), h.loc); err != nil {
		fieldErrs["to"] = err.Error()
	} else if !to.IsZero() {
		params.To = &to
	}

	if params.Period != application.ListPeriodNone {
		reference, err := parseDate(values.Get("date"), h.loc)
		switch {
		case err != nil:
			fieldErrs["date"] = err.Error()
		case reference.IsZero():
			params.PeriodReference = time.Now().In(h.loc)
		default:
			params.PeriodReference = reference
		}
	}
	return params, fieldErrs
}

func bookingIDParam(r *http.Request) (string, bool) {
	id := strings.TrimSpace(httprouter.ParamsFromContext(r.Context()).ByName("id"))
	return id, id != ""
}

func parseScope(value string) (scheduler.Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "instance", "single":
		return scheduler.ScopeSingle, true
	case "series":
		return scheduler.ScopeSeries, true
	}
	return "", false
}

type bookingRequest struct {
	ClassroomID     string `json:"classroom_id"`
	Title           string `json:"title"`
	Organizer       string `json:"organizer"`
	Description     string `json:"description"`
	Start           string `json:"start"`
	End             string `json:"end"`
	Kind            string `json:"kind"`
	RecurrenceUntil string `json:"recurrence_until"`
}

func (r bookingRequest) toInput(loc *time.Location) (application.BookingInput, map[string]string) {
	fieldErrs := map[string]string{}
	input := application.BookingInput{
		ClassroomID: strings.TrimSpace(r.ClassroomID),
		Title:       strings.TrimSpace(r.Title),
		Organizer:   strings.TrimSpace(r.Organizer),
		Description: strings.TrimSpace(r.Description),
	}

	var err error
	if input.Start, err = parseWallClock(r.Start, loc); err != nil {
		fieldErrs["start"] = err.Error()
	}
	if input.End, err = parseWallClock(r.End, loc); err != nil {
		fieldErrs["end"] = err.Error()
	}
	if strings.TrimSpace(r.Kind) != "" {
		kind, err := booking.ParseKind(r.Kind)
		if err != nil {
			fieldErrs["kind"] = "kind must be one_time, recurring_weekly or recurring_weekday"
		}
		input.Kind = kind
	}
	if until, err := parseDate(r.RecurrenceUntil, loc); err != nil {
		fieldErrs["recurrence_until"] = err.Error()
	} else if !until.IsZero() {
		input.RecurrenceUntil = &until
	}
	return input, fieldErrs
}

type moveRequest struct {
	Start string `json:"start"`
}

type resizeRequest struct {
	End string `json:"end"`
}

type bookingDTO struct {
	ID          string `json:"id"`
	ClassroomID string `json:"classroom_id"`
	Title       string `json:"title"`
	Organizer   string `json:"organizer,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Kind        string `json:"kind"`
	SeriesID    string `json:"series_id,omitempty"`
	OwnerID     string `json:"owner_id"`
	Color       string `json:"color,omitempty"`
}

func toBookingDTO(b booking.Booking) bookingDTO {
	return bookingDTO{
		ID:          b.ID,
		ClassroomID: b.ClassroomID,
		Title:       b.Title,
		Organizer:   b.Organizer,
		Description: b.Description,
		Start:       formatWallClock(b.Start),
		End:         formatWallClock(b.End),
		Kind:        string(b.Kind),
		SeriesID:    b.SeriesID,
		OwnerID:     b.OwnerID,
		Color:       b.Color,
	}
}

func toBookingDTOs(bookings []booking.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type warningDTO struct {
	ClassroomID string    `json:"classroom_id"`
	BookingIDs  [2]string `json:"booking_ids"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
}

func toWarningDTOs(warnings []application.DoubleBookingWarning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]warningDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, warningDTO{
			ClassroomID: w.ClassroomID,
			BookingIDs:  w.BookingIDs,
			Start:       formatWallClock(w.Start),
			End:         formatWallClock(w.End),
		})
	}
	return out
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
	Warnings []warningDTO `json:"warnings,omitempty"`
}

type mutationResponse struct {
	Created   []bookingDTO `json:"created"`
	Updated   []bookingDTO `json:"updated"`
	Removed   []string     `json:"removed"`
	Truncated bool         `json:"truncated,omitempty"`
}

func toMutationResponse(result application.MutationResult) mutationResponse {
	removed := make([]string, 0, len(result.Removed))
	for _, b := range result.Removed {
		removed = append(removed, b.ID)
	}
	return mutationResponse{
		Created:   toBookingDTOs(result.Created),
		Updated:   toBookingDTOs(result.Updated),
		Removed:   removed,
		Truncated: result.Truncated,
	}
}
