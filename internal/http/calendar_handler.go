package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/ics"
)

type classroomLookup interface {
	GetClassroom(ctx context.Context, id string) (booking.Classroom, error)
}

type bookingLister interface {
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]booking.Booking, []application.DoubleBookingWarning, error)
}

// CalendarHandler exports a classroom's bookings as iCalendar.
type CalendarHandler struct {
	classrooms classroomLookup
	bookings   bookingLister
	now        func() time.Time
	responder  responder
	logger     *slog.Logger
}

func NewCalendarHandler(classrooms classroomLookup, bookings bookingLister, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{classrooms: classrooms, bookings: bookings, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.classrooms == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	classroomID, ok := classroomIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClassroomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "CalendarHandler", "Export", "classroom_id", classroomID)

	classroom, err := h.classrooms.GetClassroom(r.Context(), classroomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	bookings, _, err := h.bookings.ListBookings(r.Context(), application.ListBookingsParams{
		Principal:   principal,
		ClassroomID: classroomID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	if err := ics.Export(&buf, classroom, bookings, h.now().UTC()); err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+classroomID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.WarnContext(r.Context(), "calendar write failed", "error", err)
		return
	}
	logger.With("result_count", len(bookings)).DebugContext(r.Context(), "calendar exported")
}
