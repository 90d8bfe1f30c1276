package http

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"github.com/example/classroom-scheduler/internal/identity"
)

type RouterConfig struct {
	Classrooms *ClassroomHandler
	Bookings   *BookingHandler
	Calendar   *CalendarHandler
	// Verifier authenticates every route except the health check.
	Verifier identity.Verifier
	// WriteLimiter throttles mutating requests when set.
	WriteLimiter *rate.Limiter
	Logger       *slog.Logger
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	responder := newResponder(cfg.Logger)

	requireIdentity := RequireIdentity(cfg.Verifier, cfg.Logger)
	limitWrites := LimitWrites(cfg.WriteLimiter, cfg.Logger)
	protect := func(h http.HandlerFunc) http.Handler {
		return requireIdentity(limitWrites(h))
	}

	router.HandlerFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Classrooms != nil {
		router.Handler(http.MethodGet, "/classrooms", protect(cfg.Classrooms.List))
		router.Handler(http.MethodPost, "/classrooms", protect(cfg.Classrooms.Create))
		router.Handler(http.MethodGet, "/classrooms/:id", protect(cfg.Classrooms.Get))
		router.Handler(http.MethodPut, "/classrooms/:id", protect(cfg.Classrooms.Update))
		router.Handler(http.MethodDelete, "/classrooms/:id", protect(cfg.Classrooms.Delete))
	}
	if cfg.Calendar != nil {
		router.Handler(http.MethodGet, "/classrooms/:id/calendar.ics", protect(cfg.Calendar.Export))
	}
	if cfg.Bookings != nil {
		router.Handler(http.MethodGet, "/bookings", protect(cfg.Bookings.List))
		router.Handler(http.MethodPost, "/bookings", protect(cfg.Bookings.Create))
		router.Handler(http.MethodGet, "/bookings/:id", protect(cfg.Bookings.Get))
		router.Handler(http.MethodPut, "/bookings/:id", protect(cfg.Bookings.Update))
		router.Handler(http.MethodDelete, "/bookings/:id", protect(cfg.Bookings.Delete))
		router.Handler(http.MethodPost, "/bookings/:id/move", protect(cfg.Bookings.Move))
		router.Handler(http.MethodPost, "/bookings/:id/resize", protect(cfg.Bookings.Resize))
	}

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
