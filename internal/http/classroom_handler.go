package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/booking"
)

type classroomService interface {
	GetClassroom(ctx context.Context, id string) (booking.Classroom, error)
	CreateClassroom(ctx context.Context, params application.CreateClassroomParams) (booking.Classroom, error)
	UpdateClassroom(ctx context.Context, params application.UpdateClassroomParams) (booking.Classroom, error)
	DeleteClassroom(ctx context.Context, principal application.Principal, classroomID string) error
	ListClassrooms(ctx context.Context, principal application.Principal) ([]booking.Classroom, error)
}

// ClassroomHandler serves the classroom catalog.
type ClassroomHandler struct {
	service   classroomService
	responder responder
	logger    *slog.Logger
}

func NewClassroomHandler(service classroomService, logger *slog.Logger) *ClassroomHandler {
	base := defaultLogger(logger)
	return &ClassroomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ClassroomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ClassroomHandler", operation, attrs...)
}

func (h *ClassroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req classroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode classroom request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	classroom, err := h.service.CreateClassroom(r.Context(), application.CreateClassroomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "classroom creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("classroom_id", classroom.ID).InfoContext(r.Context(), "classroom created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, classroomResponse{Classroom: toClassroomDTO(classroom)})
}

func (h *ClassroomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	classroomID, ok := classroomIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClassroomID)
		return
	}

	classroom, err := h.service.GetClassroom(r.Context(), classroomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classroomResponse{Classroom: toClassroomDTO(classroom)})
}

func (h *ClassroomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classroomID, ok := classroomIDParam(r)
	if !ok {
		h.log(r.Context(), "Update", "error_kind", "bad_request").WarnContext(r.Context(), "missing classroom id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClassroomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req classroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "classroom_id", classroomID)

	classroom, err := h.service.UpdateClassroom(r.Context(), application.UpdateClassroomParams{
		Principal:   principal,
		ClassroomID: classroomID,
		Input:       req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "classroom update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "classroom updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, classroomResponse{Classroom: toClassroomDTO(classroom)})
}

func (h *ClassroomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	classroomID, ok := classroomIDParam(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClassroomID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "classroom_id", classroomID)
	if err := h.service.DeleteClassroom(r.Context(), principal, classroomID); err != nil {
		logger.ErrorContext(r.Context(), "classroom delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "classroom deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ClassroomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	classrooms, err := h.service.ListClassrooms(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "classroom list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(classrooms)).DebugContext(r.Context(), "classrooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listClassroomsResponse{Classrooms: toClassroomDTOs(classrooms)})
}

func classroomIDParam(r *http.Request) (string, bool) {
	id := strings.TrimSpace(httprouter.ParamsFromContext(r.Context()).ByName("id"))
	return id, id != ""
}

type classroomRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func (r classroomRequest) toInput() application.ClassroomInput {
	return application.ClassroomInput{
		Name:     strings.TrimSpace(r.Name),
		Location: strings.TrimSpace(r.Location),
		Capacity: r.Capacity,
	}
}

type classroomResponse struct {
	Classroom classroomDTO `json:"classroom"`
}

type listClassroomsResponse struct {
	Classrooms []classroomDTO `json:"classrooms"`
}

type classroomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	Capacity  int    `json:"capacity"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toClassroomDTO(classroom booking.Classroom) classroomDTO {
	dto := classroomDTO{
		ID:       classroom.ID,
		Name:     classroom.Name,
		Location: classroom.Location,
		Capacity: classroom.Capacity,
	}
	if !classroom.CreatedAt.IsZero() {
		dto.CreatedAt = classroom.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !classroom.UpdatedAt.IsZero() {
		dto.UpdatedAt = classroom.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func toClassroomDTOs(classrooms []booking.Classroom) []classroomDTO {
	out := make([]classroomDTO, 0, len(classrooms))
	for _, classroom := range classrooms {
		out = append(out, toClassroomDTO(classroom))
	}
	return out
}
