package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/classroom-scheduler/internal/booking"
	"github.com/example/classroom-scheduler/internal/persistence"
)

// ClassroomStore captures the catalog operations needed by the service.
type ClassroomStore interface {
	FetchClassrooms(ctx context.Context) ([]booking.Classroom, error)
	GetClassroom(ctx context.Context, id string) (booking.Classroom, error)
	AddClassroom(ctx context.Context, classroom booking.Classroom) (booking.Classroom, error)
	UpdateClassroom(ctx context.Context, classroom booking.Classroom) (booking.Classroom, error)
	// DeleteClassroom removes the classroom and every booking referencing it.
	DeleteClassroom(ctx context.Context, id string) error
}

// ProjectionPruner drops cached bookings of a deleted classroom.
type ProjectionPruner interface {
	ForgetClassroom(ctx context.Context, classroomID string) int
}

// ClassroomService orchestrates validation, authorization, and persistence for classrooms.
type ClassroomService struct {
	classrooms  ClassroomStore
	projection  ProjectionPruner
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClassroomService constructs a classroom service with the provided dependencies.
func NewClassroomService(classrooms ClassroomStore, projection ProjectionPruner, idGenerator func() string, now func() time.Time) *ClassroomService {
	return NewClassroomServiceWithLogger(classrooms, projection, idGenerator, now, nil)
}

// NewClassroomServiceWithLogger constructs a classroom service with a specified logger.
func NewClassroomServiceWithLogger(classrooms ClassroomStore, projection ProjectionPruner, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClassroomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClassroomService{
		classrooms:  classrooms,
		projection:  projection,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ClassroomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClassroomService", operation, attrs...)
}

// GetClassroom returns one classroom. It satisfies ClassroomLookup for the
// booking service.
func (s *ClassroomService) GetClassroom(ctx context.Context, id string) (booking.Classroom, error) {
	if s == nil || s.classrooms == nil {
		return booking.Classroom{}, fmt.Errorf("classroom store not configured")
	}
	classroom, err := s.classrooms.GetClassroom(ctx, id)
	if err != nil {
		return booking.Classroom{}, mapClassroomStoreError(err)
	}
	return classroom, nil
}

// CreateClassroom validates input and adds a classroom for administrators.
func (s *ClassroomService) CreateClassroom(ctx context.Context, params CreateClassroomParams) (classroom booking.Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("ClassroomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateClassroom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create classroom", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("classroom_id", classroom.ID).InfoContext(ctx, "classroom created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateClassroomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	classroom = booking.Classroom{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Location:  strings.TrimSpace(params.Input.Location),
		Capacity:  params.Input.Capacity,
		CreatedAt: s.now(),
	}
	classroom.UpdatedAt = classroom.CreatedAt

	if s.classrooms == nil {
		return
	}

	var persisted booking.Classroom
	persisted, err = s.classrooms.AddClassroom(ctx, classroom)
	if err != nil {
		err = mapClassroomStoreError(err)
		return
	}

	classroom = persisted
	return
}

// UpdateClassroom validates input and updates an existing classroom for administrators.
func (s *ClassroomService) UpdateClassroom(ctx context.Context, params UpdateClassroomParams) (classroom booking.Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("ClassroomService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.classrooms == nil {
		err = fmt.Errorf("classroom store not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateClassroom",
		"principal_id", params.Principal.UserID,
		"classroom_id", params.ClassroomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update classroom", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "classroom updated")
	}()

	var existing booking.Classroom
	existing, err = s.classrooms.GetClassroom(ctx, params.ClassroomID)
	if err != nil {
		err = mapClassroomStoreError(err)
		return
	}

	vErr := validateClassroomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Location = strings.TrimSpace(params.Input.Location)
	updated.Capacity = params.Input.Capacity
	updated.UpdatedAt = s.now()

	classroom, err = s.classrooms.UpdateClassroom(ctx, updated)
	if err != nil {
		err = mapClassroomStoreError(err)
	}
	return
}

// DeleteClassroom removes a classroom and, through the store's cascade, all
// of its bookings. The booking projection is pruned to match.
func (s *ClassroomService) DeleteClassroom(ctx context.Context, principal Principal, classroomID string) error {
	if s == nil {
		return fmt.Errorf("ClassroomService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.classrooms == nil {
		return fmt.Errorf("classroom store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteClassroom",
		"principal_id", principal.UserID,
		"classroom_id", classroomID,
	)

	if err := s.classrooms.DeleteClassroom(ctx, classroomID); err != nil {
		err = mapClassroomStoreError(err)
		logger.ErrorContext(ctx, "failed to delete classroom", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	dropped := 0
	if s.projection != nil {
		dropped = s.projection.ForgetClassroom(ctx, classroomID)
	}
	logger.InfoContext(ctx, "classroom deleted", "bookings_removed", dropped)
	return nil
}

// ListClassrooms returns the catalog for any authenticated user.
func (s *ClassroomService) ListClassrooms(ctx context.Context, principal Principal) (classrooms []booking.Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("ClassroomService is nil")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.classrooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListClassrooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list classrooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(classrooms)).DebugContext(ctx, "classrooms listed")
	}()

	var raw []booking.Classroom
	raw, err = s.classrooms.FetchClassrooms(ctx)
	if err != nil {
		return
	}

	classrooms = make([]booking.Classroom, len(raw))
	copy(classrooms, raw)

	sort.Slice(classrooms, func(i, j int) bool {
		if strings.EqualFold(classrooms[i].Name, classrooms[j].Name) {
			return classrooms[i].ID < classrooms[j].ID
		}
		return strings.ToLower(classrooms[i].Name) < strings.ToLower(classrooms[j].Name)
	})
	return
}

// SeedClassrooms adds classrooms that are not yet in the catalog. Existing
// entries are left untouched so a seed file can be applied on every start.
func (s *ClassroomService) SeedClassrooms(ctx context.Context, seeds []booking.Classroom) (added int, err error) {
	if s == nil || s.classrooms == nil {
		return 0, fmt.Errorf("classroom store not configured")
	}

	logger := s.loggerWith(ctx, "SeedClassrooms")
	for _, seed := range seeds {
		input := ClassroomInput{Name: seed.Name, Location: seed.Location, Capacity: seed.Capacity}
		if vErr := validateClassroomInput(input); vErr.HasErrors() {
			return added, fmt.Errorf("classroom %q: %w", seed.ID, vErr)
		}
		if strings.TrimSpace(seed.ID) == "" {
			seed.ID = s.idGenerator()
		}
		if seed.CreatedAt.IsZero() {
			seed.CreatedAt = s.now()
		}
		seed.UpdatedAt = seed.CreatedAt

		if _, err := s.classrooms.AddClassroom(ctx, seed); err != nil {
			if errors.Is(mapClassroomStoreError(err), ErrAlreadyExists) {
				continue
			}
			return added, err
		}
		added++
	}
	logger.InfoContext(ctx, "classrooms seeded", "requested", len(seeds), "added", added)
	return added, nil
}

func validateClassroomInput(input ClassroomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity < 0 {
		vErr.add("capacity", "capacity must not be negative")
	}

	return vErr
}

func mapClassroomStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must not be negative")
		return vErr
	}
	return err
}
