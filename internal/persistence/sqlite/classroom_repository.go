package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// ClassroomRepository implements persistence.ClassroomRepository using SQLite.
type ClassroomRepository struct {
	pool *ConnectionPool
}

// NewClassroomRepository creates a SQLite classroom repository.
func NewClassroomRepository(pool *ConnectionPool) *ClassroomRepository {
	return &ClassroomRepository{pool: pool}
}

// CreateClassroom inserts a new classroom.
func (r *ClassroomRepository) CreateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	if classroom.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO classrooms (id, name, location, capacity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		classroom.ID,
		classroom.Name,
		classroom.Location,
		classroom.Capacity,
		formatTimestamp(classroom.CreatedAt),
		formatTimestamp(classroom.UpdatedAt),
	)
	return mapError(err)
}

// UpdateClassroom updates an existing classroom.
func (r *ClassroomRepository) UpdateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE classrooms
		SET name = ?, location = ?, capacity = ?, updated_at = ?
		WHERE id = ?`,
		classroom.Name,
		classroom.Location,
		classroom.Capacity,
		formatTimestamp(classroom.UpdatedAt),
		classroom.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetClassroom retrieves a classroom by ID.
func (r *ClassroomRepository) GetClassroom(ctx context.Context, id string) (persistence.Classroom, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, name, location, capacity, created_at, updated_at
		FROM classrooms
		WHERE id = ?`, id)
	return scanClassroom(row)
}

// ListClassrooms returns all classrooms ordered by name then ID.
func (r *ClassroomRepository) ListClassrooms(ctx context.Context) ([]persistence.Classroom, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, name, location, capacity, created_at, updated_at
		FROM classrooms
		ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var classrooms []persistence.Classroom
	for rows.Next() {
		classroom, err := scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return classrooms, nil
}

// DeleteClassroom removes a classroom together with its bookings.
func (r *ClassroomRepository) DeleteClassroom(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE classroom_id = ?`, id); err != nil {
			return mapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM classrooms WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(result)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassroom(row rowScanner) (persistence.Classroom, error) {
	var (
		classroom            persistence.Classroom
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&classroom.ID,
		&classroom.Name,
		&classroom.Location,
		&classroom.Capacity,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Classroom{}, mapError(err)
	}

	var err error
	if classroom.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Classroom{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if classroom.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Classroom{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return classroom, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
