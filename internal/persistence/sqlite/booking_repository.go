package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/classroom-scheduler/internal/persistence"
)

const bookingColumns = `id, classroom_id, title, organizer, description, start_time, end_time,
	kind, series_id, owner_id, color, created_at, updated_at`

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool  *ConnectionPool
	retry RetryConfig
}

// NewBookingRepository creates a SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool, retry: DefaultRetryConfig()}
}

// ListBookings returns bookings overlapping the filter window ordered by start time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.ClassroomID != "" {
		clauses = append(clauses, "classroom_id = ?")
		args = append(args, filter.ClassroomID)
	}
	if filter.From != nil {
		clauses = append(clauses, "end_time > ?")
		args = append(args, r.pool.formatWallClock(*filter.From))
	}
	if filter.To != nil {
		clauses = append(clauses, "start_time < ?")
		args = append(args, r.pool.formatWallClock(*filter.To))
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

// CreateBookings inserts all bookings in one transaction.
func (r *BookingRepository) CreateBookings(ctx context.Context, bookings []persistence.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	return withRetry(ctx, r.retry, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, "INSERT INTO bookings ("+bookingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			if err != nil {
				return mapError(err)
			}
			defer stmt.Close()

			for _, b := range bookings {
				if b.ID == "" {
					return persistence.ErrConstraintViolation
				}
				if _, err := stmt.ExecContext(ctx, r.bookingArgs(b)...); err != nil {
					return fmt.Errorf("insert booking %s: %w", b.ID, mapError(err))
				}
			}
			return nil
		})
	})
}

// UpdateBooking replaces an existing booking. Owner and created_at are left as stored.
func (r *BookingRepository) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	return withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE bookings
			SET classroom_id = ?, title = ?, organizer = ?, description = ?, start_time = ?, end_time = ?,
				kind = ?, series_id = ?, color = ?, updated_at = ?
			WHERE id = ?`,
			b.ClassroomID,
			b.Title,
			b.Organizer,
			b.Description,
			r.pool.formatWallClock(b.Start),
			r.pool.formatWallClock(b.End),
			b.Kind,
			nullableString(b.SeriesID),
			b.Color,
			formatTimestamp(b.UpdatedAt),
			b.ID,
		)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(result)
	})
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	return withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(result)
	})
}

// DeleteBookingSeries removes every booking in a series.
func (r *BookingRepository) DeleteBookingSeries(ctx context.Context, seriesID string) (int, error) {
	if seriesID == "" {
		return 0, nil
	}

	var removed int64
	err := withRetry(ctx, r.retry, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM bookings WHERE series_id = ?`, seriesID)
		if err != nil {
			return mapError(err)
		}
		removed, err = result.RowsAffected()
		return err
	})
	return int(removed), err
}

func (r *BookingRepository) bookingArgs(b persistence.Booking) []any {
	return []any{
		b.ID,
		b.ClassroomID,
		b.Title,
		b.Organizer,
		b.Description,
		r.pool.formatWallClock(b.Start),
		r.pool.formatWallClock(b.End),
		b.Kind,
		nullableString(b.SeriesID),
		b.OwnerID,
		b.Color,
		formatTimestamp(b.CreatedAt),
		formatTimestamp(b.UpdatedAt),
	}
}

func (r *BookingRepository) scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b                    persistence.Booking
		start, end           string
		seriesID             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&b.ID,
		&b.ClassroomID,
		&b.Title,
		&b.Organizer,
		&b.Description,
		&start,
		&end,
		&b.Kind,
		&seriesID,
		&b.OwnerID,
		&b.Color,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, mapError(err)
	}

	var err error
	if b.Start, err = r.pool.parseWallClock(start); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if b.End, err = r.pool.parseWallClock(end); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if b.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	b.SeriesID = seriesID.String
	return b, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
