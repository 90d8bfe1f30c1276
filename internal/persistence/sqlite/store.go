package sqlite

import (
	"context"
	"log/slog"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*ClassroomRepository
	*BookingRepository
	pool *ConnectionPool
}

// NewStore opens the database described by config and applies migrations.
func NewStore(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	pool, err := Open(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{
		ClassroomRepository: NewClassroomRepository(pool),
		BookingRepository:   NewBookingRepository(pool),
		pool:                pool,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
