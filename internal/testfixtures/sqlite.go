package testfixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness exposes the repositories of a migrated SQLite database kept
// in a temporary directory.
type SQLiteHarness struct {
	Classrooms persistence.ClassroomRepository
	Bookings   persistence.BookingRepository
	Store      *sqlite.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a fresh database whose naive timestamps are read
// back in loc (UTC when nil). Close is also registered with tb.Cleanup.
func NewSQLiteHarness(tb testing.TB, loc *time.Location) *SQLiteHarness {
	tb.Helper()

	if loc == nil {
		loc = time.UTC
	}
	config := sqlite.DefaultConfig(filepath.Join(tb.TempDir(), "scheduler.db"))
	config.Location = loc

	store, err := sqlite.NewStore(context.Background(), config, nil)
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}

	harness := &SQLiteHarness{
		Classrooms: store,
		Bookings:   store,
		Store:      store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}
