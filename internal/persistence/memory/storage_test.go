package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/classroom-scheduler/internal/persistence"
	"github.com/example/classroom-scheduler/internal/persistence/memory"
	"github.com/example/classroom-scheduler/internal/persistence/persistencetest"
)

func TestStorageContract(t *testing.T) {
	persistencetest.Run(t, func(t *testing.T) persistencetest.Store {
		return memory.New()
	})
}

func TestStorageRejectsUnknownClassroom(t *testing.T) {
	store := memory.New()
	err := store.CreateBookings(context.Background(), []persistence.Booking{persistencetest.Booking("b1", "nowhere", 0)})
	require.ErrorIs(t, err, persistence.ErrConstraintViolation)
}
