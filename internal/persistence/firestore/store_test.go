package firestore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"

	"github.com/example/classroom-scheduler/internal/persistence/firestore"
	"github.com/example/classroom-scheduler/internal/persistence/persistencetest"
)

// The suite needs a Firestore emulator; the client picks up
// FIRESTORE_EMULATOR_HOST automatically.
func TestStoreContract(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	n := 0
	persistencetest.Run(t, func(t *testing.T) persistencetest.Store {
		n++
		// Separate projects keep the subtests isolated on one emulator.
		project := fmt.Sprintf("scheduler-test-%d-%d", time.Now().UnixNano(), n)
		client, err := gcfirestore.NewClient(context.Background(), project)
		require.NoError(t, err)
		store := firestore.New(client, time.UTC)
		t.Cleanup(func() { store.Close() })
		return store
	})
}
