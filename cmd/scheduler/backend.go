package main

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/example/classroom-scheduler/internal/config"
	"github.com/example/classroom-scheduler/internal/identity"
	"github.com/example/classroom-scheduler/internal/persistence"
	fsstore "github.com/example/classroom-scheduler/internal/persistence/firestore"
	"github.com/example/classroom-scheduler/internal/persistence/memory"
	"github.com/example/classroom-scheduler/internal/persistence/sqlite"
)

// backend is the store selected by SCHEDULER_STORE plus the Firebase app
// shared by the Firestore store and the Firebase verifier.
type backend struct {
	classrooms persistence.ClassroomRepository
	bookings   persistence.BookingRepository
	close      func() error

	firebaseApp *firebase.App
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	switch cfg.Store {
	case config.StoreMemory:
		storage := memory.New()
		b.classrooms, b.bookings, b.close = storage, storage, storage.Close
		logger.Warn("using in-memory store, bookings are lost on restart")

	case config.StoreSQLite:
		sqliteConfig := sqlite.DefaultConfig(cfg.SQLiteDSN)
		sqliteConfig.Location = cfg.Location
		store, err := sqlite.NewStore(ctx, sqliteConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.classrooms, b.bookings, b.close = store, store, store.Close

	case config.StoreFirestore:
		app, err := b.app(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore client: %w", err)
		}
		store := fsstore.New(client, cfg.Location)
		b.classrooms, b.bookings, b.close = store, store, store.Close

	default:
		return nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}

	logger.Info("store opened", "store", string(cfg.Store))
	return b, nil
}

// app initialises the Firebase app once. Credentials fall back to the
// application default credentials when no file is configured.
func (b *backend) app(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	if b.firebaseApp != nil {
		return b.firebaseApp, nil
	}
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase: %w", err)
	}
	b.firebaseApp = app
	return app, nil
}

func (b *backend) verifier(ctx context.Context, cfg config.Config, logger *slog.Logger) (identity.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthFirebase:
		app, err := b.app(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firebase auth client: %w", err)
		}
		return identity.NewFirebaseVerifier(client, logger), nil
	case config.AuthLocal:
		return identity.NewLocalVerifier(cfg.SessionSecret, cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}

func (b *backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}
