package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/config"
	httptransport "github.com/example/classroom-scheduler/internal/http"
	"github.com/example/classroom-scheduler/internal/logging"
	"github.com/example/classroom-scheduler/internal/recurrence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

const refreshTimeout = 30 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		if err := issueToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", "scheduler").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, "scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Error("failed to close store", "error", cerr)
		}
	}()

	svc.cron.Start()
	defer func() {
		<-svc.cron.Stop().Done()
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// service is the wired application: HTTP handler, the booking projection and
// the cron scheduler that keeps it fresh.
type service struct {
	handler    http.Handler
	bookings   *application.BookingService
	classrooms *application.ClassroomService
	cron       *cron.Cron
	backend    *backend
}

func newService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*service, error) {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	svc, err := wire(ctx, cfg, backend, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return svc, nil
}

func wire(ctx context.Context, cfg config.Config, backend *backend, logger *slog.Logger) (*service, error) {
	now := time.Now

	bookingStore := newBookingStoreAdapter(backend.bookings, now)
	classroomStore := newClassroomStoreAdapter(backend.classrooms)

	engine := recurrence.NewEngine(
		recurrence.WithMaxSpan(cfg.MaxSeriesSpan),
		recurrence.WithLogger(logger),
	)
	resolver := scheduler.NewResolver(engine, uuid.NewString)

	bookingService := application.NewBookingServiceWithLogger(bookingStore, classroomStore, resolver, now, logger)
	classroomService := application.NewClassroomServiceWithLogger(classroomStore, bookingService, uuid.NewString, now, logger)

	if cfg.ClassroomsFile != "" {
		seeds, err := config.LoadClassrooms(cfg.ClassroomsFile)
		if err != nil {
			return nil, err
		}
		added, err := classroomService.SeedClassrooms(ctx, seeds)
		if err != nil {
			return nil, fmt.Errorf("seed classrooms: %w", err)
		}
		logger.Info("classroom seed applied", "file", cfg.ClassroomsFile, "added", added)
	}

	if err := bookingService.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	verifier, err := backend.verifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	refresher := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := refresher.AddFunc(cfg.RefreshSchedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := bookingService.Refresh(refreshCtx); err != nil {
			logger.Error("scheduled refresh failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule refresh %q: %w", cfg.RefreshSchedule, err)
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Classrooms:   httptransport.NewClassroomHandler(classroomService, logger),
		Bookings:     httptransport.NewBookingHandler(bookingService, cfg.Location, logger),
		Calendar:     httptransport.NewCalendarHandler(classroomService, bookingService, now, logger),
		Verifier:     verifier,
		WriteLimiter: rate.NewLimiter(rate.Limit(cfg.WriteRateLimit), cfg.WriteBurst),
		Logger:       logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	return &service{
		handler:    handler,
		bookings:   bookingService,
		classrooms: classroomService,
		cron:       refresher,
		backend:    backend,
	}, nil
}

func (s *service) Close() error {
	return s.backend.Close()
}
