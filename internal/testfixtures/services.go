package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/recurrence"
	"github.com/example/classroom-scheduler/internal/scheduler"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks. Booking and classroom ids come from
// separate generators so assertions stay readable.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	// MaxSeriesSpan caps generated series. Zero keeps the engine default.
	MaxSeriesSpan time.Duration
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("booking"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("booking")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to the services and the engine.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// WithMaxSeriesSpan overrides the series span cap.
func WithMaxSeriesSpan(span time.Duration) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.MaxSeriesSpan = span
	}
}

// NewResolver builds a resolver whose bookings and series draw ids from the
// factory generator.
func (f *ServiceFactory) NewResolver() *scheduler.Resolver {
	next := f.IDGenerator.NextFunc()
	opts := []recurrence.Option{recurrence.WithIDGenerator(next)}
	if f.MaxSeriesSpan > 0 {
		opts = append(opts, recurrence.WithMaxSpan(f.MaxSeriesSpan))
	}
	if f.Logger != nil {
		opts = append(opts, recurrence.WithLogger(f.Logger))
	}
	return scheduler.NewResolver(recurrence.NewEngine(opts...), next)
}

// NewBookingService builds a booking service over store. The caller is
// responsible for the initial Refresh.
func (f *ServiceFactory) NewBookingService(store application.BookingStore, classrooms application.ClassroomLookup) *application.BookingService {
	return application.NewBookingServiceWithLogger(store, classrooms, f.NewResolver(), f.Clock.NowFunc(), f.Logger)
}

// NewClassroomService builds a classroom service. Classroom ids use a
// "room" sequence independent of the booking generator.
func (f *ServiceFactory) NewClassroomService(store application.ClassroomStore, projection application.ProjectionPruner) *application.ClassroomService {
	return application.NewClassroomServiceWithLogger(store, projection, NewIDGenerator("room").NextFunc(), f.Clock.NowFunc(), f.Logger)
}
