package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
)

// ServiceFactory builds application services with deterministic identifiers
// and a controllable clock.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a factory at ReferenceTime with "id" prefixed
// identifiers.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithLogger sets the logger passed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// RosterServiceDeps captures the repositories of a roster service.
type RosterServiceDeps struct {
	People     application.PersonRepository
	Ministries application.MinistryRepository
}

// NewRosterService builds a roster service over deps.
func (f *ServiceFactory) NewRosterService(deps RosterServiceDeps) *application.RosterService {
	return application.NewRosterServiceWithLogger(deps.People, deps.Ministries, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// SchedulingServiceDeps captures the repositories of a scheduling service.
// A nil Cache disables caching.
type SchedulingServiceDeps struct {
	Services   application.ServiceRepository
	Schedules  application.ScheduleRepository
	People     application.PersonRepository
	Ministries application.MinistryRepository
	Cache      *application.ResolvedServiceCache
}

// NewSchedulingService builds a scheduling service over deps.
func (f *ServiceFactory) NewSchedulingService(deps SchedulingServiceDeps) *application.SchedulingService {
	return application.NewSchedulingServiceWithLogger(
		deps.Services,
		deps.Schedules,
		deps.People,
		deps.Ministries,
		deps.Cache,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}
