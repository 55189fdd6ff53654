package application

import (
	"context"
	"time"
)

// PersonQuery narrows a roster listing.
type PersonQuery struct {
	ActiveOnly   bool
	OrdainedOnly bool
}

// PersonRepository captures the roster persistence operations.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) (Person, error)
	UpdatePerson(ctx context.Context, person Person) (Person, error)
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPeople(ctx context.Context, query PersonQuery) ([]Person, error)
}

// MinistryRepository captures the ministry persistence operations. Ministries
// are never updated.
type MinistryRepository interface {
	CreateMinistry(ctx context.Context, ministry Ministry) (Ministry, error)
	GetMinistry(ctx context.Context, id string) (Ministry, error)
	ListMinistries(ctx context.Context) ([]Ministry, error)
}

// ServiceQuery narrows a service listing. Bounds are inclusive civil dates.
type ServiceQuery struct {
	From          *time.Time
	To            *time.Time
	PublishedOnly bool
}

// ServiceRepository captures the service persistence operations.
type ServiceRepository interface {
	// CreateServiceWithSchedules stores the service and its schedules as one
	// unit: either everything is visible afterwards or nothing is.
	CreateServiceWithSchedules(ctx context.Context, service Service, schedules []Schedule) error
	UpdateService(ctx context.Context, service Service) (Service, error)
	GetService(ctx context.Context, id string) (Service, error)
	ListServices(ctx context.Context, query ServiceQuery) ([]Service, error)
}

// ScheduleRepository captures the schedule persistence operations.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedulesForService(ctx context.Context, serviceID string) ([]Schedule, error)
	MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) (missing []string, err error)
}
