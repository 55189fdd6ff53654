package persistence

import (
	"context"
	"time"
)

// PersonFilter narrows person queries.
type PersonFilter struct {
	ActiveOnly   bool
	OrdainedOnly bool
}

// PersonRepository exposes CRUD operations for people.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) error
	UpdatePerson(ctx context.Context, person Person) error
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPeople(ctx context.Context, filter PersonFilter) ([]Person, error)
}

// MinistryRepository stores ministries. There is no update operation.
type MinistryRepository interface {
	CreateMinistry(ctx context.Context, ministry Ministry) error
	GetMinistry(ctx context.Context, id string) (Ministry, error)
	ListMinistries(ctx context.Context) ([]Ministry, error)
}

// ServiceFilter narrows service queries. Date bounds are inclusive.
type ServiceFilter struct {
	From          *time.Time
	To            *time.Time
	PublishedOnly bool
}

// ServiceRepository stores services. CreateServiceWithSchedules must persist
// the service and all schedules atomically: either every row is written or
// none is.
type ServiceRepository interface {
	CreateServiceWithSchedules(ctx context.Context, service Service, schedules []Schedule) error
	UpdateService(ctx context.Context, service Service) error
	GetService(ctx context.Context, id string) (Service, error)
	ListServices(ctx context.Context, filter ServiceFilter) ([]Service, error)
}

// ScheduleRepository stores assignments of people to ministries.
// MarkSchedulesNotified flags every listed schedule that still exists and
// returns the IDs it could not find, in input order.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedulesForService(ctx context.Context, serviceID string) ([]Schedule, error)
	MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) (missing []string, err error)
}
