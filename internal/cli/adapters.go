package cli

import (
	"context"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/persistence"
)

type personRepositoryAdapter struct {
	repo persistence.PersonRepository
}

func newPersonRepositoryAdapter(repo persistence.PersonRepository) *personRepositoryAdapter {
	return &personRepositoryAdapter{repo: repo}
}

func (a *personRepositoryAdapter) CreatePerson(ctx context.Context, person application.Person) (application.Person, error) {
	if err := a.repo.CreatePerson(ctx, toPersistencePerson(person)); err != nil {
		return application.Person{}, err
	}
	return a.GetPerson(ctx, person.ID)
}

func (a *personRepositoryAdapter) UpdatePerson(ctx context.Context, person application.Person) (application.Person, error) {
	if err := a.repo.UpdatePerson(ctx, toPersistencePerson(person)); err != nil {
		return application.Person{}, err
	}
	return a.GetPerson(ctx, person.ID)
}

func (a *personRepositoryAdapter) GetPerson(ctx context.Context, id string) (application.Person, error) {
	stored, err := a.repo.GetPerson(ctx, id)
	if err != nil {
		return application.Person{}, err
	}
	return toApplicationPerson(stored), nil
}

func (a *personRepositoryAdapter) ListPeople(ctx context.Context, query application.PersonQuery) ([]application.Person, error) {
	stored, err := a.repo.ListPeople(ctx, persistence.PersonFilter{ActiveOnly: query.ActiveOnly, OrdainedOnly: query.OrdainedOnly})
	if err != nil {
		return nil, err
	}
	out := make([]application.Person, 0, len(stored))
	for _, p := range stored {
		out = append(out, toApplicationPerson(p))
	}
	return out, nil
}

type ministryRepositoryAdapter struct {
	repo persistence.MinistryRepository
}

func newMinistryRepositoryAdapter(repo persistence.MinistryRepository) *ministryRepositoryAdapter {
	return &ministryRepositoryAdapter{repo: repo}
}

func (a *ministryRepositoryAdapter) CreateMinistry(ctx context.Context, ministry application.Ministry) (application.Ministry, error) {
	if err := a.repo.CreateMinistry(ctx, persistence.Ministry(ministry)); err != nil {
		return application.Ministry{}, err
	}
	return a.GetMinistry(ctx, ministry.ID)
}

func (a *ministryRepositoryAdapter) GetMinistry(ctx context.Context, id string) (application.Ministry, error) {
	stored, err := a.repo.GetMinistry(ctx, id)
	if err != nil {
		return application.Ministry{}, err
	}
	return application.Ministry(stored), nil
}

func (a *ministryRepositoryAdapter) ListMinistries(ctx context.Context) ([]application.Ministry, error) {
	stored, err := a.repo.ListMinistries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Ministry, 0, len(stored))
	for _, m := range stored {
		out = append(out, application.Ministry(m))
	}
	return out, nil
}

type serviceRepositoryAdapter struct {
	repo persistence.ServiceRepository
}

func newServiceRepositoryAdapter(repo persistence.ServiceRepository) *serviceRepositoryAdapter {
	return &serviceRepositoryAdapter{repo: repo}
}

func (a *serviceRepositoryAdapter) CreateServiceWithSchedules(ctx context.Context, service application.Service, schedules []application.Schedule) error {
	stored := make([]persistence.Schedule, 0, len(schedules))
	for _, s := range schedules {
		stored = append(stored, persistence.Schedule(s))
	}
	return a.repo.CreateServiceWithSchedules(ctx, toPersistenceService(service), stored)
}

func (a *serviceRepositoryAdapter) UpdateService(ctx context.Context, service application.Service) (application.Service, error) {
	if err := a.repo.UpdateService(ctx, toPersistenceService(service)); err != nil {
		return application.Service{}, err
	}
	return a.GetService(ctx, service.ID)
}

func (a *serviceRepositoryAdapter) GetService(ctx context.Context, id string) (application.Service, error) {
	stored, err := a.repo.GetService(ctx, id)
	if err != nil {
		return application.Service{}, err
	}
	return toApplicationService(stored), nil
}

func (a *serviceRepositoryAdapter) ListServices(ctx context.Context, query application.ServiceQuery) ([]application.Service, error) {
	stored, err := a.repo.ListServices(ctx, persistence.ServiceFilter{From: query.From, To: query.To, PublishedOnly: query.PublishedOnly})
	if err != nil {
		return nil, err
	}
	out := make([]application.Service, 0, len(stored))
	for _, s := range stored {
		out = append(out, toApplicationService(s))
	}
	return out, nil
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.CreateSchedule(ctx, persistence.Schedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	return a.GetSchedule(ctx, schedule.ID)
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, err
	}
	return application.Schedule(stored), nil
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return a.repo.DeleteSchedule(ctx, id)
}

func (a *scheduleRepositoryAdapter) ListSchedulesForService(ctx context.Context, serviceID string) ([]application.Schedule, error) {
	stored, err := a.repo.ListSchedulesForService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	out := make([]application.Schedule, 0, len(stored))
	for _, s := range stored {
		out = append(out, application.Schedule(s))
	}
	return out, nil
}

func (a *scheduleRepositoryAdapter) MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	return a.repo.MarkSchedulesNotified(ctx, ids, at)
}

func toPersistencePerson(p application.Person) persistence.Person {
	return persistence.Person(p)
}

func toApplicationPerson(p persistence.Person) application.Person {
	return application.Person(p)
}

func toPersistenceService(s application.Service) persistence.Service {
	return persistence.Service{
		ID:             s.ID,
		Date:           s.Date,
		Time:           s.Time,
		ServiceType:    s.ServiceType,
		Songs:          s.Songs,
		Notices:        s.Notices,
		Readings:       s.Readings,
		Collect:        s.Collect,
		Season:         string(s.Season),
		WeekLabel:      s.WeekLabel,
		Color:          string(s.Color),
		LectionaryYear: s.LectionaryYear,
		Published:      s.Published,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toApplicationService(s persistence.Service) application.Service {
	return application.Service{
		ID:             s.ID,
		Date:           s.Date,
		Time:           s.Time,
		ServiceType:    s.ServiceType,
		Songs:          s.Songs,
		Notices:        s.Notices,
		Readings:       s.Readings,
		Collect:        s.Collect,
		Season:         liturgical.Season(s.Season),
		WeekLabel:      s.WeekLabel,
		Color:          liturgical.Color(s.Color),
		LectionaryYear: s.LectionaryYear,
		Published:      s.Published,
		Status:         application.ServiceStatus(s.Status),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
