package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// rosterRepoStub is an in-memory roster backing both person and ministry lookups.
type rosterRepoStub struct {
	mu         sync.Mutex
	people     map[string]Person
	ministries map[string]Ministry

	createPersonErr error
	getPersonCalls  int
	listQuery       PersonQuery
}

func newRosterRepoStub() *rosterRepoStub {
	return &rosterRepoStub{people: map[string]Person{}, ministries: map[string]Ministry{}}
}

func (r *rosterRepoStub) CreatePerson(ctx context.Context, person Person) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createPersonErr != nil {
		return Person{}, r.createPersonErr
	}
	if _, ok := r.people[person.ID]; ok {
		return Person{}, ErrAlreadyExists
	}
	r.people[person.ID] = person
	return person, nil
}

func (r *rosterRepoStub) UpdatePerson(ctx context.Context, person Person) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.people[person.ID]; !ok {
		return Person{}, ErrNotFound
	}
	r.people[person.ID] = person
	return person, nil
}

func (r *rosterRepoStub) GetPerson(ctx context.Context, id string) (Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getPersonCalls++
	person, ok := r.people[id]
	if !ok {
		return Person{}, ErrNotFound
	}
	return person, nil
}

func (r *rosterRepoStub) ListPeople(ctx context.Context, query PersonQuery) ([]Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listQuery = query
	// Ignores the query so the service-side filter is exercised.
	out := make([]Person, 0, len(r.people))
	for _, p := range r.people {
		out = append(out, p)
	}
	return out, nil
}

func (r *rosterRepoStub) CreateMinistry(ctx context.Context, ministry Ministry) (Ministry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.ministries {
		if m.Slug == ministry.Slug {
			return Ministry{}, ErrAlreadyExists
		}
	}
	r.ministries[ministry.ID] = ministry
	return ministry, nil
}

func (r *rosterRepoStub) GetMinistry(ctx context.Context, id string) (Ministry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ministry, ok := r.ministries[id]
	if !ok {
		return Ministry{}, ErrNotFound
	}
	return ministry, nil
}

func (r *rosterRepoStub) ListMinistries(ctx context.Context) ([]Ministry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Ministry, 0, len(r.ministries))
	for _, m := range r.ministries {
		out = append(out, m)
	}
	return out, nil
}

// serviceRepoStub stores services and schedules in maps and can be told to
// reject the combined write.
type serviceRepoStub struct {
	mu        sync.Mutex
	services  map[string]Service
	schedules map[string]Schedule

	createErr   error
	markErr     error
	createCalls int
	listCalls   int
	lastQuery   ServiceQuery
	markedIDs   []string
	markedAt    time.Time
}

func newServiceRepoStub() *serviceRepoStub {
	return &serviceRepoStub{services: map[string]Service{}, schedules: map[string]Schedule{}}
}

func (r *serviceRepoStub) CreateServiceWithSchedules(ctx context.Context, service Service, schedules []Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return r.createErr
	}
	r.services[service.ID] = service.Clone()
	for _, sched := range schedules {
		r.schedules[sched.ID] = sched
	}
	return nil
}

func (r *serviceRepoStub) UpdateService(ctx context.Context, service Service) (Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[service.ID]; !ok {
		return Service{}, ErrNotFound
	}
	r.services[service.ID] = service.Clone()
	return service, nil
}

func (r *serviceRepoStub) GetService(ctx context.Context, id string) (Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	service, ok := r.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return service.Clone(), nil
}

func (r *serviceRepoStub) ListServices(ctx context.Context, query ServiceQuery) ([]Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	r.lastQuery = query
	var out []Service
	for _, svc := range r.services {
		if query.PublishedOnly && !svc.Published {
			continue
		}
		if query.From != nil && svc.Date.Before(*query.From) {
			continue
		}
		if query.To != nil && svc.Date.After(*query.To) {
			continue
		}
		out = append(out, svc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *serviceRepoStub) CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[schedule.ServiceID]; !ok {
		return Schedule{}, ErrNotFound
	}
	r.schedules[schedule.ID] = schedule
	return schedule, nil
}

func (r *serviceRepoStub) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sched, ok := r.schedules[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return sched, nil
}

func (r *serviceRepoStub) DeleteSchedule(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

func (r *serviceRepoStub) ListSchedulesForService(ctx context.Context, serviceID string) ([]Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Schedule
	for _, sched := range r.schedules {
		if sched.ServiceID == serviceID {
			out = append(out, sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *serviceRepoStub) MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return nil, r.markErr
	}
	r.markedIDs = append([]string(nil), ids...)
	r.markedAt = at
	var missing []string
	for _, id := range ids {
		sched, ok := r.schedules[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		sched.Notified = true
		stamp := at
		sched.NotifiedAt = &stamp
		r.schedules[id] = sched
	}
	return missing, nil
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type schedulingHarness struct {
	roster  *rosterRepoStub
	repo    *serviceRepoStub
	cache   *ResolvedServiceCache
	service *SchedulingService
	now     time.Time
}

func newSchedulingHarness() *schedulingHarness {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	roster := newRosterRepoStub()
	contact := "+15550101"
	roster.people["person-ada"] = Person{ID: "person-ada", Name: "Ada", Contact: &contact, Active: true}
	roster.people["person-ben"] = Person{ID: "person-ben", Name: "Ben", Active: true, Ordained: true}
	roster.ministries["ministry-reading"] = Ministry{ID: "ministry-reading", Name: "Reading", Slug: SlugReading}
	roster.ministries["ministry-presiding"] = Ministry{ID: "ministry-presiding", Name: "Presiding", Slug: SlugPresiding}

	repo := newServiceRepoStub()
	cache := NewResolvedServiceCache(time.Minute, 8, fixedClock(now))
	svc := NewSchedulingService(repo, repo, roster, roster, cache, sequentialIDs("id"), fixedClock(now))
	return &schedulingHarness{roster: roster, repo: repo, cache: cache, service: svc, now: now}
}
