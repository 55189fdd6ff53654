// Package memory provides a map-backed implementation of the persistence
// repositories. It enforces the same keys and references as the SQLite store
// and is used for tests and for running without a database file.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/liturgical-scheduler/internal/persistence"
)

// Storage keeps every entity in memory behind a single lock.
type Storage struct {
	mu         sync.RWMutex
	people     map[string]persistence.Person
	ministries map[string]persistence.Ministry
	services   map[string]persistence.Service
	schedules  map[string]persistence.Schedule
	// inserted orders schedules sharing a CreatedAt by insertion.
	inserted map[string]uint64
	seq      uint64
}

// Open returns a new, empty Storage.
func Open() *Storage {
	return &Storage{
		people:     make(map[string]persistence.Person),
		ministries: make(map[string]persistence.Ministry),
		services:   make(map[string]persistence.Service),
		schedules:  make(map[string]persistence.Schedule),
		inserted:   make(map[string]uint64),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Migrate initialises the storage. No-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// --- PersonRepository implementation ---

// CreatePerson stores a new person.
func (s *Storage) CreatePerson(ctx context.Context, person persistence.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[person.ID]; ok {
		return fmt.Errorf("memory: person %s: %w", person.ID, persistence.ErrDuplicate)
	}

	s.people[person.ID] = clonePerson(person)
	return nil
}

// UpdatePerson replaces an existing person.
func (s *Storage) UpdatePerson(ctx context.Context, person persistence.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[person.ID]; !ok {
		return persistence.ErrNotFound
	}

	s.people[person.ID] = clonePerson(person)
	return nil
}

// GetPerson retrieves a person by ID.
func (s *Storage) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	person, ok := s.people[id]
	if !ok {
		return persistence.Person{}, persistence.ErrNotFound
	}
	return clonePerson(person), nil
}

// ListPeople returns people matching filter ordered by name then ID.
func (s *Storage) ListPeople(ctx context.Context, filter persistence.PersonFilter) ([]persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]persistence.Person, 0, len(s.people))
	for _, person := range s.people {
		if filter.ActiveOnly && !person.Active {
			continue
		}
		if filter.OrdainedOnly && !person.Ordained {
			continue
		}
		people = append(people, clonePerson(person))
	}

	sort.Slice(people, func(i, j int) bool {
		if people[i].Name == people[j].Name {
			return people[i].ID < people[j].ID
		}
		return people[i].Name < people[j].Name
	})
	return people, nil
}

// --- MinistryRepository implementation ---

// CreateMinistry stores a new ministry. Slugs are unique.
func (s *Storage) CreateMinistry(ctx context.Context, ministry persistence.Ministry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ministries[ministry.ID]; ok {
		return fmt.Errorf("memory: ministry %s: %w", ministry.ID, persistence.ErrDuplicate)
	}
	for _, existing := range s.ministries {
		if existing.Slug == ministry.Slug {
			return fmt.Errorf("memory: ministry slug %s: %w", ministry.Slug, persistence.ErrDuplicate)
		}
	}

	s.ministries[ministry.ID] = ministry
	return nil
}

// GetMinistry retrieves a ministry by ID.
func (s *Storage) GetMinistry(ctx context.Context, id string) (persistence.Ministry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ministry, ok := s.ministries[id]
	if !ok {
		return persistence.Ministry{}, persistence.ErrNotFound
	}
	return ministry, nil
}

// ListMinistries returns all ministries ordered by slug.
func (s *Storage) ListMinistries(ctx context.Context) ([]persistence.Ministry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ministries := make([]persistence.Ministry, 0, len(s.ministries))
	for _, ministry := range s.ministries {
		ministries = append(ministries, ministry)
	}
	sort.Slice(ministries, func(i, j int) bool {
		return ministries[i].Slug < ministries[j].Slug
	})
	return ministries, nil
}

// --- ServiceRepository implementation ---

// CreateServiceWithSchedules validates the service and every schedule before
// writing anything, so a rejected batch leaves the storage untouched.
func (s *Storage) CreateServiceWithSchedules(ctx context.Context, service persistence.Service, schedules []persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[service.ID]; ok {
		return fmt.Errorf("memory: service %s: %w", service.ID, persistence.ErrDuplicate)
	}

	seen := make(map[string]struct{}, len(schedules))
	for _, schedule := range schedules {
		if schedule.ServiceID != service.ID {
			return fmt.Errorf("memory: schedule %s belongs to service %s: %w", schedule.ID, schedule.ServiceID, persistence.ErrForeignKeyViolation)
		}
		if _, dup := seen[schedule.ID]; dup {
			return fmt.Errorf("memory: schedule %s: %w", schedule.ID, persistence.ErrDuplicate)
		}
		seen[schedule.ID] = struct{}{}
		if err := s.checkScheduleLocked(schedule, false); err != nil {
			return err
		}
	}

	s.services[service.ID] = cloneService(service)
	for _, schedule := range schedules {
		s.putScheduleLocked(schedule)
	}
	return nil
}

// UpdateService replaces an existing service.
func (s *Storage) UpdateService(ctx context.Context, service persistence.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[service.ID]; !ok {
		return persistence.ErrNotFound
	}

	s.services[service.ID] = cloneService(service)
	return nil
}

// GetService retrieves a service by ID.
func (s *Storage) GetService(ctx context.Context, id string) (persistence.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[id]
	if !ok {
		return persistence.Service{}, persistence.ErrNotFound
	}
	return cloneService(service), nil
}

// ListServices returns services matching filter ordered by date, time and ID.
func (s *Storage) ListServices(ctx context.Context, filter persistence.ServiceFilter) ([]persistence.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	services := make([]persistence.Service, 0)
	for _, service := range s.services {
		if !matchesServiceFilter(service, filter) {
			continue
		}
		services = append(services, cloneService(service))
	}

	sort.Slice(services, func(i, j int) bool {
		a, b := services[i], services[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		at, bt := derefString(a.Time), derefString(b.Time)
		if at != bt {
			return at < bt
		}
		return a.ID < b.ID
	})
	return services, nil
}

// --- ScheduleRepository implementation ---

// CreateSchedule stores a single assignment on an existing service.
func (s *Storage) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; ok {
		return fmt.Errorf("memory: schedule %s: %w", schedule.ID, persistence.ErrDuplicate)
	}
	if err := s.checkScheduleLocked(schedule, true); err != nil {
		return err
	}

	s.putScheduleLocked(schedule)
	return nil
}

// GetSchedule retrieves a schedule by ID.
func (s *Storage) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

// DeleteSchedule removes a schedule by ID.
func (s *Storage) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.schedules, id)
	delete(s.inserted, id)
	return nil
}

// ListSchedulesForService returns the schedules of a service ordered by creation.
func (s *Storage) ListSchedulesForService(ctx context.Context, serviceID string) ([]persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]persistence.Schedule, 0)
	for _, schedule := range s.schedules {
		if schedule.ServiceID == serviceID {
			schedules = append(schedules, cloneSchedule(schedule))
		}
	}

	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].CreatedAt.Equal(schedules[j].CreatedAt) {
			return s.inserted[schedules[i].ID] < s.inserted[schedules[j].ID]
		}
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})
	return schedules, nil
}

// MarkSchedulesNotified flags the listed schedules that still exist under one
// lock and returns the IDs that were already gone.
func (s *Storage) MarkSchedulesNotified(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	seen := make(map[string]struct{}, len(ids))
	stamp := at.UTC()
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		schedule, ok := s.schedules[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		schedule.Notified = true
		notifiedAt := stamp
		schedule.NotifiedAt = &notifiedAt
		s.schedules[id] = schedule
	}
	return missing, nil
}

func (s *Storage) putScheduleLocked(schedule persistence.Schedule) {
	s.seq++
	s.schedules[schedule.ID] = cloneSchedule(schedule)
	s.inserted[schedule.ID] = s.seq
}

func (s *Storage) checkScheduleLocked(schedule persistence.Schedule, requireService bool) error {
	if requireService {
		if _, ok := s.services[schedule.ServiceID]; !ok {
			return fmt.Errorf("memory: service %s: %w", schedule.ServiceID, persistence.ErrForeignKeyViolation)
		}
	}
	if _, ok := s.people[schedule.PersonID]; !ok {
		return fmt.Errorf("memory: person %s: %w", schedule.PersonID, persistence.ErrForeignKeyViolation)
	}
	if _, ok := s.ministries[schedule.MinistryID]; !ok {
		return fmt.Errorf("memory: ministry %s: %w", schedule.MinistryID, persistence.ErrForeignKeyViolation)
	}
	return nil
}

func matchesServiceFilter(service persistence.Service, filter persistence.ServiceFilter) bool {
	if filter.PublishedOnly && !service.Published {
		return false
	}
	if filter.From != nil && service.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && service.Date.After(*filter.To) {
		return false
	}
	return true
}

func clonePerson(person persistence.Person) persistence.Person {
	clone := person
	clone.Contact = cloneStringPtr(person.Contact)
	return clone
}

func cloneService(service persistence.Service) persistence.Service {
	clone := service
	clone.Time = cloneStringPtr(service.Time)
	clone.Readings = cloneStringPtr(service.Readings)
	clone.Collect = cloneStringPtr(service.Collect)
	if service.Songs != nil {
		clone.Songs = append([]string(nil), service.Songs...)
	}
	if service.Notices != nil {
		clone.Notices = append([]string(nil), service.Notices...)
	}
	return clone
}

func cloneSchedule(schedule persistence.Schedule) persistence.Schedule {
	clone := schedule
	if schedule.NotifiedAt != nil {
		at := *schedule.NotifiedAt
		clone.NotifiedAt = &at
	}
	return clone
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
