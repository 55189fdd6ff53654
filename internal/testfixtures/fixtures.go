package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/persistence"
)

var (
	personCounter   uint64
	ministryCounter uint64
	serviceCounter  uint64
	scheduleCounter uint64
)

// referenceTime is the Friday evening before the second Sunday in Lent 2025.
var referenceTime = time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Person fixtures -----------------------------

// PersonFixture is a deterministic roster entry.
type PersonFixture struct {
	ID        string
	Name      string
	Contact   *string
	Ordained  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PersonOption configures the generated person fixture.
type PersonOption func(*PersonFixture)

// NewPersonFixture returns an active, lay person with a phone contact.
func NewPersonFixture(opts ...PersonOption) PersonFixture {
	idx := atomic.AddUint64(&personCounter, 1)
	created := referenceTime.Add(-time.Duration(idx) * time.Hour)
	contact := fmt.Sprintf("+4479460%05d", idx)
	fixture := PersonFixture{
		ID:        fmt.Sprintf("person-%03d", idx),
		Name:      fmt.Sprintf("Person %03d", idx),
		Contact:   &contact,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPersonID overrides the generated person ID.
func WithPersonID(id string) PersonOption {
	return func(f *PersonFixture) { f.ID = id }
}

// WithPersonName overrides the generated name.
func WithPersonName(name string) PersonOption {
	return func(f *PersonFixture) { f.Name = name }
}

// WithPersonContact sets the contact; nil removes it.
func WithPersonContact(contact *string) PersonOption {
	return func(f *PersonFixture) { f.Contact = contact }
}

// WithPersonOrdained sets the ordained flag.
func WithPersonOrdained(ordained bool) PersonOption {
	return func(f *PersonFixture) { f.Ordained = ordained }
}

// WithPersonActive sets the active flag.
func WithPersonActive(active bool) PersonOption {
	return func(f *PersonFixture) { f.Active = active }
}

// Application returns the fixture as an application.Person.
func (f PersonFixture) Application() application.Person {
	return application.Person(f.Persistence())
}

// Persistence returns the fixture as a persistence.Person.
func (f PersonFixture) Persistence() persistence.Person {
	return persistence.Person{
		ID:        f.ID,
		Name:      f.Name,
		Contact:   f.Contact,
		Ordained:  f.Ordained,
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Ministry fixtures ----------------------------

// MinistryFixture is a deterministic ministry.
type MinistryFixture struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// MinistryOption configures the generated ministry fixture.
type MinistryOption func(*MinistryFixture)

// NewMinistryFixture returns a ministry with a unique slug.
func NewMinistryFixture(opts ...MinistryOption) MinistryFixture {
	idx := atomic.AddUint64(&ministryCounter, 1)
	fixture := MinistryFixture{
		ID:        fmt.Sprintf("ministry-%03d", idx),
		Name:      fmt.Sprintf("Ministry %03d", idx),
		Slug:      fmt.Sprintf("ministry-%03d", idx),
		CreatedAt: referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMinistryID overrides the generated ministry ID.
func WithMinistryID(id string) MinistryOption {
	return func(f *MinistryFixture) { f.ID = id }
}

// WithMinistrySlug sets the slug and a matching display name.
func WithMinistrySlug(slug, name string) MinistryOption {
	return func(f *MinistryFixture) {
		f.Slug = slug
		f.Name = name
	}
}

// Application returns the fixture as an application.Ministry.
func (f MinistryFixture) Application() application.Ministry {
	return application.Ministry(f.Persistence())
}

// Persistence returns the fixture as a persistence.Ministry.
func (f MinistryFixture) Persistence() persistence.Ministry {
	return persistence.Ministry{ID: f.ID, Name: f.Name, Slug: f.Slug, CreatedAt: f.CreatedAt}
}

// ----------------------------- Service fixtures ----------------------------

// ServiceFixture is a deterministic service enriched for its date.
type ServiceFixture struct {
	ID          string
	Date        time.Time
	Time        *string
	ServiceType string
	Songs       []string
	Notices     []string
	Readings    *string
	Collect     *string
	Published   bool
	CreatedAt   time.Time
}

// ServiceOption configures the generated service fixture.
type ServiceOption func(*ServiceFixture)

// NewServiceFixture returns a draft 10:30 Holy Communion on the Sunday after
// ReferenceTime.
func NewServiceFixture(opts ...ServiceOption) ServiceFixture {
	idx := atomic.AddUint64(&serviceCounter, 1)
	at := "10:30"
	fixture := ServiceFixture{
		ID:          fmt.Sprintf("service-%03d", idx),
		Date:        liturgical.Date(2025, time.March, 16),
		Time:        &at,
		ServiceType: "Holy Communion",
		CreatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithServiceID overrides the generated service ID.
func WithServiceID(id string) ServiceOption {
	return func(f *ServiceFixture) { f.ID = id }
}

// WithServiceDate sets the civil date of the service.
func WithServiceDate(year int, month time.Month, day int) ServiceOption {
	return func(f *ServiceFixture) { f.Date = liturgical.Date(year, month, day) }
}

// WithServiceTime sets the free-form service time; nil removes it.
func WithServiceTime(at *string) ServiceOption {
	return func(f *ServiceFixture) { f.Time = at }
}

// WithServiceSongs sets the song list.
func WithServiceSongs(songs ...string) ServiceOption {
	return func(f *ServiceFixture) { f.Songs = songs }
}

// WithServicePublished sets the published flag.
func WithServicePublished(published bool) ServiceOption {
	return func(f *ServiceFixture) { f.Published = published }
}

// Application returns the fixture as an application.Service with its calendar
// fields derived from the date.
func (f ServiceFixture) Application() application.Service {
	info := liturgical.DeriveSeason(f.Date)
	status := application.ServiceStatusDraft
	if f.Published {
		status = application.ServiceStatusScheduled
	}
	return application.Service{
		ID:             f.ID,
		Date:           f.Date,
		Time:           f.Time,
		ServiceType:    f.ServiceType,
		Songs:          f.Songs,
		Notices:        f.Notices,
		Readings:       f.Readings,
		Collect:        f.Collect,
		Season:         info.Season,
		WeekLabel:      info.Week,
		Color:          info.Color,
		LectionaryYear: info.LectionaryYear,
		Published:      f.Published,
		Status:         status,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Service.
func (f ServiceFixture) Persistence() persistence.Service {
	s := f.Application()
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

// ---------------------------- Schedule fixtures ----------------------------

// ScheduleFixture is a deterministic assignment.
type ScheduleFixture struct {
	ID         string
	ServiceID  string
	MinistryID string
	PersonID   string
	CreatedAt  time.Time
}

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns an unnotified schedule. Creation times increase
// with every call so listings keep fixture order.
func NewScheduleFixture(serviceID, ministryID, personID string, opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	fixture := ScheduleFixture{
		ID:         fmt.Sprintf("schedule-%03d", idx),
		ServiceID:  serviceID,
		MinistryID: ministryID,
		PersonID:   personID,
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(f *ScheduleFixture) { f.ID = id }
}

// Application returns the fixture as an application.Schedule.
func (f ScheduleFixture) Application() application.Schedule {
	return application.Schedule(f.Persistence())
}

// Persistence returns the fixture as a persistence.Schedule.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	return persistence.Schedule{
		ID:         f.ID,
		ServiceID:  f.ServiceID,
		MinistryID: f.MinistryID,
		PersonID:   f.PersonID,
		CreatedAt:  f.CreatedAt,
	}
}
