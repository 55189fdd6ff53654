package application

import (
	"time"

	"github.com/example/liturgical-scheduler/internal/liturgical"
)

// Date and time layouts accepted from callers.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Person is a member of the roster who can be assigned to ministries.
type Person struct {
	ID        string
	Name      string
	Contact   *string
	Ordained  bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasContact reports whether the person can be reached by the gateway.
func (p Person) HasContact() bool {
	return p.Contact != nil && *p.Contact != ""
}

// Ministry is a named role in a service. The slug is the stable key used by
// the program renderer.
type Ministry struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

// Well known ministry slugs.
const (
	SlugWelcome   = "welcome"
	SlugPresiding = "presiding"
	SlugReading   = "reading"
	SlugOffertory = "offertory"
	SlugPreaching = "preaching"
	SlugServing   = "serving"
)

// ServiceStatus tracks the lifecycle of a service.
type ServiceStatus string

const (
	// ServiceStatusDraft is the status of a freshly created service.
	ServiceStatusDraft ServiceStatus = "draft"
	// ServiceStatusScheduled is the status of a published service.
	ServiceStatusScheduled ServiceStatus = "scheduled"
)

// Service is one dated act of worship enriched with calendar facts.
type Service struct {
	ID             string
	Date           time.Time
	Time           *string
	ServiceType    string
	Songs          []string
	Notices        []string
	Readings       *string
	Collect        *string
	Season         liturgical.Season
	WeekLabel      string
	Color          liturgical.Color
	LectionaryYear string
	Published      bool
	Status         ServiceStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the service.
func (s Service) Clone() Service {
	clone := s
	clone.Time = cloneStringPtr(s.Time)
	clone.Readings = cloneStringPtr(s.Readings)
	clone.Collect = cloneStringPtr(s.Collect)
	clone.Songs = cloneStrings(s.Songs)
	clone.Notices = cloneStrings(s.Notices)
	return clone
}

// Schedule assigns one person to one ministry for one service.
type Schedule struct {
	ID         string
	ServiceID  string
	MinistryID string
	PersonID   string
	Notified   bool
	NotifiedAt *time.Time
	CreatedAt  time.Time
}

// ResolvedSchedule is a schedule joined with its person and ministry.
type ResolvedSchedule struct {
	Schedule Schedule
	Person   Person
	Ministry Ministry
}

// ResolvedService is the joined projection consumed by the program renderer
// and the notification dispatcher.
type ResolvedService struct {
	Service   Service
	Schedules []ResolvedSchedule
}

// AssignmentsFor returns the schedules whose ministry carries slug, in
// schedule order.
func (r ResolvedService) AssignmentsFor(slug string) []ResolvedSchedule {
	var out []ResolvedSchedule
	for _, rs := range r.Schedules {
		if rs.Ministry.Slug == slug {
			out = append(out, rs)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (r ResolvedService) Clone() ResolvedService {
	clone := ResolvedService{Service: r.Service.Clone()}
	if r.Schedules != nil {
		clone.Schedules = make([]ResolvedSchedule, len(r.Schedules))
		for i, rs := range r.Schedules {
			rs.Person.Contact = cloneStringPtr(rs.Person.Contact)
			if rs.Schedule.NotifiedAt != nil {
				at := *rs.Schedule.NotifiedAt
				rs.Schedule.NotifiedAt = &at
			}
			clone.Schedules[i] = rs
		}
	}
	return clone
}

// CreatePersonInput carries the fields of a new roster entry. Active defaults to true.
type CreatePersonInput struct {
	Name     string
	Contact  *string
	Ordained bool
	Active   *bool
}

// UpdatePersonInput changes the non-nil fields of an existing person. An
// empty Contact clears it.
type UpdatePersonInput struct {
	ID       string
	Name     *string
	Contact  *string
	Ordained *bool
	Active   *bool
}

// CreateMinistryInput carries the fields of a new ministry. An empty slug is
// derived from the name.
type CreateMinistryInput struct {
	Name string
	Slug string
}

// ScheduleInput names the person filling a ministry on a new service.
type ScheduleInput struct {
	MinistryID string
	PersonID   string
}

// CalendarOverrides replace derived calendar fields when set.
type CalendarOverrides struct {
	Season         *string
	WeekLabel      *string
	Color          *string
	LectionaryYear *string
}

// CreateServiceInput carries the caller supplied fields of a new service.
type CreateServiceInput struct {
	ServiceDate string
	ServiceTime *string
	ServiceType string
	Songs       []string
	Notices     []string
	Readings    *string
	Collect     *string
	Overrides   CalendarOverrides
	Schedules   []ScheduleInput
}

// AssignMinistryInput adds one schedule to an existing service.
type AssignMinistryInput struct {
	ServiceID  string
	MinistryID string
	PersonID   string
}

// PlanInput describes a recurring run of services such as "Sunday at 10:30".
type PlanInput struct {
	Pattern     string
	From        string
	Until       string
	ServiceType string
	Schedules   []ScheduleInput
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}
