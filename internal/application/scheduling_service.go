package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/logging"
	"github.com/example/liturgical-scheduler/internal/persistence"
	"github.com/example/liturgical-scheduler/internal/recurrence"
)

// SchedulingService creates, duplicates, publishes and staffs services. It
// owns the resolved service cache and clears it after every write.
type SchedulingService struct {
	services    ServiceRepository
	schedules   ScheduleRepository
	people      PersonRepository
	ministries  MinistryRepository
	cache       *ResolvedServiceCache
	planner     *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSchedulingService wires dependencies for scheduling operations. A nil
// cache disables caching.
func NewSchedulingService(services ServiceRepository, schedules ScheduleRepository, people PersonRepository, ministries MinistryRepository, cache *ResolvedServiceCache, idGenerator func() string, now func() time.Time) *SchedulingService {
	return NewSchedulingServiceWithLogger(services, schedules, people, ministries, cache, idGenerator, now, nil)
}

// NewSchedulingServiceWithLogger wires dependencies with a specified logger.
func NewSchedulingServiceWithLogger(services ServiceRepository, schedules ScheduleRepository, people PersonRepository, ministries MinistryRepository, cache *ResolvedServiceCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SchedulingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SchedulingService{
		services:    services,
		schedules:   schedules,
		people:      people,
		ministries:  ministries,
		cache:       cache,
		planner:     recurrence.NewEngine(time.UTC),
		idGenerator: idGenerator,
		now:         now,
		logger:      logging.OrDefault(logger),
	}
}

func (s *SchedulingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SchedulingService", operation, attrs...)
}

func (s *SchedulingService) ready() error {
	if s == nil {
		return fmt.Errorf("SchedulingService is nil")
	}
	if s.services == nil || s.schedules == nil {
		return fmt.Errorf("service repositories not configured")
	}
	return nil
}

// CreateService validates input, enriches it with calendar facts and stores
// the service together with its schedules as one unit of work. When the
// store rejects the unit the returned error wraps ErrUnitOfWorkFailed and no
// service is returned.
func (s *SchedulingService) CreateService(ctx context.Context, input CreateServiceInput) (service Service, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateService", "service_date", input.ServiceDate)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create service", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("service_id", service.ID, "schedule_count", len(input.Schedules)).InfoContext(ctx, "service created")
	}()

	date, serviceTime, vErr := validateServiceInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = s.ensureReferencesExist(ctx, input.Schedules); err != nil {
		return
	}

	createdAt := s.now()
	candidate := Service{
		ID:          s.idGenerator(),
		Date:        date,
		Time:        serviceTime,
		ServiceType: normalizeText(input.ServiceType),
		Songs:       normalizeList(input.Songs),
		Notices:     normalizeList(input.Notices),
		Readings:    normalizeOptionalString(input.Readings),
		Collect:     normalizeOptionalString(input.Collect),
		Status:      ServiceStatusDraft,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	applyCalendar(&candidate, liturgical.DeriveSeason(date), input.Overrides)

	schedules := make([]Schedule, len(input.Schedules))
	for i, in := range input.Schedules {
		schedules[i] = Schedule{
			ID:         s.idGenerator(),
			ServiceID:  candidate.ID,
			MinistryID: strings.TrimSpace(in.MinistryID),
			PersonID:   strings.TrimSpace(in.PersonID),
			CreatedAt:  createdAt,
		}
	}

	if err = s.services.CreateServiceWithSchedules(ctx, candidate, schedules); err != nil {
		err = fmt.Errorf("%w: %w", ErrUnitOfWorkFailed, err)
		return
	}

	s.cache.Invalidate()
	service = candidate
	return
}

// DuplicateService copies the type, time, songs, notices, readings and
// staffing of an existing service onto newDate. Calendar fields are derived
// afresh. The collect belongs to the source's day and is not copied, and
// neither is notification state.
func (s *SchedulingService) DuplicateService(ctx context.Context, id, newDate string) (Service, error) {
	if err := s.ready(); err != nil {
		return Service{}, err
	}

	source, err := s.services.GetService(ctx, id)
	if err != nil {
		return Service{}, mapSchedulingRepoError(err)
	}
	staffing, err := s.schedules.ListSchedulesForService(ctx, id)
	if err != nil {
		return Service{}, mapSchedulingRepoError(err)
	}

	source = source.Clone()
	input := CreateServiceInput{
		ServiceDate: newDate,
		ServiceTime: source.Time,
		ServiceType: source.ServiceType,
		Songs:       source.Songs,
		Notices:     source.Notices,
		Readings:    source.Readings,
		Schedules:   make([]ScheduleInput, len(staffing)),
	}
	for i, sched := range staffing {
		input.Schedules[i] = ScheduleInput{MinistryID: sched.MinistryID, PersonID: sched.PersonID}
	}

	s.loggerWith(ctx, "DuplicateService", "source_service_id", id).DebugContext(ctx, "duplicating service")
	return s.CreateService(ctx, input)
}

// ListServicesInRange returns services whose date lies in [from, to], both
// read as civil dates, in ascending order.
func (s *SchedulingService) ListServicesInRange(ctx context.Context, from, to time.Time) ([]Service, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	from, to = liturgical.CivilDate(from), liturgical.CivilDate(to)
	if to.Before(from) {
		vErr := &ValidationError{}
		vErr.add("range", "end must not be before start")
		return nil, vErr
	}
	services, err := s.services.ListServices(ctx, ServiceQuery{From: &from, To: &to})
	if err != nil {
		return nil, mapSchedulingRepoError(err)
	}
	return services, nil
}

// FetchServicesByMonth returns the services dated within the given calendar month.
func (s *SchedulingService) FetchServicesByMonth(ctx context.Context, year int, month time.Month) ([]Service, error) {
	if month < time.January || month > time.December {
		vErr := &ValidationError{}
		vErr.add("month", "month must be between 1 and 12")
		return nil, vErr
	}
	first := liturgical.Date(year, month, 1)
	last := first.AddDate(0, 1, -1)
	return s.ListServicesInRange(ctx, first, last)
}

// PublishService marks a service as published and scheduled. Publishing is
// idempotent and there is no way back to draft.
func (s *SchedulingService) PublishService(ctx context.Context, id string) (service Service, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "PublishService", "service_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to publish service", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "service published")
	}()

	var existing Service
	existing, err = s.services.GetService(ctx, id)
	if err != nil {
		err = mapSchedulingRepoError(err)
		return
	}

	existing.Published = true
	existing.Status = ServiceStatusScheduled
	existing.UpdatedAt = s.now()

	service, err = s.services.UpdateService(ctx, existing)
	if err != nil {
		err = mapSchedulingRepoError(err)
		return
	}
	s.cache.Invalidate()
	return
}

// GetService returns a service by ID.
func (s *SchedulingService) GetService(ctx context.Context, id string) (Service, error) {
	if err := s.ready(); err != nil {
		return Service{}, err
	}
	service, err := s.services.GetService(ctx, id)
	if err != nil {
		return Service{}, mapSchedulingRepoError(err)
	}
	return service, nil
}

// ResolveService joins a service with its schedules, people and ministries.
// Results are served from the cache while no write has happened.
func (s *SchedulingService) ResolveService(ctx context.Context, id string) (ResolvedService, error) {
	if err := s.ready(); err != nil {
		return ResolvedService{}, err
	}
	if s.people == nil || s.ministries == nil {
		return ResolvedService{}, fmt.Errorf("roster repositories not configured")
	}
	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}

	gen := s.cache.Generation()
	service, err := s.services.GetService(ctx, id)
	if err != nil {
		return ResolvedService{}, mapSchedulingRepoError(err)
	}
	schedules, err := s.schedules.ListSchedulesForService(ctx, id)
	if err != nil {
		return ResolvedService{}, mapSchedulingRepoError(err)
	}

	people := make(map[string]Person)
	ministries := make(map[string]Ministry)
	resolved := ResolvedService{Service: service, Schedules: make([]ResolvedSchedule, 0, len(schedules))}
	for _, sched := range schedules {
		person, ok := people[sched.PersonID]
		if !ok {
			if person, err = s.people.GetPerson(ctx, sched.PersonID); err != nil {
				return ResolvedService{}, fmt.Errorf("resolve person %s: %w", sched.PersonID, mapSchedulingRepoError(err))
			}
			people[sched.PersonID] = person
		}
		ministry, ok := ministries[sched.MinistryID]
		if !ok {
			if ministry, err = s.ministries.GetMinistry(ctx, sched.MinistryID); err != nil {
				return ResolvedService{}, fmt.Errorf("resolve ministry %s: %w", sched.MinistryID, mapSchedulingRepoError(err))
			}
			ministries[sched.MinistryID] = ministry
		}
		resolved.Schedules = append(resolved.Schedules, ResolvedSchedule{Schedule: sched, Person: person, Ministry: ministry})
	}

	s.cache.StoreIfCurrent(resolved, gen)
	return resolved, nil
}

// AssignMinistry adds one schedule to an existing service.
func (s *SchedulingService) AssignMinistry(ctx context.Context, input AssignMinistryInput) (schedule Schedule, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "AssignMinistry",
		"service_id", input.ServiceID,
		"ministry_id", input.MinistryID,
		"person_id", input.PersonID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign ministry", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("schedule_id", schedule.ID).InfoContext(ctx, "ministry assigned")
	}()

	if _, err = s.services.GetService(ctx, input.ServiceID); err != nil {
		err = mapSchedulingRepoError(err)
		return
	}
	if err = s.ensureReferencesExist(ctx, []ScheduleInput{{MinistryID: input.MinistryID, PersonID: input.PersonID}}); err != nil {
		return
	}

	schedule = Schedule{
		ID:         s.idGenerator(),
		ServiceID:  input.ServiceID,
		MinistryID: strings.TrimSpace(input.MinistryID),
		PersonID:   strings.TrimSpace(input.PersonID),
		CreatedAt:  s.now(),
	}
	schedule, err = s.schedules.CreateSchedule(ctx, schedule)
	if err != nil {
		err = mapSchedulingRepoError(err)
		return
	}
	s.cache.Invalidate()
	return
}

// RemoveAssignment deletes a schedule.
func (s *SchedulingService) RemoveAssignment(ctx context.Context, scheduleID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "RemoveAssignment", "schedule_id", scheduleID)
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		err = mapSchedulingRepoError(err)
		logger.ErrorContext(ctx, "failed to remove assignment", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.cache.Invalidate()
	logger.InfoContext(ctx, "assignment removed")
	return nil
}

// ListUpcomingServices returns services dated today or later in ascending order.
func (s *SchedulingService) ListUpcomingServices(ctx context.Context) ([]Service, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	today := liturgical.CivilDate(s.now())
	services, err := s.services.ListServices(ctx, ServiceQuery{From: &today})
	if err != nil {
		return nil, mapSchedulingRepoError(err)
	}
	return services, nil
}

// ListPublishedServices returns every published service in ascending order.
func (s *SchedulingService) ListPublishedServices(ctx context.Context) ([]Service, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	services, err := s.services.ListServices(ctx, ServiceQuery{PublishedOnly: true})
	if err != nil {
		return nil, mapSchedulingRepoError(err)
	}
	return services, nil
}

// PlanRecurringServices creates one service for every date matched by a
// weekly pattern such as "Sunday at 10:30" between From and Until inclusive.
// Patterns that do not parse into a weekday and time are rejected. Services
// created before a failure are returned alongside the error.
func (s *SchedulingService) PlanRecurringServices(ctx context.Context, input PlanInput) (created []Service, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "PlanRecurringServices", "pattern", input.Pattern)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to plan services", "error", err, "error_kind", ErrorKind(err), "created_count", len(created))
			return
		}
		logger.With("created_count", len(created)).InfoContext(ctx, "services planned")
	}()

	vErr := &ValidationError{}
	slot, structured := ParseServiceTime(input.Pattern).(StructuredTime)
	if !structured {
		vErr.add("pattern", "pattern must name a weekday and a time, for example \"Sunday at 10:30\"")
	}
	from, fromErr := time.Parse(DateLayout, strings.TrimSpace(input.From))
	if fromErr != nil {
		vErr.add("from", "from must use the YYYY-MM-DD format")
	}
	until, untilErr := time.Parse(DateLayout, strings.TrimSpace(input.Until))
	if untilErr != nil {
		vErr.add("until", "until must use the YYYY-MM-DD format")
	}
	if fromErr == nil && untilErr == nil && until.Before(from) {
		vErr.add("until", "until must not be before from")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var dates []time.Time
	dates, err = s.planner.Dates(recurrence.Rule{
		Weekdays: []time.Weekday{slot.Day},
		StartsOn: from,
		EndsOn:   &until,
	}, recurrence.GenerateOptions{})
	if err != nil {
		if errors.Is(err, recurrence.ErrTooManyOccurrences) {
			vErr.add("until", "range holds too many services")
			err = vErr
		}
		return
	}

	clock := slot.Clock()
	for _, date := range dates {
		var service Service
		service, err = s.CreateService(ctx, CreateServiceInput{
			ServiceDate: date.Format(DateLayout),
			ServiceTime: &clock,
			ServiceType: input.ServiceType,
			Schedules:   input.Schedules,
		})
		if err != nil {
			return
		}
		created = append(created, service)
	}
	return
}

// MarkNotified records that the listed schedules were notified at the given
// instant. Schedules removed since they were read are skipped and returned
// as missing; every other listed schedule is flagged in one write.
func (s *SchedulingService) MarkNotified(ctx context.Context, scheduleIDs []string, at time.Time) (missing []string, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}
	if len(scheduleIDs) == 0 {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "MarkNotified", "schedule_count", len(scheduleIDs))
	missing, err = s.schedules.MarkSchedulesNotified(ctx, scheduleIDs, at)
	if err != nil {
		err = fmt.Errorf("mark %d schedules notified: %w", len(scheduleIDs), mapSchedulingRepoError(err))
		logger.ErrorContext(ctx, "failed to mark schedules notified", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	s.cache.Invalidate()
	if len(missing) > 0 {
		logger.WarnContext(ctx, "schedules removed before they could be marked notified", "missing", missing)
	}
	return missing, nil
}

func validateServiceInput(input CreateServiceInput) (time.Time, *string, *ValidationError) {
	vErr := &ValidationError{}

	date, err := time.Parse(DateLayout, strings.TrimSpace(input.ServiceDate))
	if err != nil {
		vErr.add("service_date", "service_date must use the YYYY-MM-DD format")
	}

	var serviceTime *string
	if raw := normalizeOptionalString(input.ServiceTime); raw != nil {
		parsed, err := time.Parse(TimeLayout, *raw)
		if err != nil {
			vErr.add("service_time", "service_time must use the 24h HH:MM format")
		} else {
			formatted := parsed.Format(TimeLayout)
			serviceTime = &formatted
		}
	}

	if normalizeText(input.ServiceType) == "" {
		vErr.add("service_type", "service_type is required")
	}

	for i, sched := range input.Schedules {
		prefix := fmt.Sprintf("schedules[%d].", i)
		if strings.TrimSpace(sched.MinistryID) == "" {
			vErr.add(prefix+"ministry_id", "ministry_id is required")
		}
		if strings.TrimSpace(sched.PersonID) == "" {
			vErr.add(prefix+"person_id", "person_id is required")
		}
	}

	return date, serviceTime, vErr
}

// applyCalendar copies the derived calendar facts onto service, letting every
// non-blank override win.
func applyCalendar(service *Service, info liturgical.SeasonInfo, overrides CalendarOverrides) {
	service.Season = info.Season
	service.WeekLabel = info.Week
	service.Color = info.Color
	service.LectionaryYear = info.LectionaryYear

	if v := normalizeOptionalString(overrides.Season); v != nil {
		service.Season = liturgical.Season(*v)
	}
	if v := normalizeOptionalString(overrides.WeekLabel); v != nil {
		service.WeekLabel = *v
	}
	if v := normalizeOptionalString(overrides.Color); v != nil {
		service.Color = liturgical.Color(*v)
	}
	if v := normalizeOptionalString(overrides.LectionaryYear); v != nil {
		service.LectionaryYear = *v
	}
}

// ensureReferencesExist checks every person and ministry named by schedules.
func (s *SchedulingService) ensureReferencesExist(ctx context.Context, schedules []ScheduleInput) error {
	if len(schedules) == 0 {
		return nil
	}
	if s.people == nil || s.ministries == nil {
		return fmt.Errorf("roster repositories not configured")
	}

	known := make(map[string]bool)
	check := func(key string, lookup func() error) (bool, error) {
		if ok, seen := known[key]; seen {
			return ok, nil
		}
		err := lookup()
		if err != nil && !isNotFoundError(err) {
			return false, err
		}
		known[key] = err == nil
		return err == nil, nil
	}

	vErr := &ValidationError{}
	for i, sched := range schedules {
		prefix := fmt.Sprintf("schedules[%d].", i)

		personID := strings.TrimSpace(sched.PersonID)
		if personID == "" {
			vErr.add(prefix+"person_id", "person_id is required")
		} else {
			ok, err := check("person:"+personID, func() error {
				_, err := s.people.GetPerson(ctx, personID)
				return err
			})
			if err != nil {
				return err
			}
			if !ok {
				vErr.add(prefix+"person_id", "unknown person")
			}
		}

		ministryID := strings.TrimSpace(sched.MinistryID)
		if ministryID == "" {
			vErr.add(prefix+"ministry_id", "ministry_id is required")
		} else {
			ok, err := check("ministry:"+ministryID, func() error {
				_, err := s.ministries.GetMinistry(ctx, ministryID)
				return err
			})
			if err != nil {
				return err
			}
			if !ok {
				vErr.add(prefix+"ministry_id", "unknown ministry")
			}
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func mapSchedulingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("schedules", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("service", "stored values violate a constraint")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
