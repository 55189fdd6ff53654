package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/persistence"
)

func strPtr(s string) *string { return &s }

func TestSchedulingService_CreateService(t *testing.T) {
	t.Run("enriches the service with calendar facts", func(t *testing.T) {
		h := newSchedulingHarness()

		svc, err := h.service.CreateService(context.Background(), CreateServiceInput{
			ServiceDate: "2025-12-25",
			ServiceTime: strPtr(" 10:30 "),
			ServiceType: "Holy Communion",
			Songs:       []string{"O Come All Ye Faithful", " "},
			Schedules: []ScheduleInput{
				{MinistryID: "ministry-presiding", PersonID: "person-ben"},
				{MinistryID: "ministry-reading", PersonID: "person-ada"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if svc.Season != liturgical.SeasonChristmas || svc.Color != liturgical.ColorWhite {
			t.Fatalf("expected Christmas/White, got %s/%s", svc.Season, svc.Color)
		}
		if svc.WeekLabel != "Christmas Day" {
			t.Fatalf("expected Christmas Day label, got %q", svc.WeekLabel)
		}
		if svc.LectionaryYear != "A" {
			t.Fatalf("expected lectionary year A, got %q", svc.LectionaryYear)
		}
		if svc.Status != ServiceStatusDraft || svc.Published {
			t.Fatalf("expected unpublished draft, got %s published=%v", svc.Status, svc.Published)
		}
		if svc.Time == nil || *svc.Time != "10:30" {
			t.Fatalf("expected normalized time 10:30, got %v", svc.Time)
		}
		if len(svc.Songs) != 1 {
			t.Fatalf("expected blank songs to be dropped, got %v", svc.Songs)
		}
		if !svc.Date.Equal(time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected midnight UTC civil date, got %s", svc.Date)
		}

		stored, _ := h.repo.ListSchedulesForService(context.Background(), svc.ID)
		if len(stored) != 2 {
			t.Fatalf("expected 2 schedules stored, got %d", len(stored))
		}
		for _, sched := range stored {
			if sched.ServiceID != svc.ID || sched.Notified {
				t.Fatalf("unexpected schedule %+v", sched)
			}
		}
	})

	t.Run("explicit calendar values win", func(t *testing.T) {
		h := newSchedulingHarness()

		svc, err := h.service.CreateService(context.Background(), CreateServiceInput{
			ServiceDate: "2025-06-15",
			ServiceType: "Morning Prayer",
			Overrides: CalendarOverrides{
				WeekLabel: strPtr("Trinity Sunday"),
				Color:     strPtr("White"),
				Season:    strPtr("  "),
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.WeekLabel != "Trinity Sunday" || svc.Color != liturgical.ColorWhite {
			t.Fatalf("expected overrides to win, got %q/%s", svc.WeekLabel, svc.Color)
		}
		if svc.Season != liturgical.SeasonOrdinaryTime {
			t.Fatalf("expected blank override to keep derived season, got %s", svc.Season)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		h := newSchedulingHarness()

		_, err := h.service.CreateService(context.Background(), CreateServiceInput{
			ServiceDate: "25/12/2025",
			ServiceTime: strPtr("half past ten"),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"service_date", "service_time", "service_type"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
		if h.repo.createCalls != 0 {
			t.Fatalf("expected repository to be untouched")
		}
	})

	t.Run("rejects unknown references before writing", func(t *testing.T) {
		h := newSchedulingHarness()

		_, err := h.service.CreateService(context.Background(), CreateServiceInput{
			ServiceDate: "2025-03-16",
			ServiceType: "Holy Communion",
			Schedules: []ScheduleInput{
				{MinistryID: "ministry-reading", PersonID: "person-ada"},
				{MinistryID: "ministry-missing", PersonID: "person-ghost"},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.FieldErrors["schedules[1].person_id"] != "unknown person" {
			t.Fatalf("expected unknown person error, got %v", vErr.FieldErrors)
		}
		if vErr.FieldErrors["schedules[1].ministry_id"] != "unknown ministry" {
			t.Fatalf("expected unknown ministry error, got %v", vErr.FieldErrors)
		}
		if len(h.repo.services) != 0 {
			t.Fatalf("expected no service to be stored")
		}
	})

	t.Run("wraps store failures as unit of work failures", func(t *testing.T) {
		h := newSchedulingHarness()
		h.repo.createErr = persistence.ErrForeignKeyViolation

		svc, err := h.service.CreateService(context.Background(), CreateServiceInput{
			ServiceDate: "2025-03-16",
			ServiceType: "Holy Communion",
			Schedules:   []ScheduleInput{{MinistryID: "ministry-reading", PersonID: "person-ada"}},
		})
		if !errors.Is(err, ErrUnitOfWorkFailed) {
			t.Fatalf("expected ErrUnitOfWorkFailed, got %v", err)
		}
		if !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected cause to be preserved, got %v", err)
		}
		if svc.ID != "" {
			t.Fatalf("expected no service to be returned, got %+v", svc)
		}
		if len(h.repo.services) != 0 || len(h.repo.schedules) != 0 {
			t.Fatalf("expected nothing to be stored")
		}
	})
}

func TestSchedulingService_DuplicateService(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	original, err := h.service.CreateService(ctx, CreateServiceInput{
		ServiceDate: "2025-03-16",
		ServiceTime: strPtr("10:30"),
		ServiceType: "Holy Communion",
		Songs:       []string{"Amazing Grace"},
		Notices:     []string{"Parish lunch"},
		Readings:    strPtr("Genesis 15"),
		Collect:     strPtr("Almighty God, you show to those who are in error the light of your truth"),
		Schedules:   []ScheduleInput{{MinistryID: "ministry-reading", PersonID: "person-ada"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sourceSchedules, _ := h.repo.ListSchedulesForService(ctx, original.ID)
	if _, err := h.service.MarkNotified(ctx, []string{sourceSchedules[0].ID}, h.now); err != nil {
		t.Fatalf("unexpected mark error: %v", err)
	}

	dup, err := h.service.DuplicateService(ctx, original.ID, "2025-12-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dup.ID == original.ID {
		t.Fatalf("expected a new service id")
	}
	if dup.ServiceType != original.ServiceType || *dup.Time != "10:30" || *dup.Readings != "Genesis 15" {
		t.Fatalf("expected fields to be copied, got %+v", dup)
	}
	if dup.Season != liturgical.SeasonChristmas {
		t.Fatalf("expected calendar fields for the new date, got %s", dup.Season)
	}
	if dup.Collect != nil {
		t.Fatalf("expected the collect of the source day to stay behind, got %q", *dup.Collect)
	}

	dup.Songs[0] = "mutated"
	stored, _ := h.repo.GetService(ctx, original.ID)
	if stored.Songs[0] != "Amazing Grace" {
		t.Fatalf("expected original songs to be unaffected, got %v", stored.Songs)
	}

	copied, _ := h.repo.ListSchedulesForService(ctx, dup.ID)
	if len(copied) != 1 {
		t.Fatalf("expected staffing to be copied, got %d schedules", len(copied))
	}
	if copied[0].ID == sourceSchedules[0].ID || copied[0].Notified {
		t.Fatalf("expected fresh unnotified schedule, got %+v", copied[0])
	}
	if copied[0].PersonID != "person-ada" || copied[0].MinistryID != "ministry-reading" {
		t.Fatalf("expected same pairing, got %+v", copied[0])
	}

	if _, err := h.service.DuplicateService(ctx, "missing", "2025-12-25"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown source, got %v", err)
	}
}

func TestSchedulingService_FetchServicesByMonth(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	for _, date := range []string{"2025-11-30", "2025-12-01", "2025-12-31", "2026-01-01"} {
		if _, err := h.service.CreateService(ctx, CreateServiceInput{ServiceDate: date, ServiceType: "Eucharist"}); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}

	december, err := h.service.FetchServicesByMonth(ctx, 2025, time.December)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(december) != 2 {
		t.Fatalf("expected 2 December services, got %d", len(december))
	}
	if got := h.repo.lastQuery; !got.From.Equal(liturgical.Date(2025, time.December, 1)) || !got.To.Equal(liturgical.Date(2025, time.December, 31)) {
		t.Fatalf("unexpected range %s..%s", got.From, got.To)
	}

	november, err := h.service.FetchServicesByMonth(ctx, 2025, time.November)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(november) != 1 || !h.repo.lastQuery.To.Equal(liturgical.Date(2025, time.November, 30)) {
		t.Fatalf("expected November to end on the 30th")
	}

	var vErr *ValidationError
	if _, err := h.service.FetchServicesByMonth(ctx, 2025, 13); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for month 13, got %v", err)
	}
}

func TestSchedulingService_PublishService(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	svc, err := h.service.CreateService(ctx, CreateServiceInput{ServiceDate: "2025-03-16", ServiceType: "Eucharist"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	published, err := h.service.PublishService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !published.Published || published.Status != ServiceStatusScheduled {
		t.Fatalf("expected published scheduled service, got %+v", published)
	}

	listed, err := h.service.ListPublishedServices(ctx)
	if err != nil || len(listed) != 1 {
		t.Fatalf("expected one published service, got %d (%v)", len(listed), err)
	}

	if _, err := h.service.PublishService(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSchedulingService_ResolveServiceUsesCache(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	svc, err := h.service.CreateService(ctx, CreateServiceInput{
		ServiceDate: "2025-03-16",
		ServiceType: "Eucharist",
		Schedules: []ScheduleInput{
			{MinistryID: "ministry-reading", PersonID: "person-ada"},
			{MinistryID: "ministry-presiding", PersonID: "person-ada"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := h.roster.getPersonCalls
	resolved, err := h.service.ResolveService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Schedules) != 2 {
		t.Fatalf("expected 2 resolved schedules, got %d", len(resolved.Schedules))
	}
	if got := resolved.AssignmentsFor(SlugReading); len(got) != 1 || got[0].Person.Name != "Ada" {
		t.Fatalf("expected Ada reading, got %+v", got)
	}
	if h.roster.getPersonCalls-before != 1 {
		t.Fatalf("expected person lookups to be shared, got %d", h.roster.getPersonCalls-before)
	}

	before = h.roster.getPersonCalls
	if _, err := h.service.ResolveService(ctx, svc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.roster.getPersonCalls != before {
		t.Fatalf("expected second resolve to be served from cache")
	}

	if _, err := h.service.AssignMinistry(ctx, AssignMinistryInput{ServiceID: svc.ID, MinistryID: "ministry-reading", PersonID: "person-ben"}); err != nil {
		t.Fatalf("unexpected assign error: %v", err)
	}
	if h.cache.Len() != 0 {
		t.Fatalf("expected assignment to invalidate cache")
	}
	again, err := h.service.ResolveService(ctx, svc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.Schedules) != 3 {
		t.Fatalf("expected new assignment to be visible, got %d schedules", len(again.Schedules))
	}
}

func TestSchedulingService_AssignAndRemove(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	if _, err := h.service.AssignMinistry(ctx, AssignMinistryInput{ServiceID: "missing", MinistryID: "ministry-reading", PersonID: "person-ada"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing service, got %v", err)
	}

	svc, err := h.service.CreateService(ctx, CreateServiceInput{ServiceDate: "2025-03-16", ServiceType: "Eucharist"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var vErr *ValidationError
	if _, err := h.service.AssignMinistry(ctx, AssignMinistryInput{ServiceID: svc.ID, MinistryID: "ministry-reading", PersonID: "nobody"}); !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for unknown person, got %v", err)
	}

	sched, err := h.service.AssignMinistry(ctx, AssignMinistryInput{ServiceID: svc.ID, MinistryID: "ministry-reading", PersonID: "person-ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.service.RemoveAssignment(ctx, sched.ID); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if err := h.service.RemoveAssignment(ctx, sched.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestSchedulingService_ListUpcomingServices(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	for _, date := range []string{"2025-03-09", "2025-03-10", "2025-03-16"} {
		if _, err := h.service.CreateService(ctx, CreateServiceInput{ServiceDate: date, ServiceType: "Eucharist"}); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}

	upcoming, err := h.service.ListUpcomingServices(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected today and later, got %d services", len(upcoming))
	}
	if !upcoming[0].Date.Before(upcoming[1].Date) {
		t.Fatalf("expected ascending order")
	}
}

func TestSchedulingService_PlanRecurringServices(t *testing.T) {
	t.Run("creates one service per matching date", func(t *testing.T) {
		h := newSchedulingHarness()

		created, err := h.service.PlanRecurringServices(context.Background(), PlanInput{
			Pattern:     "Sundays at 10:30am",
			From:        "2025-03-01",
			Until:       "2025-03-31",
			ServiceType: "Parish Eucharist",
			Schedules:   []ScheduleInput{{MinistryID: "ministry-presiding", PersonID: "person-ben"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(created) != 5 {
			t.Fatalf("expected 5 Sundays in March 2025, got %d", len(created))
		}
		for _, svc := range created {
			if svc.Date.Weekday() != time.Sunday {
				t.Fatalf("expected Sunday, got %s", svc.Date.Weekday())
			}
			if svc.Time == nil || *svc.Time != "10:30" {
				t.Fatalf("expected 10:30, got %v", svc.Time)
			}
		}
		if len(h.repo.schedules) != 5 {
			t.Fatalf("expected staffing on every service, got %d schedules", len(h.repo.schedules))
		}
	})

	t.Run("rejects unstructured patterns", func(t *testing.T) {
		h := newSchedulingHarness()

		_, err := h.service.PlanRecurringServices(context.Background(), PlanInput{
			Pattern:     "after the harvest supper",
			From:        "2025-03-01",
			Until:       "2025-02-01",
			ServiceType: "Evensong",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["pattern"]; !ok {
			t.Fatalf("expected pattern error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["until"]; !ok {
			t.Fatalf("expected until error, got %v", vErr.FieldErrors)
		}
	})
}

func TestSchedulingService_MarkNotified(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	if _, err := h.service.MarkNotified(ctx, nil, h.now); err != nil {
		t.Fatalf("expected empty mark to be a no-op, got %v", err)
	}

	created, err := h.service.CreateService(ctx, CreateServiceInput{
		ServiceDate: "2025-03-16",
		ServiceType: "Holy Communion",
		Schedules: []ScheduleInput{
			{MinistryID: "ministry-reading", PersonID: "person-ada"},
			{MinistryID: "ministry-reading", PersonID: "person-ben"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schedules, _ := h.repo.ListSchedulesForService(ctx, created.ID)
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}

	// One assignment was removed while its message was being sent.
	if err := h.service.RemoveAssignment(ctx, schedules[0].ID); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	missing, err := h.service.MarkNotified(ctx, []string{schedules[0].ID, schedules[1].ID}, h.now)
	if err != nil {
		t.Fatalf("expected removed schedule to be reported, not to fail the write: %v", err)
	}
	if len(missing) != 1 || missing[0] != schedules[0].ID {
		t.Fatalf("expected %s reported missing, got %v", schedules[0].ID, missing)
	}
	if got := h.repo.schedules[schedules[1].ID]; !got.Notified {
		t.Fatalf("expected the remaining schedule to be marked notified")
	}

	h.repo.markErr = persistence.ErrNotFound
	if _, err := h.service.MarkNotified(ctx, []string{"sched-1"}, h.now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected mapped ErrNotFound, got %v", err)
	}
}

func TestSchedulingService_NilReceiver(t *testing.T) {
	var svc *SchedulingService
	if _, err := svc.CreateService(context.Background(), CreateServiceInput{}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

// markDuringList flags every listed schedule notified right after the list
// read returns, the way a concurrent dispatch would.
type markDuringList struct {
	ScheduleRepository
	mark func(ids []string)
}

func (r *markDuringList) ListSchedulesForService(ctx context.Context, serviceID string) ([]Schedule, error) {
	schedules, err := r.ScheduleRepository.ListSchedulesForService(ctx, serviceID)
	if err == nil && r.mark != nil {
		ids := make([]string, 0, len(schedules))
		for _, s := range schedules {
			ids = append(ids, s.ID)
		}
		mark := r.mark
		r.mark = nil
		mark(ids)
	}
	return schedules, err
}

func TestSchedulingService_ResolveServiceDropsStaleJoin(t *testing.T) {
	h := newSchedulingHarness()
	ctx := context.Background()

	wrapped := &markDuringList{ScheduleRepository: h.repo}
	service := NewSchedulingService(h.repo, wrapped, h.roster, h.roster, h.cache, sequentialIDs("svc"), fixedClock(h.now))

	created, err := service.CreateService(ctx, CreateServiceInput{
		ServiceDate: "2025-03-16",
		ServiceType: "Holy Communion",
		Schedules: []ScheduleInput{
			{MinistryID: "ministry-reading", PersonID: "person-ada"},
			{MinistryID: "ministry-presiding", PersonID: "person-ben"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrapped.mark = func(ids []string) {
		if _, err := service.MarkNotified(ctx, ids, h.now); err != nil {
			t.Errorf("unexpected mark error: %v", err)
		}
	}
	stale, err := service.ResolveService(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stale.Schedules[0].Schedule.Notified {
		t.Fatalf("expected the in-flight read to predate the mark")
	}

	fresh, err := service.ResolveService(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rs := range fresh.Schedules {
		if !rs.Schedule.Notified {
			t.Fatalf("expected schedule %s to be read as notified, got a cached stale join", rs.Schedule.ID)
		}
	}
}
