package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
)

type recordingMarker struct {
	mu      sync.Mutex
	calls   [][]string
	at      time.Time
	err     error
	missing []string
	ctxErr  error
}

func (m *recordingMarker) MarkNotified(ctx context.Context, ids []string, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string(nil), ids...))
	m.at = at
	m.ctxErr = ctx.Err()
	if m.err != nil {
		return nil, m.err
	}
	return m.missing, nil
}

func strPtr(s string) *string { return &s }

func resolved(id, name string, contact *string, notified bool) application.ResolvedSchedule {
	return application.ResolvedSchedule{
		Schedule: application.Schedule{ID: id, ServiceID: "svc-1", Notified: notified},
		Person:   application.Person{ID: "person-" + id, Name: name, Contact: contact},
		Ministry: application.Ministry{ID: "ministry-reading", Name: "Reading", Slug: application.SlugReading},
	}
}

func sundayService(schedules ...application.ResolvedSchedule) application.ResolvedService {
	return application.ResolvedService{
		Service: application.Service{
			ID:          "svc-1",
			Date:        liturgical.Date(2025, time.March, 16),
			Time:        strPtr("10:30"),
			ServiceType: "Holy Communion",
			WeekLabel:   "2nd Sunday in Lent",
		},
		Schedules: schedules,
	}
}

var fixedNow = time.Date(2025, time.March, 14, 18, 0, 0, 0, time.UTC)

func TestDispatchSkipsIneligibleSchedules(t *testing.T) {
	t.Parallel()

	var sent atomic.Int32
	gw := GatewayFunc(func(ctx context.Context, address, text string) error {
		sent.Add(1)
		return nil
	})
	marker := &recordingMarker{}
	d := NewDispatcher(marker, NewFormatter("en-US"), WithClock(func() time.Time { return fixedNow }))

	svc := sundayService(
		resolved("s1", "Ada", strPtr("+15550101"), false),
		resolved("s2", "Ben", nil, false),
		resolved("s3", "Cy", strPtr(""), false),
		resolved("s4", "Dee", strPtr("+15550104"), true),
	)

	result, err := d.Dispatch(context.Background(), svc, gw)
	require.NoError(t, err)

	assert.EqualValues(t, 1, sent.Load())
	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, 0, result.FailedCount)
	require.Len(t, result.Recipients, 1)
	assert.Equal(t, "s1", result.Recipients[0].ScheduleID)
	assert.Equal(t, [][]string{{"s1"}}, marker.calls)
	assert.Equal(t, fixedNow, marker.at)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	gw := GatewayFunc(func(ctx context.Context, address, text string) error {
		switch address {
		case "+2":
			return errors.New("number not on network")
		case "+3":
			panic("driver exploded")
		}
		return nil
	})
	marker := &recordingMarker{}
	d := NewDispatcher(marker, NewFormatter(""))

	svc := sundayService(
		resolved("s1", "Ada", strPtr("+1"), false),
		resolved("s2", "Ben", strPtr("+2"), false),
		resolved("s3", "Cy", strPtr("+3"), false),
		resolved("s4", "Dee", strPtr("+4"), false),
	)

	result, err := d.Dispatch(context.Background(), svc, gw)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SentCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, result.SentCount+result.FailedCount, len(result.Recipients))

	byID := map[string]RecipientResult{}
	for _, r := range result.Recipients {
		byID[r.ScheduleID] = r
	}
	assert.Equal(t, "number not on network", byID["s2"].Error)
	assert.Contains(t, byID["s3"].Error, "driver exploded")
	assert.True(t, byID["s4"].Success)

	require.Len(t, marker.calls, 1, "notified flags are written once")
	assert.ElementsMatch(t, []string{"s1", "s4"}, marker.calls[0])
}

func TestDispatchSendsConcurrently(t *testing.T) {
	t.Parallel()

	const recipients = 5
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(recipients)

	gw := GatewayFunc(func(ctx context.Context, address, text string) error {
		started.Done()
		<-release
		return nil
	})

	go func() {
		// Every send must be in flight at once before any is released.
		started.Wait()
		close(release)
	}()

	schedules := make([]application.ResolvedSchedule, recipients)
	for i := range schedules {
		schedules[i] = resolved(string(rune('a'+i)), "P", strPtr("+1"), false)
	}

	done := make(chan DispatchResult, 1)
	go func() {
		result, _ := NewDispatcher(nil, NewFormatter("en")).Dispatch(context.Background(), sundayService(schedules...), gw)
		done <- result
	}()

	select {
	case result := <-done:
		assert.Equal(t, recipients, result.SentCount)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not fan out")
	}
}

func TestDispatchReportsMarkerFailure(t *testing.T) {
	t.Parallel()

	marker := &recordingMarker{err: errors.New("database is locked")}
	d := NewDispatcher(marker, NewFormatter("en"))
	gw := GatewayFunc(func(ctx context.Context, address, text string) error { return nil })

	result, err := d.Dispatch(context.Background(), sundayService(resolved("s1", "Ada", strPtr("+1"), false)), gw)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.Equal(t, 1, result.SentCount, "sends are reported even when marking fails")
}

func TestDispatchSkipsMarkerWithoutSuccesses(t *testing.T) {
	t.Parallel()

	marker := &recordingMarker{}
	d := NewDispatcher(marker, NewFormatter("en"))
	gw := GatewayFunc(func(ctx context.Context, address, text string) error { return errors.New("offline") })

	result, err := d.Dispatch(context.Background(), sundayService(resolved("s1", "Ada", strPtr("+1"), false)), gw)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Empty(t, marker.calls)
}

func TestDispatchAppliesSendTimeout(t *testing.T) {
	t.Parallel()

	gw := GatewayFunc(func(ctx context.Context, address, text string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d := NewDispatcher(nil, NewFormatter("en"), WithSendTimeout(10*time.Millisecond))

	result, err := d.Dispatch(context.Background(), sundayService(resolved("s1", "Ada", strPtr("+1"), false)), gw)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Recipients[0].Error)
}

func TestDispatchRequiresGateway(t *testing.T) {
	t.Parallel()

	_, err := NewDispatcher(nil, NewFormatter("en")).Dispatch(context.Background(), sundayService(), nil)
	assert.Error(t, err)
}

func TestDispatchReportsRemovedSchedulesAsUnmarked(t *testing.T) {
	t.Parallel()

	marker := &recordingMarker{missing: []string{"s2"}}
	d := NewDispatcher(marker, NewFormatter("en"))
	gw := GatewayFunc(func(ctx context.Context, address, text string) error { return nil })

	svc := sundayService(
		resolved("s1", "Ada", strPtr("+1"), false),
		resolved("s2", "Ben", strPtr("+2"), false),
	)
	result, err := d.Dispatch(context.Background(), svc, gw)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SentCount)
	assert.Equal(t, []string{"s2"}, result.Unmarked)
}

func TestDispatchMarksAfterCallerCancels(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marker := &recordingMarker{}
	d := NewDispatcher(marker, NewFormatter("en"))
	gw := GatewayFunc(func(context.Context, string, string) error {
		// The client goes away once the message is out.
		cancel()
		return nil
	})

	result, err := d.Dispatch(ctx, sundayService(resolved("s1", "Ada", strPtr("+1"), false)), gw)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount)
	require.Len(t, marker.calls, 1)
	assert.NoError(t, marker.ctxErr)
}
