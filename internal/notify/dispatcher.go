package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
)

// ErrPersistenceFailure wraps a failure to record the notified flags after
// the sends completed.
var ErrPersistenceFailure = errors.New("notify: persisting notified flags failed")

// RecipientResult is the outcome of one send.
type RecipientResult struct {
	ScheduleID string
	PersonName string
	Address    string
	Success    bool
	Error      string
}

// DispatchResult summarises one dispatch. Recipients keep schedule order.
// Unmarked lists schedules that were sent to but removed before their
// notified flag could be written.
type DispatchResult struct {
	SentCount   int
	FailedCount int
	Recipients  []RecipientResult
	Unmarked    []string
}

// Dispatcher fans notifications for one service out to every reachable,
// not yet notified assignee.
type Dispatcher struct {
	marker      Marker
	formatter   Formatter
	now         func() time.Time
	logger      *slog.Logger
	sendTimeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp notified schedules.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithSendTimeout bounds each individual send. Zero disables the bound.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.sendTimeout = timeout
	}
}

// NewDispatcher constructs a dispatcher that records successes through marker.
func NewDispatcher(marker Marker, formatter Formatter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		marker:    marker,
		formatter: formatter,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type candidate struct {
	schedule application.ResolvedSchedule
	address  string
}

// Dispatch sends one message per candidate schedule concurrently and waits
// for all of them. A candidate has a contact address and is not yet
// notified; everyone else is skipped. A failed send never stops the others
// and is reported in the result.
//
// After every send has finished the successful schedules are marked notified
// in a single write. That write ignores cancellation of ctx: the messages are
// already out. The returned error is non-nil only when the write fails, in
// which case the result still describes every send.
func (d *Dispatcher) Dispatch(ctx context.Context, svc application.ResolvedService, gw Gateway) (DispatchResult, error) {
	if gw == nil {
		return DispatchResult{}, fmt.Errorf("notify: gateway is nil")
	}

	logger := d.logger.With("service_id", svc.Service.ID)

	candidates := make([]candidate, 0, len(svc.Schedules))
	for _, rs := range svc.Schedules {
		if rs.Schedule.Notified || !rs.Person.HasContact() {
			continue
		}
		candidates = append(candidates, candidate{schedule: rs, address: *rs.Person.Contact})
	}

	results := make([]RecipientResult, len(candidates))
	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c candidate) {
			defer wg.Done()
			results[i] = d.send(ctx, gw, svc.Service, c)
		}(i, c)
	}
	wg.Wait()

	result := DispatchResult{Recipients: results}
	succeeded := make([]string, 0, len(results))
	for _, r := range results {
		if r.Success {
			result.SentCount++
			succeeded = append(succeeded, r.ScheduleID)
			continue
		}
		result.FailedCount++
		logger.WarnContext(ctx, "notification failed", "schedule_id", r.ScheduleID, "error", r.Error)
	}

	logger.InfoContext(ctx, "notifications dispatched",
		"candidates", len(candidates),
		"sent", result.SentCount,
		"failed", result.FailedCount,
	)

	if len(succeeded) == 0 || d.marker == nil {
		return result, nil
	}
	missing, err := d.marker.MarkNotified(context.WithoutCancel(ctx), succeeded, d.now())
	if err != nil {
		logger.ErrorContext(ctx, "failed to record notified schedules", "error", err, "schedule_count", len(succeeded))
		return result, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	if len(missing) > 0 {
		result.Unmarked = missing
		logger.WarnContext(ctx, "sent to schedules removed during dispatch", "schedule_ids", missing)
	}
	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, gw Gateway, service application.Service, c candidate) (res RecipientResult) {
	res = RecipientResult{
		ScheduleID: c.schedule.Schedule.ID,
		PersonName: c.schedule.Person.Name,
		Address:    c.address,
	}
	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Error = fmt.Sprintf("gateway panic: %v", p)
		}
	}()

	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	if err := gw.Send(ctx, c.address, d.formatter.Message(service, c.schedule)); err != nil {
		res.Error = err.Error()
		return
	}
	res.Success = true
	return
}
