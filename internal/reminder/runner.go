// Package reminder periodically notifies assignees of upcoming published
// services.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
	"github.com/example/liturgical-scheduler/internal/notify"
)

// DefaultHorizon is how far ahead reminders look when none is configured.
const DefaultHorizon = 7 * 24 * time.Hour

// ServiceSource lists upcoming services and resolves their assignments.
type ServiceSource interface {
	ListUpcomingServices(ctx context.Context) ([]application.Service, error)
	ResolveService(ctx context.Context, id string) (application.ResolvedService, error)
}

// Summary aggregates one reminder pass.
type Summary struct {
	Services int
	Sent     int
	Failed   int
}

// Runner dispatches reminders for published services dated within the
// horizon. Services already fully notified produce no sends.
type Runner struct {
	source     ServiceSource
	dispatcher *notify.Dispatcher
	gateway    notify.Gateway
	horizon    time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewRunner constructs a runner. A zero horizon uses DefaultHorizon.
func NewRunner(source ServiceSource, dispatcher *notify.Dispatcher, gateway notify.Gateway, horizon time.Duration, now func() time.Time, logger *slog.Logger) *Runner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		source:     source,
		dispatcher: dispatcher,
		gateway:    gateway,
		horizon:    horizon,
		now:        now,
		logger:     logger.With("component", "reminder"),
	}
}

// RunOnce performs a single pass. Every eligible service is attempted; the
// joined error reports the services that could not be resolved or marked.
func (r *Runner) RunOnce(ctx context.Context) (Summary, error) {
	var summary Summary

	services, err := r.source.ListUpcomingServices(ctx)
	if err != nil {
		return summary, fmt.Errorf("list upcoming services: %w", err)
	}

	cutoff := liturgical.CivilDate(r.now().Add(r.horizon))
	var errs []error
	for _, svc := range services {
		if !svc.Published || svc.Date.After(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		resolved, err := r.source.ResolveService(ctx, svc.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve service %s: %w", svc.ID, err))
			continue
		}

		result, err := r.dispatcher.Dispatch(ctx, resolved, r.gateway)
		summary.Services++
		summary.Sent += result.SentCount
		summary.Failed += result.FailedCount
		if err != nil {
			errs = append(errs, fmt.Errorf("service %s: %w", svc.ID, err))
		}
	}

	r.logger.InfoContext(ctx, "reminder pass finished",
		"services", summary.Services,
		"sent", summary.Sent,
		"failed", summary.Failed,
	)
	return summary, errors.Join(errs...)
}

// Start schedules RunOnce on the standard five-field cron spec and blocks
// until ctx is cancelled, then waits for a running pass to finish. A tick
// that fires while the previous pass is still sending is skipped.
func (r *Runner) Start(ctx context.Context, spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{r.logger}))
	if _, err := c.AddJob(spec, r.job(ctx)); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	c.Start()
	r.logger.InfoContext(ctx, "reminders scheduled", "cron", spec, "horizon", r.horizon.String())
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (r *Runner) job(ctx context.Context) cron.Job {
	return cron.NewChain(cron.SkipIfStillRunning(cronLogger{r.logger})).Then(cron.FuncJob(func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "reminder pass failed", "error", err)
		}
	}))
}

// cronLogger routes cron's own messages, such as skipped ticks, to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}

// ValidateSpec reports whether spec is a valid five-field cron expression.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return nil
}
