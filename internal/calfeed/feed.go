// Package calfeed exports published services as an iCalendar feed.
package calfeed

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/liturgical-scheduler/internal/application"
)

const (
	defaultName     = "Services"
	defaultProdID   = "-//liturgical-scheduler//services//EN"
	defaultDuration = time.Hour
	uidDomain       = "liturgical-scheduler"
)

// Options controls how services become events.
type Options struct {
	Name string
	// Location interprets service times; UTC when nil.
	Location *time.Location
	// Duration of timed services; an hour when zero.
	Duration time.Duration
	// Stamp is written as DTSTAMP for services without an update time.
	Stamp time.Time
}

// Build returns a calendar with one event per published service. Services
// without a parseable time become all-day events.
func Build(services []application.Service, opts Options) *ical.Calendar {
	if opts.Name == "" {
		opts.Name = defaultName
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Duration <= 0 {
		opts.Duration = defaultDuration
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(defaultProdID)
	cal.SetXWRCalName(opts.Name)

	for _, svc := range services {
		if !svc.Published {
			continue
		}
		addEvent(cal, svc, opts)
	}
	return cal
}

// Write serialises the feed for services to w.
func Write(w io.Writer, services []application.Service, opts Options) error {
	if err := Build(services, opts).SerializeTo(w); err != nil {
		return fmt.Errorf("write calendar feed: %w", err)
	}
	return nil
}

func addEvent(cal *ical.Calendar, svc application.Service, opts Options) {
	event := cal.AddEvent(svc.ID + "@" + uidDomain)

	stamp := svc.UpdatedAt
	if stamp.IsZero() {
		stamp = opts.Stamp
	}
	if !stamp.IsZero() {
		event.SetDtStampTime(stamp.UTC())
	}

	summary := svc.ServiceType
	if svc.WeekLabel != "" {
		summary += " (" + svc.WeekLabel + ")"
	}
	event.SetSummary(summary)
	if desc := description(svc); desc != "" {
		event.SetDescription(desc)
	}
	event.SetStatus(ical.ObjectStatusConfirmed)

	if start, ok := startTime(svc, opts.Location); ok {
		event.SetStartAt(start)
		event.SetEndAt(start.Add(opts.Duration))
		return
	}
	day := svc.Date
	event.SetAllDayStartAt(day)
	event.SetAllDayEndAt(day.AddDate(0, 0, 1))
}

func startTime(svc application.Service, loc *time.Location) (time.Time, bool) {
	if svc.Time == nil {
		return time.Time{}, false
	}
	clock, err := time.Parse(application.TimeLayout, strings.TrimSpace(*svc.Time))
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := svc.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), true
}

func description(svc application.Service) string {
	var lines []string
	facts := make([]string, 0, 3)
	for _, fact := range []string{string(svc.Season), string(svc.Color)} {
		if fact != "" {
			facts = append(facts, fact)
		}
	}
	if svc.LectionaryYear != "" {
		facts = append(facts, "Year "+svc.LectionaryYear)
	}
	if len(facts) > 0 {
		lines = append(lines, strings.Join(facts, ", "))
	}
	if svc.Readings != nil && *svc.Readings != "" {
		lines = append(lines, "Readings: "+*svc.Readings)
	}
	return strings.Join(lines, "\n")
}
