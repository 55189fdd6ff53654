// Package recurrence expands weekly service patterns into civil dates using
// RFC 5545 recurrence rules.
package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultMaxOccurrences caps a single expansion at roughly ten years of
// weekly services.
const DefaultMaxOccurrences = 520

// Rule describes a weekly run of services.
type Rule struct {
	Weekdays []time.Weekday
	StartsOn time.Time
	EndsOn   *time.Time
	Exclude  []time.Time

	// Interval is the number of weeks between runs. Zero means every week.
	Interval int

	// Count limits the number of occurrences when positive.
	Count int
}

// GenerateOptions defines optional range bounds for occurrence generation.
type GenerateOptions struct {
	RangeStart *time.Time
	RangeEnd   *time.Time
}

// Engine expands recurrence rules into civil dates.
type Engine struct {
	location       *time.Location
	maxOccurrences int
}

// NewEngine constructs an Engine that reads rule bounds in loc. If loc is nil
// UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc, maxOccurrences: DefaultMaxOccurrences}
}

var (
	// ErrNoWeekdays indicates the rule selects no day of the week.
	ErrNoWeekdays = errors.New("recurrence: rule requires at least one weekday")
	// ErrInvalidWindow indicates the generation window is unbounded.
	ErrInvalidWindow = errors.New("recurrence: generation window requires an end bound")
	// ErrTooManyOccurrences indicates the window holds more dates than the engine allows.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
)

// Dates returns the civil dates (midnight UTC) selected by rule inside the
// window, in ascending order.
//
// The window is bounded by the rule's EndsOn or Count and by opts.RangeEnd;
// at least one of them must be set. Both ends are inclusive.
func (e *Engine) Dates(rule Rule, opts GenerateOptions) ([]time.Time, error) {
	if len(rule.Weekdays) == 0 {
		return nil, ErrNoWeekdays
	}
	if rule.EndsOn == nil && rule.Count <= 0 && opts.RangeEnd == nil {
		return nil, ErrInvalidWindow
	}

	r, err := e.build(rule)
	if err != nil {
		return nil, err
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range rule.Exclude {
		set.ExDate(e.civil(ex))
	}

	lower := e.civil(rule.StartsOn)
	if opts.RangeStart != nil && e.civil(*opts.RangeStart).After(lower) {
		lower = e.civil(*opts.RangeStart)
	}

	var occurrences []time.Time
	if opts.RangeEnd != nil {
		occurrences = set.Between(lower, e.civil(*opts.RangeEnd), true)
	} else {
		occurrences = set.All()
		occurrences = dropBefore(occurrences, lower)
	}

	if len(occurrences) > e.maxOccurrences {
		return nil, ErrTooManyOccurrences
	}

	dates := make([]time.Time, len(occurrences))
	for i, occ := range occurrences {
		y, m, d := occ.Date()
		dates[i] = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return dates, nil
}

// RRule renders rule as an RRULE property value without DTSTART, suitable
// for a calendar feed.
func (e *Engine) RRule(rule Rule) (string, error) {
	if len(rule.Weekdays) == 0 {
		return "", ErrNoWeekdays
	}
	r, err := e.build(rule)
	if err != nil {
		return "", err
	}
	return r.OrigOptions.RRuleString(), nil
}

func (e *Engine) build(rule Rule) (*rrule.RRule, error) {
	interval := rule.Interval
	if interval <= 0 {
		interval = 1
	}

	option := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Byweekday: toRRuleWeekdays(rule.Weekdays),
		Dtstart:   e.civil(rule.StartsOn),
		Count:     rule.Count,
	}
	if rule.EndsOn != nil {
		option.Until = e.civil(*rule.EndsOn)
	}
	return rrule.NewRRule(option)
}

// civil reads t as a calendar day in the engine's location and returns that
// day at midnight UTC.
func (e *Engine) civil(t time.Time) time.Time {
	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dropBefore(times []time.Time, lower time.Time) []time.Time {
	out := times[:0]
	for _, t := range times {
		if !t.Before(lower) {
			out = append(out, t)
		}
	}
	return out
}

func toRRuleWeekdays(days []time.Weekday) []rrule.Weekday {
	out := make([]rrule.Weekday, 0, len(days))
	for _, day := range days {
		switch day {
		case time.Monday:
			out = append(out, rrule.MO)
		case time.Tuesday:
			out = append(out, rrule.TU)
		case time.Wednesday:
			out = append(out, rrule.WE)
		case time.Thursday:
			out = append(out, rrule.TH)
		case time.Friday:
			out = append(out, rrule.FR)
		case time.Saturday:
			out = append(out, rrule.SA)
		default:
			out = append(out, rrule.SU)
		}
	}
	return out
}
