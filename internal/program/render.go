// Package program turns a resolved service into an ordered order-of-service
// document and serialises it as text, HTML or PDF.
package program

import (
	"time"

	"github.com/example/liturgical-scheduler/internal/application"
)

// Program is the rendered order of service.
type Program struct {
	ServiceID      string
	Title          string
	Date           time.Time
	Time           string
	Season         string
	WeekLabel      string
	Color          string
	LectionaryYear string
	Collect        string
	Sections       []Section
}

// Section is one part of the service. Sections never appear empty: a part
// without the people or content it needs is left out.
type Section struct {
	ID      string
	Title   string
	Leaders []Leader
	Items   []string
	Body    string
}

// Leader names who leads a section in which ministry.
type Leader struct {
	Ministry string
	Names    []string
}

// sectionSpec is one row of the order-of-service table.
//
// A section with a list is kept when the list is non-empty. Otherwise it is
// kept when one of the required slugs is assigned; the first assigned slug
// leads. Optional slugs are shown alongside when assigned.
type sectionSpec struct {
	id       string
	title    string
	required []string
	optional []string
	list     func(application.Service) []string
	body     func(application.Service, Texts) string
}

func text(category string) func(application.Service, Texts) string {
	return func(_ application.Service, texts Texts) string { return texts.Text(category) }
}

var orderOfService = []sectionSpec{
	{id: "opening", title: "Opening", required: []string{application.SlugWelcome}, body: text(TextOpening)},
	{id: "songs", title: "Songs", list: func(s application.Service) []string { return s.Songs }},
	{id: "confession", title: "Confession", required: []string{application.SlugPresiding}, body: text(TextConfession)},
	{id: "absolution", title: "Absolution", required: []string{application.SlugPresiding}, body: text(TextAbsolution)},
	{id: "readings", title: "Readings", required: []string{application.SlugReading}, body: func(s application.Service, _ Texts) string {
		if s.Readings == nil {
			return ""
		}
		return *s.Readings
	}},
	{id: "offertory", title: "Offertory", required: []string{application.SlugOffertory}, body: text(TextOffertory)},
	{id: "sermon", title: "Sermon", required: []string{application.SlugPreaching}},
	{id: "eucharist", title: "Eucharist", required: []string{application.SlugPresiding}, optional: []string{application.SlugServing}, body: text(TextEucharist)},
	{id: "creed", title: "Creed", required: []string{application.SlugPresiding}, body: text(TextCreed)},
	{id: "notices", title: "Notices", list: func(s application.Service) []string { return s.Notices }},
	{id: "blessing", title: "Blessing", required: []string{application.SlugPresiding}, body: text(TextBlessing)},
	{id: "dismissal", title: "Dismissal", required: []string{application.SlugServing, application.SlugPresiding}, body: text(TextDismissal)},
}

// Render builds the program for svc. Output depends only on its inputs.
func Render(svc application.ResolvedService, texts Texts) Program {
	service := svc.Service
	p := Program{
		ServiceID:      service.ID,
		Title:          service.ServiceType,
		Date:           service.Date,
		Season:         string(service.Season),
		WeekLabel:      service.WeekLabel,
		Color:          string(service.Color),
		LectionaryYear: service.LectionaryYear,
	}
	if service.Time != nil {
		p.Time = *service.Time
	}
	if service.Collect != nil {
		p.Collect = *service.Collect
	}

	for _, spec := range orderOfService {
		if section, ok := spec.render(svc, texts); ok {
			p.Sections = append(p.Sections, section)
		}
	}
	return p
}

func (spec sectionSpec) render(svc application.ResolvedService, texts Texts) (Section, bool) {
	section := Section{ID: spec.id, Title: spec.title}

	if spec.list != nil {
		items := spec.list(svc.Service)
		if len(items) == 0 {
			return Section{}, false
		}
		section.Items = append([]string(nil), items...)
	}

	if len(spec.required) > 0 {
		lead, ok := firstAssigned(svc, spec.required)
		if !ok {
			return Section{}, false
		}
		section.Leaders = append(section.Leaders, lead)
		for _, slug := range spec.optional {
			if extra, ok := leaderFor(svc, slug); ok {
				section.Leaders = append(section.Leaders, extra)
			}
		}
	}

	if spec.body != nil {
		section.Body = spec.body(svc.Service, texts)
	}
	return section, true
}

func firstAssigned(svc application.ResolvedService, slugs []string) (Leader, bool) {
	for _, slug := range slugs {
		if lead, ok := leaderFor(svc, slug); ok {
			return lead, true
		}
	}
	return Leader{}, false
}

func leaderFor(svc application.ResolvedService, slug string) (Leader, bool) {
	assignments := svc.AssignmentsFor(slug)
	if len(assignments) == 0 {
		return Leader{}, false
	}
	lead := Leader{Ministry: assignments[0].Ministry.Name}
	for _, a := range assignments {
		lead.Names = append(lead.Names, a.Person.Name)
	}
	return lead, true
}
