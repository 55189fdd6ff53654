package notify

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/example/liturgical-scheduler/internal/application"
)

var supportedLocales = []language.Tag{
	language.AmericanEnglish,
	language.BritishEnglish,
	language.Spanish,
	language.German,
}

var localeMatcher = language.NewMatcher(supportedLocales)

type localeFormat struct {
	template string
	date     func(time.Time) string
	clock    func(date, clock string) string
}

var localeFormats = []localeFormat{
	{
		template: "Hi %s, you are scheduled to serve as %s at %s on %s%s.",
		date:     func(t time.Time) string { return t.Format("Monday, January 2, 2006") },
		clock: func(date, clock string) string {
			t, err := time.Parse(application.TimeLayout, clock)
			if err != nil {
				return date + " at " + clock
			}
			return date + " at " + t.Format("3:04 PM")
		},
	},
	{
		template: "Hi %s, you are scheduled to serve as %s at %s on %s%s.",
		date:     func(t time.Time) string { return t.Format("Monday 2 January 2006") },
		clock:    func(date, clock string) string { return date + " at " + clock },
	},
	{
		template: "Hola %s, tienes asignado el ministerio de %s en %s el %s%s.",
		date: func(t time.Time) string {
			return fmt.Sprintf("%s, %d de %s de %d", spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
		},
		clock: func(date, clock string) string { return date + " a las " + clock },
	},
	{
		template: "Hallo %s, du bist als %s für %s am %s%s eingeteilt.",
		date: func(t time.Time) string {
			return fmt.Sprintf("%s, %d. %s %d", germanWeekdays[t.Weekday()], t.Day(), germanMonths[t.Month()-1], t.Year())
		},
		clock: func(date, clock string) string { return date + " um " + clock + " Uhr" },
	},
}

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
	germanWeekdays  = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}
	germanMonths    = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"}
)

// Formatter renders the notification text for one assignment in one locale.
type Formatter struct {
	tag    language.Tag
	format localeFormat
}

// NewFormatter picks the closest supported locale to the BCP 47 preference
// list in locale, falling back to American English.
func NewFormatter(locale string) Formatter {
	_, index := language.MatchStrings(localeMatcher, locale)
	return Formatter{tag: supportedLocales[index], format: localeFormats[index]}
}

// Locale reports the matched locale.
func (f Formatter) Locale() language.Tag {
	return f.tag
}

// Message renders the text sent for rs. It depends only on its inputs.
func (f Formatter) Message(service application.Service, rs application.ResolvedSchedule) string {
	format := f.format
	if format.template == "" {
		format = localeFormats[0]
	}

	when := format.date(service.Date)
	if service.Time != nil && *service.Time != "" {
		when = format.clock(when, *service.Time)
	}

	var label string
	if service.WeekLabel != "" {
		label = " (" + service.WeekLabel + ")"
	}
	return fmt.Sprintf(format.template, rs.Person.Name, rs.Ministry.Name, service.ServiceType, when, label)
}
