package application

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ServiceTime is the parsed form of a free text schedule such as
// "Sunday at 10:30". It is either a StructuredTime or an UnstructuredTime.
type ServiceTime interface {
	String() string
	serviceTime()
}

// StructuredTime is a weekly slot on a fixed weekday and clock time.
type StructuredTime struct {
	Day    time.Weekday
	Hour   int
	Minute int
}

func (StructuredTime) serviceTime() {}

// String renders the slot as "Sunday at 10:30".
func (t StructuredTime) String() string {
	return fmt.Sprintf("%s at %s", t.Day, t.Clock())
}

// Clock renders the time of day in the 24h "15:04" layout.
func (t StructuredTime) Clock() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// UnstructuredTime keeps text that could not be read as a weekly slot.
type UnstructuredTime struct {
	Description string
}

func (UnstructuredTime) serviceTime() {}

func (t UnstructuredTime) String() string {
	return t.Description
}

var serviceTimePattern = regexp.MustCompile(`^([a-z]+)\.?,?\s+(?:at\s+)?(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?$`)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseServiceTime reads a "day at time" description. Anything that does not
// name exactly one weekday and a valid clock time is returned unchanged as an
// UnstructuredTime.
func ParseServiceTime(raw string) ServiceTime {
	description := strings.Join(strings.Fields(raw), " ")
	fallback := UnstructuredTime{Description: description}

	match := serviceTimePattern.FindStringSubmatch(strings.ToLower(description))
	if match == nil {
		return fallback
	}

	day, ok := lookupWeekday(match[1])
	if !ok {
		return fallback
	}

	hour, err := strconv.Atoi(match[2])
	if err != nil {
		return fallback
	}
	minute := 0
	if match[3] != "" {
		if minute, err = strconv.Atoi(match[3]); err != nil {
			return fallback
		}
	}

	switch strings.ReplaceAll(match[4], ".", "") {
	case "am":
		if hour < 1 || hour > 12 {
			return fallback
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return fallback
		}
		if hour != 12 {
			hour += 12
		}
	}

	if hour > 23 || minute > 59 {
		return fallback
	}
	return StructuredTime{Day: day, Hour: hour, Minute: minute}
}

// lookupWeekday accepts full names, plurals and prefixes of at least three letters.
func lookupWeekday(word string) (time.Weekday, bool) {
	word = strings.TrimSuffix(word, "s")
	if len(word) < 3 {
		return 0, false
	}
	for name, day := range weekdayNames {
		if strings.HasPrefix(name, word) {
			return day, true
		}
	}
	return 0, false
}
