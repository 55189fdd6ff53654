package liturgical

import (
	"fmt"
	"time"
)

// Season names a period of the church year.
type Season string

const (
	SeasonAdvent       Season = "Advent"
	SeasonChristmas    Season = "Christmas"
	SeasonEpiphany     Season = "Epiphany"
	SeasonLent         Season = "Lent"
	SeasonHolyWeek     Season = "Holy Week"
	SeasonEaster       Season = "Easter"
	SeasonPentecost    Season = "Pentecost"
	SeasonOrdinaryTime Season = "Ordinary Time"
)

// Color is the liturgical color of a season.
type Color string

const (
	ColorPurple Color = "Purple"
	ColorWhite  Color = "White"
	ColorGreen  Color = "Green"
	ColorRed    Color = "Red"
)

// SeasonInfo is the calendar enrichment for one civil date.
type SeasonInfo struct {
	Season         Season
	Week           string
	WeekNumber     int
	Color          Color
	LectionaryYear string
}

// seasonRange is a half-open interval [start, end) measured from anchor.
type seasonRange struct {
	season Season
	color  Color
	start  time.Time
	end    time.Time
	anchor time.Time
}

func (r seasonRange) contains(date time.Time) bool {
	return !date.Before(r.start) && date.Before(r.end)
}

func rangesFor(year int) []seasonRange {
	cur := AnchorsFor(year)
	prevChristmas := Date(year-1, time.December, 25)
	nextEpiphany := Date(year+1, time.January, 6)
	ordinaryStart := cur.Pentecost.AddDate(0, 0, 1)

	// Order matters: the first containing range wins.
	return []seasonRange{
		{SeasonAdvent, ColorPurple, cur.FirstAdvent, cur.Christmas, cur.FirstAdvent},
		{SeasonChristmas, ColorWhite, cur.Christmas, nextEpiphany, cur.Christmas},
		{SeasonChristmas, ColorWhite, prevChristmas, cur.Epiphany, prevChristmas},
		{SeasonEpiphany, ColorGreen, cur.Epiphany, cur.AshWednesday, cur.Epiphany},
		{SeasonLent, ColorPurple, cur.AshWednesday, cur.PalmSunday, cur.AshWednesday},
		{SeasonHolyWeek, ColorRed, cur.PalmSunday, cur.Easter, cur.PalmSunday},
		{SeasonEaster, ColorWhite, cur.Easter, cur.Pentecost, cur.Easter},
		{SeasonPentecost, ColorRed, cur.Pentecost, ordinaryStart, cur.Pentecost},
		{SeasonOrdinaryTime, ColorGreen, ordinaryStart, cur.FirstAdvent, ordinaryStart},
	}
}

// DeriveSeason classifies date into its season and renders the week label.
func DeriveSeason(date time.Time) SeasonInfo {
	date = CivilDate(date)
	year := date.Year()

	for _, r := range rangesFor(year) {
		if !r.contains(date) {
			continue
		}
		week := daysBetween(r.anchor, date)/7 + 1
		return SeasonInfo{
			Season:         r.season,
			Week:           weekLabel(r.season, week, date, r.anchor),
			WeekNumber:     week,
			Color:          r.color,
			LectionaryYear: LectionaryYear(year),
		}
	}

	// Unreachable for years with a well-formed computus.
	return SeasonInfo{
		Season:         SeasonOrdinaryTime,
		Color:          ColorGreen,
		LectionaryYear: LectionaryYear(year),
	}
}

// LectionaryYear maps a civil year onto the three-year cycle letter.
//
// The letter follows the civil year rather than the liturgical year that
// starts at Advent.
func LectionaryYear(year int) string {
	switch ((year % 3) + 3) % 3 {
	case 0:
		return "A"
	case 1:
		return "B"
	default:
		return "C"
	}
}

func weekLabel(season Season, week int, date, anchor time.Time) string {
	onAnchor := date.Equal(anchor)
	switch season {
	case SeasonAdvent:
		return fmt.Sprintf("%s Sunday of Advent", Ordinal(week))
	case SeasonChristmas:
		if date.Month() == time.December && date.Day() == 25 {
			return "Christmas Day"
		}
		return fmt.Sprintf("%s Sunday of Christmas", Ordinal(week))
	case SeasonEpiphany:
		if onAnchor {
			return "The Epiphany"
		}
		return fmt.Sprintf("%s Sunday after Epiphany", Ordinal(week))
	case SeasonLent:
		if onAnchor {
			return "Ash Wednesday"
		}
		return fmt.Sprintf("%s Sunday in Lent", Ordinal(week))
	case SeasonHolyWeek:
		if onAnchor {
			return "Palm Sunday"
		}
		return "Holy Week"
	case SeasonEaster:
		if onAnchor {
			return "Easter Sunday"
		}
		return fmt.Sprintf("%s Sunday of Easter", Ordinal(week))
	case SeasonPentecost:
		return "Day of Pentecost"
	default:
		return fmt.Sprintf("%s Sunday after Pentecost", Ordinal(week))
	}
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 11th, 22nd.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
