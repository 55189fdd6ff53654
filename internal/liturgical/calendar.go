// Package liturgical computes calendar facts for the church year: the date of
// Easter, the anchor days derived from it and the season, week label, color
// and lectionary letter of any civil date.
//
// All values are civil dates represented as midnight UTC. Functions are pure
// and safe for concurrent use.
package liturgical

import "time"

const day = 24 * time.Hour

// Date returns the civil date y-m-d as midnight UTC. Out-of-range months and
// days are normalised the way time.Date does.
func Date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// CivilDate drops the clock part of t, keeping the calendar day as seen in
// t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ComputeEaster returns Easter Sunday of the given Gregorian year using the
// anonymous Gregorian computus. Years before 1583 are not meaningful.
func ComputeEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	dayOfMonth := ((h + l - 7*m + 114) % 31) + 1
	return Date(year, time.Month(month), dayOfMonth)
}

// FirstSundayOfAdvent returns the fourth Sunday before Christmas of year.
func FirstSundayOfAdvent(year int) time.Time {
	eve := Date(year, time.December, 24)
	lastSunday := eve.AddDate(0, 0, -int(eve.Weekday()))
	return lastSunday.AddDate(0, 0, -21)
}

// Anchors holds the fixed and movable days a year's seasons are measured from.
type Anchors struct {
	Year         int
	Epiphany     time.Time
	AshWednesday time.Time
	PalmSunday   time.Time
	Easter       time.Time
	Pentecost    time.Time
	FirstAdvent  time.Time
	Christmas    time.Time
}

// AnchorsFor computes the anchor days of the given year.
func AnchorsFor(year int) Anchors {
	easter := ComputeEaster(year)
	return Anchors{
		Year:         year,
		Epiphany:     Date(year, time.January, 6),
		AshWednesday: easter.AddDate(0, 0, -46),
		PalmSunday:   easter.AddDate(0, 0, -7),
		Easter:       easter,
		Pentecost:    easter.AddDate(0, 0, 49),
		FirstAdvent:  FirstSundayOfAdvent(year),
		Christmas:    Date(year, time.December, 25),
	}
}

// daysBetween counts whole days from a to b. Both must be civil dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}
