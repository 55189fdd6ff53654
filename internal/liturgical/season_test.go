package liturgical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSeason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		date   time.Time
		season Season
		week   string
		color  Color
	}{
		{"easter day 2024", Date(2024, time.March, 31), SeasonEaster, "Easter Sunday", ColorWhite},
		{"fourth sunday of easter 2024", Date(2024, time.April, 21), SeasonEaster, "4th Sunday of Easter", ColorWhite},
		{"easter day 2025", Date(2025, time.April, 20), SeasonEaster, "Easter Sunday", ColorWhite},
		{"day after advent sunday", Date(2025, time.December, 1), SeasonAdvent, "1st Sunday of Advent", ColorPurple},
		{"advent sunday", Date(2025, time.November, 30), SeasonAdvent, "1st Sunday of Advent", ColorPurple},
		{"fourth advent", Date(2025, time.December, 21), SeasonAdvent, "4th Sunday of Advent", ColorPurple},
		{"christmas day", Date(2025, time.December, 25), SeasonChristmas, "Christmas Day", ColorWhite},
		{"christmas week", Date(2025, time.December, 31), SeasonChristmas, "1st Sunday of Christmas", ColorWhite},
		{"christmas spilling into new year", Date(2025, time.January, 1), SeasonChristmas, "2nd Sunday of Christmas", ColorWhite},
		{"epiphany", Date(2025, time.January, 6), SeasonEpiphany, "The Epiphany", ColorGreen},
		{"after epiphany", Date(2025, time.January, 12), SeasonEpiphany, "1st Sunday after Epiphany", ColorGreen},
		{"ash wednesday", Date(2025, time.March, 5), SeasonLent, "Ash Wednesday", ColorPurple},
		{"first lent", Date(2025, time.March, 9), SeasonLent, "1st Sunday in Lent", ColorPurple},
		{"second lent", Date(2025, time.March, 16), SeasonLent, "2nd Sunday in Lent", ColorPurple},
		{"palm sunday", Date(2025, time.April, 13), SeasonHolyWeek, "Palm Sunday", ColorRed},
		{"maundy thursday", Date(2025, time.April, 17), SeasonHolyWeek, "Holy Week", ColorRed},
		{"pentecost", Date(2025, time.June, 8), SeasonPentecost, "Day of Pentecost", ColorRed},
		{"after pentecost", Date(2025, time.June, 15), SeasonOrdinaryTime, "1st Sunday after Pentecost", ColorGreen},
		{"late ordinary time", Date(2025, time.November, 23), SeasonOrdinaryTime, "24th Sunday after Pentecost", ColorGreen},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			info := DeriveSeason(tc.date)
			assert.Equal(t, tc.season, info.Season)
			assert.Equal(t, tc.week, info.Week)
			assert.Equal(t, tc.color, info.Color)
		})
	}
}

func TestDeriveSeasonChristmasAndEasterEveryYear(t *testing.T) {
	t.Parallel()

	for year := 1900; year <= 2100; year++ {
		christmas := DeriveSeason(Date(year, time.December, 25))
		require.Equalf(t, SeasonChristmas, christmas.Season, "year %d", year)
		require.Equalf(t, ColorWhite, christmas.Color, "year %d", year)

		easter := DeriveSeason(ComputeEaster(year))
		require.Equalf(t, SeasonEaster, easter.Season, "year %d", year)
		require.Equalf(t, "Easter Sunday", easter.Week, "year %d", year)
	}
}

func TestDeriveSeasonCoversEveryDay(t *testing.T) {
	t.Parallel()

	for d := Date(2024, time.January, 1); d.Year() < 2027; d = d.AddDate(0, 0, 1) {
		info := DeriveSeason(d)
		require.NotEmptyf(t, info.Week, "no week label for %s", d)
		require.GreaterOrEqualf(t, info.WeekNumber, 1, "week number for %s", d)
	}
}

func TestDeriveSeasonIgnoresClock(t *testing.T) {
	t.Parallel()

	noon := time.Date(2025, time.April, 20, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, DeriveSeason(Date(2025, time.April, 20)), DeriveSeason(noon))
}

func TestLectionaryYear(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "A", LectionaryYear(2025))
	assert.Equal(t, "B", LectionaryYear(2026))
	assert.Equal(t, "C", LectionaryYear(2024))
	assert.Equal(t, "A", DeriveSeason(Date(2025, time.July, 1)).LectionaryYear)
}

func TestOrdinal(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd", 101: "101st", 111: "111th", 112: "112th",
	}
	for n, want := range cases {
		assert.Equal(t, want, Ordinal(n))
	}
}
