package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/liturgical"
)

// EasterResult lists the movable anchors of one year.
type EasterResult struct {
	Year         int    `json:"year"`
	Easter       string `json:"easter"`
	AshWednesday string `json:"ash_wednesday"`
	PalmSunday   string `json:"palm_sunday"`
	Pentecost    string `json:"pentecost"`
	FirstAdvent  string `json:"first_advent"`
}

// SeasonResult is the calendar enrichment of one date.
type SeasonResult struct {
	Date           string `json:"date"`
	Season         string `json:"season"`
	Week           string `json:"week"`
	WeekNumber     int    `json:"week_number"`
	Color          string `json:"color"`
	LectionaryYear string `json:"lectionary_year"`
}

// NewEasterCommand creates the easter command.
func NewEasterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "easter <year>",
		Short: "Print Easter and the anchors that depend on it",
		Long: `Compute Western Easter for a Gregorian year together with Ash Wednesday,
Palm Sunday, Pentecost and the First Sunday of Advent.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEaster(rootOpts, args[0], cmd)
		},
	}
}

func runEaster(opts *RootOptions, rawYear string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	year, err := strconv.Atoi(strings.TrimSpace(rawYear))
	if err != nil || year < 1583 || year > 9999 {
		return reportUsage(formatter, "year must be a Gregorian year between 1583 and 9999")
	}

	a := liturgical.AnchorsFor(year)
	result := EasterResult{
		Year:         year,
		Easter:       a.Easter.Format(application.DateLayout),
		AshWednesday: a.AshWednesday.Format(application.DateLayout),
		PalmSunday:   a.PalmSunday.Format(application.DateLayout),
		Pentecost:    a.Pentecost.Format(application.DateLayout),
		FirstAdvent:  a.FirstAdvent.Format(application.DateLayout),
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Easter %d: %s\n", year, result.Easter)
	if opts.Verbose {
		fmt.Fprintf(&text, "Ash Wednesday: %s\n", result.AshWednesday)
		fmt.Fprintf(&text, "Palm Sunday:   %s\n", result.PalmSunday)
		fmt.Fprintf(&text, "Pentecost:     %s\n", result.Pentecost)
		fmt.Fprintf(&text, "First Advent:  %s\n", result.FirstAdvent)
	}
	return formatter.Success(result, text.String())
}

// NewSeasonCommand creates the season command.
func NewSeasonCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "season <YYYY-MM-DD>",
		Short:         "Print the liturgical season, week and color of a date",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeason(rootOpts, args[0], cmd)
		},
	}
}

func runSeason(opts *RootOptions, rawDate string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	date, err := time.Parse(application.DateLayout, strings.TrimSpace(rawDate))
	if err != nil {
		return reportUsage(formatter, "date must use the YYYY-MM-DD format")
	}

	info := liturgical.DeriveSeason(date)
	result := SeasonResult{
		Date:           date.Format(application.DateLayout),
		Season:         string(info.Season),
		Week:           info.Week,
		WeekNumber:     info.WeekNumber,
		Color:          string(info.Color),
		LectionaryYear: info.LectionaryYear,
	}
	text := fmt.Sprintf("%s: %s (%s), %s, Year %s\n", result.Date, result.Week, result.Season, result.Color, result.LectionaryYear)
	return formatter.Success(result, text)
}
