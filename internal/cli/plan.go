package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/application"
)

// ServiceSummary is the CLI view of a stored service.
type ServiceSummary struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Time           string `json:"time,omitempty"`
	ServiceType    string `json:"service_type"`
	Season         string `json:"season"`
	WeekLabel      string `json:"week_label"`
	Color          string `json:"color"`
	LectionaryYear string `json:"lectionary_year"`
	Status         string `json:"status"`
}

func summarizeService(s application.Service) ServiceSummary {
	summary := ServiceSummary{
		ID:             s.ID,
		Date:           s.Date.Format(application.DateLayout),
		ServiceType:    s.ServiceType,
		Season:         string(s.Season),
		WeekLabel:      s.WeekLabel,
		Color:          string(s.Color),
		LectionaryYear: s.LectionaryYear,
		Status:         string(s.Status),
	}
	if s.Time != nil {
		summary.Time = *s.Time
	}
	return summary
}

// PlanResult lists the services a plan created.
type PlanResult struct {
	Created []ServiceSummary `json:"created"`
}

type planOptions struct {
	pattern     string
	from        string
	until       string
	serviceType string
	assign      []string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create a service for every date of a weekly pattern",
		Long: `Create one service per matching date between --from and --until inclusive.

The pattern names a weekday and a time, for example "Sunday at 10:30" or
"Wednesdays 7pm". Every created service receives the --assign schedules,
given as ministry-id=person-id pairs.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "weekly pattern, e.g. \"Sunday at 10:30\" (required)")
	cmd.Flags().StringVar(&opts.from, "from", "", "first date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.until, "until", "", "last date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.serviceType, "type", "Holy Communion", "service type")
	cmd.Flags().StringArrayVar(&opts.assign, "assign", nil, "ministry-id=person-id assignment, repeatable")
	_ = cmd.MarkFlagRequired("pattern")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("until")

	return cmd
}

func runPlan(rootOpts *RootOptions, opts *planOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	schedules, err := parseAssignments(opts.assign)
	if err != nil {
		return reportUsage(formatter, err.Error())
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.scheduling.PlanRecurringServices(ctx, application.PlanInput{
		Pattern:     opts.pattern,
		From:        opts.from,
		Until:       opts.until,
		ServiceType: opts.serviceType,
		Schedules:   schedules,
	})

	result := PlanResult{Created: make([]ServiceSummary, 0, len(created))}
	for _, svc := range created {
		result.Created = append(result.Created, summarizeService(svc))
	}
	if err != nil {
		formatter.VerboseLog("%d services were created before the failure", len(created))
		return reportError(formatter, "failed to plan services", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Created %d services\n", len(result.Created))
	for _, s := range result.Created {
		fmt.Fprintf(&text, "%s  %s %s  %s (%s)  %s\n", s.ID, s.Date, s.Time, s.ServiceType, s.WeekLabel, s.Color)
	}
	return formatter.Success(result, text.String())
}

func parseAssignments(pairs []string) ([]application.ScheduleInput, error) {
	out := make([]application.ScheduleInput, 0, len(pairs))
	for _, pair := range pairs {
		ministryID, personID, ok := strings.Cut(pair, "=")
		ministryID = strings.TrimSpace(ministryID)
		personID = strings.TrimSpace(personID)
		if !ok || ministryID == "" || personID == "" {
			return nil, fmt.Errorf("invalid assignment %q: want ministry-id=person-id", pair)
		}
		out = append(out, application.ScheduleInput{MinistryID: ministryID, PersonID: personID})
	}
	return out, nil
}
