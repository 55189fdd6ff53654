package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/notify"
	"github.com/example/liturgical-scheduler/internal/reminder"
)

// NotifyRecipient is the outcome of one send.
type NotifyRecipient struct {
	ScheduleID string `json:"schedule_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// NotifyResult reports a dispatch for one service.
type NotifyResult struct {
	ServiceID string            `json:"service_id"`
	Sent      int               `json:"sent"`
	Failed    int               `json:"failed"`
	Details   []NotifyRecipient `json:"recipients"`
	Unmarked  []string          `json:"unmarked,omitempty"`
}

// ReminderResult reports one reminder pass over upcoming services.
type ReminderResult struct {
	Services int `json:"services"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
}

type notifyOptions struct {
	upcoming bool
}

// NewNotifyCommand creates the notify command.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &notifyOptions{}

	cmd := &cobra.Command{
		Use:   "notify [service-id]",
		Short: "Notify assignees of a service",
		Long: `Send a notification to every assignee of a service who has a contact and
has not been notified yet.

With --upcoming, run one reminder pass over every published service inside
the configured horizon instead. Send failures are reported per recipient and
do not fail the command; failing to record the notified flags does.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotify(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.upcoming, "upcoming", false, "notify every published service inside the reminder horizon")

	return cmd
}

func runNotify(rootOpts *RootOptions, opts *notifyOptions, args []string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	if opts.upcoming == (len(args) == 1) {
		return reportUsage(formatter, "give either a service id or --upcoming")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()

	gateway, release, err := a.openGateway(ctx, cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, "failed to open gateway", err)
	}
	defer release()

	dispatcher := a.newDispatcher()

	if opts.upcoming {
		runner := reminder.NewRunner(a.scheduling, dispatcher, gateway, a.cfg.ReminderHorizon, time.Now, a.logger)
		summary, err := runner.RunOnce(ctx)
		result := ReminderResult(summary)
		if err != nil {
			formatter.VerboseLog("reminder pass: %d services, %d sent, %d failed", result.Services, result.Sent, result.Failed)
			return reportError(formatter, "reminder pass failed", err)
		}
		return formatter.Success(result, fmt.Sprintf("Notified %d services: %d sent, %d failed\n", result.Services, result.Sent, result.Failed))
	}

	serviceID := args[0]
	resolved, err := a.scheduling.ResolveService(ctx, serviceID)
	if err != nil {
		return reportError(formatter, "failed to load service", err)
	}

	dispatched, err := dispatcher.Dispatch(ctx, resolved, gateway)
	if err != nil {
		if errors.Is(err, notify.ErrPersistenceFailure) {
			formatter.VerboseLog("%d messages were sent before the failure", dispatched.SentCount)
		}
		return reportError(formatter, "failed to record notifications", err)
	}

	result := toNotifyResult(serviceID, dispatched)
	return formatter.Success(result, notifyText(result))
}

func toNotifyResult(serviceID string, dispatched notify.DispatchResult) NotifyResult {
	result := NotifyResult{
		ServiceID: serviceID,
		Sent:      dispatched.SentCount,
		Failed:    dispatched.FailedCount,
		Details:   make([]NotifyRecipient, 0, len(dispatched.Recipients)),
		Unmarked:  dispatched.Unmarked,
	}
	for _, r := range dispatched.Recipients {
		result.Details = append(result.Details, NotifyRecipient{
			ScheduleID: r.ScheduleID,
			Name:       r.PersonName,
			Address:    r.Address,
			Success:    r.Success,
			Error:      r.Error,
		})
	}
	return result
}

func notifyText(result NotifyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Service %s: %d sent, %d failed\n", result.ServiceID, result.Sent, result.Failed)
	for _, r := range result.Details {
		if r.Success {
			fmt.Fprintf(&b, "  ok      %s <%s>\n", r.Name, r.Address)
			continue
		}
		fmt.Fprintf(&b, "  failed  %s <%s>: %s\n", r.Name, r.Address, r.Error)
	}
	if len(result.Unmarked) > 0 {
		fmt.Fprintf(&b, "  removed during dispatch: %s\n", strings.Join(result.Unmarked, ", "))
	}
	return b.String()
}
