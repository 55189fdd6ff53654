package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/calfeed"
)

// FeedResult describes a feed written to a file.
type FeedResult struct {
	Path   string `json:"path"`
	Events int    `json:"events"`
	Bytes  int    `json:"bytes"`
}

type feedOptions struct {
	output string
	name   string
}

// NewFeedCommand creates the feed command.
func NewFeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &feedOptions{}

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Export published services as an iCalendar feed",
		Long: `Write every published service as a VEVENT. Service times are read in the
configured time zone; services without a clock time become all-day events.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the feed to this file")
	cmd.Flags().StringVar(&opts.name, "name", "", "calendar name")

	return cmd
}

func runFeed(rootOpts *RootOptions, opts *feedOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	ctx := cmd.Context()
	a, err := openApp(ctx, rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer a.Close()

	services, err := a.scheduling.ListPublishedServices(ctx)
	if err != nil {
		return reportError(formatter, "failed to list services", err)
	}

	var buf bytes.Buffer
	if err := calfeed.Write(&buf, services, calfeed.Options{
		Name:     opts.name,
		Location: a.cfg.Location,
		Stamp:    time.Now().UTC(),
	}); err != nil {
		return reportError(formatter, "failed to encode feed", err)
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return reportError(formatter, "failed to write feed", err)
	}

	result := FeedResult{Path: opts.output, Events: len(services), Bytes: buf.Len()}
	return formatter.Success(result, fmt.Sprintf("Wrote %d events to %s\n", result.Events, result.Path))
}
