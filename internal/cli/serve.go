package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/calfeed"
	httptransport "github.com/example/liturgical-scheduler/internal/http"
	"github.com/example/liturgical-scheduler/internal/program"
	"github.com/example/liturgical-scheduler/internal/reminder"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	noReminders bool
	noPDF       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		Long: `Serve the scheduling API on LITURGY_HTTP_PORT and, unless disabled, run a
reminder pass on the LITURGY_REMINDER_CRON schedule. Stops on SIGINT or
SIGTERM after in-flight requests complete.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.noReminders, "no-reminders", false, "do not schedule reminder passes")
	cmd.Flags().BoolVar(&opts.noPDF, "no-pdf", false, "disable PDF program export")

	return cmd
}

func runServe(rootOpts *RootOptions, opts *serveOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := rootOpts.logger(cmd.ErrOrStderr())

	a, err := openApp(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	gateway, release, err := a.openGateway(ctx, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open gateway", err)
	}
	defer release()

	dispatcher := a.newDispatcher()
	handlerOpts := httptransport.ServiceHandlerOptions{
		Texts:      a.texts,
		Dispatcher: dispatcher,
		Gateway:    gateway,
	}
	if !opts.noPDF {
		handlerOpts.PDF = program.PDFExporter{}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Services: httptransport.NewServiceHandler(a.scheduling, handlerOpts, logger),
		Calendar: httptransport.NewCalendarHandler(a.scheduling, calfeed.Options{Location: a.cfg.Location}, logger),
		Roster:   httptransport.NewRosterHandler(a.roster, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reminders := make(chan error, 1)
	if opts.noReminders {
		close(reminders)
	} else {
		runner := reminder.NewRunner(a.scheduling, dispatcher, gateway, a.cfg.ReminderHorizon, time.Now, logger)
		go func() {
			reminders <- runner.Start(ctx, a.cfg.ReminderCron, a.cfg.Location)
			close(reminders)
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("liturgy API listening", "addr", server.Addr, "store", a.cfg.Store, "gateway", a.cfg.Gateway)
	serveErr := server.ListenAndServe()
	cancel()
	for err := range reminders {
		if err != nil {
			logger.Error("reminder scheduler stopped", "error", err)
		}
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server encountered error", serveErr)
	}
	return nil
}
