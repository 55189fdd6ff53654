package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/liturgical-scheduler/internal/config"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite/migration"
)

// MigrationResult reports the schema state of the SQLite store.
type MigrationResult struct {
	CurrentVersion string   `json:"current_version"`
	Applied        []string `json:"applied"`
	Pending        []string `json:"pending"`
}

type migrateOptions struct {
	status bool
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending schema migrations to the SQLite store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.status, "status", false, "report applied and pending migrations without applying")

	return cmd
}

func runMigrate(rootOpts *RootOptions, opts *migrateOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)

	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if cfg.Store != config.StoreSQLite {
		return reportUsage(formatter, "migrations apply to the sqlite store only")
	}

	ctx := cmd.Context()
	store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), rootOpts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return reportError(formatter, "failed to open storage", err)
	}
	defer store.Close()

	if !opts.status {
		if err := store.Migrate(ctx); err != nil {
			return reportError(formatter, "failed to apply migrations", err)
		}
	}

	status, err := store.Status(ctx)
	if err != nil {
		return reportError(formatter, "failed to read migration status", err)
	}

	result := MigrationResult{
		CurrentVersion: status.CurrentVersion,
		Applied:        make([]string, 0, len(status.AppliedMigrations)),
		Pending:        make([]string, 0, len(status.PendingMigrations)),
	}
	for _, m := range status.AppliedMigrations {
		result.Applied = append(result.Applied, m.Version)
	}
	for _, m := range status.PendingMigrations {
		result.Pending = append(result.Pending, m.Version)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Schema version: %s\n", result.CurrentVersion)
	fmt.Fprintf(&text, "Applied: %d, pending: %d\n", len(result.Applied), len(result.Pending))
	for _, v := range result.Pending {
		fmt.Fprintf(&text, "  pending %s\n", v)
	}
	return formatter.Success(result, text.String())
}
