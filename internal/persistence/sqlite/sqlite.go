// Package sqlite stores the scheduling model in a SQLite database through the
// pure-Go modernc.org/sqlite driver. The schema is embedded and applied by
// Migrate.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/liturgical-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// timestampLayout is used for every created/updated/notified column.
const timestampLayout = time.RFC3339Nano

// dateLayout is used for the civil service date.
const dateLayout = "2006-01-02"

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	pool       *ConnectionPool
	logger     *slog.Logger
	People     *PersonRepository
	Ministries *MinistryRepository
	Services   *ServiceRepository
	Schedules  *ScheduleRepository
}

// Open connects to the database described by config. Call Migrate before use.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		pool:       pool,
		logger:     logger,
		People:     NewPersonRepository(pool),
		Ministries: NewMinistryRepository(pool),
		Services:   NewServiceRepository(pool),
		Schedules:  NewScheduleRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationFiles,
		"migrations",
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Status reports the applied and pending schema migrations.
func (s *Store) Status(ctx context.Context) (*migration.MigrationStatus, error) {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationFiles,
		"migrations",
		s.logger,
	)
	return manager.GetMigrationStatus(ctx)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}
