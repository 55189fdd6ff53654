package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/liturgical-scheduler/internal/application"
	"github.com/example/liturgical-scheduler/internal/config"
	"github.com/example/liturgical-scheduler/internal/notify"
	"github.com/example/liturgical-scheduler/internal/notify/whatsapp"
	"github.com/example/liturgical-scheduler/internal/persistence"
	"github.com/example/liturgical-scheduler/internal/persistence/memory"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite/migration"
	"github.com/example/liturgical-scheduler/internal/program"
)

// resolvedCacheEntries bounds the resolved service cache.
const resolvedCacheEntries = 128

// storage is one opened backend with its repositories.
type storage struct {
	people     persistence.PersonRepository
	ministries persistence.MinistryRepository
	services   persistence.ServiceRepository
	schedules  persistence.ScheduleRepository
	sqlite     *sqlite.Store
	close      func() error
}

// app holds the services shared by every command.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      *storage
	roster     *application.RosterService
	scheduling *application.SchedulingService
	texts      program.Texts
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// openApp loads configuration, opens and migrates the configured store and
// wires the application services over it.
func openApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	texts := program.DefaultTexts()
	if cfg.TextsFile != "" {
		texts, err = config.LoadTexts(cfg.TextsFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load liturgical texts", err)
		}
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open storage", err)
	}

	idGenerator := uuid.NewString
	now := time.Now

	people := newPersonRepositoryAdapter(store.people)
	ministries := newMinistryRepositoryAdapter(store.ministries)
	services := newServiceRepositoryAdapter(store.services)
	schedules := newScheduleRepositoryAdapter(store.schedules)
	cache := application.NewResolvedServiceCache(cfg.CacheTTL, resolvedCacheEntries, now)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		roster:     application.NewRosterServiceWithLogger(people, ministries, idGenerator, now, logger),
		scheduling: application.NewSchedulingServiceWithLogger(services, schedules, people, ministries, cache, idGenerator, now, logger),
		texts:      texts,
	}, nil
}

func (a *app) Close() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Store {
	case config.StoreMemory:
		mem := memory.Open()
		if err := mem.Migrate(ctx); err != nil {
			return nil, err
		}
		return &storage{people: mem, ministries: mem, services: mem, schedules: mem, close: mem.Close}, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLiteDSN), logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &storage{
			people:     store.People,
			ministries: store.Ministries,
			services:   store.Services,
			schedules:  store.Schedules,
			sqlite:     store,
			close:      store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newDispatcher builds the notification dispatcher used by serve and notify.
func (a *app) newDispatcher() *notify.Dispatcher {
	return notify.NewDispatcher(a.scheduling, notify.NewFormatter(a.cfg.Locale),
		notify.WithLogger(a.logger),
		notify.WithSendTimeout(a.cfg.GatewayTimeout),
	)
}

// openGateway returns the configured delivery gateway and a function that
// releases it. The WhatsApp gateway logs to diag and prints a pairing QR code
// there when the device is not linked yet.
func (a *app) openGateway(ctx context.Context, diag io.Writer) (notify.Gateway, func(), error) {
	switch a.cfg.Gateway {
	case config.GatewayWhatsApp:
		gw, err := whatsapp.New(ctx, whatsapp.Config{
			DataDir:            a.cfg.WhatsAppDataDir,
			DefaultCountryCode: a.cfg.DefaultCountryCode,
			LogOutput:          diag,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := gw.Connect(ctx, diag); err != nil {
			gw.Disconnect()
			return nil, nil, err
		}
		return gw, gw.Disconnect, nil
	default:
		return notify.NewLogGateway(a.logger), func() {}, nil
	}
}
