package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/liturgical-scheduler/internal/persistence"
	"github.com/example/liturgical-scheduler/internal/persistence/memory"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite"
	"github.com/example/liturgical-scheduler/internal/persistence/sqlite/migration"
)

// StoreHarness exposes one migrated backend through the persistence
// repository interfaces.
type StoreHarness struct {
	People     persistence.PersonRepository
	Ministries persistence.MinistryRepository
	Services   persistence.ServiceRepository
	Schedules  persistence.ScheduleRepository
}

// Backend names a harness constructor.
type Backend struct {
	Name string
	Open func(tb testing.TB) *StoreHarness
}

// Backends lists every storage implementation. Contract tests run against
// each of them.
func Backends() []Backend {
	return []Backend{
		{Name: "memory", Open: NewMemoryHarness},
		{Name: "sqlite", Open: NewSQLiteHarness},
	}
}

// NewMemoryHarness returns a harness over an empty in-memory store.
func NewMemoryHarness(tb testing.TB) *StoreHarness {
	tb.Helper()
	store := memory.Open()
	tb.Cleanup(func() { _ = store.Close() })
	return &StoreHarness{People: store, Ministries: store, Services: store, Schedules: store}
}

// NewSQLiteHarness returns a harness over a migrated SQLite file in a
// temporary directory. The store is closed when the test ends.
func NewSQLiteHarness(tb testing.TB) *StoreHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "liturgy.db")
	store, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	return &StoreHarness{
		People:     store.People,
		Ministries: store.Ministries,
		Services:   store.Services,
		Schedules:  store.Schedules,
	}
}

// Seed stores the given people and ministries, failing the test on error.
func (h *StoreHarness) Seed(tb testing.TB, people []PersonFixture, ministries []MinistryFixture) {
	tb.Helper()
	ctx := context.Background()
	for _, p := range people {
		if err := h.People.CreatePerson(ctx, p.Persistence()); err != nil {
			tb.Fatalf("seed person %s: %v", p.ID, err)
		}
	}
	for _, m := range ministries {
		if err := h.Ministries.CreateMinistry(ctx, m.Persistence()); err != nil {
			tb.Fatalf("seed ministry %s: %v", m.ID, err)
		}
	}
}
