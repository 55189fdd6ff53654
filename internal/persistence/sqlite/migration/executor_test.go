package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(InMemoryTestSQLiteConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteExecutor_InitializeVersionTable(t *testing.T) {
	executor := NewSQLiteExecutor(setupTestDB(t))
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Errorf("InitializeVersionTable should be idempotent: %v", err)
	}
}

func TestSQLiteExecutor_ExecuteMigration_Success(t *testing.T) {
	db := setupTestDB(t)
	executor := NewSQLiteExecutor(db)
	ctx := context.Background()

	migration := Migration{
		Version: "001",
		SQL: `-- Description: people
CREATE TABLE people (id TEXT PRIMARY KEY, name TEXT NOT NULL);
INSERT INTO people (id, name) VALUES ('p1', 'Ada');`,
	}
	if err := executor.ExecuteMigration(ctx, migration); err != nil {
		t.Fatalf("ExecuteMigration failed: %v", err)
	}

	var name string
	if err := db.QueryRowContext(ctx, "SELECT name FROM people WHERE id = 'p1'").Scan(&name); err != nil {
		t.Fatalf("expected seeded row: %v", err)
	}
	if name != "Ada" {
		t.Errorf("expected Ada, got %s", name)
	}
}

func TestSQLiteExecutor_ExecuteMigration_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	executor := NewSQLiteExecutor(db)
	ctx := context.Background()

	migration := Migration{
		Version: "001",
		SQL: `CREATE TABLE people (id TEXT PRIMARY KEY);
INSERT INTO missing_table VALUES (1);`,
	}
	if err := executor.ExecuteMigration(ctx, migration); err == nil {
		t.Fatal("expected failure for invalid statement")
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE name = 'people'").Scan(&count); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 0 {
		t.Error("expected people table to be rolled back")
	}
}

func TestSQLiteExecutor_ExecuteMigration_EmptySQL(t *testing.T) {
	executor := NewSQLiteExecutor(setupTestDB(t))
	if err := executor.ExecuteMigration(context.Background(), Migration{Version: "001", SQL: "-- only a comment"}); err == nil {
		t.Fatal("expected error for migration without statements")
	}
}

func TestSQLiteExecutor_RecordAndList(t *testing.T) {
	executor := NewSQLiteExecutor(setupTestDB(t))
	executor.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	for _, m := range []Migration{{Version: "002", Checksum: "bbb"}, {Version: "001", Checksum: "aaa"}} {
		if err := executor.RecordMigration(ctx, m, 15*time.Millisecond); err != nil {
			t.Fatalf("RecordMigration %s failed: %v", m.Version, err)
		}
	}

	applied, err := executor.GetAppliedVersions(ctx)
	if err != nil {
		t.Fatalf("GetAppliedVersions failed: %v", err)
	}
	if len(applied) != 2 || applied[0].Version != "001" || applied[1].Version != "002" {
		t.Fatalf("unexpected applied versions: %+v", applied)
	}
	if applied[0].Checksum != "aaa" || applied[0].ExecutionTime != 15*time.Millisecond {
		t.Errorf("unexpected details: %+v", applied[0])
	}
	if !applied[0].AppliedAt.Equal(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected applied_at %v", applied[0].AppliedAt)
	}

	if err := executor.RecordMigration(ctx, Migration{Version: "001"}, 0); err == nil {
		t.Error("expected duplicate version to be rejected")
	}
}

func TestParseSQL(t *testing.T) {
	statements := parseSQL(`
-- header
CREATE TABLE a (id TEXT);

-- comment between
CREATE TABLE b (id TEXT);
;
`)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id TEXT)" {
		t.Errorf("unexpected first statement %q", statements[0])
	}
}
