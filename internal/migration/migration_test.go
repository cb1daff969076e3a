package migration

import (
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/pulse/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func TestMigrationsSortedAndParsed(t *testing.T) {
	runner := NewRunner(setupTestDB(t), mapFS(map[string]string{
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"README.md":       "ignored",
	}), SQLite)

	migrations, err := runner.Migrations()
	if err != nil {
		t.Fatalf("Migrations() failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	for i, want := range []string{"init", "update", "another"} {
		if migrations[i].Version != i+1 || migrations[i].Name != want {
			t.Errorf("migration %d = (%d, %q), want (%d, %q)", i, migrations[i].Version, migrations[i].Name, i+1, want)
		}
	}
}

func TestMigrationFilenameValidation(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "missing underscore", files: map[string]string{"001.sql": "SELECT 1;"}},
		{name: "non-numeric version", files: map[string]string{"abc_init.sql": "SELECT 1;"}},
		{name: "zero version", files: map[string]string{"000_init.sql": "SELECT 1;"}},
		{name: "duplicate version", files: map[string]string{"001_a.sql": "SELECT 1;", "01_b.sql": "SELECT 1;"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(setupTestDB(t), mapFS(tt.files), SQLite)
			if _, err := runner.Migrations(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyFromScratchAndNoOp(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql":  "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);",
		"002_posts.sql": "CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER);",
	}), SQLite)

	count, err := runner.Apply(nil)
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}

	version, err := runner.CurrentVersion()
	if err != nil || version != 2 {
		t.Errorf("CurrentVersion() = %d, %v; want 2", version, err)
	}

	count, err = runner.Apply(nil)
	if err != nil || count != 0 {
		t.Errorf("second Apply() = %d, %v; want 0, nil", count, err)
	}
	if pending, _ := runner.Pending(); pending != 0 {
		t.Errorf("Pending() = %d, want 0", pending)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{
		"001_init.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY);",
		"002_broken.sql": "CREATE TABLE broken (id INTEGER PRIMARY KEY); INSERT INTO missing_table VALUES (1);",
	}), SQLite)

	count, err := runner.Apply(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if count != 1 {
		t.Errorf("applied = %d, want 1", count)
	}
	if version, _ := runner.CurrentVersion(); version != 1 {
		t.Errorf("version = %d after rollback, want 1", version)
	}
	var n int
	_ = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='broken'").Scan(&n)
	if n != 0 {
		t.Error("broken table survived the rollback")
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, mapFS(map[string]string{"001_init.sql": "SELECT 1;"}), SQLite)

	if err := runner.ValidateVersion(); err != nil {
		t.Fatalf("ValidateVersion() on fresh db: %v", err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (9)"); err != nil {
		t.Fatal(err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Error("expected error for a database newer than the build")
	}
	if _, err := runner.Apply(nil); err == nil {
		t.Error("Apply() should refuse a newer database")
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db := setupTestDB(t)
	runner := NewRunner(db, sub, SQLite)
	if _, err := runner.Apply(nil); err != nil {
		t.Fatalf("embedded migrations failed: %v", err)
	}
	for _, table := range []string{"settings", "pending_notifications", "deliveries"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil || n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}
