package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gulfdigital/backend/internal/config"
	"github.com/gulfdigital/backend/internal/model"
	"github.com/gulfdigital/backend/internal/repository"
	"github.com/gulfdigital/backend/migrations"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePG records statements and reports names in recorded as already applied.
type fakePG struct {
	mu       sync.Mutex
	recorded map[string]bool
	stmts    []string
	failOn   string
}

func (f *fakePG) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stmts = append(f.stmts, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") {
		name := args[0].(string)
		if f.recorded[name] {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		if f.recorded == nil {
			f.recorded = map[string]bool{}
		}
		f.recorded[name] = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	if strings.HasPrefix(sql, "DELETE FROM schema_migrations") {
		delete(f.recorded, args[0].(string))
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakePG) ran(substr string) int {
	n := 0
	for _, s := range f.stmts {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func TestPgMigrator_UpAppliesPending(t *testing.T) {
	db := &fakePG{}
	m := &pgMigrator{db: db, files: migrations.Postgres}

	if err := m.up(context.Background()); err != nil {
		t.Fatalf("up: %v", err)
	}
	if db.ran("CREATE TABLE IF NOT EXISTS contact_submissions") != 1 {
		t.Errorf("expected contact_submissions DDL to run once, statements: %v", db.stmts)
	}
	if !db.recorded["001_create_contact_submissions"] {
		t.Errorf("expected migration to be recorded, got %v", db.recorded)
	}

	// Second run is a no-op.
	if err := m.up(context.Background()); err != nil {
		t.Fatalf("second up: %v", err)
	}
	if db.ran("CREATE TABLE IF NOT EXISTS contact_submissions") != 1 {
		t.Error("applied migration must not run again")
	}
}

func TestPgMigrator_UpForgetsFailedMigration(t *testing.T) {
	db := &fakePG{failOn: "CREATE TABLE IF NOT EXISTS contact_submissions"}
	m := &pgMigrator{db: db, files: migrations.Postgres}

	if err := m.up(context.Background()); err == nil {
		t.Fatal("expected error from failing migration")
	}
	if db.recorded["001_create_contact_submissions"] {
		t.Error("failed migration must not stay recorded")
	}
}

func TestPgMigrator_ResetMarksEverything(t *testing.T) {
	db := &fakePG{}
	m := &pgMigrator{db: db, files: migrations.Postgres}
	ctx := context.Background()

	if err := m.dropAll(ctx); err != nil {
		t.Fatalf("dropAll: %v", err)
	}
	if err := m.consolidated(ctx); err != nil {
		t.Fatalf("consolidated: %v", err)
	}
	if db.ran("DROP TABLE IF EXISTS schema_migrations") != 1 {
		t.Errorf("expected drop-all to run, statements: %v", db.stmts)
	}
	files, _ := migrations.Up(migrations.Postgres)
	for _, f := range files {
		if !db.recorded[migrations.Name(f)] {
			t.Errorf("expected %s to be marked applied", f)
		}
	}
}

func TestRun_SQLiteAppliesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact.db")
	cfg := config.Config{StoreDriver: config.StoreSQLite, SQLitePath: path}

	if err := run(context.Background(), cfg, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err := repository.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	sub := &model.Submission{
		Name: "Jane", Email: "jane@example.com", Message: "Schema is in place.",
		Schema: model.SchemaBasic, Status: model.StatusNew,
	}
	if err := store.Create(context.Background(), sub); err != nil {
		t.Errorf("expected migrated table to accept inserts: %v", err)
	}
}

func TestRun_SQLiteRejectsReset(t *testing.T) {
	cfg := config.Config{StoreDriver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "contact.db")}
	for _, cmd := range []string{"reset", "fresh"} {
		err := run(context.Background(), cfg, cmd)
		if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER=postgres") {
			t.Errorf("%s: expected driver error, got %v", cmd, err)
		}
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	cfg := config.Config{StoreDriver: config.StoreSQLite, SQLitePath: filepath.Join(t.TempDir(), "contact.db")}
	if err := run(context.Background(), cfg, "sideways"); !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}
