// Command migrate applies the contact_submissions schema to the store
// selected by STORE_DRIVER.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gulfdigital/backend/internal/config"
	"github.com/gulfdigital/backend/internal/logging"
	"github.com/gulfdigital/backend/internal/repository"
	"github.com/gulfdigital/backend/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usageText = `Usage: migrate [command]

Commands:
  (default)   apply pending migrations
  reset       drop all tables and recreate from the consolidated schema (postgres only)
  fresh       drop all tables and apply every migration in order (postgres only)`

var errUsage = errors.New("unknown command")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(context.Background(), cfg, cmd); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usageText)
			os.Exit(2)
		}
		logging.Fatal("migrate failed", "driver", cfg.StoreDriver, "command", cmd, "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, cmd string) error {
	if cmd != "" && cmd != "reset" && cmd != "fresh" {
		return fmt.Errorf("%w %q", errUsage, cmd)
	}

	if cfg.StoreDriver == config.StoreSQLite {
		if cmd != "" {
			return fmt.Errorf("%s requires STORE_DRIVER=%s; delete %s to start over", cmd, config.StorePostgres, cfg.SQLitePath)
		}
		// Opening the store applies pending migrations.
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		slog.Info("sqlite schema up to date", "path", cfg.SQLitePath)
		return store.Close()
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	m := &pgMigrator{db: pool, files: migrations.Postgres}
	switch cmd {
	case "reset":
		if err := m.dropAll(ctx); err != nil {
			return err
		}
		return m.consolidated(ctx)
	case "fresh":
		if err := m.dropAll(ctx); err != nil {
			return err
		}
	}
	return m.up(ctx)
}

// pgExecer is the slice of *pgxpool.Pool the migrator uses.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ pgExecer = (*pgxpool.Pool)(nil)

type pgMigrator struct {
	db    pgExecer
	files fs.FS
}

func (m *pgMigrator) ensureTable(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (m *pgMigrator) exec(ctx context.Context, file string) error {
	ddl, err := fs.ReadFile(m.files, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	if _, err := m.db.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply %s: %w", file, err)
	}
	return nil
}

// up applies every migration not yet recorded in schema_migrations.
func (m *pgMigrator) up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	files, err := migrations.Up(m.files)
	if err != nil {
		return err
	}

	applied := 0
	for _, file := range files {
		name := migrations.Name(file)
		// The insert doubles as the applied check: a recorded name affects no rows.
		tag, err := m.db.Exec(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
		if err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		if err := m.exec(ctx, file); err != nil {
			_, _ = m.db.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, name)
			return err
		}
		applied++
		slog.Info("migration applied", "migration", name)
	}

	slog.Info("migrations complete", "applied", applied, "total", len(files))
	return nil
}

func (m *pgMigrator) dropAll(ctx context.Context) error {
	if err := m.exec(ctx, migrations.DropAll); err != nil {
		return err
	}
	slog.Info("all tables dropped")
	return nil
}

// consolidated loads the current schema in one step and marks every
// migration as applied.
func (m *pgMigrator) consolidated(ctx context.Context) error {
	if err := m.exec(ctx, migrations.Consolidated); err != nil {
		return err
	}
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	files, err := migrations.Up(m.files)
	if err != nil {
		return err
	}
	for _, file := range files {
		if _, err := m.db.Exec(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, migrations.Name(file)); err != nil {
			return fmt.Errorf("record %s: %w", file, err)
		}
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(files))
	return nil
}
