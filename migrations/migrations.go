// Package migrations embeds the SQL schema so binaries do not depend on the
// working directory.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const (
	// DropAll removes every table, schema_migrations included.
	DropAll = "000_drop_all.sql"
	// Consolidated is the current Postgres schema in one file.
	Consolidated = "000_consolidated.sql"
)

//go:embed *.sql
var postgresFiles embed.FS

//go:embed sqlite/*.sql
var sqliteFiles embed.FS

// Postgres holds the numbered Postgres migrations plus DropAll and Consolidated.
var Postgres fs.FS = postgresFiles

// SQLite holds the numbered migrations for the SQLite store.
var SQLite fs.FS = mustSub(sqliteFiles, "sqlite")

// Up returns the *.up.sql file names in fsys in apply order.
func Up(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Name strips the .up.sql suffix, giving the key recorded in schema_migrations.
func Name(file string) string {
	return strings.TrimSuffix(file, ".up.sql")
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
