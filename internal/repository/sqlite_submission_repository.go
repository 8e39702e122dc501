package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gulfdigital/backend/internal/model"
	"github.com/gulfdigital/backend/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteSubmissionRepository stores submissions in a local SQLite file.
// It is meant for development and single-instance deployments.
type SQLiteSubmissionRepository struct {
	db *sql.DB
}

var (
	_ SubmissionRepository = (*SQLiteSubmissionRepository)(nil)
	_ DB                   = (*SQLiteSubmissionRepository)(nil)
)

// OpenSQLite opens (or creates) the database at path and applies pending
// migrations. path may carry its own query parameters.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSubmissionRepository, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSubmissionRepository{db: db}, nil
}

// sqliteDSN turns a file path into a file: URI with the connection pragmas
// added ahead of any parameters the path already carries.
func sqliteDSN(path string) (string, error) {
	file, rawQuery, _ := strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	if file == "" {
		return "", errors.New("sqlite path is empty")
	}
	extra, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite path %q: %w", path, err)
	}

	query := url.Values{}
	query.Add("_pragma", "busy_timeout(5000)")
	query.Add("_pragma", "journal_mode(WAL)")
	for k, vs := range extra {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: file}).EscapedPath(), RawQuery: query.Encode()}
	return u.String(), nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := migrations.Up(migrations.SQLite)
	if err != nil {
		return err
	}
	for _, file := range files {
		name := migrations.Name(file)

		var applied int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		ddl, err := fs.ReadFile(migrations.SQLite, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database.
func (r *SQLiteSubmissionRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection.
func (r *SQLiteSubmissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create inserts sub with a newly generated UUID.
func (r *SQLiteSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_submissions (`+submissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sub.Name, sub.Email, sub.Message, sub.Subject, sub.Company, sub.Phone, sub.Website, sub.Service,
		sub.Budget, sub.Timeline, sub.Location, sub.Price, sub.PageURL, sub.IPAddress, sub.UserAgent,
		string(sub.Schema), sub.Status, sub.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	sub.ID = id
	return nil
}

// Get returns a submission by ID.
func (r *SQLiteSubmissionRepository) Get(ctx context.Context, id string) (*model.Submission, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM contact_submissions WHERE id = ?`, id)

	var s model.Submission
	var schema, createdAt string
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Message, &s.Subject, &s.Company, &s.Phone, &s.Website,
		&s.Service, &s.Budget, &s.Timeline, &s.Location, &s.Price, &s.PageURL, &s.IPAddress, &s.UserAgent,
		&schema, &s.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Schema = model.Schema(schema)
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &s, nil
}
