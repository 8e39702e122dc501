package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gulfdigital/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSubmissionRepository is the PostgreSQL implementation of SubmissionRepository.
type PgSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubmissionRepository creates a PgSubmissionRepository backed by the given pool.
func NewPgSubmissionRepository(pool *pgxpool.Pool) *PgSubmissionRepository {
	return &PgSubmissionRepository{pool: pool}
}

var (
	_ SubmissionRepository = (*PgSubmissionRepository)(nil)
	_ DB                   = (*PgSubmissionRepository)(nil)
)

// Ping checks the database connection.
func (r *PgSubmissionRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Create inserts a contact_submissions row; the ID comes from the RETURNING clause.
func (r *PgSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contact_submissions (
			name, email, message, subject, company, phone, website, service,
			budget, timeline, location, price, page_url, ip_address, user_agent,
			schema_type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING id`,
		sub.Name, sub.Email, sub.Message, sub.Subject, sub.Company, sub.Phone, sub.Website, sub.Service,
		sub.Budget, sub.Timeline, sub.Location, sub.Price, sub.PageURL, sub.IPAddress, sub.UserAgent,
		string(sub.Schema), sub.Status, sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

// Get returns a submission by ID.
func (r *PgSubmissionRepository) Get(ctx context.Context, id string) (*model.Submission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM contact_submissions WHERE id = $1`, id)
	sub, err := scanPgSubmission(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sub, err
}

func scanPgSubmission(scan func(...any) error) (*model.Submission, error) {
	var s model.Submission
	var schema string
	if err := scan(&s.ID, &s.Name, &s.Email, &s.Message, &s.Subject, &s.Company, &s.Phone, &s.Website,
		&s.Service, &s.Budget, &s.Timeline, &s.Location, &s.Price, &s.PageURL, &s.IPAddress, &s.UserAgent,
		&schema, &s.Status, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Schema = model.Schema(schema)
	return &s, nil
}
