package repository

import (
	"context"

	"github.com/gulfdigital/backend/internal/model"
)

// DB reports whether the underlying store is reachable.
type DB interface {
	Ping(ctx context.Context) error
}

// SubmissionRepository persists contact submissions. Records are only ever
// inserted by the intake pipeline; status changes belong to the admin tooling.
type SubmissionRepository interface {
	// Create inserts sub and sets sub.ID. CreatedAt and Status are written
	// as given.
	Create(ctx context.Context, sub *model.Submission) error
	// Get returns the submission with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Submission, error)
}
