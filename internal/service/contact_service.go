package service

import (
	"context"

	"github.com/gulfdigital/backend/internal/model"
)

// SubmitResult is the outcome of an accepted submission. When Suppressed is
// true the submission was classified as spam: ID is a placeholder that was
// never stored and nothing was sent.
type SubmitResult struct {
	ID         string
	Suppressed bool
}

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit classifies, stores and announces a validated submission.
	// Only a storage failure is returned as an error.
	Submit(ctx context.Context, sub *model.Submission) (SubmitResult, error)
}

// Notifier announces a stored submission. NotifySubmission must not block
// on delivery.
type Notifier interface {
	NotifySubmission(sub *model.Submission)
}
