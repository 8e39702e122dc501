package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gulfdigital/backend/internal/model"
	"github.com/gulfdigital/backend/internal/repository"
	"github.com/gulfdigital/backend/internal/spam"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo       repository.SubmissionRepository
	classifier *spam.Classifier
	notifier   Notifier
	now        func() time.Time
}

// NewContactService creates a ContactService backed by the given repository.
// A nil classifier uses spam.Default().
func NewContactService(repo repository.SubmissionRepository, classifier *spam.Classifier, notifier Notifier) ContactService {
	if classifier == nil {
		classifier = spam.Default()
	}
	return &contactServiceImpl{
		repo:       repo,
		classifier: classifier,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Submit runs the spam check, stores the submission with status "new" and a
// server timestamp, then hands it to the notifier without waiting.
func (s *contactServiceImpl) Submit(ctx context.Context, sub *model.Submission) (SubmitResult, error) {
	if v := s.classifier.Check(sub.Name, sub.Email, sub.Message); v.Spam {
		slog.Warn("spam submission suppressed",
			"reason", v.Reason,
			"schema", sub.Schema,
			"name", sub.Name,
			"email", sub.Email,
			"ip", model.Deref(sub.IPAddress),
		)
		return SubmitResult{ID: uuid.NewString(), Suppressed: true}, nil
	}

	sub.Status = model.StatusNew
	sub.CreatedAt = s.now().UTC()
	if err := s.repo.Create(ctx, sub); err != nil {
		return SubmitResult{}, fmt.Errorf("persist submission: %w", err)
	}

	slog.Info("contact submission stored", "submission_id", sub.ID, "schema", sub.Schema)
	if s.notifier != nil {
		s.notifier.NotifySubmission(sub)
	}
	return SubmitResult{ID: sub.ID}, nil
}
