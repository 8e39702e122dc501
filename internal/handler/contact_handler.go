package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gulfdigital/backend/internal/metrics"
	"github.com/gulfdigital/backend/internal/model"
	"github.com/gulfdigital/backend/internal/ratelimit"
	"github.com/gulfdigital/backend/internal/service"
	"github.com/gulfdigital/backend/internal/validation"
)

const maxContactBodyBytes = 64 << 10

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	contactService service.ContactService
	limiter        ratelimit.Limiter
	metrics        *metrics.Intake
}

// NewContactHandler creates a ContactHandler. m may be nil.
func NewContactHandler(contactService service.ContactService, limiter ratelimit.Limiter, m *metrics.Intake) *ContactHandler {
	return &ContactHandler{contactService: contactService, limiter: limiter, metrics: m}
}

// contactResponse is the envelope for every /api/contact response.
type contactResponse struct {
	Success bool         `json:"success"`
	Data    *contactData `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message"`
}

type contactData struct {
	SubmissionID string `json:"submissionId"`
}

// Contact handles /api/contact. Only POST is accepted.
func (h *ContactHandler) Contact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := h.contact(w, r)
	h.metrics.ObserveSubmission(outcome, time.Since(start))
}

func (h *ContactHandler) contact(w http.ResponseWriter, r *http.Request) metrics.Outcome {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, contactResponse{
			Error:   "Method not allowed",
			Message: "Use POST to submit the contact form",
		})
		return metrics.OutcomeMethodNotAllowed
	}

	key := ratelimit.ClientKey(r)
	decision, err := h.limiter.Allow(r.Context(), key)
	switch {
	case err != nil:
		// Fail open: a limiter outage must not block legitimate enquiries.
		h.metrics.ObserveRateLimiterError()
		slog.Error("rate limiter unavailable", "client", key, "error", err)
	case decision.Limited:
		slog.Warn("contact rate limited", "client", key, "count", decision.Count)
		w.Header().Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, contactResponse{
			Error:   "Rate limit exceeded",
			Message: "Too many submissions. Please try again later.",
		})
		return metrics.OutcomeRateLimited
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContactBodyBytes))
	if err != nil {
		msg := "request body could not be read"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "request body is too large"
		}
		writeJSON(w, http.StatusBadRequest, contactResponse{
			Error:   msg,
			Message: "Validation failed",
		})
		return metrics.OutcomeValidationFailed
	}

	result, err := validation.Validate(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, contactResponse{
			Error:   err.Error(),
			Message: "Validation failed",
		})
		return metrics.OutcomeValidationFailed
	}

	sub := result.Submission()
	if key != ratelimit.UnknownClient {
		sub.IPAddress = model.StringPtr(key)
	}
	sub.UserAgent = model.StringPtr(r.UserAgent())

	res, err := h.contactService.Submit(r.Context(), sub)
	if err != nil {
		slog.Error("contact submission failed", "schema", result.Schema, "client", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, contactResponse{
			Error:   "Internal server error",
			Message: "Something went wrong. Please try again later.",
		})
		return metrics.OutcomeInternalError
	}

	writeJSON(w, http.StatusOK, contactResponse{
		Success: true,
		Data:    &contactData{SubmissionID: res.ID},
		Message: "Thank you for your message. We'll be in touch soon.",
	})
	if res.Suppressed {
		return metrics.OutcomeSpamSuppressed
	}
	return metrics.OutcomeAccepted
}
