// Package metrics exposes Prometheus instrumentation for the contact intake
// pipeline. All methods are safe on a nil *Intake so callers may run without
// metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contact"

// Outcome is the terminal state of one intake request.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeSpamSuppressed   Outcome = "spam_suppressed"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeMethodNotAllowed Outcome = "method_not_allowed"
	OutcomeInternalError    Outcome = "internal_error"
)

// Intake holds the pipeline's collectors.
type Intake struct {
	// SubmissionsTotal counts requests by terminal outcome.
	SubmissionsTotal *prometheus.CounterVec
	// NotificationsTotal counts email attempts by template and status (sent, failed).
	NotificationsTotal *prometheus.CounterVec
	// SubmitDuration measures time from request to response by outcome.
	SubmitDuration *prometheus.HistogramVec
	// RateLimiterErrors counts limiter backend failures (requests fail open).
	RateLimiterErrors prometheus.Counter
}

// NewIntake creates and registers the collectors on reg.
// Registering twice on the same registry panics.
func NewIntake(reg prometheus.Registerer) *Intake {
	f := promauto.With(reg)
	return &Intake{
		SubmissionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Contact form requests by outcome",
			},
			[]string{"outcome"},
		),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification emails by template and status",
			},
			[]string{"template", "status"},
		),
		SubmitDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submit_duration_seconds",
				Help:      "Contact request handling time in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"outcome"},
		),
		RateLimiterErrors: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limiter_errors_total",
				Help:      "Rate limiter backend failures",
			},
		),
	}
}

// ObserveSubmission records one finished request.
func (m *Intake) ObserveSubmission(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(string(outcome)).Inc()
	m.SubmitDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// ObserveNotification records one email attempt.
func (m *Intake) ObserveNotification(template string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.NotificationsTotal.WithLabelValues(template, status).Inc()
}

// ObserveRateLimiterError records a limiter backend failure.
func (m *Intake) ObserveRateLimiterError() {
	if m == nil {
		return
	}
	m.RateLimiterErrors.Inc()
}
