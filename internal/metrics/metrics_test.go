package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIntake_ObserveSubmission(t *testing.T) {
	m := NewIntake(prometheus.NewRegistry())

	m.ObserveSubmission(OutcomeAccepted, 20*time.Millisecond)
	m.ObserveSubmission(OutcomeAccepted, 30*time.Millisecond)
	m.ObserveSubmission(OutcomeRateLimited, time.Millisecond)

	if got := testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("accepted")); got != 2 {
		t.Errorf("accepted: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("rate_limited")); got != 1 {
		t.Errorf("rate_limited: expected 1, got %v", got)
	}
	if n := testutil.CollectAndCount(m.SubmitDuration); n != 2 {
		t.Errorf("expected 2 histogram series, got %d", n)
	}
}

func TestIntake_ObserveNotification(t *testing.T) {
	m := NewIntake(prometheus.NewRegistry())

	m.ObserveNotification("contact-confirmation", true)
	m.ObserveNotification("contact-admin-alert", false)

	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("contact-confirmation", "sent")); got != 1 {
		t.Errorf("expected 1 sent confirmation, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("contact-admin-alert", "failed")); got != 1 {
		t.Errorf("expected 1 failed alert, got %v", got)
	}
}

func TestIntake_NilIsNoop(t *testing.T) {
	var m *Intake
	m.ObserveSubmission(OutcomeAccepted, time.Second)
	m.ObserveNotification("contact-confirmation", true)
	m.ObserveRateLimiterError()
}

func TestNewIntake_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewIntake(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewIntake(reg)
}
