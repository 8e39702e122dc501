package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gulfdigital/backend/internal/metrics"
	"github.com/gulfdigital/backend/internal/model"
	"golang.org/x/time/rate"
)

// Config controls sender identity and pacing.
type Config struct {
	From        string
	AdminEmails []string
	SiteName    string
	// SendRate is the provider quota in messages per second. Zero means unlimited.
	SendRate float64
	// Timeout bounds each detached send, including time spent waiting on SendRate.
	Timeout time.Duration
}

// Envelope addresses one templated email. An empty From uses Config.From.
type Envelope struct {
	To      []string
	ReplyTo []string
	Subject string
	From    string
}

// SendResult reports the outcome of one send. Error is empty on success.
type SendResult struct {
	Success bool
	Error   string
}

// Dispatcher renders and sends contact emails.
type Dispatcher struct {
	mailer    Mailer
	templates *Templates
	cfg       Config
	limiter   *rate.Limiter
	metrics   *metrics.Intake

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(mailer Mailer, cfg Config, m *metrics.Intake) (*Dispatcher, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}
	return &Dispatcher{
		mailer:    mailer,
		templates: templates,
		cfg:       cfg,
		// Burst of two lets both emails for one submission go out together.
		limiter: rate.NewLimiter(limit, 2),
		metrics: m,
	}, nil
}

// SendTemplatedEmail renders template name with data and sends it. It blocks
// until the provider answers or ctx is done.
func (d *Dispatcher) SendTemplatedEmail(ctx context.Context, name string, data any, env Envelope) SendResult {
	if err := d.send(ctx, name, data, env); err != nil {
		return SendResult{Error: err.Error()}
	}
	return SendResult{Success: true}
}

func (d *Dispatcher) send(ctx context.Context, name string, data any, env Envelope) error {
	if len(env.To) == 0 {
		return errors.New("no recipients")
	}
	html, text, err := d.templates.Render(name, data)
	if err != nil {
		return err
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send quota: %w", err)
	}

	from := env.From
	if from == "" {
		from = d.cfg.From
	}
	return d.mailer.Send(ctx, Message{
		From:    from,
		To:      env.To,
		ReplyTo: env.ReplyTo,
		Subject: env.Subject,
		HTML:    html,
		Text:    text,
	})
}

// NotifySubmission starts the sender confirmation and the operator alert
// for a stored submission and returns immediately. Each send runs in its own
// goroutine with its own timeout; outcomes are logged and never reported to
// the caller.
func (d *Dispatcher) NotifySubmission(sub *model.Submission) {
	view := NewSubmissionView(sub, d.cfg.SiteName)

	d.dispatch(sub.ID, TemplateConfirmation, view, Envelope{
		To:      []string{sub.Email},
		Subject: "Thanks for contacting " + d.cfg.SiteName,
	})
	d.dispatch(sub.ID, TemplateAdminAlert, view, Envelope{
		To:      d.cfg.AdminEmails,
		ReplyTo: []string{sub.Email},
		Subject: fmt.Sprintf("New contact form submission from %s", sub.Name),
	})
}

func (d *Dispatcher) dispatch(submissionID, name string, data any, env Envelope) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()

		res := d.SendTemplatedEmail(ctx, name, data, env)
		d.metrics.ObserveNotification(name, res.Success)
		if !res.Success {
			slog.Error("notification failed",
				"template", name,
				"submission_id", submissionID,
				"to", strings.Join(env.To, ","),
				"error", res.Error,
			)
			return
		}
		slog.Info("notification sent",
			"template", name,
			"submission_id", submissionID,
			"to", strings.Join(env.To, ","),
		)
	}()
}

// Drain waits for in-flight sends to finish or for ctx to be done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
