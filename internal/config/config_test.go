package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != StorePostgres || cfg.RateLimitBackend != RateLimitMemory || cfg.MailDriver != MailLog {
		t.Errorf("unexpected drivers: %q %q %q", cfg.StoreDriver, cfg.RateLimitBackend, cfg.MailDriver)
	}
	if cfg.RateLimitMax != 5 || cfg.RateLimitWindow != 15*time.Minute {
		t.Errorf("unexpected rate limit %d per %v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.NotifyTimeout != 30*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected timeouts %v %v", cfg.NotifyTimeout, cfg.ShutdownTimeout)
	}
	if cfg.MailSendRate != 1 {
		t.Errorf("expected send rate 1, got %v", cfg.MailSendRate)
	}
	if cfg.NeedsAWS() {
		t.Error("defaults must not need AWS")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(envMap(map[string]string{
		"PORT":               "9000",
		"STORE_DRIVER":       "SQLite",
		"SQLITE_PATH":        "/var/lib/contact/contact.db",
		"RATE_LIMIT_BACKEND": "dynamodb",
		"RATE_LIMIT_MAX":     "10",
		"RATE_LIMIT_WINDOW":  "1h",
		"MAIL_DRIVER":        "ses",
		"MAIL_FROM":          "hello@gulfdigital.example",
		"ADMIN_EMAILS":       " leads@gulfdigital.example, ,ops@gulfdigital.example",
		"MAIL_SEND_RATE":     "14",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.StoreDriver != StoreSQLite || cfg.SQLitePath != "/var/lib/contact/contact.db" {
		t.Errorf("unexpected store settings %+v", cfg)
	}
	if cfg.RateLimitMax != 10 || cfg.RateLimitWindow != time.Hour {
		t.Errorf("unexpected rate limit %d per %v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if got := strings.Join(cfg.AdminEmails, ","); got != "leads@gulfdigital.example,ops@gulfdigital.example" {
		t.Errorf("unexpected admin emails %q", got)
	}
	if cfg.MailSendRate != 14 {
		t.Errorf("expected send rate 14, got %v", cfg.MailSendRate)
	}
	if !cfg.NeedsAWS() {
		t.Error("expected NeedsAWS with dynamodb and ses")
	}
}

func TestLoad_AdminEmailsDefaultToSender(t *testing.T) {
	cfg, err := load(envMap(map[string]string{"MAIL_FROM": "hello@gulfdigital.example"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.AdminEmails) != 1 || cfg.AdminEmails[0] != "hello@gulfdigital.example" {
		t.Errorf("expected admin emails to default to MAIL_FROM, got %v", cfg.AdminEmails)
	}
}

func TestLoad_CollectsErrors(t *testing.T) {
	_, err := load(envMap(map[string]string{
		"STORE_DRIVER":      "mysql",
		"RATE_LIMIT_MAX":    "0",
		"RATE_LIMIT_WINDOW": "soon",
		"MAIL_SEND_RATE":    "-1",
		"MAIL_DRIVER":       "ses",
	}))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"STORE_DRIVER", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW", "MAIL_SEND_RATE", "MAIL_FROM is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s: %v", want, err)
		}
	}
}
