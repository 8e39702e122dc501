package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/gulfdigital/backend/internal/config"
	"github.com/gulfdigital/backend/internal/handler"
	"github.com/gulfdigital/backend/internal/logging"
	"github.com/gulfdigital/backend/internal/metrics"
	"github.com/gulfdigital/backend/internal/notify"
	"github.com/gulfdigital/backend/internal/ratelimit"
	"github.com/gulfdigital/backend/internal/repository"
	"github.com/gulfdigital/backend/internal/service"
	"github.com/gulfdigital/backend/internal/spam"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// store is what the server needs from a submission backend.
type store interface {
	repository.SubmissionRepository
	repository.DB
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("invalid configuration", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to open submission store", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeDB()

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logging.Fatal("failed to load AWS config", "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewIntake(reg)

	limiter, sweeper := newLimiter(cfg, awsCfg)

	dispatcher, err := notify.NewDispatcher(newMailer(cfg, awsCfg), notify.Config{
		From:        cfg.MailFrom,
		AdminEmails: cfg.AdminEmails,
		SiteName:    cfg.SiteName,
		SendRate:    cfg.MailSendRate,
		Timeout:     cfg.NotifyTimeout,
	}, m)
	if err != nil {
		logging.Fatal("failed to load email templates", "error", err)
	}

	contactService := service.NewContactService(db, spam.Default(), dispatcher)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.Routes(
			handler.New(db, cfg.FrontendURL),
			handler.NewContactHandler(contactService, limiter, m),
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening",
			"addr", server.Addr,
			"store", cfg.StoreDriver,
			"rate_limit", cfg.RateLimitBackend,
			"mail", cfg.MailDriver,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if sweeper != nil {
		g.Go(func() error { return sweeper.Run(gctx, time.Minute) })
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		// Accepted submissions may still have emails in flight.
		if err := dispatcher.Drain(shutdownCtx); err != nil {
			slog.Warn("notifications still in flight at exit", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Fatal("server error", "error", err)
	}
	slog.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.Config) (store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		repo, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPgSubmissionRepository(pool), pool.Close, nil
	}
}

// newLimiter returns the configured limiter. The sweeper is non-nil only for
// the in-process limiter; DynamoDB expires records through its TTL.
func newLimiter(cfg config.Config, awsCfg aws.Config) (ratelimit.Limiter, *ratelimit.Memory) {
	if cfg.RateLimitBackend == config.RateLimitDynamoDB {
		client := dynamodb.NewFromConfig(awsCfg)
		return ratelimit.NewDynamoLimiter(client, cfg.RateLimitTable, cfg.RateLimitMax, cfg.RateLimitWindow, nil), nil
	}
	mem := ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow, nil)
	return mem, mem
}

func newMailer(cfg config.Config, awsCfg aws.Config) notify.Mailer {
	if cfg.MailDriver == config.MailSES {
		return notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), cfg.SESConfigurationSet)
	}
	return notify.LogMailer{}
}
