package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gits-cloud/billing/internal/app"
	"github.com/gits-cloud/billing/internal/billing"
	"github.com/gits-cloud/billing/internal/fxrates"
	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/mail"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/platform/cache"
	"github.com/gits-cloud/billing/internal/platform/db"
	"github.com/gits-cloud/billing/internal/quotations"
	"github.com/gits-cloud/billing/internal/subscriptions"
	"github.com/gits-cloud/billing/internal/usage"
	"github.com/gits-cloud/billing/jobs"
	"github.com/gits-cloud/billing/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	taxRate, err := cfg.TaxRate()
	if err != nil {
		logger.Error("parse tax rate", slog.Any("error", err))
		os.Exit(1)
	}

	masterdataRepo := masterdata.NewRepository(pool)
	subscriptionsRepo := subscriptions.NewRepository(pool)
	usageRepo := usage.NewRepository(pool)

	fxCache := fxrates.NewCache(redisClient, cfg.FxCacheTTL)
	fxRepo := fxrates.NewRepository(pool)
	fxService := fxrates.NewService(fxRepo, fxCache, logger)

	engine := billing.NewEngine(subscriptionsRepo, usageRepo)

	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	renderer := report.NewRenderer(pdfClient, cfg.StorageDir)

	sender := mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	emailLog := mail.NewLogRepository(pool)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, masterdataRepo, renderer, sender, emailLog, cfg.StorageDir, logger)

	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, masterdataRepo, engine, fxService, renderer, sender, emailLog, invoicesService, taxRate, logger)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	generateTask, err := jobs.NewGenerateQuotationsTask(time.Time{})
	if err != nil {
		logger.Error("build generate task", slog.Any("error", err))
		os.Exit(1)
	}
	overdueTask, err := jobs.NewOverdueRemindersTask(time.Time{})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(sender, emailLog, logger)},
			{Type: jobs.TaskTypeGenerateQuotations, Handler: jobs.NewGenerateQuotationsHandler(masterdataRepo, subscriptionsRepo, quotationsService, logger)},
			{Type: jobs.TaskTypeOverdueReminders, Handler: jobs.NewOverdueRemindersHandler(invoicesService, masterdataRepo, queueClient, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.CronGenerateQuotations, Task: generateTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: jobs.CronOverdueReminders, Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
