package main

import (
	"context"
	"log/slog"
	"net/http"
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
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	subscriptionsRepo := subscriptions.NewRepository(pool)
	subscriptionsService := subscriptions.NewService(subscriptionsRepo, masterdataRepo)
	subscriptionsHandler := subscriptions.NewHandler(logger, subscriptionsService)

	usageRepo := usage.NewRepository(pool)
	usageService := usage.NewService(usageRepo)
	usageHandler := usage.NewHandler(logger, usageService)

	fxCache := fxrates.NewCache(redisClient, cfg.FxCacheTTL)
	fxRepo := fxrates.NewRepository(pool)
	fxService := fxrates.NewService(fxRepo, fxCache, logger)
	fxHandler := fxrates.NewHandler(logger, fxService)

	engine := billing.NewEngine(subscriptionsRepo, usageRepo)

	pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
	renderer := report.NewRenderer(pdfClient, cfg.StorageDir)

	sender := mail.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	emailLog := mail.NewLogRepository(pool)

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, masterdataRepo, renderer, sender, emailLog, cfg.StorageDir, logger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, masterdataRepo, engine, fxService, renderer, sender, emailLog, invoicesService, taxRate, logger)
	quotationsHandler := quotations.NewHandler(logger, quotationsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		MasterDataHandler:    masterdataHandler,
		SubscriptionsHandler: subscriptionsHandler,
		UsageHandler:         usageHandler,
		FxRatesHandler:       fxHandler,
		QuotationsHandler:    quotationsHandler,
		InvoicesHandler:      invoicesHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
