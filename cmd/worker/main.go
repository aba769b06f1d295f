package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/catalogbridge/catalogbridge/internal/app"
	"github.com/catalogbridge/catalogbridge/internal/catalog"
	"github.com/catalogbridge/catalogbridge/internal/overrides"
	"github.com/catalogbridge/catalogbridge/internal/pipeline"
	"github.com/catalogbridge/catalogbridge/internal/platform/cache"
	"github.com/catalogbridge/catalogbridge/internal/platform/db"
	"github.com/catalogbridge/catalogbridge/internal/pricing"
	"github.com/catalogbridge/catalogbridge/internal/settings"
	"github.com/catalogbridge/catalogbridge/internal/storefront"
	"github.com/catalogbridge/catalogbridge/internal/supplier"
	"github.com/catalogbridge/catalogbridge/jobs"
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

	productRepo := catalog.NewRepository(pool)

	pricingEngine := pricing.NewEngine(pricing.NewRepository(pool), logger)
	if err := pricingEngine.Reload(ctx); err != nil {
		logger.Error("load pricing rules", slog.Any("error", err))
		os.Exit(1)
	}

	settingsService := settings.NewService(settings.NewRepository(pool), productRepo, logger)

	supplierClient := supplier.NewHTTPClient(cfg.SupplierBaseURL, cfg.SupplierAPIKey, cfg.SupplierTimeout)
	storefrontClient := storefront.NewHTTPClient(cfg.ShopifyShopDomain, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion, cfg.ShopifyTimeout)

	var imageResolver overrides.ImageResolver = overrides.NewDisabledImages(logger)
	if cfg.FileStoreConfigured() {
		imageResolver = overrides.NewFileStoreImages(cfg.FileStoreBaseURL, cfg.FileStoreToken, cfg.FileStoreFolder, logger)
	}
	var variantResolver overrides.VariantResolver = overrides.NewDisabledVariants(logger)
	if cfg.TabularStoreConfigured() {
		variantResolver = overrides.NewTabularVariants(cfg.TabularStoreBaseURL, cfg.TabularStoreToken, cfg.TabularStoreSheet, redisClient, cfg.VariantCacheTTL, logger)
	}

	pipelineService := pipeline.NewService(pipeline.ServiceConfig{
		Logger:     logger,
		Products:   productRepo,
		Pricing:    pricingEngine,
		Settings:   settingsService,
		Supplier:   supplierClient,
		Storefront: storefrontClient,
		Images:     imageResolver,
		Variants:   variantResolver,
	})
	pipelineJob := pipeline.NewJob(pipelineService, logger)

	nightlyTask, err := jobs.NewPipelineTask(jobs.TaskCatalogSyncAll, jobs.TriggerPayload{TriggeredBy: "cron"})
	if err != nil {
		logger.Error("build nightly task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogIngest, Handler: pipelineJob.HandleIngest},
			{Type: jobs.TaskCatalogSync, Handler: pipelineJob.HandleSync},
			{Type: jobs.TaskCatalogReapplyPricing, Handler: pipelineJob.HandleReapplyPricing},
			{Type: jobs.TaskCatalogSyncAll, Handler: pipelineJob.HandleSyncAll},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SyncCron, Task: nightlyTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Queue(jobs.QueueDefault)}},
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
