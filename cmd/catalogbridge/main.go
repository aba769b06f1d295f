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

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	pipelineHandler := pipeline.NewHandler(logger, pipelineService, pricingEngine, settingsService, supplierClient, productRepo, jobClient)
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		PipelineHandler: pipelineHandler,
		JobHandler:      jobHandler,
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
